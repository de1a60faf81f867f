package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"anoa.com/blogapp/internal/entity"
	migrationDto "anoa.com/blogapp/internal/modules/migration/dto"
	migrationRepo "anoa.com/blogapp/internal/modules/migration/repository"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/metrics"
	"anoa.com/blogapp/pkg/password"
	"anoa.com/blogapp/pkg/validator"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// TempPassword is given to legacy users that had no password.
	TempPassword = "TempPassword123!"
	// TempResetPassword is given to legacy users whose password was already
	// hashed; they are expected to reset it.
	TempResetPassword = "TempResetPassword123!"

	lockKey        = "migration:users:lock"
	defaultLockTTL = 10 * time.Minute
	maxUsernameLen = 50

	statusRequired  = "Migration Required"
	statusCompleted = "Migration Completed"
)

// releaseLock deletes the lock only while it still holds this run's token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var ErrMigrationInProgress = apperror.New(apperror.ErrConflict, "a user migration or rollback is already running")

type MigrationService interface {
	MigrateUsers(ctx context.Context) (*migrationDto.MigrationResult, error)
	Status(ctx context.Context) (*migrationDto.MigrationStatus, error)
	Rollback(ctx context.Context) (*migrationDto.RollbackResult, error)
}

// ResetTokenIssuer creates password reset tokens for migrated accounts.
type ResetTokenIssuer interface {
	IssueResetToken(user *entity.User) (string, error)
}

type Options struct {
	LegacyTable string
	BackupTable string
	LockTTL     time.Duration
}

type migrationService struct {
	repo        migrationRepo.MigrationRepository
	users       userRepo.UserRepository
	hasher      password.Hasher
	tokens      ResetTokenIssuer
	redisClient *redis.Client
	opts        Options
	mu          sync.Mutex
}

// NewMigrationService builds the service. tokens and redisClient may be nil.
func NewMigrationService(repo migrationRepo.MigrationRepository, users userRepo.UserRepository, hasher password.Hasher, tokens ResetTokenIssuer, redisClient *redis.Client, opts Options) MigrationService {
	if opts.LegacyTable == "" {
		opts.LegacyTable = "legacy_users"
	}
	if opts.BackupTable == "" {
		opts.BackupTable = opts.LegacyTable + "_backup"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &migrationService{
		repo:        repo,
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		redisClient: redisClient,
		opts:        opts,
	}
}

func (s *migrationService) MigrateUsers(ctx context.Context) (*migrationDto.MigrationResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := logger.Log.WithField("table", s.opts.LegacyTable)
	log.Warn("user migration started")

	result := &migrationDto.MigrationResult{FailedUsers: []migrationDto.FailedMigration{}}

	if !s.repo.HasTable(ctx, s.opts.LegacyTable) {
		result.GeneralError = "legacy users table not found"
		return s.finish(result), nil
	}

	legacyUsers, err := s.repo.ListLegacyUsers(ctx, s.opts.LegacyTable)
	if err != nil {
		log.WithError(err).Error("failed to read legacy users")
		result.GeneralError = err.Error()
		return s.finish(result), nil
	}
	log.WithField("count", len(legacyUsers)).Info("legacy users found")

	for i := range legacyUsers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		legacy := &legacyUsers[i]
		entry := log.WithFields(logrus.Fields{"email": legacy.Email, "legacy_id": legacy.UserID})

		skipped, err := s.migrateUser(ctx, legacy)
		switch {
		case err != nil:
			result.FailedCount++
			metrics.MigrationUsers.WithLabelValues(metrics.OutcomeFailed).Inc()
			result.FailedUsers = append(result.FailedUsers, migrationDto.FailedMigration{
				Email: legacy.Email,
				Error: err.Error(),
			})
			entry.WithError(err).Error("failed to migrate user")
		case skipped:
			result.SkippedCount++
			metrics.MigrationUsers.WithLabelValues(metrics.OutcomeSkipped).Inc()
			entry.Warn("account already exists, skipping")
		default:
			result.MigratedCount++
			metrics.MigrationUsers.WithLabelValues(metrics.OutcomeMigrated).Inc()
			entry.Info("user migrated")
		}
	}

	if err := s.repo.Transaction(ctx, func(tx migrationRepo.MigrationRepository) error {
		if err := tx.RemapToAccounts(ctx); err != nil {
			return err
		}
		if tx.HasTable(ctx, s.opts.BackupTable) {
			log.WithField("backup", s.opts.BackupTable).Warn("backup table already exists, keeping legacy table")
			return nil
		}
		return tx.RenameTable(ctx, s.opts.LegacyTable, s.opts.BackupTable)
	}); err != nil {
		log.WithError(err).Error("failed to update foreign keys")
		result.GeneralError = err.Error()
	}

	return s.finish(result), nil
}

func (s *migrationService) finish(result *migrationDto.MigrationResult) *migrationDto.MigrationResult {
	result.Success = result.FailedCount == 0 && result.GeneralError == ""
	if result.Success {
		result.Message = fmt.Sprintf("Successfully migrated %d users to the account system", result.MigratedCount)
	} else {
		result.Message = "Migration completed with errors"
	}

	logger.Log.WithFields(logrus.Fields{
		"migrated": result.MigratedCount,
		"skipped":  result.SkippedCount,
		"failed":   result.FailedCount,
		"success":  result.Success,
	}).Info("user migration finished")
	return result
}

// migrateUser creates the account for one legacy row. It reports skipped
// when an account with the same email already exists.
func (s *migrationService) migrateUser(ctx context.Context, legacy *entity.LegacyUser) (bool, error) {
	exists, err := s.users.EmailExists(ctx, legacy.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	if err := s.checkUsername(ctx, legacy.Username); err != nil {
		return false, err
	}

	plain, needsReset := choosePassword(legacy.Password)
	if err := password.Validate(plain); err != nil {
		return false, fmt.Errorf("Failed to create user: %w", err)
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return false, err
	}

	legacyID := legacy.UserID
	user := &entity.User{
		Username:       legacy.Username,
		Email:          legacy.Email,
		EmailConfirmed: true,
		PasswordHash:   hash,
		ProfilePicture: legacy.ProfilePicture,
		Bio:            legacy.Bio,
		IsActive:       true,
		LegacyUserID:   &legacyID,
		CreatedAt:      legacy.CreateDate,
	}
	if err := s.users.CreateWithRoles(ctx, user, entity.RoleUser); err != nil {
		return false, fmt.Errorf("Failed to create user: %w", err)
	}

	if needsReset {
		s.issueResetToken(user)
	}
	return false, nil
}

func (s *migrationService) checkUsername(ctx context.Context, name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLen || !validator.IsAccountUsername(name) {
		return fmt.Errorf("Failed to create user: Username '%s' is invalid, can only contain letters or digits.", name)
	}
	taken, err := s.users.UsernameExists(ctx, name, 0)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("Failed to create user: Username '%s' is already taken.", name)
	}
	return nil
}

// issueResetToken logs a reset token for an account whose legacy password
// could not be carried over. There is no mail delivery.
func (s *migrationService) issueResetToken(user *entity.User) {
	if s.tokens == nil {
		return
	}
	token, err := s.tokens.IssueResetToken(user)
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Warn("failed to generate password reset token")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"email":       user.Email,
		"reset_token": token,
	}).Info("password reset token generated")
}

// choosePassword picks the initial password for a legacy account and
// reports whether the user has to reset it.
func choosePassword(legacy *string) (string, bool) {
	if legacy == nil || *legacy == "" {
		return TempPassword, false
	}
	if looksPlaintext(*legacy) {
		return *legacy, false
	}
	return TempResetPassword, true
}

func looksPlaintext(p string) bool {
	return len(p) < 50 && !strings.Contains(p, "$") && !strings.HasPrefix(p, "{")
}

func (s *migrationService) Status(ctx context.Context) (*migrationDto.MigrationStatus, error) {
	status := &migrationDto.MigrationStatus{}

	var err error
	if s.repo.HasTable(ctx, s.opts.LegacyTable) {
		if status.LegacyUsersCount, err = s.repo.CountRows(ctx, s.opts.LegacyTable); err != nil {
			return nil, err
		}

		if status.PendingUsersCount, err = s.repo.CountPendingLegacyUsers(ctx, s.opts.LegacyTable); err != nil {
			return nil, err
		}
	}

	if status.IdentityUsersCount, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if status.MigratedUsersCount, err = s.repo.CountMigratedUsers(ctx); err != nil {
		return nil, err
	}
	status.BackupTableExists = s.repo.HasTable(ctx, s.opts.BackupTable)
	status.MigrationNeeded = status.PendingUsersCount > 0
	status.Status = statusCompleted
	if status.MigrationNeeded {
		status.Status = statusRequired
	}
	return status, nil
}

func (s *migrationService) Rollback(ctx context.Context) (*migrationDto.RollbackResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger.Log.Warn("user migration rollback started")

	result := &migrationDto.RollbackResult{}
	err = s.repo.Transaction(ctx, func(tx migrationRepo.MigrationRepository) error {
		if err := tx.RemapToLegacy(ctx); err != nil {
			return err
		}
		removed, err := tx.DeleteMigratedUsers(ctx)
		if err != nil {
			return err
		}
		result.RemovedUsers = removed

		if !tx.HasTable(ctx, s.opts.LegacyTable) && tx.HasTable(ctx, s.opts.BackupTable) {
			if err := tx.RenameTable(ctx, s.opts.BackupTable, s.opts.LegacyTable); err != nil {
				return err
			}
			result.TableRestored = true
		}
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).Error("user migration rollback failed")
		return nil, err
	}

	result.Success = true
	result.Message = "Migration successfully rolled back"
	logger.Log.WithFields(logrus.Fields{
		"removed_users":  result.RemovedUsers,
		"table_restored": result.TableRestored,
	}).Warn("user migration rollback completed")
	return result, nil
}

// lock guards against concurrent runs in this process and, with redis,
// across instances.
func (s *migrationService) lock(ctx context.Context) (func(), error) {
	if !s.mu.TryLock() {
		return nil, ErrMigrationInProgress
	}
	if s.redisClient == nil {
		return s.mu.Unlock, nil
	}

	token := uuid.NewString()
	ok, err := s.redisClient.SetNX(ctx, lockKey, token, s.opts.LockTTL).Result()
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !ok {
		s.mu.Unlock()
		return nil, ErrMigrationInProgress
	}

	return func() {
		if err := releaseLock.Run(context.WithoutCancel(ctx), s.redisClient, []string{lockKey}, token).Err(); err != nil {
			logger.Log.WithError(err).Warn("failed to release migration lock")
		}
		s.mu.Unlock()
	}, nil
}

// IsInProgress reports whether err means another run holds the lock.
func IsInProgress(err error) bool {
	return errors.Is(err, ErrMigrationInProgress)
}
