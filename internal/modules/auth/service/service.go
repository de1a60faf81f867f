package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/auth/dto"
	"anoa.com/blogapp/internal/modules/auth/session"
	"anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/password"
	"anoa.com/blogapp/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	errInvalidCredentials = apperror.BadRequest("Invalid credentials")
	errLockedOut          = apperror.BadRequest("Account is locked out")
	errDisabled           = apperror.BadRequest("Account is disabled")
	errInvalidResetToken  = apperror.BadRequest("Invalid password reset token")
)

// SessionIssuer is implemented by *session.Manager.
type SessionIssuer interface {
	Issue(ctx context.Context, user *entity.User, remember bool) (*session.Session, error)
	Revoke(ctx context.Context, sessionID string) error
	IssueResetToken(user *entity.User) (string, error)
	VerifyResetToken(token string, user *entity.User) error
}

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ChangePassword(ctx context.Context, userID uint, current *session.Claims, req dto.ChangePasswordRequest) (*session.Session, error)
	GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	UploadProfilePicture(ctx context.Context, userID uint, file dto.PictureFile) (*dto.ProfileResponse, error)
	CurrentUser(ctx context.Context, userID uint) (*dto.CurrentUserResponse, error)
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) (string, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
}

type Options struct {
	LockoutMaxAttempts int
	LockoutDuration    time.Duration
	UploadFolder       string
}

type authService struct {
	repo     repository.UserRepository
	sessions SessionIssuer
	hasher   password.Hasher
	images   storage.ImageStorage
	opts     Options
	now      func() time.Time
}

// NewAuthService builds the service. images may be nil when no image
// storage is configured.
func NewAuthService(repo repository.UserRepository, sessions SessionIssuer, hasher password.Hasher, images storage.ImageStorage, opts Options) AuthService {
	policy := entity.LockoutPolicy{MaxAttempts: opts.LockoutMaxAttempts, Duration: opts.LockoutDuration}.WithDefaults()
	opts.LockoutMaxAttempts, opts.LockoutDuration = policy.MaxAttempts, policy.Duration
	return &authService{
		repo:     repo,
		sessions: sessions,
		hasher:   hasher,
		images:   images,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.BadRequest("Email already registered")
	}

	exists, err = s.repo.UsernameExists(ctx, req.Username, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.BadRequest("Username already taken")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Bio:          optional(req.Bio),
		IsActive:     true,
	}
	if err := s.repo.CreateWithRoles(ctx, user, entity.RoleUser); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")

	return &dto.RegisterResponse{
		Message:  "User registered successfully",
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResult, error) {
	user, err := s.repo.FindByEmailOrUsername(ctx, strings.TrimSpace(req.EmailOrUsername))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.IsLockedOut(now) {
		return nil, errLockedOut
	}
	if !user.IsActive {
		return nil, errDisabled
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, s.recordFailedLogin(ctx, user, now)
	}

	if user.ClearFailedLogins() {
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	sess, err := s.sessions.Issue(ctx, user, req.RememberMe)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{User: dto.NewUserInfo(user), Session: sess}, nil
}

// recordFailedLogin counts the failure and locks the account once the
// threshold is reached. It returns the error to report to the client.
func (s *authService) recordFailedLogin(ctx context.Context, user *entity.User, now time.Time) error {
	result := errInvalidCredentials
	if user.RecordFailedLogin(now, s.lockout()) {
		result = errLockedOut
		logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "until": user.LockoutEnd}).Warn("account locked out")
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	return result
}

func (s *authService) lockout() entity.LockoutPolicy {
	return entity.LockoutPolicy{MaxAttempts: s.opts.LockoutMaxAttempts, Duration: s.opts.LockoutDuration}
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, current *session.Claims, req dto.ChangePasswordRequest) (*session.Session, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, req.CurrentPassword) {
		return nil, apperror.BadRequest("Current password is incorrect")
	}

	if err := s.setPassword(ctx, user, req.NewPassword); err != nil {
		return nil, err
	}

	remember := false
	if current != nil {
		remember = current.Persistent
		if err := s.sessions.Revoke(ctx, current.SessionID); err != nil {
			return nil, err
		}
	}
	return s.sessions.Issue(ctx, user, remember)
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewProfileResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Bio = optional(req.Bio)
	user.ProfilePicture = optional(req.ProfilePicture)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return dto.NewProfileResponse(user), nil
}

func (s *authService) UploadProfilePicture(ctx context.Context, userID uint, file dto.PictureFile) (*dto.ProfileResponse, error) {
	if s.images == nil {
		return nil, apperror.New(apperror.ErrServiceUnavailable, "image storage is not configured")
	}
	if !storage.IsImageFile(file.FileName) {
		return nil, apperror.BadRequest("Profile picture must be an image")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	folder := filepath.ToSlash(filepath.Join(s.opts.UploadFolder, "profile_pictures"))
	url, err := s.images.UploadImage(ctx, file.Reader, folder, file.FileName)
	if err != nil {
		return nil, err
	}

	previous := user.ProfilePicture
	user.ProfilePicture = &url
	if err := s.repo.Update(ctx, user); err != nil {
		_ = s.images.DeleteImage(ctx, url)
		return nil, err
	}

	if previous != nil && s.images.Owns(*previous) {
		if err := s.images.DeleteImage(ctx, *previous); err != nil {
			logger.Log.WithError(err).WithField("user_id", user.ID).Warn("failed to delete old profile picture")
		}
	}

	return dto.NewProfileResponse(user), nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (*dto.CurrentUserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.CurrentUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.RoleNames(),
		IsAdmin:  user.HasRole(entity.RoleAdmin),
	}, nil
}

// ForgotPassword returns the reset token, or "" when no account uses the
// email. There is no mail delivery, so the token is logged.
func (s *authService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) (string, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := s.sessions.IssueResetToken(user)
	if err != nil {
		return "", err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"email":       user.Email,
		"reset_token": token,
	}).Info("password reset requested")

	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidResetToken
		}
		return err
	}
	if err := s.sessions.VerifyResetToken(req.Token, user); err != nil {
		return errInvalidResetToken
	}

	user.ClearFailedLogins()
	return s.setPassword(ctx, user, req.NewPassword)
}

// setPassword hashes p, rotates the security stamp and saves the user.
// Rotating the stamp ends every other session and reset token.
func (s *authService) setPassword(ctx context.Context, user *entity.User, p string) error {
	hash, err := s.hasher.Hash(p)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.SecurityStamp = uuid.NewString()
	return s.repo.Update(ctx, user)
}

func (s *authService) findUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
