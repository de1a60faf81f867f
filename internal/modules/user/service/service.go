package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/user/dto"
	"anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/password"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	errInvalidLogin = apperror.New(apperror.ErrUnauthorized, "Invalid email or password")
	errLockedOut    = apperror.New(apperror.ErrUnauthorized, "Account is locked out")
)

// UserService is the account API kept for clients that manage their own
// session: it never issues a cookie.
type UserService interface {
	AddUser(ctx context.Context, req dto.AddUserRequest) error
	LoginUser(ctx context.Context, req dto.LoginUserRequest) (*dto.LoginUserResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error)
	UpdateUserProfile(ctx context.Context, actor *entity.User, req dto.UpdateUserProfileRequest) error
}

// Options shares the sign-in lockout with the auth module, so both login
// endpoints count toward the same limit.
type Options struct {
	Lockout entity.LockoutPolicy
}

type userService struct {
	repo   repository.UserRepository
	hasher password.Hasher
	opts   Options
	now    func() time.Time
}

func NewUserService(repo repository.UserRepository, hasher password.Hasher, opts Options) UserService {
	opts.Lockout = opts.Lockout.WithDefaults()
	return &userService{
		repo:   repo,
		hasher: hasher,
		opts:   opts,
		now:    time.Now,
	}
}

func (s *userService) AddUser(ctx context.Context, req dto.AddUserRequest) error {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" {
		return apperror.BadRequest("Username is required")
	}
	if email == "" {
		return apperror.BadRequest("Email is required")
	}
	if len(req.Password) < password.MinLength {
		return apperror.BadRequest("Password must be at least 6 characters long")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return apperror.Conflict("Email already exists")
	}

	exists, err = s.repo.UsernameExists(ctx, username, 0)
	if err != nil {
		return err
	}
	if exists {
		return apperror.Conflict("Username already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return err
	}

	user := &entity.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: optional(req.ProfilePicture),
		Bio:            optional(req.Bio),
		IsActive:       true,
	}
	if err := s.repo.CreateWithRoles(ctx, user, entity.RoleUser); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("account added")
	return nil
}

func (s *userService) LoginUser(ctx context.Context, req dto.LoginUserRequest) (*dto.LoginUserResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidLogin
		}
		return nil, err
	}

	now := s.now()
	if user.IsLockedOut(now) {
		return nil, errLockedOut
	}
	if !user.IsActive {
		return nil, errInvalidLogin
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		logger.Log.WithField("user_id", user.ID).Warn("account login failed")
		result := errInvalidLogin
		if user.RecordFailedLogin(now, s.opts.Lockout) {
			result = errLockedOut
			logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "until": user.LockoutEnd}).Warn("account locked out")
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
		return nil, result
	}

	if user.ClearFailedLogins() {
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return &dto.LoginUserResponse{UserID: user.ID, Username: user.Username}, nil
}

func (s *userService) GetUserProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UserProfileResponse{
		Username:       user.Username,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
	}, nil
}

// UpdateUserProfile lets users edit their own profile. Admins may edit
// anyone's.
func (s *userService) UpdateUserProfile(ctx context.Context, actor *entity.User, req dto.UpdateUserProfileRequest) error {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return apperror.BadRequest("Username is required")
	}

	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return err
	}
	if actor == nil || (actor.ID != user.ID && !actor.HasRole(entity.RoleAdmin)) {
		return apperror.Forbidden("You can only update your own profile")
	}

	exists, err := s.repo.UsernameExists(ctx, username, user.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.Conflict("Username already exists")
	}

	user.Username = username
	user.Bio = optional(req.Bio)
	user.ProfilePicture = optional(req.ProfilePicture)
	return s.repo.Update(ctx, user)
}

func (s *userService) findUser(ctx context.Context, id int64) (*entity.User, error) {
	if id <= 0 {
		return nil, apperror.BadRequest("Invalid user ID")
	}
	user, err := s.repo.FindByID(ctx, uint(id))
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
