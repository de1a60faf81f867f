package service

import (
	"context"
	"errors"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/admin/dto"
	"anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AdminService interface {
	GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUserRoles(ctx context.Context, actorID, userID uint, input dto.UpdateUserRolesInput) (*dto.AdminUserResponse, error)
	SetUserStatus(ctx context.Context, actorID, userID uint, isActive bool) (*dto.AdminUserResponse, error)
}

type adminService struct {
	repo repository.UserRepository
}

func NewAdminService(repo repository.UserRepository) AdminService {
	return &adminService{repo: repo}
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.AdminUserResponse, 0, len(users))
	for i := range users {
		res = append(res, dto.NewAdminUserResponse(&users[i]))
	}
	return res, nil
}

func (s *adminService) UpdateUserRoles(ctx context.Context, actorID, userID uint, input dto.UpdateUserRolesInput) (*dto.AdminUserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.FindRolesByNames(ctx, input.Roles)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.BadRequest("One or more roles do not exist")
		}
		return nil, err
	}

	if user.ID == actorID && !hasRole(roles, entity.RoleAdmin) {
		return nil, apperror.BadRequest("You cannot remove your own Admin role")
	}

	if err := s.repo.ReplaceRoles(ctx, user, roles); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  user.ID,
		"roles":    user.RoleNames(),
	}).Info("user roles updated")

	return dto.NewAdminUserResponse(user), nil
}

// SetUserStatus activates or deactivates an account. Deactivation rotates
// the security stamp, which ends the user's sessions.
func (s *adminService) SetUserStatus(ctx context.Context, actorID, userID uint, isActive bool) (*dto.AdminUserResponse, error) {
	if actorID == userID && !isActive {
		return nil, apperror.BadRequest("You cannot deactivate your own account")
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsActive != isActive {
		user.IsActive = isActive
		if !isActive {
			user.SecurityStamp = uuid.NewString()
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
		logger.Log.WithFields(logrus.Fields{
			"actor_id":  actorID,
			"user_id":   user.ID,
			"is_active": isActive,
		}).Info("user status changed")
	}

	return dto.NewAdminUserResponse(user), nil
}

func (s *adminService) findUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func hasRole(roles []entity.Role, name string) bool {
	for _, r := range roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
