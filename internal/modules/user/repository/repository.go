package repository

import (
	"context"
	"errors"

	"anoa.com/blogapp/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	CreateWithRoles(ctx context.Context, user *entity.User, roleNames ...string) error
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmailOrUsername(ctx context.Context, value string) (*entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string, excludeID uint) (bool, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Count(ctx context.Context) (int64, error)
	FindRolesByNames(ctx context.Context, names []string) ([]entity.Role, error)
	ReplaceRoles(ctx context.Context, user *entity.User, roles []entity.Role) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateWithRoles inserts the user and links the named roles in one
// transaction. An unknown role name aborts the insert.
func (r *userRepository) CreateWithRoles(ctx context.Context, user *entity.User, roleNames ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roles, err := findRoles(tx, roleNames)
		if err != nil {
			return err
		}
		user.Roles = nil
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		if len(roles) == 0 {
			return nil
		}
		if err := tx.Model(user).Association("Roles").Append(roles); err != nil {
			return err
		}
		user.Roles = roles
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "normalized_email = ?", entity.Normalize(email))
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "normalized_username = ?", entity.Normalize(username))
}

func (r *userRepository) FindByEmailOrUsername(ctx context.Context, value string) (*entity.User, error) {
	user, err := r.FindByEmail(ctx, value)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.FindByUsername(ctx, value)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("normalized_email = ?", entity.Normalize(email)).
		Count(&count).Error
	return count > 0, err
}

// UsernameExists ignores the account with excludeID, so a user can keep
// their own name on update.
func (r *userRepository) UsernameExists(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("normalized_username = ?", entity.Normalize(username))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *userRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("id").Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) FindRolesByNames(ctx context.Context, names []string) ([]entity.Role, error) {
	return findRoles(r.db.WithContext(ctx), names)
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *entity.User, roles []entity.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

// findRoles resolves role names, failing with gorm.ErrRecordNotFound when
// any name is unknown.
func findRoles(db *gorm.DB, names []string) ([]entity.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := entity.Normalize(n)
		if !seen[key] {
			seen[key] = true
			normalized = append(normalized, key)
		}
	}

	var roles []entity.Role
	if err := db.Where("normalized_name IN ?", normalized).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(normalized) {
		return nil, gorm.ErrRecordNotFound
	}
	return roles, nil
}
