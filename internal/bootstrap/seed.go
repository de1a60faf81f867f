package bootstrap

import (
	"errors"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/password"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Category{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Administrator", IsActive: true},
		{Name: entity.RoleUser, Description: "Regular user", IsActive: true},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("normalized_name = ?", entity.Normalize(role.Name)).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

type AdminSeed struct {
	Email    string
	Password string
	Hasher   password.Hasher
}

// SeedAdminUser creates the administrator account unless the email is taken.
func SeedAdminUser(db *gorm.DB, seed AdminSeed) error {
	if seed.Email == "" {
		return errors.New("admin email is empty")
	}
	if err := password.Validate(seed.Password); err != nil {
		return err
	}

	var adminRole entity.Role
	if err := db.Where("normalized_name = ?", entity.Normalize(entity.RoleAdmin)).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("normalized_email = ?", entity.Normalize(seed.Email)).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Log.Debug("admin user already exists, skipping seed")
		return nil
	}

	hash, err := seed.Hasher.Hash(seed.Password)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:       "admin",
		Email:          seed.Email,
		EmailConfirmed: true,
		PasswordHash:   hash,
		IsActive:       true,
		Roles:          []entity.Role{adminRole},
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{"email": seed.Email}).Info("admin user seeded")
	return nil
}
