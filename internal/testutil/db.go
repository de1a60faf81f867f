// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"anoa.com/blogapp/internal/bootstrap"
	"anoa.com/blogapp/internal/entity"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database with the default roles
// seeded. Each call gets its own database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=private", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return db
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// CreateUser inserts an active account with the given roles. The password
// hash is a placeholder, so use a real hasher when a test logs in.
func CreateUser(t *testing.T, db *gorm.DB, username string, roles ...string) *entity.User {
	t.Helper()

	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-hash",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	if len(roles) == 0 {
		roles = []string{entity.RoleUser}
	}
	for _, name := range roles {
		var role entity.Role
		if err := db.Where("normalized_name = ?", entity.Normalize(name)).First(&role).Error; err != nil {
			t.Fatalf("find role %s: %v", name, err)
		}
		if err := db.Model(user).Association("Roles").Append(&role); err != nil {
			t.Fatalf("assign role %s: %v", name, err)
		}
	}
	return user
}

// CreatePost inserts a post owned by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, title string, categories ...entity.Category) *entity.Post {
	t.Helper()
	post := &entity.Post{
		Title:      title,
		Content:    "Some content for " + title,
		UserID:     userID,
		Categories: categories,
	}
	if err := db.Omit("User").Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}
