package bootstrap_test

import (
	"testing"

	"anoa.com/blogapp/internal/bootstrap"
	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/testutil"
	"anoa.com/blogapp/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedRolesIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, bootstrap.SeedRoles(db))

	var roles []entity.Role
	require.NoError(t, db.Order("id").Find(&roles).Error)
	require.Len(t, roles, 2)
	assert.Equal(t, entity.RoleAdmin, roles[0].Name)
	assert.Equal(t, "ADMIN", roles[0].NormalizedName)
	assert.Equal(t, entity.RoleUser, roles[1].Name)
}

func TestSeedAdminUser(t *testing.T) {
	db := testutil.NewDB(t)
	hasher := password.NewHasher(bcrypt.MinCost)
	seed := bootstrap.AdminSeed{Email: "admin@blog.com", Password: "Admin123!", Hasher: hasher}

	require.NoError(t, bootstrap.SeedAdminUser(db, seed))
	require.NoError(t, bootstrap.SeedAdminUser(db, seed))

	var users []entity.User
	require.NoError(t, db.Preload("Roles").Find(&users).Error)
	require.Len(t, users, 1)

	admin := users[0]
	assert.Equal(t, "ADMIN@BLOG.COM", admin.NormalizedEmail)
	assert.True(t, admin.HasRole(entity.RoleAdmin))
	assert.True(t, hasher.Compare(admin.PasswordHash, "Admin123!"))
	assert.NotEmpty(t, admin.SecurityStamp)
}

func TestSeedAdminUserRejectsWeakPassword(t *testing.T) {
	db := testutil.NewDB(t)
	err := bootstrap.SeedAdminUser(db, bootstrap.AdminSeed{
		Email:    "admin@blog.com",
		Password: "admin",
		Hasher:   password.NewHasher(bcrypt.MinCost),
	})
	assert.ErrorIs(t, err, password.ErrTooWeak)
}
