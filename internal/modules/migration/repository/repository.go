package repository

import (
	"context"
	"fmt"

	"anoa.com/blogapp/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tables whose user_id column follows an account through the migration.
var ownedTables = []string{"posts", "comments"}

const (
	remapToAccountsSQL = `UPDATE %[1]s SET user_id = users.id FROM users WHERE %[1]s.user_id = users.legacy_user_id AND users.legacy_user_id IS NOT NULL AND NOT users.legacy_remapped`
	remapToLegacySQL   = `UPDATE %[1]s SET user_id = users.legacy_user_id FROM users WHERE %[1]s.user_id = users.id AND users.legacy_user_id IS NOT NULL AND users.legacy_remapped`
	markRemappedSQL    = `UPDATE users SET legacy_remapped = true WHERE legacy_user_id IS NOT NULL AND NOT legacy_remapped`
	pendingLegacySQL   = `SELECT COUNT(*) FROM ? l WHERE NOT EXISTS (SELECT 1 FROM users WHERE users.normalized_email = UPPER(TRIM(l.email)))`

	migratedUserIDs = `SELECT id FROM users WHERE legacy_user_id IS NOT NULL`
)

type MigrationRepository interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo MigrationRepository) error) error
	HasTable(ctx context.Context, name string) bool
	CountRows(ctx context.Context, table string) (int64, error)
	ListLegacyUsers(ctx context.Context, table string) ([]entity.LegacyUser, error)
	CountMigratedUsers(ctx context.Context) (int64, error)
	// CountPendingLegacyUsers counts legacy rows whose email has no account yet.
	CountPendingLegacyUsers(ctx context.Context, table string) (int64, error)
	RemapToAccounts(ctx context.Context) error
	RemapToLegacy(ctx context.Context) error
	DeleteMigratedUsers(ctx context.Context) (int64, error)
	RenameTable(ctx context.Context, from, to string) error
}

type migrationRepository struct {
	db *gorm.DB
}

func NewMigrationRepository(db *gorm.DB) MigrationRepository {
	return &migrationRepository{db: db}
}

func (r *migrationRepository) Transaction(ctx context.Context, fn func(repo MigrationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&migrationRepository{db: tx})
	})
}

func (r *migrationRepository) HasTable(ctx context.Context, name string) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(name)
}

func (r *migrationRepository) CountRows(ctx context.Context, table string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).Count(&count).Error
	return count, err
}

func (r *migrationRepository) ListLegacyUsers(ctx context.Context, table string) ([]entity.LegacyUser, error) {
	var users []entity.LegacyUser
	err := r.db.WithContext(ctx).Table(table).Order("user_id").Find(&users).Error
	return users, err
}

func (r *migrationRepository) CountMigratedUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("legacy_user_id IS NOT NULL").Count(&count).Error
	return count, err
}

func (r *migrationRepository) CountPendingLegacyUsers(ctx context.Context, table string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(pendingLegacySQL, clause.Table{Name: table}).Scan(&count).Error
	return count, err
}

// RemapToAccounts points posts and comments written under a legacy user id
// at the account created for that user. Accounts are remapped once; later
// runs leave their rows alone even though legacy_user_id is kept.
func (r *migrationRepository) RemapToAccounts(ctx context.Context) error {
	if err := r.remap(ctx, remapToAccountsSQL); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(markRemappedSQL).Error
}

// RemapToLegacy undoes RemapToAccounts.
func (r *migrationRepository) RemapToLegacy(ctx context.Context) error {
	return r.remap(ctx, remapToLegacySQL)
}

func (r *migrationRepository) remap(ctx context.Context, stmt string) error {
	db := r.db.WithContext(ctx)
	for _, table := range ownedTables {
		if err := db.Exec(fmt.Sprintf(stmt, table)).Error; err != nil {
			return fmt.Errorf("remap %s.user_id: %w", table, err)
		}
	}
	return nil
}

// DeleteMigratedUsers removes every account that carries a legacy id, along
// with its role links and notifications.
func (r *migrationRepository) DeleteMigratedUsers(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)

	if err := db.Exec(`DELETE FROM notifications WHERE user_id IN (` + migratedUserIDs + `) OR actor_id IN (` + migratedUserIDs + `)`).Error; err != nil {
		return 0, err
	}
	if err := db.Exec(`DELETE FROM user_roles WHERE user_id IN (` + migratedUserIDs + `)`).Error; err != nil {
		return 0, err
	}

	res := db.Exec(`DELETE FROM users WHERE legacy_user_id IS NOT NULL`)
	return res.RowsAffected, res.Error
}

func (r *migrationRepository) RenameTable(ctx context.Context, from, to string) error {
	return r.db.WithContext(ctx).Exec("ALTER TABLE ? RENAME TO ?", clause.Table{Name: from}, clause.Table{Name: to}).Error
}
