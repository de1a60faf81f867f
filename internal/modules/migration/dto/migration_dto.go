package dto

type FailedMigration struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type MigrationResult struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	MigratedCount int               `json:"migratedCount"`
	SkippedCount  int               `json:"skippedCount"`
	FailedCount   int               `json:"failedCount"`
	FailedUsers   []FailedMigration `json:"failedUsers"`
	GeneralError  string            `json:"generalError,omitempty"`
}

type MigrationStatus struct {
	LegacyUsersCount   int64  `json:"legacyUsersCount"`
	IdentityUsersCount int64  `json:"identityUsersCount"`
	MigratedUsersCount int64  `json:"migratedUsersCount"`
	PendingUsersCount  int64  `json:"pendingUsersCount"`
	BackupTableExists  bool   `json:"backupTableExists"`
	MigrationNeeded    bool   `json:"migrationNeeded"`
	Status             string `json:"status"`
}

type RollbackResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RemovedUsers  int64  `json:"removedUsers"`
	TableRestored bool   `json:"tableRestored"`
}
