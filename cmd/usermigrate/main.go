// Command usermigrate moves accounts from the legacy users table into the
// account store, reports migration status, or rolls a migration back.
//
//	usermigrate migrate|status|rollback
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"anoa.com/blogapp/internal/bootstrap"
	"anoa.com/blogapp/internal/config"
	"anoa.com/blogapp/internal/modules/auth/session"
	migrationRepo "anoa.com/blogapp/internal/modules/migration/repository"
	migrationService "anoa.com/blogapp/internal/modules/migration/service"
	userRepo "anoa.com/blogapp/internal/modules/user/repository"
	"anoa.com/blogapp/pkg/database"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/password"
)

var errUnsuccessful = errors.New("operation finished with errors")

var commands = []string{"migrate", "status", "rollback"}

func checkCommand(command string) error {
	if !slices.Contains(commands, command) {
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s migrate|status|rollback\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := checkCommand(flag.Arg(0)); err != nil {
		fmt.Fprintln(flag.CommandLine.Output(), err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		logger.Log.WithError(err).Error("usermigrate failed")
		os.Exit(1)
	}
}

func run(command string) error {
	if err := checkCommand(command); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Options{
		DSN:         cfg.DSN(),
		ForeignKeys: cfg.DBForeignKeys,
	})
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	sessions := session.NewManager(session.Options{
		Secret:   cfg.JWTSecret,
		ResetTTL: cfg.PasswordResetTTL,
	}, redisClient)

	svc := migrationService.NewMigrationService(
		migrationRepo.NewMigrationRepository(db),
		userRepo.NewUserRepository(db),
		password.NewHasher(cfg.BcryptCost),
		sessions,
		redisClient,
		migrationService.Options{
			LegacyTable: cfg.LegacyUsersTable,
			BackupTable: cfg.LegacyUsersBackupTable,
		},
	)

	switch command {
	case "migrate":
		res, err := svc.MigrateUsers(ctx)
		if err != nil {
			return err
		}
		if err := printJSON(res); err != nil {
			return err
		}
		if !res.Success {
			return errUnsuccessful
		}
	case "status":
		res, err := svc.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)
	case "rollback":
		res, err := svc.Rollback(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
