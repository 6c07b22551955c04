// Command migrate manages the schema of the SQL document store.
//
//	migrate up              apply pending SQL migrations
//	migrate auto            create the documents table with GORM AutoMigrate
//	migrate status          show applied and pending migrations
//	migrate down <version>  roll back one migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"heartbridge/internal/config"
	"heartbridge/internal/database"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down <version>>")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreDriver != config.StoreSQL {
		return fmt.Errorf("STORE_DRIVER=%q keeps no SQL schema; set STORE_DRIVER=%s", cfg.StoreDriver, config.StoreSQL)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Println("✓ migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		log.Println("✓ documents table migrated")
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("roll back %d: %w", version, err)
		}
		log.Printf("✓ rolled back migration %06d", version)
	default:
		return errUsage
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}
	log.Printf("mode=%s env=%s sql=%t auto=%t", status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate)
	for _, v := range status.AppliedVersions {
		if m := database.GetMigrationByVersion(v); m != nil {
			log.Printf("applied: %s", m)
		} else {
			log.Printf("applied: %06d (not registered)", v)
		}
	}
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %s", &m)
	}
	if len(status.PendingMigrations) == 0 {
		log.Println("schema is up to date")
	}
	return nil
}
