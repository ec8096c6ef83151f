// Command migrate inspects and changes the API database schema.
//
//	migrate up              apply pending SQL migrations
//	migrate auto            run AutoMigrate regardless of DB_SCHEMA_MODE
//	migrate status          list applied and pending migrations by name
//	migrate verify          fail when a persistent table is missing
//	migrate down [version]  roll back one migration, the newest by default
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"encore/internal/config"
	"encore/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     up,
	"auto":   auto,
	"status": status,
	"verify": verify,
	"down":   down,
}

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "Give up after this long")
	flag.Parse()

	if err := run(*timeout, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("usage: %s <%s> [version]", os.Args[0], strings.Join(names, "|"))
}

func run(timeout time.Duration, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return cmd(ctx, db, cfg, args[1:])
}

func up(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations: %w", err)
	}
	log.Println("sql migrations applied")
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = string(database.SchemaModeAuto)
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("automigrations applied")
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}
	log.Println(st.Plan.String())
	for _, m := range st.Applied {
		log.Printf("applied  %s", m.String())
	}
	for _, m := range st.Pending {
		log.Printf("pending  %s", m.String())
	}
	for _, v := range st.Unknown {
		log.Printf("unknown  %06d (not embedded in this build)", v)
	}
	for _, table := range st.MissingTables {
		log.Printf("missing  table %s", table)
	}
	return nil
}

func verify(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	missing, err := database.MissingTables(ctx, db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	log.Println("schema complete")
	return nil
}

func down(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	var version int
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		version = v
	} else {
		latest, err := database.LatestApplied(ctx, db)
		if err != nil {
			return err
		}
		if latest == nil {
			return errors.New("no migrations applied")
		}
		version = latest.Version
	}

	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	log.Printf("rolled back %s", database.GetMigrationByVersion(version).String())
	return nil
}
