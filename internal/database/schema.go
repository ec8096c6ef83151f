package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"encore/internal/config"
	"encore/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMode selects which mechanisms bring the schema up to date.
type SchemaMode string

const (
	// SchemaModeHybrid applies SQL migrations everywhere and layers
	// AutoMigrate on top outside staging and production.
	SchemaModeHybrid SchemaMode = "hybrid"
	SchemaModeSQL    SchemaMode = "sql"
	SchemaModeAuto   SchemaMode = "auto"
)

// ParseSchemaMode maps a DB_SCHEMA_MODE value to a mode; empty means hybrid.
func ParseSchemaMode(raw string) (SchemaMode, error) {
	switch mode := SchemaMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return SchemaModeHybrid, nil
	case SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", raw)
	}
}

// SchemaPlan is what ApplySchema does for one configuration.
type SchemaPlan struct {
	Mode    SchemaMode
	Env     string
	RunSQL  bool
	RunAuto bool
}

func (p SchemaPlan) String() string {
	return fmt.Sprintf("mode=%s env=%s run_sql=%t run_auto=%t", p.Mode, p.Env, p.RunSQL, p.RunAuto)
}

func guardedEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves cfg into a SchemaPlan. AutoMigrate never runs against
// staging or production unless the operator opted in explicitly.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode, err := ParseSchemaMode(cfg.DBSchemaMode)
	if err != nil {
		return SchemaPlan{}, err
	}
	plan := SchemaPlan{Mode: mode, Env: cfg.Env}
	guarded := guardedEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if guarded && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL = true
		plan.RunAuto = !guarded
	}
	return plan, nil
}

// expressionIndexes cannot be declared with gorm struct tags. Migration
// 000004 creates the same indexes for SQL-managed databases.
var expressionIndexes = []string{
	// Handles compare case-insensitively; two profiles may not differ only by case.
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_handle_lower ON profiles (LOWER(handle))",
}

// AutoMigrate creates or updates every persistent table from the gorm models
// and then the expression indexes the models cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	for _, stmt := range expressionIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// ApplySchema brings the database up to date according to cfg and fails if
// any persistent table is still missing afterwards.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("AutoMigrate enabled for a guarded environment; review schema diffs before deploying", slog.String("env", cfg.Env))
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", string(plan.Mode)), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	missing, err := MissingTables(ctx, db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete after %s: missing tables %s", plan.Mode, strings.Join(missing, ", "))
	}
	return nil
}

// MissingTables lists the persistent tables that do not exist in db, sorted.
func MissingTables(ctx context.Context, db *gorm.DB) ([]string, error) {
	migrator := db.WithContext(ctx).Migrator()
	var missing []string
	for _, model := range PersistentModels() {
		if migrator.HasTable(model) {
			continue
		}
		name := fmt.Sprintf("%T", model)
		if tabler, ok := model.(interface{ TableName() string }); ok {
			name = tabler.TableName()
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing, nil
}

// SchemaStatus reports the migration history alongside the plan that would run.
type SchemaStatus struct {
	Plan    SchemaPlan
	Applied []Migration
	Pending []Migration
	// Unknown holds applied versions that no embedded migration matches.
	Unknown       []int
	MissingTables []string
}

// GetSchemaStatus reads migration_logs and the live table set without changing either.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{Plan: plan}

	versions, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
		if m := GetMigrationByVersion(v); m != nil {
			status.Applied = append(status.Applied, *m)
		} else {
			status.Unknown = append(status.Unknown, v)
		}
	}
	for _, m := range GetMigrations() {
		if !applied[m.Version] {
			status.Pending = append(status.Pending, m)
		}
	}

	if status.MissingTables, err = MissingTables(ctx, db); err != nil {
		return nil, err
	}
	return status, nil
}

// LatestApplied returns the newest applied migration, or nil when none is.
func LatestApplied(ctx context.Context, db *gorm.DB) (*Migration, error) {
	versions, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	latest := versions[len(versions)-1]
	m := GetMigrationByVersion(latest)
	if m == nil {
		return nil, fmt.Errorf("applied migration %06d is not embedded in this build", latest)
	}
	return m, nil
}
