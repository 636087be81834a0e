package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-crm-connect/core"
	"github.com/goliatone/go-crm-connect/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const defaultPingTimeout = 5 * time.Second

type persistenceConfig struct {
	driver string
	dsn    string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool {
	return c.debug
}

func (c persistenceConfig) GetDriver() string {
	return c.driver
}

func (c persistenceConfig) GetServer() string {
	return c.dsn
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return defaultPingTimeout
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return "go-crm-connect"
}

// OpenClient opens the activity database described by cfg and applies the
// embedded migrations for its dialect.
func OpenClient(ctx context.Context, cfg core.ActivityConfig) (*persistence.Client, error) {
	driver := strings.TrimSpace(cfg.Driver)
	fields := map[string]any{"driver": driver}
	dialectName, err := migrations.DialectForDriver(driver)
	if err != nil {
		return nil, storeWrapError(err, core.ErrorConfiguration, "sqlstore: resolve dialect", fields)
	}
	var dialect schema.Dialect = pgdialect.New()
	if dialectName == migrations.DialectSQLite {
		dialect = sqlitedialect.New()
	}

	sqlDB, err := sql.Open(driver, strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, storeWrapError(err, core.ErrorConfiguration, "sqlstore: open database", fields)
	}
	if dialectName == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{driver: driver, dsn: cfg.DSN}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, storeWrapError(err, core.ErrorConfiguration, "sqlstore: new persistence client", fields)
	}

	_, err = migrations.Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(dialectName))
	if err != nil {
		_ = client.Close()
		return nil, storeWrapError(err, core.ErrorConfiguration, "sqlstore: register migrations", fields)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, storeWrapError(err, core.ErrorExternalFailure, "sqlstore: migrate", fields)
	}
	return client, nil
}

func NewActivityStoreFromPersistence(client any) (*ActivityStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewActivityStore(db)
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, storeError(core.ErrorConfiguration, "sqlstore: persistence client is required", nil)
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, storeError(core.ErrorConfiguration, "sqlstore: persistence client returned nil bun db", nil)
		}
		return db, nil
	default:
		return nil, storeError(core.ErrorConfiguration, "sqlstore: unsupported persistence client type", map[string]any{
			"type": fmt.Sprintf("%T", candidate),
		})
	}
}
