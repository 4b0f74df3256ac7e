// Package sqlite contains the concrete implementation of the persistence
// layer using GORM over an embedded sqlite database.
package sqlite

import (
	"context"
	"log/slog"

	"automanager/config"
	"automanager/internal/errors"
	"automanager/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the sqlite database, runs schema migration and registers
// lifecycle hooks for closing the underlying pool.
func New(params Params) (*gorm.DB, error) {
	db, err := Open(params.Config.Database.Path, params.Logger, params.Config.Env.Debug)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sqlite sql.DB")
	}

	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return errors.Wrap(sqlDB.PingContext(ctx), "failed to ping sqlite")
		},
		OnStop: func(_ context.Context) error {
			return sqlDB.Close()
		},
	})

	return db, nil
}

// Open opens a sqlite database at the given path and migrates the schema.
// It is used directly by tests, which have no fx lifecycle.
func Open(path string, logger *slog.Logger, debug bool) (*gorm.DB, error) {
	// _pragma options: enforce FK integrity and keep single-writer behavior
	// sane for a desktop process.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		// Per-statement implicit transactions are disabled; multi-step
		// operations go through txManager.Execute.
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 newGormSlogLogger(logger, debug),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}

	if err := db.AutoMigrate(
		&model.IdentityModel{},
		&model.ClientModel{},
		&model.VehicleModel{},
		&model.ServiceOrderModel{},
		&model.HistoryModel{},
	); err != nil {
		return nil, errors.Wrap(err, "failed to migrate sqlite schema")
	}

	return db, nil
}
