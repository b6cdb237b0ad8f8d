package container

import (
	"context"
	"fmt"

	"patientcluster/adapters/postgres"
	"patientcluster/internal/config"
	"patientcluster/internal/errors"
	"patientcluster/internal/history"
	"patientcluster/internal/logger"
	"patientcluster/internal/migration"
	"patientcluster/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure, nil when no database is configured
	DB *sqlx.DB

	RunRepo  ports.RunRepository
	Recorder *history.Recorder
}

// New creates a new dependency injection container. Run history stays
// disabled until InitWithDatabase is called.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config:   cfg,
		Recorder: history.NewRecorder(nil),
	}, nil
}

// Connect opens the configured database and initializes run history. It is
// a no-op when DATABASE_URL is empty.
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		logger.Logger.Infow("run history disabled, DATABASE_URL not set")
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase runs migrations and wires the repositories on db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.Recorder = history.NewRecorder(c.RunRepo)
	logger.Logger.Infow("run history enabled")
	return nil
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
