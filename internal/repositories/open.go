package repositories

import (
	"context"
	"fmt"
	"time"

	"perfpredict/internal/apperrors"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Mode is the process-wide storage mode, fixed at startup.
type Mode string

const (
	ModeDurable  Mode = "durable"
	ModeFallback Mode = "fallback"
)

// Persistent reports whether data survives a restart in this mode.
func (m Mode) Persistent() bool {
	return m == ModeDurable
}

// Config holds the durable backend connection details.
type Config struct {
	Driver       string // "postgres" or "sqlite"
	DSN          string
	ProbeTimeout time.Duration
}

// Open picks the storage implementation for the lifetime of the process.
// The durable backend is used when it answers a single bounded probe;
// otherwise the in-memory fallback is returned. There is no later failover.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (Storage, Mode) {
	if cfg.DSN == "" {
		log.Warn("No database DSN configured; running in fallback mode, data will not persist between restarts")
		return NewMemoryStorage(), ModeFallback
	}

	store, err := Connect(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.Driver).
			Warn("Durable storage unreachable; running in fallback mode, data will not persist between restarts")
		return NewMemoryStorage(), ModeFallback
	}

	log.WithField("driver", cfg.Driver).Info("Connected to durable storage")
	return store, ModeDurable
}

// Connect opens the durable backend, probes it once within cfg.ProbeTimeout
// and migrates the schema.
func Connect(ctx context.Context, cfg Config) (*GORMStorage, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", apperrors.ErrStorageUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: get database instance: %w", apperrors.ErrStorageUnavailable, err)
	}

	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(probeCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: ping: %w", apperrors.ErrStorageUnavailable, err)
	}
	if err := Migrate(probeCtx, db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err)
	}

	return NewGORMStorage(db), nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", apperrors.ErrStorageUnavailable, cfg.Driver)
	}
}
