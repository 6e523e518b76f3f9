package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const Dialect = "postgres"

//go:embed migrations/*.sql
var migrations embed.FS

// Config describes how to reach the registry database.
type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	ConnAttempts int
	ConnBackoff  time.Duration
	Migrate      bool
}

// DSN renders the lib/pq keyword/value connection string.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// Connect opens the pool, waits for the server to accept connections and
// applies pending migrations when cfg.Migrate is set.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open(Dialect, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	attempts := max(cfg.ConnAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= attempts {
			db.Close()
			return nil, fmt.Errorf("ping postgres after %d attempts: %w", attempt, err)
		}
		logger.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", cfg.ConnBackoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.ConnBackoff):
		}
	}

	if cfg.Migrate {
		if err := Migrate(db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Info("database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return db, nil
}

// Migrate runs the embedded goose migrations against db.
func Migrate(db *sqlx.DB, logger *zap.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger.Sugar().Named("goose")})
	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...any) { l.s.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...any) { l.s.Infof(format, v...) }
