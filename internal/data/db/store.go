package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Store struct {
	db      *gorm.DB
	dialect Dialect
	log     *logger.Logger
}

// DialectFor picks the driver from the connection URL scheme.
func DialectFor(url string) (Dialect, string, error) {
	u := strings.TrimSpace(url)
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres, u, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return DialectSQLite, u[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "file:"), lower == ":memory:":
		return DialectSQLite, u, nil
	case u == "":
		return "", "", types.ConfigurationError("db.open", "DATABASE_URL is required")
	default:
		return "", "", types.ConfigurationError("db.open", fmt.Sprintf("unsupported DATABASE_URL scheme in %q", redactScheme(u)))
	}
}

func NewStore(ctx context.Context, logg *logger.Logger, cfg Config) (*Store, error) {
	serviceLog := logg.With("service", "CatalogStore")

	dialect, dsn, err := DialectFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		zap.NewStdLog(logg.SugaredLogger.Desugar()),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if dialect == DialectSQLite {
		// one writer; an in-memory database is also per-connection
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	serviceLog.Info("Catalog store connected", "dialect", dialect, "dsn", cfg.URL)
	return &Store{db: db, dialect: dialect, log: serviceLog}, nil
}

// Wrap adopts an already-open gorm handle, mainly for tests.
func Wrap(db *gorm.DB, dialect Dialect, logg *logger.Logger) *Store {
	return &Store{db: db, dialect: dialect, log: logg.With("service", "CatalogStore")}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func redactScheme(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i] + "://..."
	}
	return "..."
}
