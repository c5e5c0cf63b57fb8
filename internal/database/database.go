// Package database opens the gorm connection for the configured driver and
// translates driver errors into the application's error taxonomy.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLibSQL   = "libsql"
)

// Config selects and addresses the backing store.
type Config struct {
	// Driver is one of sqlite, postgres or libsql.
	Driver string
	// Name is the sqlite file name, used when DSN is empty.
	Name string
	// DSN is the full connection string for postgres and libsql.
	DSN string
	// LogQueries turns on gorm's SQL logging.
	LogQueries bool
}

// Open connects to the configured store. Times are always written in UTC.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.LogQueries {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg)), nil

	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		// lib/pq owns the wire connection, gorm only needs the pool.
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres connection: %w", err)
		}
		return postgres.New(postgres.Config{Conn: sqlDB}), nil

	case DriverLibSQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("libsql driver requires a dsn")
		}
		sqlDB, err := sql.Open("libsql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open libsql connection: %w", err)
		}
		return &sqlite.Dialector{Conn: sqlDB}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN enables foreign keys so click events cascade with their link.
func sqliteDSN(cfg Config) string {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Name
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
