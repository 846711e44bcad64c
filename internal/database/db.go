package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Collection table names.
const (
	CoursesTable = "courses"
	UsersTable   = "users"
)

// Open connects to the document store and verifies the connection.  The
// embedded engine ("sqlite") accepts a file path or ":memory:"; "mysql"
// accepts a go-sql-driver DSN.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite":
		return openSQLite(dsn)
	case "mysql":
		return openMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func openSQLite(path string) (*sqlx.DB, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")
	dsn := path
	if !memory {
		dsn = sqliteDSN(path)
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(8)
	}
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN appends the file-store pragmas, keeping any query the caller
// already put on the path.  WAL keeps readers off the writer's back;
// busy_timeout absorbs short lock waits.
func sqliteDSN(path string) string {
	const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

func openMySQL(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Ping with timeout
func ping(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Migrate creates the document tables.  The column types are accepted by
// both engines, so a single schema serves either driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{CoursesTable, UsersTable} {
		q := `CREATE TABLE IF NOT EXISTS ` + table + ` (
			id      VARCHAR(64) NOT NULL PRIMARY KEY,
			version BIGINT      NOT NULL,
			seq     BIGINT      NOT NULL,
			body    LONGTEXT    NOT NULL
		)`
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}
