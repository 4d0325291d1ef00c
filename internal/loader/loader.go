// Package loader replaces a database table with the contents of a sales table.
//
// Every driver follows the same three steps: drop the target table if it
// exists, create it with column types inferred from the data, then push all
// rows through the driver's bulk path in one call. Drop/create and the copy
// are separate statements unless LOAD_ATOMIC is set, so a failed copy can
// leave the table empty.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/salesload/internal/config"
	"github.com/JonMunkholm/salesload/internal/core"
)

// Loader bulk-loads a table into the configured target.
type Loader interface {
	// Load replaces the target table with t and returns the number of rows
	// the database reports as loaded.
	Load(ctx context.Context, t *core.Table) (int64, error)
}

// Target names the destination table.
type Target struct {
	Schema string // empty uses the connection's default schema
	Table  string
}

// New returns the Loader for db.Driver.
func New(db config.DatabaseConfig, load config.LoadConfig) (Loader, error) {
	target := Target{Schema: db.Schema, Table: db.Table}
	if target.Table == "" {
		return nil, fmt.Errorf("target table name is empty")
	}

	switch db.Driver {
	case "postgres", "":
		return &pgxLoader{
			url:            db.URL,
			connectTimeout: db.ConnectTimeout,
			atomic:         load.Atomic,
			target:         target,
			dialect:        postgresDialect(load.NumericType),
		}, nil
	case "pq":
		return newSQLLoader("postgres", db, load, target, pqDialect(load.NumericType), copyPQ), nil
	case "mysql":
		// DDL commits implicitly in MySQL, so there is nothing to roll back to.
		if load.Atomic {
			return nil, fmt.Errorf("LOAD_ATOMIC is not supported by the mysql driver")
		}
		return newSQLLoader("mysql", db, load, target, mysqlDialect(load.NumericType), copyMySQL), nil
	case "sqlite":
		return newSQLLoader("sqlite", db, load, target, sqliteDialect(load.NumericType), copySQLite), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", db.Driver)
	}
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
