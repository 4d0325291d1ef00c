package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JonMunkholm/salesload/internal/config"
	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/logging"
)

// copyFunc pushes every row of t into the freshly created table inside tx.
type copyFunc func(ctx context.Context, tx *sql.Tx, d dialect, tg Target, cols []Column, t *core.Table) (int64, error)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqlLoader is the database/sql implementation shared by pq, mysql and sqlite.
type sqlLoader struct {
	driverName     string
	dsn            string
	connectTimeout time.Duration
	atomic         bool
	target         Target
	dialect        dialect
	copy           copyFunc
}

func newSQLLoader(driverName string, db config.DatabaseConfig, load config.LoadConfig, tg Target, d dialect, fn copyFunc) *sqlLoader {
	return &sqlLoader{
		driverName:     driverName,
		dsn:            db.URL,
		connectTimeout: db.ConnectTimeout,
		atomic:         load.Atomic,
		target:         tg,
		dialect:        d,
		copy:           fn,
	}
}

func (l *sqlLoader) Load(ctx context.Context, t *core.Table) (int64, error) {
	logger := logging.WithFields(ctx, "stage", core.StageLoad, "driver", l.dialect.name, "table", l.dialect.qualify(l.target))

	db, err := sql.Open(l.driverName, l.dsn)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", l.driverName, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	pingCtx, cancel := withTimeout(ctx, l.connectTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}

	cols := InferColumns(t)

	if !l.atomic {
		if err := l.replace(ctx, db, cols); err != nil {
			return 0, err
		}
		logger.Info("table replaced", "columns", len(cols))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if l.atomic {
		if err := l.replace(ctx, tx, cols); err != nil {
			return 0, err
		}
		logger.Info("table replaced", "columns", len(cols))
	}

	n, err := l.copy(ctx, tx, l.dialect, l.target, cols, t)
	if err != nil {
		return 0, fmt.Errorf("copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (l *sqlLoader) replace(ctx context.Context, ex execer, cols []Column) error {
	for _, stmt := range l.dialect.replaceStatements(l.target, cols) {
		logging.FromContext(ctx).Debug("exec", "sql", stmt)
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("replace table: %w", err)
		}
	}
	return nil
}
