package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/salesload/internal/core"
	"github.com/JonMunkholm/salesload/internal/csv"
	"github.com/JonMunkholm/salesload/internal/logging"
)

// pgxLoader streams the table to PostgreSQL with COPY FROM STDIN over a
// single pgx connection.
type pgxLoader struct {
	url            string
	connectTimeout time.Duration
	atomic         bool
	target         Target
	dialect        dialect
}

func (l *pgxLoader) Load(ctx context.Context, t *core.Table) (int64, error) {
	logger := logging.WithFields(ctx, "stage", core.StageLoad, "driver", l.dialect.name, "table", l.dialect.qualify(l.target))

	cfg, err := pgx.ParseConfig(l.url)
	if err != nil {
		return 0, fmt.Errorf("parse database url: %w", err)
	}
	if l.connectTimeout > 0 {
		cfg.ConnectTimeout = l.connectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	cols := InferColumns(t)
	buf, err := csv.Buffer(t)
	if err != nil {
		return 0, fmt.Errorf("encode rows: %w", err)
	}

	// Statements on conn run inside tx while it is open.
	var tx pgx.Tx
	if l.atomic {
		if tx, err = conn.Begin(ctx); err != nil {
			return 0, fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback(context.Background())
	}

	for _, stmt := range l.dialect.replaceStatements(l.target, cols) {
		logger.Debug("exec", "sql", stmt)
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("replace table: %w", err)
		}
	}
	logger.Info("table replaced", "columns", len(cols))

	copySQL := l.dialect.copyStatement(l.target, cols)
	logger.Debug("copy", "sql", copySQL, "bytes", buf.Len())
	tag, err := conn.PgConn().CopyFrom(ctx, buf, copySQL)
	if err != nil {
		return 0, fmt.Errorf("copy: %w", err)
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
	}
	return tag.RowsAffected(), nil
}
