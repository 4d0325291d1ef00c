package loader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/JonMunkholm/salesload/internal/core"
)

// copyPQ uses lib/pq's COPY-in statement: each Exec buffers one row and the
// final argument-less Exec flushes the stream.
func copyPQ(ctx context.Context, tx *sql.Tx, d dialect, tg Target, cols []Column, t *core.Table) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, pqCopyStatement(d, tg, cols))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(row)...); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return n, nil
	}
	return int64(t.Len()), nil
}

// pqCopyStatement qualifies the table the same way dialect.qualify does.
func pqCopyStatement(d dialect, tg Target, cols []Column) string {
	if tg.Schema == "" || tg.Schema == d.defaultSchema {
		return pq.CopyIn(tg.Table, columnNames(cols)...)
	}
	return pq.CopyInSchema(tg.Schema, tg.Table, columnNames(cols)...)
}
