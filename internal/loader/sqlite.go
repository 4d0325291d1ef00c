package loader

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/salesload/internal/core"
)

// copySQLite has no bulk path to use, so it runs one prepared insert per row
// inside the caller's transaction.
func copySQLite(ctx context.Context, tx *sql.Tx, d dialect, tg Target, cols []Column, t *core.Table) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, d.insertStatement(tg, cols))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(row)...); err != nil {
			return n, fmt.Errorf("row %d: %w", i+1, err)
		}
		n++
	}
	return n, nil
}
