package loader

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/JonMunkholm/salesload/internal/core"
)

// copyMySQL serves the rows from memory through a registered reader handler
// and LOAD DATA LOCAL INFILE. The server must allow local_infile.
func copyMySQL(ctx context.Context, tx *sql.Tx, d dialect, tg Target, cols []Column, t *core.Table) (int64, error) {
	name := "salesload-" + uuid.NewString()
	buf := mysqlBuffer(t)

	mysql.RegisterReaderHandler(name, func() io.Reader { return buf })
	defer mysql.DeregisterReaderHandler(name)

	res, err := tx.ExecContext(ctx, d.loadDataStatement(tg, cols, name))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// mysqlBuffer encodes rows for loadDataStatement: every value enclosed in
// double quotes (doubled inside), empty cells as a bare NULL.
func mysqlBuffer(t *core.Table) *bytes.Buffer {
	var buf bytes.Buffer
	for _, row := range t.Rows {
		for i, v := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			if v == "" {
				buf.WriteString("NULL")
				continue
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(v, `"`, `""`))
			buf.WriteByte('"')
		}
		buf.WriteByte('\n')
	}
	return &buf
}
