package loader

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// dialect holds the SQL differences between drivers.
type dialect struct {
	name          string
	defaultSchema string
	quote         func(string) string
	types         map[Kind]string
}

func postgresDialect(numeric string) dialect {
	return dialect{
		name:          "postgres",
		defaultSchema: "public",
		quote:         func(s string) string { return pgx.Identifier{s}.Sanitize() },
		types: map[Kind]string{
			KindInteger: "BIGINT",
			KindFloat:   pick(numeric, "DOUBLE PRECISION", "NUMERIC"),
			KindText:    "TEXT",
		},
	}
}

func pqDialect(numeric string) dialect {
	d := postgresDialect(numeric)
	d.name = "pq"
	d.quote = pq.QuoteIdentifier
	return d
}

func mysqlDialect(numeric string) dialect {
	return dialect{
		name:  "mysql",
		quote: func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		types: map[Kind]string{
			KindInteger: "BIGINT",
			KindFloat:   pick(numeric, "DOUBLE", "DECIMAL(65,30)"),
			KindText:    "TEXT",
		},
	}
}

func sqliteDialect(numeric string) dialect {
	return dialect{
		name:          "sqlite",
		defaultSchema: "main",
		quote:         func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		types: map[Kind]string{
			KindInteger: "INTEGER",
			KindFloat:   pick(numeric, "REAL", "NUMERIC"),
			KindText:    "TEXT",
		},
	}
}

// pick returns exact when numeric is "numeric", approx otherwise.
func pick(numeric, approx, exact string) string {
	if strings.EqualFold(numeric, "numeric") {
		return exact
	}
	return approx
}

// qualify returns the quoted table name, schema-qualified unless the schema
// is empty or the driver's default.
func (d dialect) qualify(tg Target) string {
	if tg.Schema == "" || tg.Schema == d.defaultSchema {
		return d.quote(tg.Table)
	}
	return d.quote(tg.Schema) + "." + d.quote(tg.Table)
}

func (d dialect) columnList(cols []Column) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c.Name)
	}
	return strings.Join(quoted, ", ")
}

// replaceStatements drops and recreates tg for cols.
func (d dialect) replaceStatements(tg Target, cols []Column) []string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.quote(c.Name) + " " + d.types[c.Kind]
	}
	return []string{
		"DROP TABLE IF EXISTS " + d.qualify(tg),
		fmt.Sprintf("CREATE TABLE %s (%s)", d.qualify(tg), strings.Join(defs, ", ")),
	}
}

// copyStatement is the COPY FROM STDIN command matching the csv.Buffer layout.
func (d dialect) copyStatement(tg Target, cols []Column) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)", d.qualify(tg), d.columnList(cols))
}

func (d dialect) insertStatement(tg Target, cols []Column) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.qualify(tg), d.columnList(cols), marks)
}

// loadDataStatement reads the registered reader name into tg. Fields are
// always enclosed, so an unenclosed NULL is the only way to write NULL.
func (d dialect) loadDataStatement(tg Target, cols []Column, reader string) string {
	return fmt.Sprintf("LOAD DATA LOCAL INFILE 'Reader::%s' INTO TABLE %s CHARACTER SET utf8mb4 "+
		`FIELDS TERMINATED BY ',' ENCLOSED BY '"' ESCAPED BY '' LINES TERMINATED BY '\n' (%s)`,
		reader, d.qualify(tg), d.columnList(cols))
}
