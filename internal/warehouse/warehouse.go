// Package warehouse provides read-only SQL execution against the
// relational store holding the structured business data, plus schema
// discovery and one-time seeding helpers.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hybridqa/internal/schema"
)

// DB wraps a gorm connection and implements domain.Executor.
type DB struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open connects to the warehouse. The sqlite driver is pure Go, so a
// local file or :memory: DSN needs no external service.
func Open(driver, dsn string, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.Default()
	}
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening warehouse: %w", err)
	}
	return &DB{db: gdb, log: log.With("component", "warehouse")}, nil
}

// Execute runs a single query and maps the result set into ordered
// columns and rows. Duplicate projected column names are suffixed
// (id, id_2, ...) so no value is lost in the row maps. Validation of the
// query happens upstream; this layer only executes.
func (d *DB) Execute(ctx context.Context, query string) ([]string, []map[string]any, error) {
	rows, err := d.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	columns = dedupeColumns(columns)

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return columns, out, rows.Err()
}

// Discover reads table and column metadata live from the warehouse, for
// deployments that ship no schema file.
func (d *DB) Discover(ctx context.Context) (*schema.Schema, error) {
	tables, err := d.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	s := &schema.Schema{}
	for _, table := range tables {
		rows, err := d.db.WithContext(ctx).Raw("SELECT * FROM " + quoteIdent(table) + " LIMIT 0").Rows()
		if err != nil {
			d.log.Warn("could not describe table", "table", table, "error", err)
			continue
		}
		types, err := rows.ColumnTypes()
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("describing table %s: %w", table, err)
		}
		t := schema.Table{Name: table}
		for _, ct := range types {
			t.Columns = append(t.Columns, schema.Column{
				Name: ct.Name(),
				Type: ct.DatabaseTypeName(),
			})
		}
		rows.Close()
		s.Tables = append(s.Tables, t)
	}
	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("no tables found in warehouse")
	}
	return s, nil
}

// SeedFile executes a local SQL script statement by statement, used to
// provision the demo warehouse.
func (d *DB) SeedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading sql file: %w", err)
	}
	n := 0
	for _, stmt := range splitStatements(string(data)) {
		if err := d.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("executing statement %d: %w", n+1, err)
		}
		n++
	}
	d.log.Info("warehouse seeded", "file", path, "statements", n)
	return nil
}

// dedupeColumns renames repeated column names positionally, keeping the
// first occurrence as-is.
func dedupeColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, col := range columns {
		seen[col]++
		if n := seen[col]; n > 1 {
			out[i] = fmt.Sprintf("%s_%d", col, n)
			continue
		}
		out[i] = col
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// splitStatements splits a script on semicolons outside single-quoted
// literals, dropping blank statements and line comments.
func splitStatements(script string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false
	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if !inString && ch == '-' && i+1 < len(runes) && runes[i+1] == '-' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
			continue
		}
		if ch == '\'' {
			if inString && i+1 < len(runes) && runes[i+1] == '\'' {
				cur.WriteString("''")
				i++
				continue
			}
			inString = !inString
		}
		if ch == ';' && !inString {
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
			continue
		}
		cur.WriteRune(ch)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
