package warehouse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

const seedScript = `-- demo warehouse
CREATE TABLE customers (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL,
    amount REAL NOT NULL
);

INSERT INTO customers (id, name) VALUES (1, 'Acme; Inc'), (2, 'O''Brien Ltd');
INSERT INTO orders (id, customer_id, amount) VALUES (1, 1, 100.5), (2, 1, 50.0), (3, 2, 75.25);
`

func openSeeded(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:", nil)
	assert.NilError(t, err)

	path := filepath.Join(t.TempDir(), "seed.sql")
	assert.NilError(t, os.WriteFile(path, []byte(seedScript), 0o644))
	assert.NilError(t, db.SeedFile(context.Background(), path))
	return db
}

func TestExecute(t *testing.T) {
	db := openSeeded(t)

	cols, rows, err := db.Execute(context.Background(),
		"SELECT c.name, SUM(o.amount) AS total FROM orders o JOIN customers c ON o.customer_id = c.id GROUP BY c.name ORDER BY total DESC")

	assert.NilError(t, err)
	assert.DeepEqual(t, cols, []string{"name", "total"})
	assert.Equal(t, len(rows), 2)
	assert.Equal(t, rows[0]["name"], "Acme; Inc")
	assert.Equal(t, rows[0]["total"], 150.5)
	assert.Equal(t, rows[1]["name"], "O'Brien Ltd")
}

func TestExecuteDisambiguatesDuplicateColumns(t *testing.T) {
	db := openSeeded(t)

	cols, rows, err := db.Execute(context.Background(),
		"SELECT c.id, o.id FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.id = 3")

	assert.NilError(t, err)
	assert.DeepEqual(t, cols, []string{"id", "id_2"})
	assert.Equal(t, len(rows), 1)
	assert.Equal(t, rows[0]["id"], int64(2))
	assert.Equal(t, rows[0]["id_2"], int64(3))
}

func TestExecuteEmptyResultSet(t *testing.T) {
	db := openSeeded(t)

	cols, rows, err := db.Execute(context.Background(), "SELECT name FROM customers WHERE id = 999")

	assert.NilError(t, err)
	assert.DeepEqual(t, cols, []string{"name"})
	assert.Equal(t, len(rows), 0)
}

func TestExecuteInvalidSQL(t *testing.T) {
	db := openSeeded(t)

	_, _, err := db.Execute(context.Background(), "SELECT * FROM no_such_table")
	assert.Assert(t, err != nil)
}

func TestDiscover(t *testing.T) {
	db := openSeeded(t)

	s, err := db.Discover(context.Background())
	assert.NilError(t, err)

	byName := map[string][]string{}
	for _, tbl := range s.Tables {
		var cols []string
		for _, c := range tbl.Columns {
			cols = append(cols, c.Name)
		}
		byName[tbl.Name] = cols
	}
	assert.DeepEqual(t, byName["customers"], []string{"id", "name"})
	assert.DeepEqual(t, byName["orders"], []string{"id", "customer_id", "amount"})
}

func TestDiscoverEmptyWarehouse(t *testing.T) {
	db, err := Open("sqlite", ":memory:", nil)
	assert.NilError(t, err)

	_, err = db.Discover(context.Background())
	assert.ErrorContains(t, err, "no tables")
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.ErrorContains(t, err, "unsupported warehouse driver")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("SELECT 1; -- comment; with semicolon\nSELECT 'a;b';\n\nSELECT 2")

	assert.DeepEqual(t, stmts, []string{"SELECT 1", "SELECT 'a;b'", "SELECT 2"})
}
