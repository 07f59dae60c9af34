package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

const sampleSchema = `tables:
  - name: orders
    columns:
      - name: id
        type: INTEGER
      - name: customer_id
        type: INTEGER
      - name: amount
        type: REAL
  - name: customers
    columns:
      - name: id
        type: INTEGER
      - name: name
        type: TEXT
relationships:
  - left_table: orders
    left_column: customer_id
    right_table: customers
    right_column: id
    type: many_to_one
`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeSchema(t, sampleSchema))

	assert.NilError(t, err)
	assert.Equal(t, len(s.Tables), 2)
	assert.Equal(t, s.Tables[0].Name, "orders")
	assert.Equal(t, len(s.Tables[0].Columns), 3)
	assert.Equal(t, s.Tables[0].Columns[2].Type, "REAL")
	assert.Equal(t, len(s.Relationships), 1)
	assert.Equal(t, s.Relationships[0].RightTable, "customers")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading schema file")
}

func TestLoadRejectsEmptySchema(t *testing.T) {
	_, err := Load(writeSchema(t, "tables: []\n"))
	assert.ErrorContains(t, err, "declares no tables")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeSchema(t, "tables: [not: valid: yaml"))
	assert.ErrorContains(t, err, "parsing schema file")
}

func TestPromptContext(t *testing.T) {
	s, err := Load(writeSchema(t, sampleSchema))
	assert.NilError(t, err)

	ctx := s.PromptContext()

	assert.Assert(t, strings.Contains(ctx, "orders:"))
	assert.Assert(t, strings.Contains(ctx, "  - amount (REAL)"))
	assert.Assert(t, strings.Contains(ctx, "- orders.customer_id -> customers.id (many_to_one)"))
}

func TestPromptContextDefaultsRelationshipType(t *testing.T) {
	s := &Schema{
		Tables: []Table{{Name: "a", Columns: []Column{{Name: "id", Type: "INTEGER"}}}},
		Relationships: []Relationship{
			{LeftTable: "a", LeftColumn: "b_id", RightTable: "b", RightColumn: "id"},
		},
	}
	assert.Assert(t, strings.Contains(s.PromptContext(), "(many_to_one)"))
}
