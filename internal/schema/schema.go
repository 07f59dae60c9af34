// Package schema models the warehouse metadata handed to the SQL
// generation prompt: table names, columns and declared relationships.
// The metadata is read-only configuration, usually loaded from a YAML
// file provisioned alongside the warehouse.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column describes one column of a warehouse table.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Table describes one warehouse table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// Relationship declares a join path between two tables.
type Relationship struct {
	LeftTable   string `yaml:"left_table"`
	LeftColumn  string `yaml:"left_column"`
	RightTable  string `yaml:"right_table"`
	RightColumn string `yaml:"right_column"`
	Type        string `yaml:"type"`
}

// Schema is the full warehouse description supplied to SQL generation.
type Schema struct {
	Tables        []Table        `yaml:"tables"`
	Relationships []Relationship `yaml:"relationships"`
}

// Load reads a schema description from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}
	if len(s.Tables) == 0 {
		return nil, fmt.Errorf("schema file %s declares no tables", path)
	}
	return &s, nil
}

// PromptContext renders the schema as plain text for inclusion in the
// SQL generation prompt.
func (s *Schema) PromptContext() string {
	var b strings.Builder
	b.WriteString("Available tables and their columns:\n")
	for _, t := range s.Tables {
		fmt.Fprintf(&b, "\n%s:\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s)\n", c.Name, c.Type)
		}
	}
	if len(s.Relationships) > 0 {
		b.WriteString("\nTable relationships:\n")
		for _, r := range s.Relationships {
			rel := r.Type
			if rel == "" {
				rel = "many_to_one"
			}
			fmt.Fprintf(&b, "- %s.%s -> %s.%s (%s)\n",
				r.LeftTable, r.LeftColumn, r.RightTable, r.RightColumn, rel)
		}
	}
	return b.String()
}
