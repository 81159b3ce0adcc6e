package model

import (
	"fmt"
	"strings"
)

type DatabaseType string

const (
	DatabaseTypeMySQL      DatabaseType = "mysql"
	DatabaseTypePostgreSQL DatabaseType = "postgresql"
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypeMongoDB    DatabaseType = "mongodb"
)

func ParseDatabaseType(s string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return DatabaseTypeMySQL, nil
	case "postgresql", "postgres":
		return DatabaseTypePostgreSQL, nil
	case "sqlite":
		return DatabaseTypeSQLite, nil
	case "mongodb", "mongo":
		return DatabaseTypeMongoDB, nil
	default:
		return "", fmt.Errorf("unknown database type: %s", s)
	}
}

// DatabaseSchema is the normalized discovery output. Relational sources fill
// Tables and Relationships, document sources fill Collections. Absent parts
// stay empty, which the document builder treats as "no documents", not as an
// error.
type DatabaseSchema struct {
	DatabaseName  string                      `json:"database_name"`
	DatabaseType  DatabaseType                `json:"database_type"`
	Host          string                      `json:"host"`
	Tables        map[string]TableSchema      `json:"tables,omitempty"`
	Relationships []Relationship              `json:"relationships,omitempty"`
	Collections   map[string]CollectionSchema `json:"collections,omitempty"`
}

type TableSchema struct {
	Columns     []ColumnSchema `json:"columns"`
	PrimaryKeys []string       `json:"primary_keys"`
}

type ColumnSchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Key      string `json:"key,omitempty"`
	Default  string `json:"default,omitempty"`
	Extra    string `json:"extra,omitempty"`
}

type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

type CollectionSchema struct {
	DocumentCount int64                `json:"document_count"`
	Fields        map[string]FieldInfo `json:"fields"`
}

// FieldInfo describes one flattened field path sampled from a document
// collection. Paths use dots for nesting and "[0]" for array elements.
type FieldInfo struct {
	Types     []string `json:"types"`
	Count     int64    `json:"count"`
	NullCount int64    `json:"null_count"`
}
