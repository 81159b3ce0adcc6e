package service

import (
	"errors"
	"testing"

	"github.com/schemarag/schemarag/internal/model"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
)

func TestEnsureReadOnlyQuery(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		allowed bool
	}{
		{name: "plain select", sql: "SELECT * FROM users", allowed: true},
		{name: "lowercase select", sql: "select id from users", allowed: true},
		{name: "leading whitespace", sql: "\n\t SELECT 1", allowed: true},
		{name: "cte", sql: "WITH t AS (SELECT 1) SELECT * FROM t", allowed: true},
		{name: "insert", sql: "INSERT INTO users VALUES (1)", allowed: false},
		{name: "update", sql: "UPDATE users SET name = 'x'", allowed: false},
		{name: "delete", sql: "DELETE FROM users", allowed: false},
		{name: "drop", sql: "DROP TABLE users", allowed: false},
		{name: "empty", sql: "", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ensureReadOnlyQuery(tt.sql)
			if tt.allowed && err != nil {
				t.Errorf("ensureReadOnlyQuery(%q) = %v, want nil", tt.sql, err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatalf("ensureReadOnlyQuery(%q) = nil, want rejection", tt.sql)
				}
				if !errors.Is(err, appErr.ErrQueryRejected) {
					t.Errorf("rejection should wrap ErrQueryRejected, got %v", err)
				}
			}
		})
	}
}

func TestResolveDatabase(t *testing.T) {
	overview := &model.Overview{
		Databases: map[string]*model.DatabaseOverview{
			"shop":   {Type: "mongodb"},
			"school": {Type: "mysql"},
		},
	}

	got, err := resolveDatabase("school", overview)
	if err != nil || got != "school" {
		t.Fatalf("resolveDatabase(school) = %q, %v", got, err)
	}

	if _, err := resolveDatabase("missing", overview); !errors.Is(err, appErr.ErrNotFound) {
		t.Fatalf("unknown database should wrap ErrNotFound, got %v", err)
	}

	// empty choice picks the first stored name in sorted order
	got, err = resolveDatabase("", overview)
	if err != nil || got != "school" {
		t.Fatalf("resolveDatabase(empty) = %q, %v", got, err)
	}
}
