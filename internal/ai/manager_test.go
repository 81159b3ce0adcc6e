package ai

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "sql fence",
			output: "Here is the query:\n```sql\nSELECT * FROM users;\n```\nDone.",
			want:   "SELECT * FROM users;",
		},
		{
			name:   "generic fence",
			output: "```\nSELECT COUNT(*) FROM students\n```",
			want:   "SELECT COUNT(*) FROM students",
		},
		{
			name:   "unterminated fence",
			output: "```sql\nSELECT 1",
			want:   "SELECT 1",
		},
		{
			name:   "bare statement",
			output: "SELECT name FROM teachers WHERE id = 1",
			want:   "SELECT name FROM teachers WHERE id = 1",
		},
		{
			name:   "statement buried in prose lines",
			output: "The query you need is below.\nselect id from orders\nHope that helps.",
			want:   "select id from orders",
		},
		{
			name:   "cte statement",
			output: "WITH recent AS (SELECT 1) SELECT * FROM recent",
			want:   "WITH recent AS (SELECT 1) SELECT * FROM recent",
		},
		{
			name:   "no sql at all",
			output: "I cannot answer that question.",
			want:   "",
		},
		{
			name:   "empty",
			output: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractSQL(tt.output); got != tt.want {
				t.Errorf("extractSQL(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestAnalyzeQuery(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "schema answer", response: "schema", want: "schema"},
		{name: "schema with noise", response: "The answer is: Schema.", want: "schema"},
		{name: "data answer", response: "data", want: "data"},
		{name: "anything else is data", response: "rows", want: "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{response: tt.response}
			m := NewManager(gen, nil, nil, nil, ManagerConfig{})
			got, err := m.AnalyzeQuery(context.Background(), "what tables exist", "Table: users")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AnalyzeQuery = %q, want %q", got, tt.want)
			}
			if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "what tables exist") {
				t.Errorf("prompt did not carry the question: %v", gen.prompts)
			}
		})
	}
}

func TestAnalyzeQuery_Errors(t *testing.T) {
	m := NewManager(nil, nil, nil, nil, ManagerConfig{})
	if _, err := m.AnalyzeQuery(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error when analyzer is not configured")
	}

	gen := &stubGenerator{err: fmt.Errorf("boom")}
	m = NewManager(gen, nil, nil, nil, ManagerConfig{})
	if _, err := m.AnalyzeQuery(context.Background(), "q", ""); err == nil {
		t.Fatal("expected provider error to propagate")
	}

	gen = &stubGenerator{response: "   "}
	m = NewManager(gen, nil, nil, nil, ManagerConfig{})
	if _, err := m.AnalyzeQuery(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error on blank response")
	}
}

func TestGenerateSQL(t *testing.T) {
	gen := &stubGenerator{response: "```sql\nSELECT COUNT(*) FROM students\n```"}
	m := NewManager(nil, gen, nil, nil, ManagerConfig{})
	got, err := m.GenerateSQL(context.Background(), "how many students", "Table: students", "mysql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "SELECT COUNT(*) FROM students" {
		t.Errorf("GenerateSQL = %q", got)
	}
	if !strings.Contains(gen.prompts[0], "Database Type: mysql") {
		t.Errorf("prompt missing database type:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], "Table: students") {
		t.Errorf("prompt missing schema context:\n%s", gen.prompts[0])
	}
}

func TestGenerateSQL_NoSQLInResponse(t *testing.T) {
	gen := &stubGenerator{response: "sorry, no idea"}
	m := NewManager(nil, gen, nil, nil, ManagerConfig{})
	if _, err := m.GenerateSQL(context.Background(), "q", "", "sqlite"); err == nil {
		t.Fatal("expected error when the response holds no sql")
	}
}

func TestExplainResults(t *testing.T) {
	gen := &stubGenerator{response: "There are 42 students."}
	m := NewManager(nil, nil, gen, nil, ManagerConfig{})
	got, err := m.ExplainResults(context.Background(), "how many students", "SELECT COUNT(*) FROM students", `[{"count":42}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "There are 42 students." {
		t.Errorf("ExplainResults = %q", got)
	}
	if !strings.Contains(gen.prompts[0], `[{"count":42}]`) {
		t.Errorf("prompt missing results payload:\n%s", gen.prompts[0])
	}
}

func TestEmbedWithoutEmbedder(t *testing.T) {
	m := NewManager(nil, nil, nil, nil, ManagerConfig{})
	if _, err := m.EmbedDocument(context.Background(), "text"); err == nil {
		t.Fatal("expected error when embedder is not configured")
	}
	if name := m.EmbeddingModelName(); name != "" {
		t.Fatalf("expected empty model name, got %q", name)
	}
}
