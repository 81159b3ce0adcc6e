package service

import (
	"testing"
)

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{
			name:  "nil becomes empty string",
			value: nil,
			want:  "",
		},
		{
			name:  "string passes through",
			value: "users",
			want:  "users",
		},
		{
			name:  "bool passes through",
			value: true,
			want:  true,
		},
		{
			name:  "int passes through",
			value: 42,
			want:  42,
		},
		{
			name:  "float passes through",
			value: 3.5,
			want:  3.5,
		},
		{
			name:  "string slice joined with comma",
			value: []string{"id", "email"},
			want:  "id,email",
		},
		{
			name:  "empty string slice becomes empty string",
			value: []string{},
			want:  "",
		},
		{
			name:  "interface slice joined with comma",
			value: []interface{}{"string", 7, true},
			want:  "string,7,true",
		},
		{
			name:  "map becomes json",
			value: map[string]interface{}{"count": 3},
			want:  `{"count":3}`,
		},
		{
			name:  "unknown type falls back to fmt",
			value: struct{ Name string }{Name: "x"},
			want:  "{x}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeValue(tt.value); got != tt.want {
				t.Errorf("sanitizeValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSanitizeMetadata(t *testing.T) {
	metadata := map[string]interface{}{
		"type":         "table",
		"primary_keys": []string{"id", "tenant_id"},
		"extra":        nil,
		"column_count": 4,
	}
	got := sanitizeMetadata(metadata)
	if len(got) != len(metadata) {
		t.Fatalf("expected %d keys, got %d", len(metadata), len(got))
	}
	if got["type"] != "table" {
		t.Errorf("type = %v, want table", got["type"])
	}
	if got["primary_keys"] != "id,tenant_id" {
		t.Errorf("primary_keys = %v, want id,tenant_id", got["primary_keys"])
	}
	if got["extra"] != "" {
		t.Errorf("extra = %v, want empty string", got["extra"])
	}
	if got["column_count"] != 4 {
		t.Errorf("column_count = %v, want 4", got["column_count"])
	}
}
