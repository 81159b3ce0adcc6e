package ai

import (
	"context"
	"fmt"
	"testing"
)

type flakyGenerator struct {
	response string
	err      error
	calls    int
}

func (f *flakyGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestGroupGenerator_FallsBack(t *testing.T) {
	primary := &flakyGenerator{err: fmt.Errorf("quota exceeded")}
	backup := &flakyGenerator{response: "data"}
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "primary", Generator: primary},
		{Name: "backup", Generator: backup},
	})

	got, err := group.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "data" {
		t.Errorf("result = %q", got)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, backup.calls)
	}
}

func TestGroupGenerator_PrimaryWins(t *testing.T) {
	primary := &flakyGenerator{response: "schema"}
	backup := &flakyGenerator{response: "never"}
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "primary", Generator: primary},
		{Name: "backup", Generator: backup},
	})

	got, err := group.Generate(context.Background(), "prompt")
	if err != nil || got != "schema" {
		t.Fatalf("result = %q, %v", got, err)
	}
	if backup.calls != 0 {
		t.Errorf("backup should not be called, calls = %d", backup.calls)
	}
}

func TestGroupGenerator_AllFail(t *testing.T) {
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &flakyGenerator{err: fmt.Errorf("down")}},
		{Name: "b", Generator: &flakyGenerator{err: fmt.Errorf("also down")}},
	})
	if _, err := group.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when every generator fails")
	}
}

func TestNewGroupGenerator_Empty(t *testing.T) {
	if got := NewGroupGenerator(nil); got != nil {
		t.Fatal("empty group should be nil")
	}
}

type flakyEmbedder struct {
	vec   []float32
	err   error
	name  string
	calls int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *flakyEmbedder) ModelName() string { return f.name }

func TestGroupEmbedder_FallsBack(t *testing.T) {
	primary := &flakyEmbedder{err: fmt.Errorf("down"), name: "embed-a"}
	backup := &flakyEmbedder{vec: []float32{1, 2}, name: "embed-b"}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "embed-a", Embedder: primary},
		{Name: "embed-b", Embedder: backup},
	})

	vec, err := group.Embed(context.Background(), "text", TaskTypeDocument)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vec = %v", vec)
	}
	if group.ModelName() != "embed-a|embed-b" {
		t.Errorf("model name = %s", group.ModelName())
	}
}

func TestGroupEmbedder_SingleEntryName(t *testing.T) {
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "embed-a", Embedder: &flakyEmbedder{vec: []float32{1}, name: "embed-a"}},
	})
	if group.ModelName() != "embed-a" {
		t.Errorf("model name = %s", group.ModelName())
	}
}
