package embedcache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("provider down")
	}
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedder) ModelName() string { return "embedding-001" }

func TestLruEmbedder_CachesRepeatCalls(t *testing.T) {
	stub := &stubEmbedder{}
	cached := WrapLruCacheToEmbedder(stub, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "Table: users", "RETRIEVAL_DOCUMENT")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := cached.Embed(context.Background(), "Table: users", "RETRIEVAL_DOCUMENT")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", stub.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("cached value mismatch: %v vs %v", first, second)
	}
}

func TestLruEmbedder_TaskTypeSplitsKeys(t *testing.T) {
	stub := &stubEmbedder{}
	cached := WrapLruCacheToEmbedder(stub, 16, time.Minute)

	if _, err := cached.Embed(context.Background(), "same text", "RETRIEVAL_DOCUMENT"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := cached.Embed(context.Background(), "same text", "RETRIEVAL_QUERY"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", stub.calls)
	}
}

func TestLruEmbedder_ErrorsAreNotCached(t *testing.T) {
	stub := &stubEmbedder{fail: true}
	cached := WrapLruCacheToEmbedder(stub, 16, time.Minute)

	if _, err := cached.Embed(context.Background(), "x", "RETRIEVAL_QUERY"); err == nil {
		t.Fatal("expected provider error")
	}
	stub.fail = false
	if _, err := cached.Embed(context.Background(), "x", "RETRIEVAL_QUERY"); err != nil {
		t.Fatalf("embed after recovery: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", stub.calls)
	}
}

func TestLruEmbedder_ReturnsCopies(t *testing.T) {
	stub := &stubEmbedder{}
	cached := WrapLruCacheToEmbedder(stub, 16, time.Minute)

	first, _ := cached.Embed(context.Background(), "mutate me", "RETRIEVAL_DOCUMENT")
	first[0] = -1
	second, _ := cached.Embed(context.Background(), "mutate me", "RETRIEVAL_DOCUMENT")
	if second[0] == -1 {
		t.Fatal("cache returned a shared slice")
	}
}

func TestWrapLruCacheToEmbedder_Passthrough(t *testing.T) {
	stub := &stubEmbedder{}
	if got := WrapLruCacheToEmbedder(stub, 0, time.Minute); got != stub {
		t.Error("zero size should return the embedder unchanged")
	}
	if got := WrapLruCacheToEmbedder(stub, 16, 0); got != stub {
		t.Error("zero ttl should return the embedder unchanged")
	}
	if got := WrapLruCacheToEmbedder(nil, 16, time.Minute); got != nil {
		t.Error("nil embedder should stay nil")
	}
}

func TestBuildCacheKey(t *testing.T) {
	key1, hash1, name := buildCacheKey("embedding-001", "RETRIEVAL_DOCUMENT", "text")
	key2, hash2, _ := buildCacheKey("embedding-001", "RETRIEVAL_DOCUMENT", "text")
	if key1 != key2 || hash1 != hash2 {
		t.Fatal("cache key should be deterministic")
	}
	if name != "embedding-001" {
		t.Errorf("model name = %s", name)
	}
	_, hash3, _ := buildCacheKey("embedding-001", "RETRIEVAL_DOCUMENT", "other text")
	if hash1 == hash3 {
		t.Error("different texts should hash differently")
	}
	_, _, fallback := buildCacheKey("  ", "RETRIEVAL_QUERY", "text")
	if fallback != "unknown" {
		t.Errorf("blank model name should fall back to unknown, got %s", fallback)
	}
}
