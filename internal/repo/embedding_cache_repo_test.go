package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/model"
)

func TestEmbeddingCacheRepo(t *testing.T) {
	conn := openTestDB(t)
	t.Cleanup(func() {
		_, _ = conn.Exec(`TRUNCATE TABLE embedding_cache`)
	})
	cache := NewEmbeddingCacheRepo(conn)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "embedding-001", "RETRIEVAL_DOCUMENT", "hash-a")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
		ModelName:   "embedding-001",
		TaskType:    "RETRIEVAL_DOCUMENT",
		ContentHash: "hash-a",
		Embedding:   []float32{0.1, 0.2, 0.3},
		Ctime:       100,
	}))

	vec, found, err := cache.Get(ctx, "embedding-001", "RETRIEVAL_DOCUMENT", "hash-a")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, vec, 3)
	require.InDelta(t, 0.2, vec[1], 1e-6)

	// same hash under a different task type is a separate entry
	_, found, err = cache.Get(ctx, "embedding-001", "RETRIEVAL_QUERY", "hash-a")
	require.NoError(t, err)
	require.False(t, found)

	// save over the same key replaces the vector
	require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
		ModelName:   "embedding-001",
		TaskType:    "RETRIEVAL_DOCUMENT",
		ContentHash: "hash-a",
		Embedding:   []float32{0.9, 0.9, 0.9},
		Ctime:       200,
	}))
	vec, found, err = cache.Get(ctx, "embedding-001", "RETRIEVAL_DOCUMENT", "hash-a")
	require.NoError(t, err)
	require.True(t, found)
	require.InDelta(t, 0.9, vec[0], 1e-6)
}

func TestEmbeddingCacheRepo_SaveRejectsEmptyEmbedding(t *testing.T) {
	conn := openTestDB(t)
	cache := NewEmbeddingCacheRepo(conn)

	err := cache.Save(context.Background(), &model.EmbeddingCache{
		ModelName:   "embedding-001",
		TaskType:    "RETRIEVAL_DOCUMENT",
		ContentHash: "hash-empty",
		Ctime:       100,
	})
	require.Error(t, err)

	_, found, err := cache.Get(context.Background(), "embedding-001", "RETRIEVAL_DOCUMENT", "hash-empty")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEmbeddingCacheRepo_DeleteBefore(t *testing.T) {
	conn := openTestDB(t)
	t.Cleanup(func() {
		_, _ = conn.Exec(`TRUNCATE TABLE embedding_cache`)
	})
	cache := NewEmbeddingCacheRepo(conn)
	ctx := context.Background()

	for i, ctime := range []int64{100, 200, 300} {
		require.NoError(t, cache.Save(ctx, &model.EmbeddingCache{
			ModelName:   "embedding-001",
			TaskType:    "RETRIEVAL_DOCUMENT",
			ContentHash: string(rune('a' + i)),
			Embedding:   []float32{1},
			Ctime:       ctime,
		}))
	}

	deleted, err := cache.DeleteBefore(ctx, 250)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	_, found, err := cache.Get(ctx, "embedding-001", "RETRIEVAL_DOCUMENT", "c")
	require.NoError(t, err)
	require.True(t, found)
}
