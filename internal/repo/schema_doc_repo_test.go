package repo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/db"
	"github.com/schemarag/schemarag/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "schemarag",
		Password: "schemarag_pass",
		DBName:   "schemarag_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.Exec(`TRUNCATE TABLE schema_documents`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.Exec(`TRUNCATE TABLE schema_documents`)
		_ = conn.Close()
	})
	return conn
}

func docEntry(id, database, docType string, embedding []float32) model.IndexEntry {
	return model.IndexEntry{
		ID:           id,
		Content:      fmt.Sprintf("content of %s", id),
		Embedding:    embedding,
		Metadata:     map[string]interface{}{"type": docType, "database_name": database},
		DatabaseName: database,
		DocType:      docType,
	}
}

func TestSchemaDocRepo_UpsertAndGet(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	entries := []model.IndexEntry{
		docEntry("school_mysql_students", "school", "table", []float32{1, 0, 0}),
		docEntry("school_mysql_students_id", "school", "column", []float32{0, 1, 0}),
		docEntry("shop_mongodb_orders", "shop", "collection", []float32{0, 0, 1}),
	}
	require.NoError(t, docs.Upsert(ctx, entries, 1000))

	all, err := docs.Get(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	school, err := docs.Get(ctx, "school", "")
	require.NoError(t, err)
	require.Len(t, school, 2)

	tables, err := docs.Get(ctx, "school", "table")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Equal(t, "school_mysql_students", tables[0].ID)
	require.Equal(t, "table", tables[0].Metadata["type"])
	require.EqualValues(t, 1000, tables[0].Ctime)

	count, err := docs.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestSchemaDocRepo_UpsertOverwrites(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	first := docEntry("school_mysql_students", "school", "table", []float32{1, 0, 0})
	require.NoError(t, docs.Upsert(ctx, []model.IndexEntry{first}, 1000))

	updated := first
	updated.Content = "updated content"
	require.NoError(t, docs.Upsert(ctx, []model.IndexEntry{updated}, 2000))

	all, err := docs.Get(ctx, "school", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "updated content", all[0].Content)
	// ctime survives the overwrite, mtime moves
	require.EqualValues(t, 1000, all[0].Ctime)
	require.EqualValues(t, 2000, all[0].Mtime)
}

func TestSchemaDocRepo_UpsertRejectsMissingEmbedding(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)

	entry := docEntry("broken", "school", "table", nil)
	err := docs.Upsert(context.Background(), []model.IndexEntry{entry}, 1000)
	require.Error(t, err)

	count, err := docs.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestSchemaDocRepo_QueryOrdersByDistance(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	entries := []model.IndexEntry{
		docEntry("near", "school", "table", []float32{1, 0, 0}),
		docEntry("mid", "school", "table", []float32{0.7, 0.7, 0}),
		docEntry("far", "school", "table", []float32{0, 1, 0}),
	}
	require.NoError(t, docs.Upsert(ctx, entries, 1000))

	hits, err := docs.Query(ctx, []float32{1, 0, 0}, 2, "", "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "near", hits[0].ID)
	require.Equal(t, "mid", hits[1].ID)
	require.Less(t, hits[0].Distance, hits[1].Distance)
	require.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestSchemaDocRepo_QueryFilters(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	entries := []model.IndexEntry{
		docEntry("school_table", "school", "table", []float32{1, 0, 0}),
		docEntry("shop_table", "shop", "table", []float32{1, 0, 0}),
		docEntry("shop_field", "shop", "field", []float32{1, 0, 0}),
	}
	require.NoError(t, docs.Upsert(ctx, entries, 1000))

	hits, err := docs.Query(ctx, []float32{1, 0, 0}, 10, "shop", "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, hit := range hits {
		require.Equal(t, "shop", hit.DatabaseName)
	}

	hits, err = docs.Query(ctx, []float32{1, 0, 0}, 10, "shop", "field")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "shop_field", hits[0].ID)
}

func TestSchemaDocRepo_QueryEmptyStore(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)

	hits, err := docs.Query(context.Background(), []float32{1, 0, 0}, 5, "", "")
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSchemaDocRepo_DeleteByDatabase(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	entries := []model.IndexEntry{
		docEntry("school_a", "school", "table", []float32{1, 0, 0}),
		docEntry("school_b", "school", "column", []float32{0, 1, 0}),
		docEntry("shop_a", "shop", "collection", []float32{0, 0, 1}),
	}
	require.NoError(t, docs.Upsert(ctx, entries, 1000))

	deleted, err := docs.DeleteByDatabase(ctx, "school")
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	deleted, err = docs.DeleteByDatabase(ctx, "absent")
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)

	count, err := docs.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestSchemaDocRepo_DeleteByIDs(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	entries := []model.IndexEntry{
		docEntry("a", "school", "table", []float32{1, 0, 0}),
		docEntry("b", "school", "table", []float32{0, 1, 0}),
	}
	require.NoError(t, docs.Upsert(ctx, entries, 1000))

	deleted, err := docs.DeleteByIDs(ctx, []string{"a", "ghost"})
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = docs.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}

func TestSchemaDocRepo_Reset(t *testing.T) {
	conn := openTestDB(t)
	docs := NewSchemaDocRepo(conn)
	ctx := context.Background()

	require.NoError(t, docs.Upsert(ctx, []model.IndexEntry{
		docEntry("a", "school", "table", []float32{1, 0, 0}),
	}, 1000))
	require.NoError(t, docs.Reset(ctx))

	count, err := docs.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
