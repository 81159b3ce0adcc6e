package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/schemarag/schemarag/internal/model"
	"github.com/schemarag/schemarag/internal/pkg/dbutil"
)

// SchemaDocRepo is the vector index: one row per schema document, keyed by
// the deterministic document id so re-indexing the same entity overwrites.
type SchemaDocRepo struct {
	db *sql.DB
}

func NewSchemaDocRepo(db *sql.DB) *SchemaDocRepo {
	return &SchemaDocRepo{db: db}
}

const schemaDocUpsert = `
	INSERT INTO schema_documents (id, content, embedding, metadata, database_name, doc_type, ctime, mtime)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		metadata = EXCLUDED.metadata,
		database_name = EXCLUDED.database_name,
		doc_type = EXCLUDED.doc_type,
		mtime = EXCLUDED.mtime
`

func (r *SchemaDocRepo) Upsert(ctx context.Context, entries []model.IndexEntry, now int64) error {
	if len(entries) == 0 {
		return nil
	}
	return dbutil.WithinTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, entry := range entries {
			if len(entry.Embedding) == 0 {
				return fmt.Errorf("entry %s has no embedding", entry.ID)
			}
			metaJSON, err := json.Marshal(entry.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for %s: %w", entry.ID, err)
			}
			if _, err := tx.ExecContext(ctx, schemaDocUpsert,
				entry.ID,
				entry.Content,
				pgvector.NewVector(entry.Embedding),
				metaJSON,
				entry.DatabaseName,
				entry.DocType,
				now,
				now,
			); err != nil {
				return fmt.Errorf("upsert %s: %w", entry.ID, err)
			}
		}
		return nil
	})
}

// Query runs a nearest-neighbor scan by cosine distance. Empty filter args
// match all documents. An empty store yields an empty slice, not an error.
func (r *SchemaDocRepo) Query(ctx context.Context, embedding []float32, limit int, databaseName string, docType string) ([]model.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	sqlStr := `SELECT id, content, metadata, database_name, doc_type, ctime, mtime, embedding <=> ? AS distance FROM schema_documents`
	args := []interface{}{pgvector.NewVector(embedding)}
	sqlStr, args = appendDocFilter(sqlStr, args, databaseName, docType)
	sqlStr += ` ORDER BY distance LIMIT ?`
	args = append(args, limit)
	sqlStr, args = dbutil.Finalize(sqlStr, args)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]model.SearchHit, 0, limit)
	for rows.Next() {
		var hit model.SearchHit
		var metaJSON []byte
		if err := rows.Scan(&hit.ID, &hit.Content, &metaJSON, &hit.DatabaseName, &hit.DocType, &hit.Ctime, &hit.Mtime, &hit.Distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &hit.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Get is the full scan behind the overview and context builders.
func (r *SchemaDocRepo) Get(ctx context.Context, databaseName string, docType string) ([]model.StoredDocument, error) {
	where := map[string]interface{}{
		"_orderby": "id",
	}
	if databaseName != "" {
		where["database_name"] = databaseName
	}
	if docType != "" {
		where["doc_type"] = docType
	}
	sqlStr, args, err := builder.BuildSelect("schema_documents",
		where, []string{"id", "content", "metadata", "database_name", "doc_type", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.StoredDocument, 0)
	for rows.Next() {
		var doc model.StoredDocument
		var metaJSON []byte
		if err := rows.Scan(&doc.ID, &doc.Content, &metaJSON, &doc.DatabaseName, &doc.DocType, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *SchemaDocRepo) DeleteByDatabase(ctx context.Context, databaseName string) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("schema_documents", map[string]interface{}{
		"database_name": databaseName,
	})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByIDs removes the named documents. Ids that do not exist are
// silently ignored.
func (r *SchemaDocRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	values := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	sqlStr, args, err := builder.BuildDelete("schema_documents", map[string]interface{}{
		"id in": values,
	})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Reset wipes the whole index. The table stays in place so subsequent
// operations see an empty store under the same name.
func (r *SchemaDocRepo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE TABLE schema_documents`)
	return err
}

func (r *SchemaDocRepo) Count(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_documents`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func appendDocFilter(sqlStr string, args []interface{}, databaseName string, docType string) (string, []interface{}) {
	glue := " WHERE "
	if databaseName != "" {
		sqlStr += glue + "database_name = ?"
		args = append(args, databaseName)
		glue = " AND "
	}
	if docType != "" {
		sqlStr += glue + "doc_type = ?"
		args = append(args, docType)
	}
	return sqlStr, args
}
