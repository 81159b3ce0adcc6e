package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/ai"
	"github.com/schemarag/schemarag/internal/model"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
	"github.com/schemarag/schemarag/internal/repo"
)

type RAGConfig struct {
	// DefaultLimit is the result count used when a caller passes n <= 0.
	DefaultLimit int
	// MaxParallelEmbed bounds concurrent embedding calls during a store run.
	MaxParallelEmbed int
	// NoSemanticFallback keeps the empty direct answer instead of retrying a
	// gap in the metadata answerer as a semantic search.
	NoSemanticFallback bool
}

// RAGService owns the write and query paths of the schema index: build
// documents, embed, upsert, classify questions and answer them either
// directly from the overview or by nearest neighbor search.
type RAGService struct {
	docs *repo.SchemaDocRepo
	ai   *ai.Manager
	cfg  RAGConfig

	// Serializes upserts, deletes and resets so concurrent store runs cannot
	// interleave partial writes for the same ids.
	writeMu sync.Mutex
}

func NewRAGService(docs *repo.SchemaDocRepo, manager *ai.Manager, cfg RAGConfig) *RAGService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.MaxParallelEmbed <= 0 {
		cfg.MaxParallelEmbed = 4
	}
	return &RAGService{docs: docs, ai: manager, cfg: cfg}
}

// StoreSchema builds, embeds and upserts the documents for one discovered
// schema. Documents whose embedding fails are skipped; the run only fails as
// a whole when every embedding failed or the schema produced no documents.
// Returns the number of documents written.
func (s *RAGService) StoreSchema(ctx context.Context, schema *model.DatabaseSchema) (int, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("database", schema.DatabaseName),
		zap.String("db_type", string(schema.DatabaseType)),
	)

	docs := BuildDocuments(schema)
	if len(docs) == 0 {
		logger.Warn("no documents created from schema")
		return 0, fmt.Errorf("no documents created from schema: %w", appErr.ErrInvalid)
	}

	embeddings := s.embedAll(ctx, docs)
	entries := make([]model.IndexEntry, 0, len(docs))
	for i, doc := range docs {
		if len(embeddings[i]) == 0 {
			logger.Warn("skip document with failed embedding", zap.String("id", doc.ID))
			continue
		}
		entries = append(entries, model.IndexEntry{
			ID:           doc.ID,
			Content:      doc.Content,
			Embedding:    embeddings[i],
			Metadata:     sanitizeMetadata(doc.Metadata.Flatten()),
			DatabaseName: schema.DatabaseName,
			DocType:      string(doc.Metadata.Type),
		})
	}
	if len(entries) == 0 {
		logger.Error("all embeddings failed", zap.Int("documents", len(docs)))
		return 0, appErr.ErrAllEmbeddingsFailed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.docs.Upsert(ctx, entries, time.Now().UnixMilli()); err != nil {
		logger.Error("failed to upsert schema documents", zap.Error(err))
		return 0, err
	}
	logger.Info("schema documents stored",
		zap.Int("stored", len(entries)),
		zap.Int("skipped", len(docs)-len(entries)),
	)
	return len(entries), nil
}

// embedAll generates document embeddings with a bounded number of parallel
// provider calls. A failed call leaves a nil slot.
func (s *RAGService) embedAll(ctx context.Context, docs []model.SchemaDocument) [][]float32 {
	out := make([][]float32, len(docs))
	sem := make(chan struct{}, s.cfg.MaxParallelEmbed)
	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			vec, err := s.ai.EmbedDocument(ctx, docs[i].Content)
			if err != nil {
				logutil.GetLogger(ctx).Warn("embedding failed",
					zap.String("id", docs[i].ID), zap.Error(err))
				return
			}
			out[i] = vec
		}(i)
	}
	wg.Wait()
	return out
}

// Search answers a natural-language question. Metadata style questions are
// answered directly from the overview; everything else is embedded and run
// through nearest neighbor search. Store and embedding failures degrade to an
// empty result list, never an error.
func (s *RAGService) Search(ctx context.Context, query string, n int, databaseFilter string) []model.SearchResult {
	if n <= 0 {
		n = s.cfg.DefaultLimit
	}
	if isMetadataQuery(query) {
		answer, details := answerMetadataQuery(query, s.Overview(ctx), databaseFilter)
		if answer != "" || s.cfg.NoSemanticFallback {
			return []model.SearchResult{directAnswerResult(answer, details, databaseFilter)}
		}
		// No keyword branch matched; retry the question as a semantic search.
		logutil.GetLogger(ctx).Debug("metadata answer gap, falling back to semantic search",
			zap.String("query", query))
	}
	return s.semanticSearch(ctx, query, n, databaseFilter)
}

func (s *RAGService) semanticSearch(ctx context.Context, query string, n int, databaseFilter string) []model.SearchResult {
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	embedding, err := s.ai.EmbedQuery(ctx, query)
	if err != nil || len(embedding) == 0 {
		logger.Error("failed to embed search query", zap.Error(err))
		return []model.SearchResult{}
	}
	hits, err := s.docs.Query(ctx, embedding, n, databaseFilter, "")
	if err != nil {
		logger.Error("schema search failed", zap.Error(err))
		return []model.SearchResult{}
	}
	results := make([]model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		similarity := similarityFromDistance(hit.Distance)
		results = append(results, model.SearchResult{
			Content:         hit.Content,
			Metadata:        hit.Metadata,
			SimilarityScore: similarity,
			Relevance:       relevanceForSimilarity(similarity),
		})
	}
	logger.Debug("semantic search done", zap.Int("results", len(results)))
	return results
}

func directAnswerResult(answer string, details map[string]interface{}, databaseFilter string) model.SearchResult {
	scope := databaseFilter
	if scope == "" {
		scope = "all"
	}
	return model.SearchResult{
		Content: answer,
		Metadata: map[string]interface{}{
			"type":          "metadata_answer",
			"query_type":    "direct_answer",
			"database_name": scope,
		},
		SimilarityScore: 1.0,
		Relevance:       model.RelevanceDirectAnswer,
		Details:         details,
	}
}

// similarityFromDistance maps the index distance to a score in [0, 1].
// Negative distances can come from inner product metrics, those are clamped
// via abs instead of the 1-d conversion.
func similarityFromDistance(distance float64) float64 {
	if distance >= 0 {
		return math.Max(0, 1-distance)
	}
	return math.Abs(distance)
}

func relevanceForSimilarity(similarity float64) string {
	switch {
	case similarity > 0.7:
		return model.RelevanceHigh
	case similarity > 0.4:
		return model.RelevanceMedium
	default:
		return model.RelevanceLow
	}
}

// Overview aggregates the whole store in one scan: per database document
// counts and table/collection name sets plus a histogram over document types.
// Store failures degrade to the all-zero shape.
func (s *RAGService) Overview(ctx context.Context) *model.Overview {
	rows, err := s.docs.Get(ctx, "", "")
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to scan schema documents", zap.Error(err))
		return model.EmptyOverview()
	}

	overview := model.EmptyOverview()
	overview.TotalDocuments = int64(len(rows))
	tableSets := make(map[string]map[string]struct{})
	collectionSets := make(map[string]map[string]struct{})

	for _, row := range rows {
		dbInfo, ok := overview.Databases[row.DatabaseName]
		if !ok {
			dbInfo = &model.DatabaseOverview{
				Type:        metadataString(row.Metadata, "database_type"),
				Tables:      []string{},
				Collections: []string{},
			}
			overview.Databases[row.DatabaseName] = dbInfo
			tableSets[row.DatabaseName] = make(map[string]struct{})
			collectionSets[row.DatabaseName] = make(map[string]struct{})
		}
		dbInfo.DocumentCount++
		if name := metadataString(row.Metadata, "table_name"); name != "" {
			tableSets[row.DatabaseName][name] = struct{}{}
		}
		if name := metadataString(row.Metadata, "collection_name"); name != "" {
			collectionSets[row.DatabaseName][name] = struct{}{}
		}
		overview.DocumentTypes[row.DocType]++
	}
	for dbName, dbInfo := range overview.Databases {
		dbInfo.Tables = sortedKeys(tableSets[dbName])
		dbInfo.Collections = sortedKeys(collectionSets[dbName])
	}
	return overview
}

// Context renders every stored document of one database as a plain text
// block grouped by document type, used to prime SQL generation.
func (s *RAGService) Context(ctx context.Context, database string) string {
	rows, err := s.docs.Get(ctx, database, "")
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to load schema context",
			zap.String("database", database), zap.Error(err))
		return fmt.Sprintf("No schema information found for database '%s'.", database)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No schema information found for database '%s'.", database)
	}

	grouped := make(map[string][]model.StoredDocument)
	for _, row := range rows {
		grouped[row.DocType] = append(grouped[row.DocType], row)
	}

	sections := []struct {
		docType string
		title   string
	}{
		{string(model.DocTypeTable), "Tables"},
		{string(model.DocTypeColumn), "Columns"},
		{string(model.DocTypeRelationship), "Relationships"},
		{string(model.DocTypeCollection), "Collections"},
		{string(model.DocTypeField), "Fields"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schema information for database '%s':\n", database)
	for _, section := range sections {
		docs := grouped[section.docType]
		if len(docs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", section.title)
		for _, doc := range docs {
			b.WriteString(doc.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DeleteDatabase removes every document of one database. Returns false only
// when the store reported an error; deleting an absent database is a no-op
// success.
func (s *RAGService) DeleteDatabase(ctx context.Context, databaseName string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	deleted, err := s.docs.DeleteByDatabase(ctx, databaseName)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to delete schema documents",
			zap.String("database", databaseName), zap.Error(err))
		return false
	}
	logutil.GetLogger(ctx).Info("schema documents deleted",
		zap.String("database", databaseName), zap.Int64("deleted", deleted))
	return true
}

// Reset wipes the whole store. Destructive; callers gate it behind explicit
// confirmation.
func (s *RAGService) Reset(ctx context.Context) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.docs.Reset(ctx); err != nil {
		logutil.GetLogger(ctx).Error("failed to reset schema store", zap.Error(err))
		return false
	}
	logutil.GetLogger(ctx).Info("schema store reset")
	return true
}

// Count reports the number of stored documents, used by health reporting.
func (s *RAGService) Count(ctx context.Context) int64 {
	count, err := s.docs.Count(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to count schema documents", zap.Error(err))
		return 0
	}
	return count
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
