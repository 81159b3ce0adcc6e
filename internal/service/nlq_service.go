package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/ai"
	"github.com/schemarag/schemarag/internal/discover"
	"github.com/schemarag/schemarag/internal/model"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
)

// NLQService answers free-form questions about the connected databases. A
// question is first routed by the model: schema questions go through the
// index, data questions become a generated SQL query that is executed on the
// live connection and explained back in natural language.
type NLQService struct {
	rag   *RAGService
	conns *ConnectionService
	ai    *ai.Manager
}

func NewNLQService(rag *RAGService, conns *ConnectionService, manager *ai.Manager) *NLQService {
	return &NLQService{rag: rag, conns: conns, ai: manager}
}

func (s *NLQService) Query(ctx context.Context, question string, database string) (*model.NLQResult, error) {
	overview := s.rag.Overview(ctx)
	if overview.TotalDocuments == 0 {
		return nil, fmt.Errorf("no schemas stored, discover and store a schema first: %w", appErr.ErrInvalid)
	}

	database, err := resolveDatabase(database, overview)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("question", question),
		zap.String("database", database),
	)

	schemaContext := s.rag.Context(ctx, database)
	kind, err := s.ai.AnalyzeQuery(ctx, question, schemaContext)
	if err != nil {
		logger.Error("query analysis failed", zap.Error(err))
		return nil, fmt.Errorf("analyze query: %w", err)
	}
	logger.Info("query analyzed", zap.String("kind", kind))

	if kind == "schema" {
		results := s.rag.Search(ctx, question, 0, database)
		return &model.NLQResult{
			Type:     "schema",
			Database: database,
			Results:  results,
			Count:    len(results),
		}, nil
	}

	return s.answerDataQuery(ctx, question, database, schemaContext)
}

func (s *NLQService) answerDataQuery(ctx context.Context, question, database, schemaContext string) (*model.NLQResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("database", database))

	conn, err := s.conns.GetByDatabase(database)
	if err != nil {
		return nil, fmt.Errorf("no active connection for database %s: %w", database, err)
	}
	querier, ok := conn.(discover.Querier)
	if !ok {
		return nil, fmt.Errorf("sql execution not supported for %s sources: %w", conn.Type(), appErr.ErrQueryRejected)
	}

	sqlQuery, err := s.ai.GenerateSQL(ctx, question, schemaContext, string(conn.Type()))
	if err != nil {
		logger.Error("sql generation failed", zap.Error(err))
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	if err := ensureReadOnlyQuery(sqlQuery); err != nil {
		logger.Warn("generated sql rejected", zap.String("sql", sqlQuery))
		return nil, err
	}

	logger.Info("executing generated sql", zap.String("sql", sqlQuery))
	rows, err := querier.RunQuery(ctx, sqlQuery)
	if err != nil {
		logger.Error("generated sql failed", zap.String("sql", sqlQuery), zap.Error(err))
		return nil, fmt.Errorf("execute generated sql: %w", err)
	}

	explanation := s.explainRows(ctx, question, sqlQuery, rows)
	return &model.NLQResult{
		Type:        "data",
		Database:    database,
		SQLQuery:    sqlQuery,
		Rows:        rows,
		Count:       len(rows),
		Explanation: explanation,
	}, nil
}

// ExecuteSQL runs an operator supplied read-only statement against the named
// database's live connection.
func (s *NLQService) ExecuteSQL(ctx context.Context, database string, sqlQuery string) ([]map[string]interface{}, error) {
	if strings.TrimSpace(sqlQuery) == "" {
		return nil, fmt.Errorf("sql query is required: %w", appErr.ErrInvalid)
	}
	conn, err := s.conns.GetByDatabase(database)
	if err != nil {
		return nil, fmt.Errorf("no active connection for database %s: %w", database, err)
	}
	querier, ok := conn.(discover.Querier)
	if !ok {
		return nil, fmt.Errorf("sql execution not supported for %s sources: %w", conn.Type(), appErr.ErrQueryRejected)
	}
	if err := ensureReadOnlyQuery(sqlQuery); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("executing sql",
		zap.String("database", database), zap.String("sql", sqlQuery))
	return querier.RunQuery(ctx, sqlQuery)
}

func (s *NLQService) explainRows(ctx context.Context, question, sqlQuery string, rows []map[string]interface{}) string {
	data, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	explanation, err := s.ai.ExplainResults(ctx, question, sqlQuery, string(data))
	if err != nil {
		logutil.GetLogger(ctx).Warn("result explanation failed", zap.Error(err))
		return ""
	}
	return explanation
}

func resolveDatabase(database string, overview *model.Overview) (string, error) {
	if database != "" {
		if _, ok := overview.Databases[database]; !ok {
			return "", fmt.Errorf("database %s not found in the schema store: %w", database, appErr.ErrNotFound)
		}
		return database, nil
	}
	names := make([]string, 0, len(overview.Databases))
	for name := range overview.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], nil
}

var readOnlyPrefixes = []string{"SELECT", "WITH"}

func ensureReadOnlyQuery(sqlQuery string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlQuery))
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return nil
		}
	}
	return fmt.Errorf("only read-only queries are allowed: %w", appErr.ErrQueryRejected)
}
