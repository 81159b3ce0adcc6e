package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

type ManagerConfig struct {
	Timeout int
}

// Manager binds the configured generators and the embedder to the prompt
// surface the rest of the system uses. Each role may be backed by a
// different provider/model chain.
type Manager struct {
	analyzer  IGenerator
	sqlgen    IGenerator
	explainer IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(
	analyzer IGenerator,
	sqlgen IGenerator,
	explainer IGenerator,
	embedder IEmbedder,
	cfg ManagerConfig,
) *Manager {
	return &Manager{
		analyzer:  analyzer,
		sqlgen:    sqlgen,
		explainer: explainer,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text, TaskTypeDocument)
}

func (m *Manager) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text, TaskTypeQuery)
}

func (m *Manager) embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	return m.embedder.Embed(ctx, text, taskType)
}

// AnalyzeQuery routes a natural-language question to either "data" (the
// answer lives in the rows) or "schema" (the answer is about structure).
func (m *Manager) AnalyzeQuery(ctx context.Context, question string, schemaContext string) (string, error) {
	if m.analyzer == nil {
		return "", fmt.Errorf("analyzer not configured")
	}
	prompt := fmt.Sprintf(`You are a database expert assistant. Analyze the user's query and determine if it is asking about database schema or actual data.

Schema Context:
%s

Rules:
- If the query asks for counts, specific records, values or data analysis (like "how many students", "show me users", "average price"), classify as "data"
- If the query asks about structure, tables, columns, relationships (like "what tables exist", "show table structure"), classify as "schema"

User Query: %s

Respond with only one word: either "data" or "schema"`, schemaContext, question)
	result, err := m.generateText(ctx, m.analyzer, prompt)
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(result), "schema") {
		return "schema", nil
	}
	return "data", nil
}

func (m *Manager) GenerateSQL(ctx context.Context, question string, schemaContext string, dbType string) (string, error) {
	if m.sqlgen == nil {
		return "", fmt.Errorf("sql generator not configured")
	}
	prompt := fmt.Sprintf(`You are a SQL expert. Generate a SQL query for the user's request using the provided database schema.

Database Type: %s

Schema Information:
%s

User Request: %s

Instructions:
1. Generate ONLY a valid SQL query, no explanations or extra text
2. Use proper SQL syntax for %s
3. Only use tables and columns that exist in the schema
4. For count queries, use COUNT(*) or COUNT(column_name)
5. Include appropriate WHERE clauses if needed

Generate only the SQL query, nothing else:`, dbType, schemaContext, question, dbType)
	result, err := m.generateText(ctx, m.sqlgen, prompt)
	if err != nil {
		return "", err
	}
	sqlText := extractSQL(result)
	if sqlText == "" {
		return "", fmt.Errorf("no sql found in response")
	}
	return sqlText, nil
}

func (m *Manager) ExplainResults(ctx context.Context, question string, sqlQuery string, results string) (string, error) {
	if m.explainer == nil {
		return "", fmt.Errorf("explainer not configured")
	}
	prompt := fmt.Sprintf(`The user asked: "%s"
The SQL query executed: %s
Query results:
%s

Provide a clear, natural language explanation of these results. Be concise and answer the original question directly.`, question, sqlQuery, results)
	return m.generateText(ctx, m.explainer, prompt)
}

func (m *Manager) generateText(ctx context.Context, gen IGenerator, prompt string) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

var sqlStatementPrefixes = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"}

// extractSQL pulls the SQL statement out of a model response that may wrap
// it in a fenced code block or surround it with prose.
func extractSQL(output string) string {
	clean := strings.TrimSpace(output)
	if idx := strings.Index(clean, "```sql"); idx >= 0 {
		rest := clean[idx+len("```sql"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(clean, "```"); idx >= 0 {
		rest := clean[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	for _, line := range strings.Split(clean, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		for _, prefix := range sqlStatementPrefixes {
			if strings.HasPrefix(upper, prefix) {
				return trimmed
			}
		}
	}
	upper := strings.ToUpper(clean)
	for _, prefix := range sqlStatementPrefixes {
		if strings.Contains(upper, prefix) {
			return strings.TrimSpace(strings.Trim(clean, "` \t\n"))
		}
	}
	return ""
}
