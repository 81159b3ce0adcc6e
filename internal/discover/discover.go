package discover

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/schemarag/schemarag/internal/model"
	"github.com/schemarag/schemarag/internal/pkg/errors"
)

const (
	defaultSampleSize    = 100
	defaultMaxFieldDepth = 5
	maxQueryRows         = 500
)

// Options bounds the sampling work done while discovering document stores.
type Options struct {
	SampleSize    int
	MaxFieldDepth int
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = defaultSampleSize
	}
	if o.MaxFieldDepth <= 0 {
		o.MaxFieldDepth = defaultMaxFieldDepth
	}
	return o
}

// Connector opens connections for one database engine.
type Connector interface {
	Type() model.DatabaseType
	Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error)
}

// Conn is an established connection that can describe its own schema.
type Conn interface {
	Type() model.DatabaseType
	DatabaseName() string
	Discover(ctx context.Context) (*model.DatabaseSchema, error)
	Ping(ctx context.Context) error
	Close() error
}

// Querier runs read only queries. Document store connections do not implement it.
type Querier interface {
	RunQuery(ctx context.Context, query string) ([]map[string]interface{}, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[model.DatabaseType]Connector)
)

// Register adds a connector to the registry, replacing any previous one for
// the same database type.
func Register(c Connector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Type()] = c
}

func lookup(t model.DatabaseType) (Connector, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[t]
	return c, ok
}

// Open dials the database described by cfg using the registered connector for
// its type.
func Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error) {
	c, ok := lookup(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("open %s connection: %w", cfg.Type, errors.ErrUnsupportedDatabase)
	}
	return c.Open(ctx, cfg, opts.withDefaults())
}

// queryRows runs a query and materializes the result set as one map per row,
// capped at maxQueryRows. Byte slices are converted to strings so the rows
// JSON encode cleanly.
func queryRows(ctx context.Context, db *sql.DB, query string) ([]map[string]interface{}, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]map[string]interface{}, 0, 16)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
		if len(out) >= maxQueryRows {
			break
		}
	}
	return out, rows.Err()
}
