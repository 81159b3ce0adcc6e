package discover

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/schemarag/schemarag/internal/model"
)

func init() {
	Register(postgresConnector{})
}

type postgresConnector struct{}

func (postgresConnector) Type() model.DatabaseType { return model.DatabaseTypePostgreSQL }

func (postgresConnector) Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &postgresConn{db: db, name: cfg.Database, host: cfg.Host}, nil
}

type postgresConn struct {
	db   *sql.DB
	name string
	host string
}

func (c *postgresConn) Type() model.DatabaseType { return model.DatabaseTypePostgreSQL }
func (c *postgresConn) DatabaseName() string     { return c.name }
func (c *postgresConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
func (c *postgresConn) Close() error { return c.db.Close() }

func (c *postgresConn) RunQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	return queryRows(ctx, c.db, query)
}

func (c *postgresConn) Discover(ctx context.Context) (*model.DatabaseSchema, error) {
	out := &model.DatabaseSchema{
		DatabaseName: c.name,
		DatabaseType: model.DatabaseTypePostgreSQL,
		Host:         c.host,
		Tables:       make(map[string]model.TableSchema),
	}

	tables, err := c.listTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		ts, err := c.describeTable(ctx, table)
		if err != nil {
			return nil, err
		}
		out.Tables[table] = ts
	}

	rels, err := c.listRelationships(ctx)
	if err != nil {
		return nil, err
	}
	out.Relationships = rels
	return out, nil
}

func (c *postgresConn) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (c *postgresConn) describeTable(ctx context.Context, table string) (model.TableSchema, error) {
	const colQuery = `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`
	rows, err := c.db.QueryContext(ctx, colQuery, table)
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("postgres: describe %s: %w", table, err)
	}
	defer rows.Close()

	var ts model.TableSchema
	for rows.Next() {
		var (
			name     string
			colType  string
			nullable string
			dflt     sql.NullString
		)
		if err := rows.Scan(&name, &colType, &nullable, &dflt); err != nil {
			return model.TableSchema{}, fmt.Errorf("postgres: scan column: %w", err)
		}
		ts.Columns = append(ts.Columns, model.ColumnSchema{
			Name:     name,
			Type:     colType,
			Nullable: nullable == "YES",
			Default:  dflt.String,
		})
	}
	if err := rows.Err(); err != nil {
		return model.TableSchema{}, err
	}

	pks, err := c.primaryKeys(ctx, table)
	if err != nil {
		return model.TableSchema{}, err
	}
	ts.PrimaryKeys = pks
	return ts, nil
}

func (c *postgresConn) primaryKeys(ctx context.Context, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`
	rows, err := c.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: primary keys of %s: %w", table, err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan primary key: %w", err)
		}
		pks = append(pks, name)
	}
	return pks, rows.Err()
}

func (c *postgresConn) listRelationships(ctx context.Context) ([]model.Relationship, error) {
	const q = `
		SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
		WHERE tc.table_schema = 'public' AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.table_name, kcu.column_name`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list foreign keys: %w", err)
	}
	defer rows.Close()

	var rels []model.Relationship
	for rows.Next() {
		var r model.Relationship
		if err := rows.Scan(&r.FromTable, &r.FromColumn, &r.ToTable, &r.ToColumn); err != nil {
			return nil, fmt.Errorf("postgres: scan foreign key: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
