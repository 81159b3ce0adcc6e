package discover

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/schemarag/schemarag/internal/model"
)

func init() {
	Register(mysqlConnector{})
}

type mysqlConnector struct{}

func (mysqlConnector) Type() model.DatabaseType { return model.DatabaseTypeMySQL }

func (mysqlConnector) Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &mysqlConn{db: db, name: cfg.Database, host: cfg.Host}, nil
}

type mysqlConn struct {
	db   *sql.DB
	name string
	host string
}

func (c *mysqlConn) Type() model.DatabaseType { return model.DatabaseTypeMySQL }
func (c *mysqlConn) DatabaseName() string     { return c.name }
func (c *mysqlConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
func (c *mysqlConn) Close() error { return c.db.Close() }

func (c *mysqlConn) RunQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	return queryRows(ctx, c.db, query)
}

func (c *mysqlConn) Discover(ctx context.Context) (*model.DatabaseSchema, error) {
	out := &model.DatabaseSchema{
		DatabaseName: c.name,
		DatabaseType: model.DatabaseTypeMySQL,
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

func (c *mysqlConn) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`
	rows, err := c.db.QueryContext(ctx, q, c.name)
	if err != nil {
		return nil, fmt.Errorf("mysql: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysql: scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (c *mysqlConn) describeTable(ctx context.Context, table string) (model.TableSchema, error) {
	const q = `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT, EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`
	rows, err := c.db.QueryContext(ctx, q, c.name, table)
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("mysql: describe %s: %w", table, err)
	}
	defer rows.Close()

	var ts model.TableSchema
	for rows.Next() {
		var (
			name     string
			colType  string
			nullable string
			key      string
			dflt     sql.NullString
			extra    string
		)
		if err := rows.Scan(&name, &colType, &nullable, &key, &dflt, &extra); err != nil {
			return model.TableSchema{}, fmt.Errorf("mysql: scan column: %w", err)
		}
		ts.Columns = append(ts.Columns, model.ColumnSchema{
			Name:     name,
			Type:     colType,
			Nullable: nullable == "YES",
			Key:      key,
			Default:  dflt.String,
			Extra:    extra,
		})
		if key == "PRI" {
			ts.PrimaryKeys = append(ts.PrimaryKeys, name)
		}
	}
	return ts, rows.Err()
}

func (c *mysqlConn) listRelationships(ctx context.Context) ([]model.Relationship, error) {
	const q = `
		SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY TABLE_NAME, COLUMN_NAME`
	rows, err := c.db.QueryContext(ctx, q, c.name)
	if err != nil {
		return nil, fmt.Errorf("mysql: list foreign keys: %w", err)
	}
	defer rows.Close()

	var rels []model.Relationship
	for rows.Next() {
		var r model.Relationship
		if err := rows.Scan(&r.FromTable, &r.FromColumn, &r.ToTable, &r.ToColumn); err != nil {
			return nil, fmt.Errorf("mysql: scan foreign key: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
