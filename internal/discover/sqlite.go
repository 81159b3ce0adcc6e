package discover

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/schemarag/schemarag/internal/model"
)

func init() {
	Register(sqliteConnector{})
}

type sqliteConnector struct{}

func (sqliteConnector) Type() model.DatabaseType { return model.DatabaseTypeSQLite }

func (sqliteConnector) Open(ctx context.Context, cfg model.ConnectionConfig, opts Options) (Conn, error) {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	name := cfg.Database
	if name == "" || name == path {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &sqliteConn{db: db, name: name, path: path}, nil
}

type sqliteConn struct {
	db   *sql.DB
	name string
	path string
}

func (c *sqliteConn) Type() model.DatabaseType { return model.DatabaseTypeSQLite }
func (c *sqliteConn) DatabaseName() string     { return c.name }
func (c *sqliteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
func (c *sqliteConn) Close() error { return c.db.Close() }

func (c *sqliteConn) RunQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	return queryRows(ctx, c.db, query)
}

func (c *sqliteConn) Discover(ctx context.Context) (*model.DatabaseSchema, error) {
	out := &model.DatabaseSchema{
		DatabaseName: c.name,
		DatabaseType: model.DatabaseTypeSQLite,
		Host:         c.path,
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

		rels, err := c.listForeignKeys(ctx, table)
		if err != nil {
			return nil, err
		}
		out.Relationships = append(out.Relationships, rels...)
	}
	return out, nil
}

func (c *sqliteConn) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (c *sqliteConn) describeTable(ctx context.Context, table string) (model.TableSchema, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return model.TableSchema{}, fmt.Errorf("sqlite: describe %s: %w", table, err)
	}
	defer rows.Close()

	var ts model.TableSchema
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return model.TableSchema{}, fmt.Errorf("sqlite: scan column: %w", err)
		}
		col := model.ColumnSchema{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
			Default:  dflt.String,
		}
		if pk > 0 {
			col.Key = "PRI"
			ts.PrimaryKeys = append(ts.PrimaryKeys, name)
		}
		ts.Columns = append(ts.Columns, col)
	}
	return ts, rows.Err()
}

func (c *sqliteConn) listForeignKeys(ctx context.Context, table string) ([]model.Relationship, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("sqlite: foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var rels []model.Relationship
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("sqlite: scan foreign key: %w", err)
		}
		rels = append(rels, model.Relationship{
			FromTable:  table,
			FromColumn: from,
			ToTable:    refTable,
			ToColumn:   to.String,
		})
	}
	return rels, rows.Err()
}
