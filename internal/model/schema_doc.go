package model

type DocType string

const (
	DocTypeTable        DocType = "table"
	DocTypeColumn       DocType = "column"
	DocTypeRelationship DocType = "relationship"
	DocTypeCollection   DocType = "collection"
	DocTypeField        DocType = "field"
)

// SchemaDocument is one indexed unit of schema knowledge. The embedding may
// be empty when generation failed; such documents are skipped at store time.
type SchemaDocument struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Metadata  DocMetadata `json:"metadata"`
	Embedding []float32   `json:"embedding,omitempty"`
}

// DocMetadata carries the common fields plus exactly one variant matching
// Type. Flatten produces the raw map handed to the sanitizer before the
// document is written to the index.
type DocMetadata struct {
	Type         DocType      `json:"type"`
	DatabaseType DatabaseType `json:"database_type"`
	DatabaseName string       `json:"database_name"`
	Host         string       `json:"host"`

	Table        *TableMeta        `json:"table,omitempty"`
	Column       *ColumnMeta       `json:"column,omitempty"`
	Relationship *RelationshipMeta `json:"relationship,omitempty"`
	Collection   *CollectionMeta   `json:"collection,omitempty"`
	Field        *FieldMeta        `json:"field,omitempty"`
}

type TableMeta struct {
	TableName     string   `json:"table_name"`
	ColumnCount   int      `json:"column_count"`
	HasPrimaryKey bool     `json:"has_primary_key"`
	PrimaryKeys   []string `json:"primary_keys"`
}

type ColumnMeta struct {
	TableName    string `json:"table_name"`
	ColumnName   string `json:"column_name"`
	ColumnType   string `json:"column_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

type RelationshipMeta struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

type CollectionMeta struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  int64  `json:"document_count"`
	FieldCount     int    `json:"field_count"`
}

type FieldMeta struct {
	CollectionName string   `json:"collection_name"`
	FieldName      string   `json:"field_name"`
	FieldTypes     []string `json:"field_types"`
	FieldCount     int64    `json:"field_count"`
	NullCount      int64    `json:"null_count"`
}

func (m DocMetadata) Flatten() map[string]interface{} {
	out := map[string]interface{}{
		"type":          string(m.Type),
		"database_type": string(m.DatabaseType),
		"database_name": m.DatabaseName,
		"host":          m.Host,
	}
	switch {
	case m.Table != nil:
		out["table_name"] = m.Table.TableName
		out["column_count"] = m.Table.ColumnCount
		out["has_primary_key"] = m.Table.HasPrimaryKey
		out["primary_keys"] = m.Table.PrimaryKeys
	case m.Column != nil:
		out["table_name"] = m.Column.TableName
		out["column_name"] = m.Column.ColumnName
		out["column_type"] = m.Column.ColumnType
		out["is_nullable"] = m.Column.IsNullable
		out["is_primary_key"] = m.Column.IsPrimaryKey
	case m.Relationship != nil:
		out["from_table"] = m.Relationship.FromTable
		out["from_column"] = m.Relationship.FromColumn
		out["to_table"] = m.Relationship.ToTable
		out["to_column"] = m.Relationship.ToColumn
	case m.Collection != nil:
		out["collection_name"] = m.Collection.CollectionName
		out["document_count"] = m.Collection.DocumentCount
		out["field_count"] = m.Collection.FieldCount
	case m.Field != nil:
		out["collection_name"] = m.Field.CollectionName
		out["field_name"] = m.Field.FieldName
		out["field_types"] = m.Field.FieldTypes
		out["field_count"] = m.Field.FieldCount
		out["null_count"] = m.Field.NullCount
	}
	return out
}
