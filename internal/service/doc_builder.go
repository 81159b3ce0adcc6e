package service

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/schemarag/schemarag/internal/model"
)

// BuildDocuments turns one discovered schema into the flat list of schema
// documents that gets embedded and indexed. Ids are derived from database,
// type and entity path so re-discovering the same source upserts in place
// instead of duplicating. Iteration is sorted to keep output order stable
// across runs. A schema with no tables or collections yields an empty list.
func BuildDocuments(schema *model.DatabaseSchema) []model.SchemaDocument {
	if schema == nil {
		return nil
	}
	var docs []model.SchemaDocument
	docs = append(docs, buildRelationalDocuments(schema)...)
	docs = append(docs, buildCollectionDocuments(schema)...)
	return docs
}

func buildRelationalDocuments(schema *model.DatabaseSchema) []model.SchemaDocument {
	var docs []model.SchemaDocument
	prefix := fmt.Sprintf("%s_%s", schema.DatabaseName, schema.DatabaseType)

	tableNames := make([]string, 0, len(schema.Tables))
	for name := range schema.Tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	for _, tableName := range tableNames {
		table := schema.Tables[tableName]
		docs = append(docs, model.SchemaDocument{
			ID:      fmt.Sprintf("%s_%s", prefix, tableName),
			Content: formatTableContent(tableName, table, schema.DatabaseType),
			Metadata: model.DocMetadata{
				Type:         model.DocTypeTable,
				DatabaseType: schema.DatabaseType,
				DatabaseName: schema.DatabaseName,
				Host:         schema.Host,
				Table: &model.TableMeta{
					TableName:     tableName,
					ColumnCount:   len(table.Columns),
					HasPrimaryKey: len(table.PrimaryKeys) > 0,
					PrimaryKeys:   table.PrimaryKeys,
				},
			},
		})

		for _, column := range table.Columns {
			docs = append(docs, model.SchemaDocument{
				ID:      fmt.Sprintf("%s_%s_%s", prefix, tableName, column.Name),
				Content: formatColumnContent(tableName, column),
				Metadata: model.DocMetadata{
					Type:         model.DocTypeColumn,
					DatabaseType: schema.DatabaseType,
					DatabaseName: schema.DatabaseName,
					Host:         schema.Host,
					Column: &model.ColumnMeta{
						TableName:    tableName,
						ColumnName:   column.Name,
						ColumnType:   column.Type,
						IsNullable:   column.Nullable,
						IsPrimaryKey: slices.Contains(table.PrimaryKeys, column.Name),
					},
				},
			})
		}
	}

	for i, rel := range schema.Relationships {
		docs = append(docs, model.SchemaDocument{
			ID:      fmt.Sprintf("%s_relationship_%d", prefix, i),
			Content: formatRelationshipContent(rel, schema.DatabaseType),
			Metadata: model.DocMetadata{
				Type:         model.DocTypeRelationship,
				DatabaseType: schema.DatabaseType,
				DatabaseName: schema.DatabaseName,
				Host:         schema.Host,
				Relationship: &model.RelationshipMeta{
					FromTable:  rel.FromTable,
					FromColumn: rel.FromColumn,
					ToTable:    rel.ToTable,
					ToColumn:   rel.ToColumn,
				},
			},
		})
	}
	return docs
}

func buildCollectionDocuments(schema *model.DatabaseSchema) []model.SchemaDocument {
	var docs []model.SchemaDocument
	prefix := fmt.Sprintf("%s_%s", schema.DatabaseName, schema.DatabaseType)

	collectionNames := make([]string, 0, len(schema.Collections))
	for name := range schema.Collections {
		collectionNames = append(collectionNames, name)
	}
	sort.Strings(collectionNames)

	for _, collectionName := range collectionNames {
		collection := schema.Collections[collectionName]
		docs = append(docs, model.SchemaDocument{
			ID:      fmt.Sprintf("%s_%s", prefix, collectionName),
			Content: formatCollectionContent(collectionName, collection),
			Metadata: model.DocMetadata{
				Type:         model.DocTypeCollection,
				DatabaseType: schema.DatabaseType,
				DatabaseName: schema.DatabaseName,
				Host:         schema.Host,
				Collection: &model.CollectionMeta{
					CollectionName: collectionName,
					DocumentCount:  collection.DocumentCount,
					FieldCount:     len(collection.Fields),
				},
			},
		})

		for _, fieldName := range sortedFieldPaths(collection.Fields) {
			field := collection.Fields[fieldName]
			docs = append(docs, model.SchemaDocument{
				ID:      fmt.Sprintf("%s_%s_%s", prefix, collectionName, strings.ReplaceAll(fieldName, ".", "_")),
				Content: formatFieldContent(collectionName, fieldName, field),
				Metadata: model.DocMetadata{
					Type:         model.DocTypeField,
					DatabaseType: schema.DatabaseType,
					DatabaseName: schema.DatabaseName,
					Host:         schema.Host,
					Field: &model.FieldMeta{
						CollectionName: collectionName,
						FieldName:      fieldName,
						FieldTypes:     field.Types,
						FieldCount:     field.Count,
						NullCount:      field.NullCount,
					},
				},
			})
		}
	}
	return docs
}

func sortedFieldPaths(fields map[string]model.FieldInfo) []string {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func formatTableContent(tableName string, table model.TableSchema, dbType model.DatabaseType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s in %s database\n", tableName, dbType)
	fmt.Fprintf(&b, "Description: This is a %s table with %d columns.\n", tableName, len(table.Columns))
	fmt.Fprintf(&b, "Keywords: table, %s, database table, data storage, %s\n", tableName, dbType)

	if len(table.Columns) > 0 {
		b.WriteString("Columns and fields:\n")
		for _, column := range table.Columns {
			fmt.Fprintf(&b, "- %s (%s)", column.Name, column.Type)
			if !column.Nullable {
				b.WriteString(" NOT NULL")
			}
			if slices.Contains(table.PrimaryKeys, column.Name) {
				b.WriteString(" PRIMARY KEY")
			}
			b.WriteString("\n")
		}
	}
	if len(table.PrimaryKeys) > 0 {
		fmt.Fprintf(&b, "Primary Keys: %s\n", strings.Join(table.PrimaryKeys, ", "))
	}
	fmt.Fprintf(&b, "Business Context: The %s table likely contains information about %s.\n", tableName, inferTablePurpose(tableName))
	fmt.Fprintf(&b, "Related terms: %s data, %s information, %s records\n", tableName, tableName, tableName)
	return b.String()
}

func formatColumnContent(tableName string, column model.ColumnSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Column: %s in table %s\n", column.Name, tableName)
	fmt.Fprintf(&b, "Data Type: %s\n", column.Type)
	fmt.Fprintf(&b, "Nullable: %s\n", yesNo(column.Nullable))
	fmt.Fprintf(&b, "Keywords: column, field, %s, %s, data field\n", column.Name, tableName)
	if column.Default != "" {
		fmt.Fprintf(&b, "Default Value: %s\n", column.Default)
	}
	fmt.Fprintf(&b, "Business Context: The %s field likely represents %s.\n", column.Name, inferColumnPurpose(column.Name))
	return b.String()
}

func formatRelationshipContent(rel model.Relationship, dbType model.DatabaseType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Foreign Key Relationship in %s database\n", dbType)
	fmt.Fprintf(&b, "From: %s.%s\n", rel.FromTable, rel.FromColumn)
	fmt.Fprintf(&b, "To: %s.%s\n", rel.ToTable, rel.ToColumn)
	b.WriteString("Keywords: relationship, foreign key, connection, join, link\n")
	fmt.Fprintf(&b, "This relationship connects %s to %s through the %s and %s columns.\n",
		rel.FromTable, rel.ToTable, rel.FromColumn, rel.ToColumn)
	return b.String()
}

func formatCollectionContent(collectionName string, collection model.CollectionSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection: %s in MongoDB database\n", collectionName)
	fmt.Fprintf(&b, "Document Count: %d\n", collection.DocumentCount)
	fmt.Fprintf(&b, "Fields: %d\n", len(collection.Fields))
	fmt.Fprintf(&b, "Keywords: collection, %s, MongoDB, documents, NoSQL\n", collectionName)

	if len(collection.Fields) > 0 {
		b.WriteString("Field Summary:\n")
		paths := sortedFieldPaths(collection.Fields)
		if len(paths) > 10 {
			paths = paths[:10]
		}
		for _, path := range paths {
			fmt.Fprintf(&b, "- %s: %s\n", path, strings.Join(collection.Fields[path].Types, ", "))
		}
	}
	fmt.Fprintf(&b, "Business Context: The %s collection likely stores %s.\n", collectionName, inferCollectionPurpose(collectionName))
	return b.String()
}

func formatFieldContent(collectionName string, fieldName string, field model.FieldInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Field: %s in collection %s\n", fieldName, collectionName)
	fmt.Fprintf(&b, "Data Types: %s\n", strings.Join(field.Types, ", "))
	fmt.Fprintf(&b, "Keywords: field, %s, %s, MongoDB field\n", fieldName, collectionName)
	fmt.Fprintf(&b, "Occurrences: %d documents\n", field.Count)

	nullPct := 0.0
	if field.Count > 0 {
		nullPct = float64(field.NullCount) / float64(field.Count) * 100
	}
	fmt.Fprintf(&b, "Null Values: %d (%.1f%%)\n", field.NullCount, nullPct)
	fmt.Fprintf(&b, "Business Context: The %s field likely represents %s.\n", fieldName, inferFieldPurpose(fieldName))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
