package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemarag/schemarag/internal/model"
)

// answerMetadataQuery computes a direct textual answer from the aggregate
// overview, no embedding involved. An empty answer means none of the keyword
// branches matched the question; the caller decides whether to surface that
// as-is or fall back to semantic search.
func answerMetadataQuery(query string, overview *model.Overview, databaseFilter string) (string, map[string]interface{}) {
	lower := strings.ToLower(query)
	details := make(map[string]interface{})

	if databaseFilter != "" {
		if dbInfo, ok := overview.Databases[databaseFilter]; ok {
			return answerForDatabase(lower, databaseFilter, dbInfo, overview, details)
		}
	}
	return answerForAll(lower, overview, details)
}

func answerForDatabase(lower, name string, dbInfo *model.DatabaseOverview, overview *model.Overview, details map[string]interface{}) (string, map[string]interface{}) {
	switch {
	case strings.Contains(lower, "table"):
		tableCount := len(dbInfo.Tables)
		collectionCount := len(dbInfo.Collections)
		if tableCount > 0 {
			details["tables"] = dbInfo.Tables
			return fmt.Sprintf("The '%s' database has %d table%s.", name, tableCount, plural(tableCount)), details
		}
		if collectionCount > 0 {
			details["collections"] = dbInfo.Collections
			return fmt.Sprintf("The '%s' database has %d collection%s.", name, collectionCount, plural(collectionCount)), details
		}
		return fmt.Sprintf("The '%s' database has no tables or collections stored in the RAG system.", name), details
	case strings.Contains(lower, "column"):
		// Approximate: counts column-typed documents across the whole store,
		// which equals the real column count only because every column yields
		// exactly one document.
		columnCount := overview.DocumentTypes[string(model.DocTypeColumn)]
		return fmt.Sprintf("The '%s' database has approximately %d columns across all tables.", name, columnCount), details
	}
	return "", details
}

func answerForAll(lower string, overview *model.Overview, details map[string]interface{}) (string, map[string]interface{}) {
	totalDBs := len(overview.Databases)
	totalTables := 0
	totalCollections := 0
	for _, dbInfo := range overview.Databases {
		totalTables += len(dbInfo.Tables)
		totalCollections += len(dbInfo.Collections)
	}

	switch {
	case strings.Contains(lower, "table"):
		var b strings.Builder
		if totalTables > 0 {
			fmt.Fprintf(&b, "There are %d table%s across %d database%s.", totalTables, plural(totalTables), totalDBs, plural(totalDBs))
			breakdown := make(map[string]int, totalDBs)
			for dbName, dbInfo := range overview.Databases {
				breakdown[dbName] = len(dbInfo.Tables)
			}
			details["breakdown"] = breakdown
		}
		if totalCollections > 0 {
			fmt.Fprintf(&b, " Additionally, there are %d MongoDB collection%s.", totalCollections, plural(totalCollections))
			breakdown := make(map[string]int, totalDBs)
			for dbName, dbInfo := range overview.Databases {
				breakdown[dbName] = len(dbInfo.Collections)
			}
			details["collections_breakdown"] = breakdown
		}
		return strings.TrimSpace(b.String()), details
	case strings.Contains(lower, "database"):
		names := make([]string, 0, totalDBs)
		for dbName := range overview.Databases {
			names = append(names, dbName)
		}
		sort.Strings(names)
		details["databases"] = names
		return fmt.Sprintf("There are %d database%s stored in the RAG system: %s",
			totalDBs, plural(totalDBs), strings.Join(names, ", ")), details
	case strings.Contains(lower, "overview") || strings.Contains(lower, "summary"):
		entities := totalTables + totalCollections
		details["total_documents"] = overview.TotalDocuments
		details["databases"] = overview.Databases
		details["document_types"] = overview.DocumentTypes
		return fmt.Sprintf("RAG System Overview: %d database%s, %d table%s/collection%s, %d total schema documents.",
			totalDBs, plural(totalDBs), entities, plural(entities), plural(entities), overview.TotalDocuments), details
	}
	return "", details
}

func plural(n int) string {
	if n != 1 {
		return "s"
	}
	return ""
}
