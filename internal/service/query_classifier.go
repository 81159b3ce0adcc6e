package service

import "regexp"

// Patterns that mark a question as a metadata/statistics query answerable by
// direct aggregation instead of similarity search. Anything that matches none
// of them falls through to semantic search, so a miss degrades to a normal
// retrieval rather than an error.
var metadataQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)how many.*table`),
	regexp.MustCompile(`(?i)how many.*column`),
	regexp.MustCompile(`(?i)how many.*database`),
	regexp.MustCompile(`(?i)count.*table`),
	regexp.MustCompile(`(?i)count.*column`),
	regexp.MustCompile(`(?i)list.*table`),
	regexp.MustCompile(`(?i)list.*column`),
	regexp.MustCompile(`(?i)show.*all.*table`),
	regexp.MustCompile(`(?i)what.*table.*exist`),
	regexp.MustCompile(`(?i)give me.*overview`),
	regexp.MustCompile(`(?i)summary`),
	regexp.MustCompile(`(?i)statistics`),
}

func isMetadataQuery(query string) bool {
	for _, pattern := range metadataQueryPatterns {
		if pattern.MatchString(query) {
			return true
		}
	}
	return false
}
