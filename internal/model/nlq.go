package model

// NLQResult is the outcome of one natural-language query. Type is "schema"
// when the question was answered from the index (Results set) and "data"
// when it was answered by generating and running SQL (SQLQuery/Rows set).
type NLQResult struct {
	Type        string                   `json:"type"`
	Database    string                   `json:"database"`
	Results     []SearchResult           `json:"results,omitempty"`
	SQLQuery    string                   `json:"sql_query,omitempty"`
	Rows        []map[string]interface{} `json:"rows,omitempty"`
	Count       int                      `json:"count"`
	Explanation string                   `json:"explanation,omitempty"`
}
