package model

// IndexEntry is one row ready for the index: content plus its embedding and
// the sanitized flat metadata.
type IndexEntry struct {
	ID           string                 `json:"id"`
	Content      string                 `json:"content"`
	Embedding    []float32              `json:"embedding"`
	Metadata     map[string]interface{} `json:"metadata"`
	DatabaseName string                 `json:"database_name"`
	DocType      string                 `json:"doc_type"`
}

// StoredDocument is a schema document as read back from the index, with
// metadata already in its sanitized flat form.
type StoredDocument struct {
	ID           string                 `json:"id"`
	Content      string                 `json:"content"`
	Metadata     map[string]interface{} `json:"metadata"`
	DatabaseName string                 `json:"database_name"`
	DocType      string                 `json:"doc_type"`
	Ctime        int64                  `json:"ctime"`
	Mtime        int64                  `json:"mtime"`
}

// SearchHit pairs a stored document with the raw index distance.
type SearchHit struct {
	StoredDocument
	Distance float64 `json:"distance"`
}

const (
	RelevanceHigh         = "high"
	RelevanceMedium       = "medium"
	RelevanceLow          = "low"
	RelevanceDirectAnswer = "direct_answer"
)

type SearchResult struct {
	Content         string                 `json:"content"`
	Metadata        map[string]interface{} `json:"metadata"`
	SimilarityScore float64                `json:"similarity_score"`
	Relevance       string                 `json:"relevance"`
	Details         map[string]interface{} `json:"details,omitempty"`
}

type Overview struct {
	TotalDocuments int64                        `json:"total_documents"`
	Databases      map[string]*DatabaseOverview `json:"databases"`
	DocumentTypes  map[string]int64             `json:"document_types"`
}

type DatabaseOverview struct {
	Type          string   `json:"type"`
	DocumentCount int64    `json:"document_count"`
	Tables        []string `json:"tables"`
	Collections   []string `json:"collections"`
}

func EmptyOverview() *Overview {
	return &Overview{
		Databases:     map[string]*DatabaseOverview{},
		DocumentTypes: map[string]int64{},
	}
}
