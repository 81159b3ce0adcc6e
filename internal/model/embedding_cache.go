package model

// EmbeddingCache is one persisted embedding, keyed by model chain, task type
// and content hash. Schema content rarely changes between refresh runs, so
// most re-index embeds resolve here instead of hitting the provider. Ctime
// drives the age-based cleanup job.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
