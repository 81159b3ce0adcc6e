package job

import (
	"context"

	"github.com/schemarag/schemarag/internal/service"
)

type SchemaRefreshJob struct {
	ingest *service.IngestService
}

func NewSchemaRefreshJob(ingest *service.IngestService) *SchemaRefreshJob {
	return &SchemaRefreshJob{ingest: ingest}
}

func (j *SchemaRefreshJob) Name() string {
	return "schema_refresh"
}

func (j *SchemaRefreshJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	return j.ingest.RefreshAll(ctx)
}
