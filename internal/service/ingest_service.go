package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/model"
)

// IngestResult summarizes one discover-and-store round for a connection.
type IngestResult struct {
	Database        string `json:"database"`
	Type            string `json:"type"`
	Tables          int    `json:"tables"`
	Collections     int    `json:"collections"`
	Relationships   int    `json:"relationships"`
	DocumentsStored int    `json:"documents_stored"`
}

// IngestService ties discovery to the index: it walks a connected database
// and stores the resulting schema documents.
type IngestService struct {
	conns   *ConnectionService
	rag     *RAGService
	targets []model.ConnectionConfig
}

func NewIngestService(conns *ConnectionService, rag *RAGService, targets []model.ConnectionConfig) *IngestService {
	return &IngestService{conns: conns, rag: rag, targets: targets}
}

func (s *IngestService) DiscoverAndStore(ctx context.Context, name string) (*IngestResult, error) {
	schema, err := s.conns.Discover(ctx, name)
	if err != nil {
		return nil, err
	}
	stored, err := s.rag.StoreSchema(ctx, schema)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		Database:        schema.DatabaseName,
		Type:            string(schema.DatabaseType),
		Tables:          len(schema.Tables),
		Collections:     len(schema.Collections),
		Relationships:   len(schema.Relationships),
		DocumentsStored: stored,
	}, nil
}

// OpenTargets opens the statically configured connections at startup. A
// target that fails to open is logged and skipped so one dead database does
// not keep the server from starting.
func (s *IngestService) OpenTargets(ctx context.Context) {
	for _, target := range s.targets {
		if _, err := s.conns.Open(ctx, target); err != nil {
			logutil.GetLogger(ctx).Warn("open configured target failed",
				zap.String("name", target.Name), zap.Error(err))
		}
	}
}

// RefreshAll re-discovers and re-indexes every configured target. Targets are
// processed independently and the first failure is reported after the rest
// have run.
func (s *IngestService) RefreshAll(ctx context.Context) error {
	var firstErr error
	for _, target := range s.targets {
		if err := s.refreshTarget(ctx, target); err != nil {
			logutil.GetLogger(ctx).Error("refresh target failed",
				zap.String("name", target.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *IngestService) refreshTarget(ctx context.Context, target model.ConnectionConfig) error {
	if _, err := s.conns.Get(target.Name); err != nil {
		if _, err := s.conns.Open(ctx, target); err != nil {
			return fmt.Errorf("open %s: %w", target.Name, err)
		}
	}
	result, err := s.DiscoverAndStore(ctx, target.Name)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("schema refreshed",
		zap.String("name", target.Name),
		zap.String("database", result.Database),
		zap.Int("documents", result.DocumentsStored))
	return nil
}
