package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/discover"
	"github.com/schemarag/schemarag/internal/model"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
)

// ConnectionService is the registry of live database connections, keyed by
// the target name from config or the connect request. Opening a name that is
// already connected closes the old connection first.
type ConnectionService struct {
	opts discover.Options

	mu    sync.Mutex
	conns map[string]discover.Conn
	infos map[string]model.ConnectionInfo
}

func NewConnectionService(opts discover.Options) *ConnectionService {
	return &ConnectionService{
		opts:  opts,
		conns: make(map[string]discover.Conn),
		infos: make(map[string]model.ConnectionInfo),
	}
}

func (s *ConnectionService) Open(ctx context.Context, cfg model.ConnectionConfig) (model.ConnectionInfo, error) {
	if cfg.Name == "" {
		return model.ConnectionInfo{}, fmt.Errorf("connection name is required: %w", appErr.ErrInvalid)
	}
	conn, err := discover.Open(ctx, cfg, s.opts)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to open connection",
			zap.String("name", cfg.Name), zap.String("type", string(cfg.Type)), zap.Error(err))
		return model.ConnectionInfo{}, err
	}

	info := model.ConnectionInfo{
		Name:     cfg.Name,
		Type:     cfg.Type,
		Database: conn.DatabaseName(),
		Host:     cfg.Host,
		Ctime:    time.Now().UnixMilli(),
	}

	s.mu.Lock()
	if old, ok := s.conns[cfg.Name]; ok {
		_ = old.Close()
	}
	s.conns[cfg.Name] = conn
	s.infos[cfg.Name] = info
	s.mu.Unlock()

	logutil.GetLogger(ctx).Info("connection opened",
		zap.String("name", cfg.Name),
		zap.String("type", string(cfg.Type)),
		zap.String("database", info.Database),
	)
	return info, nil
}

func (s *ConnectionService) Get(name string) (discover.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[name]
	if !ok {
		return nil, appErr.ErrNotConnected
	}
	return conn, nil
}

// GetByDatabase finds a connection whose underlying database matches, used
// when callers address a target by database name instead of connection name.
func (s *ConnectionService) GetByDatabase(database string) (discover.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn, ok := s.conns[database]; ok {
		return conn, nil
	}
	for _, conn := range s.conns {
		if conn.DatabaseName() == database {
			return conn, nil
		}
	}
	return nil, appErr.ErrNotConnected
}

func (s *ConnectionService) List() []model.ConnectionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConnectionInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *ConnectionService) Close(ctx context.Context, name string) error {
	s.mu.Lock()
	conn, ok := s.conns[name]
	delete(s.conns, name)
	delete(s.infos, name)
	s.mu.Unlock()
	if !ok {
		return appErr.ErrNotConnected
	}
	if err := conn.Close(); err != nil {
		logutil.GetLogger(ctx).Warn("failed to close connection",
			zap.String("name", name), zap.Error(err))
		return err
	}
	logutil.GetLogger(ctx).Info("connection closed", zap.String("name", name))
	return nil
}

func (s *ConnectionService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	conns := s.conns
	s.conns = make(map[string]discover.Conn)
	s.infos = make(map[string]model.ConnectionInfo)
	s.mu.Unlock()
	for name, conn := range conns {
		if err := conn.Close(); err != nil {
			logutil.GetLogger(ctx).Warn("failed to close connection",
				zap.String("name", name), zap.Error(err))
		}
	}
}

// Discover introspects the schema behind a named connection.
func (s *ConnectionService) Discover(ctx context.Context, name string) (*model.DatabaseSchema, error) {
	conn, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	schema, err := conn.Discover(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("schema discovery failed",
			zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("discover schema of %s: %w", name, err)
	}
	return schema, nil
}
