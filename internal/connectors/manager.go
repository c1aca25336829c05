package connectors

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Opener creates a connector for a data source
type Opener func(ctx context.Context, source DataSource) (Connector, error)

// Manager keeps one pooled connector per distinct data source
type Manager struct {
	mu         sync.Mutex
	connectors map[string]Connector
	open       Opener
	logger     *zap.Logger
}

func NewManager(lc fx.Lifecycle, logger *zap.Logger) *Manager {
	m := newManager(NewExternalDBConnector, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			m.CloseAll(ctx)
			return nil
		},
	})
	return m
}

func newManager(open Opener, logger *zap.Logger) *Manager {
	return &Manager{
		connectors: make(map[string]Connector),
		open:       open,
		logger:     logger,
	}
}

// Get returns a cached connector for source, opening one on first use
func (m *Manager) Get(ctx context.Context, source DataSource) (Connector, error) {
	key, err := BuildConnectionString(source)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.connectors[key]; ok {
		return conn, nil
	}

	conn, err := m.open(ctx, source)
	if err != nil {
		return nil, err
	}
	m.connectors[key] = conn
	m.logger.Info("Opened data source connection",
		zap.String("type", source.Type),
		zap.String("host", source.Host),
		zap.String("database", source.Database))
	return conn, nil
}

func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, conn := range m.connectors {
		if err := conn.Disconnect(ctx); err != nil {
			m.logger.Warn("Failed to close data source connection", zap.Error(err))
		}
		delete(m.connectors, key)
	}
}
