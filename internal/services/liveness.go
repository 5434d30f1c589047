package services

import (
	"context"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/metrics"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/registry"
)

// ServerHandlers looks up server handler factories by server type
type ServerHandlers interface {
	ServerFactory(serverType string) (registry.ServerFactory, bool)
	Catalog() *catalog.Catalog
}

// Liveness builds server handlers and surfaces their liveness probe
type Liveness struct {
	handlers ServerHandlers
	metrics  *metrics.Metrics
}

// NewLiveness creates a Liveness backed by handlers
func NewLiveness(handlers ServerHandlers, m *metrics.Metrics) *Liveness {
	return &Liveness{handlers: handlers, metrics: m}
}

// BuildHandler returns a fresh handler for server, or nil when its type has
// no registered implementation
func (l *Liveness) BuildHandler(server *models.Server, actingUserID string) registry.ServerHandler {
	factory, ok := l.handlers.ServerFactory(server.ServerType)
	if !ok {
		key, _ := server.HandlerKey(l.handlers.Catalog())
		logger.WithFields(map[string]interface{}{
			"server_id":   server.Id,
			"server_type": server.ServerType,
			"handler_key": key,
		}).Debug("No server handler available")
		return nil
	}
	return factory(server.URL, server.Id, actingUserID)
}

// IsAlive probes server on behalf of actingUserID. A server without a
// handler is not alive.
func (l *Liveness) IsAlive(ctx context.Context, server *models.Server, actingUserID string) bool {
	alive := false
	if h := l.BuildHandler(server, actingUserID); h != nil {
		alive = h.IsAlive(ctx)
	}
	l.metrics.ObserveLiveness(server.ServerType, alive)
	return alive
}
