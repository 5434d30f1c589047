package services

import (
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/metrics"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/registry"
	"github.com/imyashkale/geoconnect/internal/session"
)

// AuthHandlers looks up auth handlers by auth type
type AuthHandlers interface {
	AuthHandler(authType string) (registry.AuthHandler, bool)
}

// SessionResolver turns concrete credentials into sessions
type SessionResolver struct {
	handlers AuthHandlers
	metrics  *metrics.Metrics
}

// NewSessionResolver creates a resolver backed by handlers
func NewSessionResolver(handlers AuthHandlers, m *metrics.Metrics) *SessionResolver {
	return &SessionResolver{handlers: handlers, metrics: m}
}

// Session returns the session for creds, building it on first use. Without
// a registered handler the anonymous session is returned.
func (r *SessionResolver) Session(creds models.AuthCredentials) session.Session {
	s, _ := creds.SessionMemo().Load(func() (session.Session, error) {
		return r.build(creds), nil
	})
	return s
}

func (r *SessionResolver) build(creds models.AuthCredentials) session.Session {
	authType := creds.SessionAuthType()

	handler, ok := r.handlers.AuthHandler(authType)
	if ok {
		if s := handler.GetSession(creds); s != nil {
			return s
		}
	}

	logger.WithFields(map[string]interface{}{
		"connection_id": creds.Base().Id,
		"auth_type":     authType,
	}).Warn("anonymous session")
	r.metrics.AnonymousSession(authType)
	return session.Anonymous()
}
