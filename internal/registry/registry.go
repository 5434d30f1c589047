// Package registry resolves server types and auth types to the handler
// implementations registered for them.
//
// Lookups go through the catalog: a wire value (e.g. "WMS") is translated
// to its implementation key (e.g. "OGC_WMS") and the key to the registered
// implementation. Lookups never fail hard; an unknown value or an
// unregistered key yields "no handler". Registration misuse panics.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/session"
)

// Scope selects one of the two disjoint handler registries
type Scope int

const (
	ScopeServer Scope = iota + 1
	ScopeAuth
)

// String returns the scope label used in logs and metrics
func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeAuth:
		return "auth"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ServerHandler performs protocol specific operations against one server
type ServerHandler interface {
	// IsAlive probes the server. Implementations normalize every failure to false.
	IsAlive(ctx context.Context) bool
}

// ServerFactory builds a handler bound to a server and an optional acting user
type ServerFactory func(url, serverID, actingUserID string) ServerHandler

// AuthHandler builds sessions for one auth kind
type AuthHandler interface {
	GetSession(creds models.AuthCredentials) session.Session
}

// AuthHandlerFunc adapts a function to AuthHandler
type AuthHandlerFunc func(creds models.AuthCredentials) session.Session

// GetSession calls f(creds)
func (f AuthHandlerFunc) GetSession(creds models.AuthCredentials) session.Session {
	return f(creds)
}

// Observer receives lookup outcomes, typically to record metrics
type Observer interface {
	ObserveLookup(scope string, found bool)
}

// Registry holds the server and auth handler registrations
type Registry struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	servers  map[string]ServerFactory
	auths    map[string]AuthHandler
	observer Observer
}

// New creates an empty registry resolving keys through cat
func New(cat *catalog.Catalog) *Registry {
	if cat == nil {
		panic("registry: nil catalog")
	}
	return &Registry{
		catalog: cat,
		servers: make(map[string]ServerFactory),
		auths:   make(map[string]AuthHandler),
	}
}

// SetObserver installs an observer for lookup outcomes
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Catalog returns the catalog used for key translation
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// RegisterServer registers a server handler factory under an implementation key.
// It panics if name is empty, factory is nil or name is already registered.
func (r *Registry) RegisterServer(name string, factory ServerFactory) {
	if name == "" {
		panic("registry: RegisterServer with empty name")
	}
	if factory == nil {
		panic("registry: RegisterServer factory is nil for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.servers[name]; dup {
		panic("registry: RegisterServer called twice for " + name)
	}
	r.servers[name] = factory
}

// RegisterAuth registers an auth handler under an implementation key.
// It panics if name is empty, handler is nil or name is already registered.
func (r *Registry) RegisterAuth(name string, handler AuthHandler) {
	if name == "" {
		panic("registry: RegisterAuth with empty name")
	}
	if handler == nil {
		panic("registry: RegisterAuth handler is nil for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.auths[name]; dup {
		panic("registry: RegisterAuth called twice for " + name)
	}
	r.auths[name] = handler
}

// Resolve looks up the implementation for a discriminator key in scope.
// The result is a ServerFactory for ScopeServer and an AuthHandler for
// ScopeAuth, or nil when no handler is available. An invalid scope panics.
func (r *Registry) Resolve(key string, scope Scope) interface{} {
	var (
		name string
		ok   bool
	)
	switch scope {
	case ScopeServer:
		name, ok = r.catalog.ServerName(key)
	case ScopeAuth:
		name, ok = r.catalog.AuthName(key)
	default:
		panic(fmt.Sprintf("registry: invalid scope %d", int(scope)))
	}

	r.mu.RLock()
	var impl interface{}
	if ok {
		if scope == ScopeServer {
			if f, found := r.servers[name]; found {
				impl = f
			}
		} else if h, found := r.auths[name]; found {
			impl = h
		}
	}
	observer := r.observer
	r.mu.RUnlock()

	if observer != nil {
		observer.ObserveLookup(scope.String(), impl != nil)
	}
	if impl == nil {
		logger.WithFields(map[string]interface{}{
			"scope":       scope.String(),
			"key":         key,
			"in_catalog":  ok,
			"handler_key": name,
		}).Debug("No handler registered for key")
	}
	return impl
}

// ServerFactory returns the factory for a server type value
func (r *Registry) ServerFactory(serverType string) (ServerFactory, bool) {
	f, ok := r.Resolve(serverType, ScopeServer).(ServerFactory)
	return f, ok
}

// AuthHandler returns the handler for an auth type value
func (r *Registry) AuthHandler(authType string) (AuthHandler, bool) {
	h, ok := r.Resolve(authType, ScopeAuth).(AuthHandler)
	return h, ok
}
