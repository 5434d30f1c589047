// Package session defines the authenticated context used to talk to a
// remote server, and the process-wide anonymous fallback.
package session

import (
	"net/http"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
)

// Session is an authenticated (or anonymous) context for calls against a server
type Session interface {
	// Client returns an HTTP client that applies the session credentials
	Client() *http.Client
	// AuthType is the auth kind that produced the session, empty when anonymous
	AuthType() string
	IsAnonymous() bool
}

// RequestDecorator mutates an outgoing request, typically to attach credentials
type RequestDecorator func(req *http.Request)

type httpSession struct {
	client    *http.Client
	authType  string
	anonymous bool
}

func (s *httpSession) Client() *http.Client { return s.client }
func (s *httpSession) AuthType() string     { return s.authType }
func (s *httpSession) IsAnonymous() bool    { return s.anonymous }

var (
	anonymousOnce sync.Once
	anonymous     Session
)

// Anonymous returns the unauthenticated session singleton
func Anonymous() Session {
	anonymousOnce.Do(func() {
		anonymous = &httpSession{
			client:    cleanhttp.DefaultPooledClient(),
			anonymous: true,
		}
	})
	return anonymous
}

// New builds a session whose client runs decorate on every outgoing request
func New(authType string, decorate RequestDecorator) Session {
	client := cleanhttp.DefaultPooledClient()
	client.Transport = &decoratingTransport{
		base:     client.Transport,
		decorate: decorate,
	}
	return &httpSession{
		client:   client,
		authType: authType,
	}
}

// BasicAuth returns a decorator setting HTTP basic credentials
func BasicAuth(username, password string) RequestDecorator {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

// Header returns a decorator setting a single header value
func Header(name, value string) RequestDecorator {
	return func(req *http.Request) {
		req.Header.Set(name, value)
	}
}

type decoratingTransport struct {
	base     http.RoundTripper
	decorate RequestDecorator
}

// RoundTrip decorates a clone of req so the caller's request is left untouched
func (t *decoratingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.decorate != nil {
		t.decorate(clone)
	}
	return t.base.RoundTrip(clone)
}
