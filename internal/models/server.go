package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/imyashkale/geoconnect/internal/catalog"
)

// Server represents a remote map/feature/data server.
// (ServerType, URL) is unique across all servers.
type Server struct {
	Id         string
	Title      string `validate:"required,max=150"`
	OwnerId    string `validate:"required"`
	ServerType string `validate:"required,max=15"`
	URL        string `validate:"required,server_url"`
	// Operations is a free-form capability document
	Operations map[string]interface{}

	// Last liveness probe result, written by the probe workers
	Alive         bool
	LastCheckedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	handlerKey Memo[string]
}

// Validate checks field constraints and that ServerType is in the catalog
func (s *Server) Validate(cat *catalog.Catalog) error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if !cat.HasServer(s.ServerType) {
		return fmt.Errorf("%w: unsupported server type %q", ErrValidation, s.ServerType)
	}
	return nil
}

// HandlerKey returns the implementation key for this server's type.
// The result is cached on the instance once resolved.
func (s *Server) HandlerKey(cat *catalog.Catalog) (string, bool) {
	key, err := s.handlerKey.Load(func() (string, error) {
		name, ok := cat.ServerName(s.ServerType)
		if !ok {
			return "", errNoHandlerKey
		}
		return name, nil
	})
	return key, err == nil
}

var errNoHandlerKey = errors.New("no handler key")

// ToMap projects all declared attributes keyed by field name
func (s *Server) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":              s.Id,
		"title":           s.Title,
		"owner":           s.OwnerId,
		"server_type":     s.ServerType,
		"url":             s.URL,
		"operations":      s.Operations,
		"alive":           s.Alive,
		"last_checked_at": s.LastCheckedAt,
		"created_at":      s.CreatedAt,
		"updated_at":      s.UpdatedAt,
	}
}

// String returns the server URL
func (s *Server) String() string {
	return s.URL
}
