package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/metrics"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/permissions"
)

// PermissionStore persists principals and connection grants
type PermissionStore interface {
	AssignPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) error
	HasPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) (bool, error)
	ListAdministrators(ctx context.Context) ([]*permissions.Principal, error)
	GetPrincipal(ctx context.Context, id string) (*permissions.Principal, error)
	UpsertPrincipal(ctx context.Context, p *permissions.Principal) error
	RevokeConnection(ctx context.Context, connectionID string) error
}

// GrantPolicy grants read and write use of a new connection to its owner
// and every administrator
type GrantPolicy struct {
	store         PermissionStore
	anonymousUser string
	metrics       *metrics.Metrics
}

// NewGrantPolicy creates a policy; connections owned by anonymousUser get no grants
func NewGrantPolicy(store PermissionStore, anonymousUser string, m *metrics.Metrics) *GrantPolicy {
	return &GrantPolicy{
		store:         store,
		anonymousUser: anonymousUser,
		metrics:       m,
	}
}

// Apply grants both permission kinds on conn. It is idempotent.
func (g *GrantPolicy) Apply(ctx context.Context, conn *models.Connection) error {
	if conn.OwnerId == "" {
		return nil
	}

	owner, err := g.store.GetPrincipal(ctx, conn.OwnerId)
	switch {
	case err == nil:
		if owner.Username == g.anonymousUser {
			logger.WithField("connection_id", conn.Id).Debug("Skipping grants for anonymous owner")
			return nil
		}
	case errors.Is(err, permissions.ErrPrincipalNotFound):
		// Unknown owners are granted by id
	default:
		return fmt.Errorf("failed to load owner: %w", err)
	}

	admins, err := g.store.ListAdministrators(ctx)
	if err != nil {
		return fmt.Errorf("failed to list administrators: %w", err)
	}

	targets := []string{conn.OwnerId}
	seen := map[string]bool{conn.OwnerId: true}
	for _, admin := range admins {
		if !seen[admin.ID] {
			seen[admin.ID] = true
			targets = append(targets, admin.ID)
		}
	}

	granted := 0
	for _, principalID := range targets {
		for _, kind := range models.ConnectionPermissions {
			if err := g.store.AssignPermission(ctx, kind, principalID, conn.Id); err != nil {
				return fmt.Errorf("failed to grant %s to %s: %w", kind, principalID, err)
			}
			granted++
		}
	}
	g.metrics.ObserveGrants(granted)

	logger.WithFields(map[string]interface{}{
		"connection_id": conn.Id,
		"principals":    len(targets),
	}).Debug("Connection permissions granted")
	return nil
}
