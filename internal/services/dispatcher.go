package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/repository"
)

// ConcretizationStore loads the credential rows of a base connection.
// Both lookups return repository.ErrNotFound when no row exists.
type ConcretizationStore interface {
	GetSimpleAuth(ctx context.Context, base *models.Connection) (*models.SimpleAuthConnection, error)
	GetTokenAuth(ctx context.Context, base *models.Connection) (*models.TokenAuthConnection, error)
}

type variantLookup struct {
	kind   models.ConnectionKind
	lookup func(ctx context.Context, base *models.Connection) (models.Credentials, error)
}

// CredentialDispatcher resolves a base Connection to its concrete credential variant
type CredentialDispatcher struct {
	variants []variantLookup
}

// NewCredentialDispatcher creates a dispatcher over store
func NewCredentialDispatcher(store ConcretizationStore) *CredentialDispatcher {
	// Priority order for records without a kind
	return &CredentialDispatcher{
		variants: []variantLookup{
			{kind: models.KindSimple, lookup: func(ctx context.Context, base *models.Connection) (models.Credentials, error) {
				c, err := store.GetSimpleAuth(ctx, base)
				if err != nil {
					return nil, err
				}
				return c, nil
			}},
			{kind: models.KindToken, lookup: func(ctx context.Context, base *models.Connection) (models.Credentials, error) {
				c, err := store.GetTokenAuth(ctx, base)
				if err != nil {
					return nil, err
				}
				return c, nil
			}},
		},
	}
}

// Resolve returns the concrete variant of conn, or conn itself when it has
// none. Only not-found lookups are swallowed. Successful results are cached
// on conn.
func (d *CredentialDispatcher) Resolve(ctx context.Context, conn *models.Connection) (models.Credentials, error) {
	return conn.CredentialsMemo().Load(func() (models.Credentials, error) {
		return d.resolve(ctx, conn)
	})
}

func (d *CredentialDispatcher) resolve(ctx context.Context, conn *models.Connection) (models.Credentials, error) {
	if conn.Kind != models.KindBare {
		for _, v := range d.variants {
			if v.kind != conn.Kind {
				continue
			}
			creds, err := v.lookup(ctx, conn)
			if err == nil {
				return creds, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to load %s credentials: %w", v.kind, err)
			}
			logger.WithFields(map[string]interface{}{
				"connection_id": conn.Id,
				"kind":          conn.Kind,
			}).Warn("Connection declares a credential kind with no stored row")
			return conn, nil
		}
		logger.WithFields(map[string]interface{}{
			"connection_id": conn.Id,
			"kind":          conn.Kind,
		}).Warn("Unknown connection kind, probing all variants")
	}

	for _, v := range d.variants {
		creds, err := v.lookup(ctx, conn)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load %s credentials: %w", v.kind, err)
		}
	}
	return conn, nil
}
