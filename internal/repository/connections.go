package repository

import (
	"context"
	"fmt"

	"github.com/imyashkale/geoconnect/internal/database"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/secrets"
)

// ConnectionFilter narrows connection listings
type ConnectionFilter = database.ConnectionFilter

// ConnectionRepository defines the interface for connection operations.
// Secrets are sealed on the way in and opened on the way out.
type ConnectionRepository interface {
	CreateSimpleAuth(ctx context.Context, conn *models.SimpleAuthConnection) error
	CreateTokenAuth(ctx context.Context, conn *models.TokenAuthConnection) error
	GetByID(ctx context.Context, id string) (*models.Connection, error)
	List(ctx context.Context, filter ConnectionFilter) ([]*models.Connection, error)
	Delete(ctx context.Context, conn *models.Connection) error

	// GetSimpleAuth and GetTokenAuth return ErrNotFound when the base
	// connection has no concretization of that kind
	GetSimpleAuth(ctx context.Context, base *models.Connection) (*models.SimpleAuthConnection, error)
	GetTokenAuth(ctx context.Context, base *models.Connection) (*models.TokenAuthConnection, error)
}

// dynamoConnectionRepository implements ConnectionRepository using DynamoDB
type dynamoConnectionRepository struct {
	db     *database.ConnectionTable
	sealer secrets.Sealer
}

// NewConnectionRepository creates a new DynamoDB-backed connection repository
func NewConnectionRepository(db *database.ConnectionTable, sealer secrets.Sealer) ConnectionRepository {
	return &dynamoConnectionRepository{
		db:     db,
		sealer: sealer,
	}
}

func (r *dynamoConnectionRepository) CreateSimpleAuth(ctx context.Context, conn *models.SimpleAuthConnection) error {
	password, err := r.sealer.Seal(conn.Password)
	if err != nil {
		return fmt.Errorf("failed to seal password: %w", err)
	}
	return r.db.CreateConnection(ctx, &conn.Connection, &database.CredentialRecord{
		ConnectionId: conn.Id,
		Kind:         string(models.KindSimple),
		Username:     conn.Username,
		Password:     password,
		CreatedAt:    conn.CreatedAt.Unix(),
	})
}

func (r *dynamoConnectionRepository) CreateTokenAuth(ctx context.Context, conn *models.TokenAuthConnection) error {
	token, err := r.sealer.Seal(conn.Token)
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}
	return r.db.CreateConnection(ctx, &conn.Connection, &database.CredentialRecord{
		ConnectionId: conn.Id,
		Kind:         string(models.KindToken),
		Token:        token,
		Prefix:       conn.Prefix,
		CreatedAt:    conn.CreatedAt.Unix(),
	})
}

func (r *dynamoConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	return r.db.GetConnection(ctx, id)
}

func (r *dynamoConnectionRepository) List(ctx context.Context, filter ConnectionFilter) ([]*models.Connection, error) {
	return r.db.ListConnections(ctx, filter)
}

func (r *dynamoConnectionRepository) Delete(ctx context.Context, conn *models.Connection) error {
	return r.db.DeleteConnection(ctx, conn)
}

func (r *dynamoConnectionRepository) GetSimpleAuth(ctx context.Context, base *models.Connection) (*models.SimpleAuthConnection, error) {
	rec, err := r.db.GetCredential(ctx, base.Id, models.KindSimple)
	if err != nil {
		return nil, err
	}
	password, err := r.sealer.Open(rec.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to open password for connection %s: %w", base.Id, err)
	}
	return &models.SimpleAuthConnection{
		Connection: copyBase(base),
		Username:   rec.Username,
		Password:   password,
	}, nil
}

func (r *dynamoConnectionRepository) GetTokenAuth(ctx context.Context, base *models.Connection) (*models.TokenAuthConnection, error) {
	rec, err := r.db.GetCredential(ctx, base.Id, models.KindToken)
	if err != nil {
		return nil, err
	}
	token, err := r.sealer.Open(rec.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to open token for connection %s: %w", base.Id, err)
	}
	return &models.TokenAuthConnection{
		Connection: copyBase(base),
		Token:      token,
		Prefix:     rec.Prefix,
	}, nil
}

// copyBase copies the persisted attributes into a fresh base record; the
// source's memo cells stay with the source
func copyBase(base *models.Connection) models.Connection {
	return models.Connection{
		Id:        base.Id,
		Title:     base.Title,
		OwnerId:   base.OwnerId,
		ServerId:  base.ServerId,
		AuthType:  base.AuthType,
		Kind:      base.Kind,
		CreatedAt: base.CreatedAt,
		UpdatedAt: base.UpdatedAt,
	}
}
