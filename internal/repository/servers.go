package repository

import (
	"context"
	"time"

	"github.com/imyashkale/geoconnect/internal/database"
	"github.com/imyashkale/geoconnect/internal/models"
)

// Re-export errors from database package so services don't import it
var (
	ErrNotFound      = database.ErrNotFound
	ErrAlreadyExists = database.ErrAlreadyExists
)

// ServerRepository defines the interface for server operations
type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	GetAll(ctx context.Context) ([]*models.Server, error)
	// Update persists title, url and operations; previousURL is the url
	// the server had when it was loaded
	Update(ctx context.Context, server *models.Server, previousURL string) error
	UpdateLiveness(ctx context.Context, id string, alive bool, checkedAt time.Time) error
	Delete(ctx context.Context, server *models.Server) error
}

// dynamoServerRepository implements ServerRepository using DynamoDB
type dynamoServerRepository struct {
	db *database.ServerTable
}

// NewServerRepository creates a new DynamoDB-backed server repository
func NewServerRepository(db *database.ServerTable) ServerRepository {
	return &dynamoServerRepository{
		db: db,
	}
}

func (r *dynamoServerRepository) Create(ctx context.Context, server *models.Server) error {
	return r.db.CreateServer(ctx, server)
}

func (r *dynamoServerRepository) GetByID(ctx context.Context, id string) (*models.Server, error) {
	return r.db.GetServer(ctx, id)
}

func (r *dynamoServerRepository) GetAll(ctx context.Context) ([]*models.Server, error) {
	return r.db.ListServers(ctx)
}

func (r *dynamoServerRepository) Update(ctx context.Context, server *models.Server, previousURL string) error {
	return r.db.UpdateServer(ctx, server, previousURL)
}

func (r *dynamoServerRepository) UpdateLiveness(ctx context.Context, id string, alive bool, checkedAt time.Time) error {
	return r.db.UpdateLiveness(ctx, id, alive, checkedAt)
}

func (r *dynamoServerRepository) Delete(ctx context.Context, server *models.Server) error {
	return r.db.DeleteServer(ctx, server)
}
