// Package permissions persists principals and per-connection permission
// grants with GORM over SQLite or PostgreSQL.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/imyashkale/geoconnect/internal/models"
)

// DatabaseType defines the supported database backends
type DatabaseType string

const (
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypePostgres DatabaseType = "postgres"
)

var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrInvalidPermission = errors.New("invalid permission kind")
)

// Config contains database configuration
type Config struct {
	Type DatabaseType
	// Path is the SQLite database file
	Path string
	// DSN is the PostgreSQL connection string
	DSN string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.DSN == "" {
			return fmt.Errorf("postgres dsn is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Principal is a user known to the permission store
type Principal struct {
	ID        string `gorm:"primaryKey;size:64"`
	Username  string `gorm:"uniqueIndex;size:200;not null"`
	IsAdmin   bool   `gorm:"index;not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConnectionPermission grants one permission kind on one connection
type ConnectionPermission struct {
	ID           string `gorm:"primaryKey;size:36"`
	Kind         string `gorm:"uniqueIndex:idx_connection_permission;size:32;not null"`
	PrincipalID  string `gorm:"uniqueIndex:idx_connection_permission;size:64;not null"`
	ConnectionID string `gorm:"uniqueIndex:idx_connection_permission;index;size:64;not null"`
	CreatedAt    time.Time
}

// Store is the GORM backed permission store
type Store struct {
	db *gorm.DB
}

// New opens the database and migrates the schema
func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid permission store configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(config.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DatabaseTypePostgres:
		dialector = postgres.Open(config.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to permission store: %w", err)
	}

	if err := db.AutoMigrate(&Principal{}, &ConnectionPermission{}); err != nil {
		return nil, fmt.Errorf("failed to run permission store migration: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// UpsertPrincipal creates the principal or refreshes its username and admin flag
func (s *Store) UpsertPrincipal(ctx context.Context, p *Principal) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "is_admin", "updated_at"}),
	}).Create(p).Error
}

// GetPrincipal returns the principal with the given id
func (s *Store) GetPrincipal(ctx context.Context, id string) (*Principal, error) {
	var p Principal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListAdministrators returns every principal flagged as administrator
func (s *Store) ListAdministrators(ctx context.Context) ([]*Principal, error) {
	var admins []*Principal
	if err := s.db.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// AssignPermission grants kind on a connection. Existing grants are left untouched.
func (s *Store) AssignPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPermission, kind)
	}
	perm := &ConnectionPermission{
		ID:           uuid.New().String(),
		Kind:         string(kind),
		PrincipalID:  principalID,
		ConnectionID: connectionID,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(perm).Error
}

// HasPermission reports whether the principal holds kind on the connection
func (s *Store) HasPermission(ctx context.Context, kind models.PermissionKind, principalID, connectionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ConnectionPermission{}).
		Where("kind = ? AND principal_id = ? AND connection_id = ?", string(kind), principalID, connectionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListGrants returns all grants on a connection ordered by principal and kind
func (s *Store) ListGrants(ctx context.Context, connectionID string) ([]*ConnectionPermission, error) {
	var grants []*ConnectionPermission
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("principal_id, kind").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// RevokeConnection removes every grant on a connection
func (s *Store) RevokeConnection(ctx context.Context, connectionID string) error {
	return s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Delete(&ConnectionPermission{}).Error
}
