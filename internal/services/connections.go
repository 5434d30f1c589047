package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/permissions"
	"github.com/imyashkale/geoconnect/internal/repository"
	"github.com/imyashkale/geoconnect/internal/session"
)

// ConnectionService manages servers and the connections users hold to them
type ConnectionService struct {
	servers     repository.ServerRepository
	connections repository.ConnectionRepository
	perms       PermissionStore
	catalog     *catalog.Catalog

	dispatcher *CredentialDispatcher
	sessions   *SessionResolver
	liveness   *Liveness
	grants     *GrantPolicy
}

// NewConnectionService creates a new ConnectionService instance
func NewConnectionService(
	servers repository.ServerRepository,
	connections repository.ConnectionRepository,
	perms PermissionStore,
	cat *catalog.Catalog,
	sessions *SessionResolver,
	liveness *Liveness,
	grants *GrantPolicy,
) *ConnectionService {
	return &ConnectionService{
		servers:     servers,
		connections: connections,
		perms:       perms,
		catalog:     cat,
		dispatcher:  NewCredentialDispatcher(connections),
		sessions:    sessions,
		liveness:    liveness,
		grants:      grants,
	}
}

// SyncPrincipal records the authenticated user in the permission store
func (s *ConnectionService) SyncPrincipal(ctx context.Context, id, username string, isAdmin bool) error {
	return s.perms.UpsertPrincipal(ctx, &permissions.Principal{
		ID:       id,
		Username: username,
		IsAdmin:  isAdmin,
	})
}

// CreateServer validates and stores a new server owned by ownerID
func (s *ConnectionService) CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error) {
	server := req.ToDomain(ownerID)
	server.Id = uuid.New().String()

	if err := server.Validate(s.catalog); err != nil {
		return nil, err
	}

	if err := s.servers.Create(ctx, server); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrServerExists
		}
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"server_id":   server.Id,
		"server_type": server.ServerType,
		"owner_id":    ownerID,
	}).Info("Server registered")
	return server, nil
}

// GetServer returns a server by ID
func (s *ConnectionService) GetServer(ctx context.Context, id string) (*models.Server, error) {
	server, err := s.servers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return server, nil
}

// ListServers returns all servers
func (s *ConnectionService) ListServers(ctx context.Context) ([]*models.Server, error) {
	servers, err := s.servers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// UpdateServer changes title, url or operations. Only the owner or an
// administrator may update a server.
func (s *ConnectionService) UpdateServer(ctx context.Context, principalID, id string, req *models.UpdateServerRequest) (*models.Server, error) {
	server, err := s.GetServer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(ctx, principalID, server.OwnerId); err != nil {
		return nil, err
	}

	previousURL := server.URL
	req.Apply(server)
	if err := server.Validate(s.catalog); err != nil {
		return nil, err
	}

	if err := s.servers.Update(ctx, server, previousURL); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrServerExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to update server: %w", err)
	}
	return server, nil
}

// DeleteServer removes a server and every connection to it
func (s *ConnectionService) DeleteServer(ctx context.Context, principalID, id string) error {
	server, err := s.GetServer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(ctx, principalID, server.OwnerId); err != nil {
		return err
	}

	conns, err := s.connections.List(ctx, repository.ConnectionFilter{ServerId: id})
	if err != nil {
		return fmt.Errorf("failed to list server connections: %w", err)
	}
	for _, conn := range conns {
		if err := s.removeConnection(ctx, conn); err != nil && !errors.Is(err, ErrConnectionNotFound) {
			return err
		}
	}

	if err := s.servers.Delete(ctx, server); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrServerNotFound
		}
		// Connections are already gone; the server row stays and a retry
		// finishes the cascade.
		logger.WithFields(map[string]interface{}{
			"server_id":           id,
			"connections_removed": len(conns),
			"error":               err.Error(),
		}).Error("Server delete failed after its connections were removed")
		return fmt.Errorf("failed to delete server: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"server_id":   id,
		"connections": len(conns),
	}).Info("Server deleted")
	return nil
}

// ServerAlive probes a server on behalf of actingUserID
func (s *ConnectionService) ServerAlive(ctx context.Context, serverID, actingUserID string) (bool, error) {
	server, err := s.GetServer(ctx, serverID)
	if err != nil {
		return false, err
	}
	return s.liveness.IsAlive(ctx, server, actingUserID), nil
}

// RecordLiveness probes a server and stores the result on its record
func (s *ConnectionService) RecordLiveness(ctx context.Context, serverID string) (bool, error) {
	server, err := s.GetServer(ctx, serverID)
	if err != nil {
		return false, err
	}

	alive := s.liveness.IsAlive(ctx, server, "")
	if err := s.servers.UpdateLiveness(ctx, serverID, alive, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrServerNotFound
		}
		return false, fmt.Errorf("failed to record liveness: %w", err)
	}
	return alive, nil
}

// CreateSimpleAuthConnection stores a username/password connection and
// grants its permissions
func (s *ConnectionService) CreateSimpleAuthConnection(ctx context.Context, ownerID string, req *models.CreateSimpleAuthConnectionRequest) (*models.SimpleAuthConnection, error) {
	conn := req.ToDomain(ownerID)
	conn.Id = uuid.New().String()

	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if err := s.create(ctx, &conn.Connection, func() error {
		return s.connections.CreateSimpleAuth(ctx, conn)
	}); err != nil {
		return nil, err
	}
	return conn, nil
}

// CreateTokenAuthConnection stores a token connection and grants its permissions
func (s *ConnectionService) CreateTokenAuthConnection(ctx context.Context, ownerID string, req *models.CreateTokenAuthConnectionRequest) (*models.TokenAuthConnection, error) {
	conn := req.ToDomain(ownerID)
	conn.Id = uuid.New().String()

	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if err := s.create(ctx, &conn.Connection, func() error {
		return s.connections.CreateTokenAuth(ctx, conn)
	}); err != nil {
		return nil, err
	}
	return conn, nil
}

// create persists a connection then applies the grant policy. A failed
// grant removes the connection again.
func (s *ConnectionService) create(ctx context.Context, base *models.Connection, persist func() error) error {
	if _, err := s.GetServer(ctx, base.ServerId); err != nil {
		return err
	}

	if err := persist(); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrConnectionExists
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	if err := s.grants.Apply(ctx, base); err != nil {
		logger.WithFields(map[string]interface{}{
			"connection_id": base.Id,
			"error":         err.Error(),
		}).Error("Granting connection permissions failed, removing connection")

		if rmErr := s.removeConnection(ctx, base); rmErr != nil {
			logger.WithFields(map[string]interface{}{
				"connection_id": base.Id,
				"error":         rmErr.Error(),
			}).Error("Failed to remove connection after grant failure")
		}
		return fmt.Errorf("failed to grant connection permissions: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"connection_id": base.Id,
		"server_id":     base.ServerId,
		"kind":          base.Kind,
	}).Info("Connection created")
	return nil
}

// GetConnection returns a connection resolved to its credentials. The
// principal must own it, administer, or hold read permission.
func (s *ConnectionService) GetConnection(ctx context.Context, principalID, id string) (models.Credentials, error) {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireOwnerOrAdmin(ctx, principalID, conn.OwnerId); err != nil {
		if !errors.Is(err, ErrForbidden) {
			return nil, err
		}
		if authErr := s.Authorize(ctx, principalID, id, models.UseForRead); authErr != nil {
			return nil, authErr
		}
	}
	return s.Credentials(ctx, conn)
}

// ListConnections returns the connections owned by ownerID
func (s *ConnectionService) ListConnections(ctx context.Context, ownerID string) ([]models.Credentials, error) {
	return s.list(ctx, repository.ConnectionFilter{OwnerId: ownerID})
}

// ServerConnections returns the connections to serverID, narrowed to
// ownerID when it is not empty
func (s *ConnectionService) ServerConnections(ctx context.Context, serverID, ownerID string) ([]models.Credentials, error) {
	return s.list(ctx, repository.ConnectionFilter{ServerId: serverID, OwnerId: ownerID})
}

func (s *ConnectionService) list(ctx context.Context, filter repository.ConnectionFilter) ([]models.Credentials, error) {
	conns, err := s.connections.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	result := make([]models.Credentials, 0, len(conns))
	for _, conn := range conns {
		creds, err := s.Credentials(ctx, conn)
		if err != nil {
			return nil, err
		}
		result = append(result, creds)
	}
	return result, nil
}

// DeleteConnection removes a connection and its grants
func (s *ConnectionService) DeleteConnection(ctx context.Context, principalID, id string) error {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(ctx, principalID, conn.OwnerId); err != nil {
		return err
	}
	return s.removeConnection(ctx, conn)
}

// Credentials resolves conn to its concrete variant
func (s *ConnectionService) Credentials(ctx context.Context, conn *models.Connection) (models.Credentials, error) {
	return s.dispatcher.Resolve(ctx, conn)
}

// Authorize checks that principalID holds kind on the connection
func (s *ConnectionService) Authorize(ctx context.Context, principalID, connectionID string, kind models.PermissionKind) error {
	ok, err := s.perms.HasPermission(ctx, kind, principalID, connectionID)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// SessionFor returns the session of a connection for principalID, gated on kind
func (s *ConnectionService) SessionFor(ctx context.Context, principalID, connectionID string, kind models.PermissionKind) (session.Session, error) {
	conn, err := s.loadConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, principalID, connectionID, kind); err != nil {
		return nil, err
	}

	creds, err := s.Credentials(ctx, conn)
	if err != nil {
		return nil, err
	}
	authCreds, ok := creds.(models.AuthCredentials)
	if !ok {
		return nil, ErrNoCredentials
	}
	return s.sessions.Session(authCreds), nil
}

func (s *ConnectionService) loadConnection(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := s.connections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

func (s *ConnectionService) removeConnection(ctx context.Context, conn *models.Connection) error {
	if err := s.connections.Delete(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if err := s.perms.RevokeConnection(ctx, conn.Id); err != nil {
		return fmt.Errorf("failed to revoke connection permissions: %w", err)
	}
	return nil
}

func (s *ConnectionService) requireOwnerOrAdmin(ctx context.Context, principalID, ownerID string) error {
	if principalID != "" && principalID == ownerID {
		return nil
	}
	p, err := s.perms.GetPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, permissions.ErrPrincipalNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("failed to load principal: %w", err)
	}
	if !p.IsAdmin {
		return ErrForbidden
	}
	return nil
}
