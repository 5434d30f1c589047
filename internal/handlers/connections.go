package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/session"
)

// ConnectionService is the connection side of the connection service
type ConnectionService interface {
	CreateSimpleAuthConnection(ctx context.Context, ownerID string, req *models.CreateSimpleAuthConnectionRequest) (*models.SimpleAuthConnection, error)
	CreateTokenAuthConnection(ctx context.Context, ownerID string, req *models.CreateTokenAuthConnectionRequest) (*models.TokenAuthConnection, error)
	GetConnection(ctx context.Context, principalID, id string) (models.Credentials, error)
	ListConnections(ctx context.Context, ownerID string) ([]models.Credentials, error)
	ServerConnections(ctx context.Context, serverID, ownerID string) ([]models.Credentials, error)
	DeleteConnection(ctx context.Context, principalID, id string) error
	SessionFor(ctx context.Context, principalID, connectionID string, kind models.PermissionKind) (session.Session, error)
}

// ConnectionHandler handles connection-related requests
type ConnectionHandler struct {
	svc ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(svc ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

// CreateSimple creates a BASIC or DIGEST connection owned by the caller
func (h *ConnectionHandler) CreateSimple(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreateSimpleAuthConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conn, err := h.svc.CreateSimpleAuthConnection(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToConnectionResponse(conn))
}

// CreateToken creates a TOKEN connection owned by the caller
func (h *ConnectionHandler) CreateToken(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreateTokenAuthConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conn, err := h.svc.CreateTokenAuthConnection(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToConnectionResponse(conn))
}

// List returns the caller's connections, optionally narrowed by ?server_id=
func (h *ConnectionHandler) List(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var (
		conns []models.Credentials
		err   error
	)
	if serverID := c.Query("server_id"); serverID != "" {
		conns, err = h.svc.ServerConnections(c.Request.Context(), serverID, owner)
	} else {
		conns, err = h.svc.ListConnections(c.Request.Context(), owner)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		responses = append(responses, models.ToConnectionResponse(conn))
	}
	c.JSON(http.StatusOK, models.ConnectionListResponse{Connections: responses, Total: len(responses)})
}

// Get returns one connection without its secrets
func (h *ConnectionHandler) Get(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	conn, err := h.svc.GetConnection(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToConnectionResponse(conn))
}

// Delete removes a connection and its grants
func (h *ConnectionHandler) Delete(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteConnection(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports which session the caller would use through a connection.
// ?mode=read (default) or ?mode=write selects the required permission.
func (h *ConnectionHandler) Session(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	var kind models.PermissionKind
	switch mode := c.DefaultQuery("mode", "read"); mode {
	case "read":
		kind = models.UseForRead
	case "write":
		kind = models.UseForWrite
	default:
		badRequest(c, fmt.Errorf("mode must be read or write, got %q", mode))
		return
	}

	id := c.Param("id")
	s, err := h.svc.SessionFor(c.Request.Context(), principal, id, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionResponse{
		ConnectionId: id,
		AuthType:     s.AuthType(),
		Anonymous:    s.IsAnonymous(),
	})
}
