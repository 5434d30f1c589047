package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/queue"
)

// ServerService is the server side of the connection service
type ServerService interface {
	CreateServer(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error)
	GetServer(ctx context.Context, id string) (*models.Server, error)
	ListServers(ctx context.Context) ([]*models.Server, error)
	UpdateServer(ctx context.Context, principalID, id string, req *models.UpdateServerRequest) (*models.Server, error)
	DeleteServer(ctx context.Context, principalID, id string) error
	ServerAlive(ctx context.Context, serverID, actingUserID string) (bool, error)
}

// ProbeQueue accepts asynchronous liveness probes
type ProbeQueue interface {
	Enqueue(job *queue.ProbeJob) error
}

// ServerHandler handles server-related requests
type ServerHandler struct {
	svc    ServerService
	probes ProbeQueue
}

// NewServerHandler creates a new server handler
func NewServerHandler(svc ServerService, probes ProbeQueue) *ServerHandler {
	return &ServerHandler{svc: svc, probes: probes}
}

// Create registers a new server owned by the caller
func (h *ServerHandler) Create(c *gin.Context) {
	owner, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	server, err := h.svc.CreateServer(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server.ToResponse())
}

// List returns all servers
func (h *ServerHandler) List(c *gin.Context) {
	servers, err := h.svc.ListServers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ServerResponse, 0, len(servers))
	for _, s := range servers {
		responses = append(responses, s.ToResponse())
	}
	c.JSON(http.StatusOK, models.ServerListResponse{Servers: responses, Total: len(responses)})
}

// Get returns one server
func (h *ServerHandler) Get(c *gin.Context) {
	server, err := h.svc.GetServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, server.ToResponse())
}

// Update changes title, url or operations
func (h *ServerHandler) Update(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	var req models.UpdateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	server, err := h.svc.UpdateServer(c.Request.Context(), principal, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, server.ToResponse())
}

// Delete removes a server and its connections
func (h *ServerHandler) Delete(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteServer(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Alive probes the server synchronously
func (h *ServerHandler) Alive(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	alive, err := h.svc.ServerAlive(c.Request.Context(), id, principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AliveResponse{ServerId: id, Alive: alive})
}

// Probe queues an asynchronous liveness probe whose result is stored on the server
func (h *ServerHandler) Probe(c *gin.Context) {
	principal, ok := userID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if _, err := h.svc.GetServer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	if err := h.probes.Enqueue(&queue.ProbeJob{ServerID: id, RequestedBy: principal}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.MessageResponse{Message: "Liveness probe queued"})
}
