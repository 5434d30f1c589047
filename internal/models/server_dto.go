package models

import "time"

// CreateServerRequest represents the request body for registering a server
type CreateServerRequest struct {
	Title      string                 `json:"title" binding:"required"`
	ServerType string                 `json:"server_type" binding:"required"`
	URL        string                 `json:"url" binding:"required"`
	Operations map[string]interface{} `json:"operations"`
}

// ToDomain converts CreateServerRequest DTO to domain Server model
func (req *CreateServerRequest) ToDomain(ownerId string) *Server {
	now := time.Now()
	operations := req.Operations
	if operations == nil {
		operations = map[string]interface{}{}
	}
	return &Server{
		Title:      req.Title,
		OwnerId:    ownerId,
		ServerType: req.ServerType,
		URL:        req.URL,
		Operations: operations,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UpdateServerRequest carries the mutable server attributes; nil means unchanged
type UpdateServerRequest struct {
	Title      *string                `json:"title"`
	URL        *string                `json:"url"`
	Operations map[string]interface{} `json:"operations"`
}

// Apply copies the set fields onto server
func (req *UpdateServerRequest) Apply(server *Server) {
	if req.Title != nil {
		server.Title = *req.Title
	}
	if req.URL != nil {
		server.URL = *req.URL
	}
	if req.Operations != nil {
		server.Operations = req.Operations
	}
	server.UpdatedAt = time.Now()
}

// ServerResponse represents the response structure for a single server
type ServerResponse struct {
	Id            string                 `json:"id"`
	Title         string                 `json:"title"`
	Owner         string                 `json:"owner"`
	ServerType    string                 `json:"server_type"`
	URL           string                 `json:"url"`
	Operations    map[string]interface{} `json:"operations"`
	Alive         bool                   `json:"alive"`
	LastCheckedAt *time.Time             `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ServerListResponse represents the response structure for listing servers
type ServerListResponse struct {
	Servers []ServerResponse `json:"servers"`
	Total   int              `json:"total"`
}

// AliveResponse reports the live result of a server liveness check
type AliveResponse struct {
	ServerId string `json:"server_id"`
	Alive    bool   `json:"alive"`
}

// ToResponse converts a domain Server to a ServerResponse DTO
func (s *Server) ToResponse() ServerResponse {
	return ServerResponse{
		Id:            s.Id,
		Title:         s.Title,
		Owner:         s.OwnerId,
		ServerType:    s.ServerType,
		URL:           s.URL,
		Operations:    s.Operations,
		Alive:         s.Alive,
		LastCheckedAt: s.LastCheckedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
