package models

import (
	"time"

	"github.com/imyashkale/geoconnect/internal/catalog"
)

// CreateSimpleAuthConnectionRequest is the request body for a username/password connection
type CreateSimpleAuthConnectionRequest struct {
	ServerId string `json:"server_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	AuthType string `json:"auth_type" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToDomain converts the request to a SimpleAuthConnection owned by ownerId
func (req *CreateSimpleAuthConnectionRequest) ToDomain(ownerId string) *SimpleAuthConnection {
	now := time.Now()
	return &SimpleAuthConnection{
		Connection: Connection{
			Title:     req.Title,
			OwnerId:   ownerId,
			ServerId:  req.ServerId,
			AuthType:  req.AuthType,
			Kind:      KindSimple,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username: req.Username,
		Password: req.Password,
	}
}

// CreateTokenAuthConnectionRequest is the request body for a token connection.
// A missing prefix defaults to "Bearer"; an explicit empty prefix is kept.
type CreateTokenAuthConnectionRequest struct {
	ServerId string  `json:"server_id" binding:"required"`
	Title    string  `json:"title" binding:"required"`
	Token    string  `json:"token" binding:"required"`
	Prefix   *string `json:"prefix"`
}

// ToDomain converts the request to a TokenAuthConnection owned by ownerId
func (req *CreateTokenAuthConnectionRequest) ToDomain(ownerId string) *TokenAuthConnection {
	now := time.Now()
	prefix := DefaultTokenPrefix
	if req.Prefix != nil {
		prefix = *req.Prefix
	}
	return &TokenAuthConnection{
		Connection: Connection{
			Title:     req.Title,
			OwnerId:   ownerId,
			ServerId:  req.ServerId,
			AuthType:  catalog.AuthToken,
			Kind:      KindToken,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Token:  req.Token,
		Prefix: prefix,
	}
}

// ConnectionResponse represents a connection without its secrets
type ConnectionResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	ServerId  string    `json:"server_id"`
	AuthType  string    `json:"auth_type"`
	Kind      string    `json:"kind"`
	Username  string    `json:"username,omitempty"`
	Prefix    string    `json:"prefix,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConnectionListResponse represents the response structure for listing connections
type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
	Total       int                  `json:"total"`
}

// SessionResponse describes the session a connection resolves to
type SessionResponse struct {
	ConnectionId string `json:"connection_id"`
	AuthType     string `json:"auth_type,omitempty"`
	Anonymous    bool   `json:"anonymous"`
}

// ToConnectionResponse converts resolved credentials to a response DTO,
// exposing the username or prefix but never the password or token
func ToConnectionResponse(creds Credentials) ConnectionResponse {
	base := creds.Base()
	resp := ConnectionResponse{
		Id:        base.Id,
		Title:     base.Title,
		Owner:     base.OwnerId,
		ServerId:  base.ServerId,
		AuthType:  base.AuthType,
		Kind:      string(creds.CredentialKind()),
		CreatedAt: base.CreatedAt,
		UpdatedAt: base.UpdatedAt,
	}
	switch c := creds.(type) {
	case *SimpleAuthConnection:
		resp.Username = c.Username
	case *TokenAuthConnection:
		resp.Prefix = c.Prefix
	}
	return resp
}
