package plugins

import (
	"github.com/imyashkale/geoconnect/internal/models"
	"github.com/imyashkale/geoconnect/internal/session"
)

// BasicAuthHandler builds sessions sending HTTP basic credentials
type BasicAuthHandler struct{}

// GetSession returns an anonymous session for anything but a simple-auth record
func (BasicAuthHandler) GetSession(creds models.AuthCredentials) session.Session {
	c, ok := creds.(*models.SimpleAuthConnection)
	if !ok {
		return session.Anonymous()
	}
	return session.New(creds.SessionAuthType(), session.BasicAuth(c.Username, c.Password))
}

// TokenAuthHandler builds sessions sending "Authorization: <prefix> <token>"
type TokenAuthHandler struct{}

// GetSession returns an anonymous session for anything but a token record
func (TokenAuthHandler) GetSession(creds models.AuthCredentials) session.Session {
	c, ok := creds.(*models.TokenAuthConnection)
	if !ok {
		return session.Anonymous()
	}
	return session.New(creds.SessionAuthType(), session.Header("Authorization", c.HeaderValue()))
}
