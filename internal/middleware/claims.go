package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// Context keys set by the authentication middleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIsAdmin  = "is_admin"
	ContextClaims   = "token_claims"
)

// Claims are the token claims the service relies on
type Claims struct {
	Subject  string `mapstructure:"sub"`
	Username string `mapstructure:"username"`
	Nickname string `mapstructure:"nickname"`
	IsAdmin  bool   `mapstructure:"is_admin"`
}

// Name returns the username claim, falling back to nickname then subject
func (c *Claims) Name() string {
	switch {
	case c.Username != "":
		return c.Username
	case c.Nickname != "":
		return c.Nickname
	default:
		return c.Subject
	}
}

// PrincipalSync records authenticated principals
type PrincipalSync interface {
	SyncPrincipal(ctx context.Context, id, username string, isAdmin bool) error
}

// decodeClaims projects the raw claims onto Claims, ignoring unknown keys
func decodeClaims(raw jwt.MapClaims) (*Claims, error) {
	var claims Claims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &claims,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingUserID
	}
	return &claims, nil
}

// setPrincipal stores the principal on the gin context and syncs it
func setPrincipal(c *gin.Context, raw jwt.MapClaims, claims *Claims, sync PrincipalSync) error {
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextUsername, claims.Name())
	c.Set(ContextIsAdmin, claims.IsAdmin)
	c.Set(ContextClaims, raw)

	if sync == nil {
		return nil
	}
	if err := sync.SyncPrincipal(c.Request.Context(), claims.Subject, claims.Name(), claims.IsAdmin); err != nil {
		return errors.Join(ErrPrincipalSync, err)
	}
	return nil
}
