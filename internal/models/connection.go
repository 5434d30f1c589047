package models

import (
	"fmt"
	"time"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/session"
)

// ConnectionKind names the concrete credential variant backing a Connection
type ConnectionKind string

const (
	// KindBare marks a connection with no usable credentials
	KindBare   ConnectionKind = ""
	KindSimple ConnectionKind = "simple"
	KindToken  ConnectionKind = "token"
)

// DefaultTokenPrefix is the header value prefix used when none is given
const DefaultTokenPrefix = "Bearer"

// Credentials is a Connection resolved to its concrete variant, or the bare
// base record when no concretization exists
type Credentials interface {
	Base() *Connection
	CredentialKind() ConnectionKind
	ToMap() map[string]interface{}
}

// AuthCredentials is a concrete credential record able to back a session
type AuthCredentials interface {
	Credentials
	// SessionAuthType is the auth key used to look up the session handler
	SessionAuthType() string
	// SessionMemo is the per-instance session cache
	SessionMemo() *Memo[session.Session]
}

// Connection links an owner to a Server. (ServerId, OwnerId) is unique.
// Kind records which concretization backs the record.
type Connection struct {
	Id        string
	Title     string `validate:"required,max=150"`
	OwnerId   string `validate:"required"`
	ServerId  string `validate:"required"`
	AuthType  string `validate:"required,oneof=BASIC DIGEST TOKEN"`
	Kind      ConnectionKind
	CreatedAt time.Time
	UpdatedAt time.Time

	credentials Memo[Credentials]
}

// Base returns the connection itself
func (c *Connection) Base() *Connection { return c }

// CredentialKind is always KindBare for the base record
func (c *Connection) CredentialKind() ConnectionKind { return KindBare }

// CredentialsMemo is the per-instance cache for the resolved concretization
func (c *Connection) CredentialsMemo() *Memo[Credentials] {
	return &c.credentials
}

// ToMap projects all declared attributes keyed by field name
func (c *Connection) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         c.Id,
		"title":      c.Title,
		"owner":      c.OwnerId,
		"server":     c.ServerId,
		"auth_type":  c.AuthType,
		"kind":       string(c.Kind),
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}

// SimpleAuthConnection carries username/password credentials for BASIC or
// DIGEST authentication. Password is plaintext in memory and sealed at rest.
type SimpleAuthConnection struct {
	Connection
	Username string `validate:"required,max=200"`
	Password string `validate:"required"`

	session Memo[session.Session]
}

// CredentialKind returns KindSimple
func (c *SimpleAuthConnection) CredentialKind() ConnectionKind { return KindSimple }

// SessionAuthType returns the connection's own auth type (BASIC or DIGEST)
func (c *SimpleAuthConnection) SessionAuthType() string { return c.AuthType }

// SessionMemo returns the per-instance session cache
func (c *SimpleAuthConnection) SessionMemo() *Memo[session.Session] { return &c.session }

// Validate checks field constraints; only BASIC and DIGEST are accepted
func (c *SimpleAuthConnection) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.AuthType != catalog.AuthBasic && c.AuthType != catalog.AuthDigest {
		return fmt.Errorf("%w: AuthType must be one of [%s %s]", ErrValidation, catalog.AuthBasic, catalog.AuthDigest)
	}
	return nil
}

// ToMap projects all declared attributes keyed by field name
func (c *SimpleAuthConnection) ToMap() map[string]interface{} {
	m := c.Connection.ToMap()
	m["username"] = c.Username
	m["password"] = c.Password
	return m
}

// String returns the username
func (c *SimpleAuthConnection) String() string {
	return c.Username
}

// TokenAuthConnection carries an opaque token sent as "<Prefix> <Token>".
// Token is plaintext in memory and sealed at rest.
type TokenAuthConnection struct {
	Connection
	Token  string `validate:"required"`
	Prefix string `validate:"max=60"`

	session Memo[session.Session]
}

// CredentialKind returns KindToken
func (c *TokenAuthConnection) CredentialKind() ConnectionKind { return KindToken }

// SessionAuthType is always TOKEN
func (c *TokenAuthConnection) SessionAuthType() string { return catalog.AuthToken }

// SessionMemo returns the per-instance session cache
func (c *TokenAuthConnection) SessionMemo() *Memo[session.Session] { return &c.session }

// Validate checks field constraints; the auth type must be TOKEN
func (c *TokenAuthConnection) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.AuthType != catalog.AuthToken {
		return fmt.Errorf("%w: AuthType must be %s", ErrValidation, catalog.AuthToken)
	}
	return nil
}

// HeaderValue returns the Authorization header value
func (c *TokenAuthConnection) HeaderValue() string {
	if c.Prefix == "" {
		return c.Token
	}
	return c.Prefix + " " + c.Token
}

// ToMap projects all declared attributes keyed by field name
func (c *TokenAuthConnection) ToMap() map[string]interface{} {
	m := c.Connection.ToMap()
	m["token"] = c.Token
	m["prefix"] = c.Prefix
	return m
}

// String renders the token as <prefix:token>
func (c *TokenAuthConnection) String() string {
	return fmt.Sprintf("<%s:%s>", c.Prefix, c.Token)
}
