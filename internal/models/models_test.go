package models

import (
	"errors"
	"testing"

	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoCachesFirstSuccess(t *testing.T) {
	var m Memo[int]
	calls := 0

	_, err := m.Load(func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, m.Loaded(), "failures must not be cached")

	for i := 0; i < 3; i++ {
		v, err := m.Load(func() (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 2, calls)

	m.Reset()
	assert.False(t, m.Loaded())
}

func validServer() *Server {
	req := CreateServerRequest{Title: "Roads", ServerType: "WMS", URL: "https://example.com/wms"}
	return req.ToDomain("user-1")
}

func TestServerValidate(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name    string
		mutate  func(s *Server)
		wantErr bool
	}{
		{name: "valid https", mutate: func(s *Server) {}},
		{name: "valid postgis", mutate: func(s *Server) { s.ServerType = "PostGIS"; s.URL = "postgis://gis:pw@db.local:5432/gis" }},
		{name: "valid ftps", mutate: func(s *Server) { s.URL = "ftps://files.example.com/data" }},
		{name: "unsupported scheme", mutate: func(s *Server) { s.URL = "gopher://example.com" }, wantErr: true},
		{name: "relative url", mutate: func(s *Server) { s.URL = "/wms" }, wantErr: true},
		{name: "not a url", mutate: func(s *Server) { s.URL = "example dot com" }, wantErr: true},
		{name: "missing title", mutate: func(s *Server) { s.Title = "" }, wantErr: true},
		{name: "unknown server type", mutate: func(s *Server) { s.ServerType = "Gopher" }, wantErr: true},
		{name: "missing owner", mutate: func(s *Server) { s.OwnerId = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validServer()
			tt.mutate(s)
			err := s.Validate(cat)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerHandlerKeyIsCached(t *testing.T) {
	s := validServer()
	cat := catalog.Default()

	key, ok := s.HandlerKey(cat)
	require.True(t, ok)
	assert.Equal(t, "OGC_WMS", key)

	// The instance keeps the key even if the catalog no longer knows the type
	key, ok = s.HandlerKey(&catalog.Catalog{})
	assert.True(t, ok)
	assert.Equal(t, "OGC_WMS", key)

	unknown := validServer()
	unknown.ServerType = "Gopher"
	_, ok = unknown.HandlerKey(cat)
	assert.False(t, ok)
}

func TestCreateServerDefaultsOperations(t *testing.T) {
	s := validServer()
	assert.NotNil(t, s.Operations)
	assert.Empty(t, s.Operations)
}

func TestSimpleAuthConnectionValidate(t *testing.T) {
	req := CreateSimpleAuthConnectionRequest{ServerId: "srv-1", Title: "GIS", AuthType: "BASIC", Username: "alice", Password: "pw"}
	conn := req.ToDomain("user-1")
	require.NoError(t, conn.Validate())
	assert.Equal(t, KindSimple, conn.Kind)

	conn.AuthType = "TOKEN"
	assert.ErrorIs(t, conn.Validate(), ErrValidation)

	conn.AuthType = "DIGEST"
	conn.Password = ""
	assert.ErrorIs(t, conn.Validate(), ErrValidation)
}

func TestTokenAuthConnectionPrefix(t *testing.T) {
	req := CreateTokenAuthConnectionRequest{ServerId: "srv-1", Title: "Portal", Token: "abc"}
	conn := req.ToDomain("user-1")
	require.NoError(t, conn.Validate())
	assert.Equal(t, "Bearer", conn.Prefix)
	assert.Equal(t, "Bearer abc", conn.HeaderValue())
	assert.Equal(t, "TOKEN", conn.AuthType)
	assert.Equal(t, "<Bearer:abc>", conn.String())

	empty := ""
	req.Prefix = &empty
	conn = req.ToDomain("user-1")
	assert.Equal(t, "abc", conn.HeaderValue())
}

func TestCredentialKindsAndMaps(t *testing.T) {
	base := &Connection{Id: "c1", Title: "t", OwnerId: "u", ServerId: "s", AuthType: "BASIC", Kind: KindSimple}
	simple := &SimpleAuthConnection{Connection: *base, Username: "alice", Password: "pw"}
	token := &TokenAuthConnection{Connection: *base, Token: "tok", Prefix: "Bearer"}

	assert.Equal(t, KindBare, base.CredentialKind())
	assert.Equal(t, KindSimple, simple.CredentialKind())
	assert.Equal(t, KindToken, token.CredentialKind())
	assert.Same(t, base, base.Base())
	assert.Same(t, &simple.Connection, simple.Base())

	m := simple.ToMap()
	assert.Equal(t, "alice", m["username"])
	assert.Equal(t, "pw", m["password"])
	assert.Equal(t, "c1", m["id"])

	assert.Equal(t, "TOKEN", token.SessionAuthType())
	assert.Equal(t, "BASIC", simple.SessionAuthType())

	resp := ToConnectionResponse(token)
	assert.Equal(t, "token", resp.Kind)
	assert.Equal(t, "Bearer", resp.Prefix)
	assert.Empty(t, resp.Username)
}
