package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousIsSingleton(t *testing.T) {
	a := Anonymous()
	b := Anonymous()

	assert.Same(t, a, b)
	assert.True(t, a.IsAnonymous())
	assert.Empty(t, a.AuthType())
}

func TestNewDecoratesRequests(t *testing.T) {
	var gotAuth, gotUser, gotPass string
	var basicOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Api-Key")
		gotUser, gotPass, basicOK = r.BasicAuth()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Run("header", func(t *testing.T) {
		s := New("TOKEN", Header("X-Api-Key", "secret"))
		assert.False(t, s.IsAnonymous())
		assert.Equal(t, "TOKEN", s.AuthType())

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := s.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "secret", gotAuth)
		assert.Empty(t, req.Header.Get("X-Api-Key"), "caller request must not be mutated")
	})

	t.Run("basic", func(t *testing.T) {
		s := New("BASIC", BasicAuth("alice", "pw"))
		resp, err := s.Client().Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.True(t, basicOK)
		assert.Equal(t, "alice", gotUser)
		assert.Equal(t, "pw", gotPass)
	})
}
