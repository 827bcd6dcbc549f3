package x

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/oauth/providers"
)

func testConfig() providers.Config {
	return providers.Config{
		ClientID:     "x-client",
		ClientSecret: "x-secret",
		RedirectURI:  "https://svc.example/auth/x/callback",
	}
}

func TestAuthorizeURL_FixedChallenge(t *testing.T) {
	p := New(testConfig())

	u, err := url.Parse(p.AuthorizeURL("st8"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "x-client", q.Get("client_id"))
	assert.Equal(t, "st8", q.Get("state"))
	assert.Equal(t, "challenge", q.Get("code_challenge"))
	assert.Equal(t, "plain", q.Get("code_challenge_method"))
	assert.Contains(t, q.Get("scope"), "offline.access")
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token exchange must use Basic client auth")
		require.Equal(t, "x-client", user)
		require.Equal(t, "x-secret", pass)

		require.NoError(t, r.ParseForm())
		require.Equal(t, "challenge", r.PostForm.Get("code_verifier"))
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))

		w.Write([]byte(`{"access_token":"x-at","refresh_token":"x-rt","expires_in":7200,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer x-at", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"id":"9001","name":"Some User","username":"someuser"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	p := New(testConfig())
	p.tokenEndpoint = srv.URL + "/token"
	p.meEndpoint = srv.URL + "/me"
	p.now = func() time.Time { return at }

	creds, err := p.Exchange(context.Background(), "the-code", "u3")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	c := creds[0]
	assert.Equal(t, repository.PlatformX, c.Platform)
	assert.Equal(t, "9001", c.PlatformUserID)
	assert.Equal(t, "x-at", c.AccessToken)
	assert.Equal(t, "x-rt", c.RefreshToken)
	assert.Equal(t, "someuser", c.Metadata["username"])
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, at.Add(7200*time.Second), *c.ExpiresAt)
}
