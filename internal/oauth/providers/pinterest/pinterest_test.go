package pinterest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/oauth/providers"
)

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "authorization_code", body["grant_type"])
		require.Equal(t, "the-code", body["code"])
		require.Equal(t, "pin-client", body["client_id"])

		w.Write([]byte(`{"access_token":"pin-at","refresh_token":"pin-rt","expires_in":2592000,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer pin-at", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"pin-777","username":"crafts","account_type":"BUSINESS","follower_count":42}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p := New(providers.Config{ClientID: "pin-client", ClientSecret: "pin-secret", RedirectURI: "https://svc.example/auth/pinterest/callback"})
	p.tokenEndpoint = srv.URL + "/token"
	p.accountEndpoint = srv.URL + "/account"
	p.now = func() time.Time { return at }

	creds, err := p.Exchange(context.Background(), "the-code", "u5")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	c := creds[0]
	assert.Equal(t, repository.PlatformPinterest, c.Platform)
	assert.Equal(t, "pin-777", c.PlatformUserID)
	assert.Equal(t, "pin-at", c.AccessToken)
	assert.Equal(t, "pin-rt", c.RefreshToken)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, at.Add(2592000*time.Second), *c.ExpiresAt)

	// Full account payload kept in metadata.
	assert.Equal(t, "crafts", c.Metadata["username"])
	assert.Equal(t, "BUSINESS", c.Metadata["account_type"])
	assert.Equal(t, float64(42), c.Metadata["follower_count"])
}
