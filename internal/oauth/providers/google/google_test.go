package google

import (
	"context"
	"errors"
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
		ClientID:     "yt-client",
		ClientSecret: "yt-secret",
		RedirectURI:  "https://svc.example/auth/youtube/callback",
	}
}

func TestAuthorizeURL(t *testing.T) {
	p := New(testConfig())

	u, err := url.Parse(p.AuthorizeURL("st8"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "yt-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "st8", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "youtube.upload")
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))
		require.Equal(t, "yt-client", r.PostForm.Get("client_id"))
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3599,"token_type":"Bearer"}`))
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Write([]byte(`{"items":[{"id":"UC123","snippet":{"title":"My Channel","customUrl":"@mychannel"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New(testConfig())
	p.tokenEndpoint = srv.URL + "/token"
	p.channelsURL = srv.URL + "/channels"
	p.now = func() time.Time { return at }

	creds, err := p.Exchange(context.Background(), "the-code", "u7")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	c := creds[0]
	assert.Equal(t, repository.PlatformYouTube, c.Platform)
	assert.Equal(t, "u7", c.UserID)
	assert.Equal(t, "UC123", c.PlatformUserID)
	assert.Equal(t, "at", c.AccessToken)
	assert.Equal(t, "rt", c.RefreshToken)
	assert.Equal(t, "My Channel", c.Metadata["channel_title"])
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, at.Add(3599*time.Second), *c.ExpiresAt)
}

func TestExchange_NoExpiryReported(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := New(testConfig())
	p.tokenEndpoint = srv.URL + "/token"
	p.channelsURL = srv.URL + "/channels"

	creds, err := p.Exchange(context.Background(), "c", "u1")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Nil(t, creds[0].ExpiresAt)       // absent, never defaulted
	assert.Empty(t, creds[0].PlatformUserID) // no channel resolved
}

func TestExchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant","error_description":"Bad code"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := New(testConfig())
	p.tokenEndpoint = srv.URL
	p.channelsURL = srv.URL

	_, err := p.Exchange(context.Background(), "bad", "u1")
	require.Error(t, err)

	var xerr *providers.ExchangeError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, "token", xerr.Op)
	assert.Contains(t, xerr.Body, "invalid_grant")
}
