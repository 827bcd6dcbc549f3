package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/oauth/providers"
)

func testConfig() providers.Config {
	return providers.Config{
		ClientID:     "fb-client",
		ClientSecret: "fb-secret",
		RedirectURI:  "https://svc.example/auth/facebook/callback",
	}
}

// newGraphStub serves the Graph API surface the adapter touches.
// pages and igID control the /me/accounts and instagram link responses.
func newGraphStub(t *testing.T, pages []string, igID string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") == "fb_exchange_token" {
			if r.URL.Query().Get("fb_exchange_token") != "short-tok" {
				http.Error(w, `{"error":{"message":"bad exchange token"}}`, http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"access_token":"long-tok","token_type":"bearer","expires_in":5184000}`))
			return
		}
		if r.URL.Query().Get("code") != "good-code" {
			http.Error(w, `{"error":{"message":"invalid code"}}`, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"access_token":"short-tok","token_type":"bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/me/accounts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "long-tok", r.URL.Query().Get("access_token"))
		items := make([]string, 0, len(pages))
		for _, id := range pages {
			items = append(items, `{"id":"`+id+`","name":"Page `+id+`"}`)
		}
		w.Write([]byte(`{"data":[` + strings.Join(items, ",") + `]}`))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pageID := strings.TrimPrefix(r.URL.Path, "/")
		switch r.URL.Query().Get("fields") {
		case "access_token,name":
			require.Equal(t, "long-tok", r.URL.Query().Get("access_token"))
			w.Write([]byte(`{"id":"` + pageID + `","name":"Page ` + pageID + `","access_token":"page-tok"}`))
		case "instagram_business_account":
			require.Equal(t, "page-tok", r.URL.Query().Get("access_token"))
			if igID == "" {
				w.Write([]byte(`{"id":"` + pageID + `"}`))
				return
			}
			w.Write([]byte(`{"id":"` + pageID + `","instagram_business_account":{"id":"` + igID + `"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	return httptest.NewServer(mux)
}

func newTestProvider(srv *httptest.Server, at time.Time) *Provider {
	p := New(testConfig())
	p.graphBase = srv.URL
	p.now = func() time.Time { return at }
	return p
}

func TestAuthorizeURL(t *testing.T) {
	p := New(testConfig())

	raw := p.AuthorizeURL("state-token")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v19.0/dialog/oauth", u.Path)
	assert.Equal(t, "fb-client", u.Query().Get("client_id"))
	assert.Equal(t, "state-token", u.Query().Get("state"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Contains(t, u.Query().Get("scope"), "pages_show_list")
}

func TestExchange_NoPages(t *testing.T) {
	srv := newGraphStub(t, nil, "")
	defer srv.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestProvider(srv, at)

	creds, err := p.Exchange(context.Background(), "good-code", "u1")
	require.NoError(t, err)
	require.Len(t, creds, 1)

	c := creds[0]
	assert.Equal(t, repository.PlatformFacebook, c.Platform)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "long-tok", c.AccessToken)
	assert.Empty(t, c.PlatformUserID)
	assert.Equal(t, "no_pages", c.Metadata["note"])

	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, at.Add(5184000*time.Second), *c.ExpiresAt)
}

func TestExchange_PageWithInstagram(t *testing.T) {
	srv := newGraphStub(t, []string{"PAGE1", "PAGE2"}, "IG123")
	defer srv.Close()

	p := newTestProvider(srv, time.Now())

	creds, err := p.Exchange(context.Background(), "good-code", "u1")
	require.NoError(t, err)
	require.Len(t, creds, 2)

	fb, ig := creds[0], creds[1]
	assert.Equal(t, repository.PlatformFacebook, fb.Platform)
	assert.Equal(t, "PAGE1", fb.PlatformUserID) // first page wins
	assert.Equal(t, "page-tok", fb.AccessToken)
	assert.Equal(t, "Page PAGE1", fb.Metadata["page_name"])

	assert.Equal(t, repository.PlatformInstagram, ig.Platform)
	assert.Equal(t, "IG123", ig.PlatformUserID)
	assert.Equal(t, "page-tok", ig.AccessToken)
	assert.Equal(t, "PAGE1", ig.Metadata["page_id"])
}

func TestExchange_PageWithoutInstagram(t *testing.T) {
	srv := newGraphStub(t, []string{"PAGE1"}, "")
	defer srv.Close()

	p := newTestProvider(srv, time.Now())

	creds, err := p.Exchange(context.Background(), "good-code", "u1")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, repository.PlatformFacebook, creds[0].Platform)
	assert.Equal(t, "PAGE1", creds[0].PlatformUserID)
}

func TestExchange_BadCode(t *testing.T) {
	srv := newGraphStub(t, nil, "")
	defer srv.Close()

	p := newTestProvider(srv, time.Now())

	_, err := p.Exchange(context.Background(), "bad-code", "u1")
	require.Error(t, err)

	var xerr *providers.ExchangeError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ProviderName, xerr.Provider)
	assert.Equal(t, "token", xerr.Op)
	assert.Equal(t, http.StatusBadRequest, xerr.Status)
	assert.Contains(t, xerr.Body, "invalid code")
}
