// Package linkedin implements the LinkedIn OAuth2 provider.
// Form-encoded code exchange; LinkedIn issues no refresh token in this
// flow, so the record carries the access token only.
package linkedin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/oauth/providers"
)

const ProviderName = "linkedin"

const (
	defaultAuthEndpoint     = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenEndpoint    = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultUserinfoEndpoint = "https://api.linkedin.com/v2/userinfo"

	scopes = "openid profile w_member_social"
)

// Provider implements LinkedIn OAuth2.
type Provider struct {
	cfg providers.Config

	authEndpoint     string
	tokenEndpoint    string
	userinfoEndpoint string
	http             *http.Client
	now              func() time.Time
}

// New creates a LinkedIn provider.
func New(cfg providers.Config) *Provider {
	return &Provider{
		cfg:              cfg,
		authEndpoint:     defaultAuthEndpoint,
		tokenEndpoint:    defaultTokenEndpoint,
		userinfoEndpoint: defaultUserinfoEndpoint,
		http:             &http.Client{Timeout: 10 * time.Second},
		now:              time.Now,
	}
}

func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the LinkedIn authorization URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

type userinfoResponse struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Locale  any    `json:"locale"`
}

// Exchange performs the form-encoded code exchange and resolves the
// member's profile identifier.
func (p *Provider) Exchange(ctx context.Context, code, userID string) ([]repository.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("redirect_uri", p.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := p.do(req, "token", &tr); err != nil {
		return nil, err
	}
	expiresAt := providers.ExpiryFrom(p.now(), tr.ExpiresIn)

	uiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoEndpoint, nil)
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "userinfo", Err: err}
	}
	uiReq.Header.Set("Authorization", "Bearer "+tr.AccessToken)

	var ui userinfoResponse
	if err := p.do(uiReq, "userinfo", &ui); err != nil {
		return nil, err
	}

	return []repository.Credential{{
		UserID:         userID,
		Platform:       repository.PlatformLinkedIn,
		PlatformUserID: ui.Sub,
		AccessToken:    tr.AccessToken,
		ExpiresAt:      expiresAt,
		Metadata:       map[string]any{"name": ui.Name},
	}}, nil
}

func (p *Provider) do(req *http.Request, op string, out any) error {
	resp, err := p.http.Do(req)
	if err != nil {
		return &providers.ExchangeError{Provider: ProviderName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return &providers.ExchangeError{
			Provider: ProviderName,
			Op:       op,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &providers.ExchangeError{Provider: ProviderName, Op: op, Err: err, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
