// Package x implements the X (Twitter) OAuth2 provider.
//
// The token exchange authenticates the client with HTTP Basic auth and
// uses a fixed, non-random PKCE code verifier. That weakens PKCE to a
// static shared value and is kept deliberately for compatibility with
// existing client registrations; do not "fix" it without coordinating
// a rollout of real per-flow verifiers.
package x

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

const ProviderName = "x"

const (
	defaultAuthEndpoint  = "https://x.com/i/oauth2/authorize"
	defaultTokenEndpoint = "https://api.x.com/2/oauth2/token"
	defaultMeEndpoint    = "https://api.x.com/2/users/me"

	scopes = "tweet.read tweet.write users.read offline.access"

	// Fixed code verifier, see the package comment.
	codeVerifier = "challenge"
)

// Provider implements X OAuth2.
type Provider struct {
	cfg providers.Config

	authEndpoint  string
	tokenEndpoint string
	meEndpoint    string
	http          *http.Client
	now           func() time.Time
}

// New creates an X provider.
func New(cfg providers.Config) *Provider {
	return &Provider{
		cfg:           cfg,
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: defaultTokenEndpoint,
		meEndpoint:    defaultMeEndpoint,
		http:          &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
}

func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the X authorization URL with the plain-method
// challenge matching the fixed verifier.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	q.Set("code_challenge", codeVerifier)
	q.Set("code_challenge_method", "plain")
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

type meResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

// Exchange performs the code exchange with Basic client authentication
// and resolves the authenticated user's identifier.
func (p *Provider) Exchange(ctx context.Context, code, userID string) ([]repository.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.cfg.RedirectURI)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	var tr tokenResponse
	if err := p.do(req, "token", &tr); err != nil {
		return nil, err
	}
	expiresAt := providers.ExpiryFrom(p.now(), tr.ExpiresIn)

	meReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.meEndpoint, nil)
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "me", Err: err}
	}
	meReq.Header.Set("Authorization", "Bearer "+tr.AccessToken)

	var me meResponse
	if err := p.do(meReq, "me", &me); err != nil {
		return nil, err
	}

	return []repository.Credential{{
		UserID:         userID,
		Platform:       repository.PlatformX,
		PlatformUserID: me.Data.ID,
		AccessToken:    tr.AccessToken,
		RefreshToken:   tr.RefreshToken,
		ExpiresAt:      expiresAt,
		Metadata:       map[string]any{"username": me.Data.Username},
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
