// Package pinterest implements the Pinterest OAuth2 provider.
// The token endpoint takes a JSON body; the resolved user account
// payload is stored verbatim in the credential metadata.
package pinterest

import (
	"bytes"
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

const ProviderName = "pinterest"

const (
	defaultAuthEndpoint    = "https://www.pinterest.com/oauth/"
	defaultTokenEndpoint   = "https://api.pinterest.com/v5/oauth/token"
	defaultAccountEndpoint = "https://api.pinterest.com/v5/user_account"

	scopes = "boards:read,boards:write,pins:read,pins:write,user_accounts:read"
)

// Provider implements Pinterest OAuth2.
type Provider struct {
	cfg providers.Config

	authEndpoint    string
	tokenEndpoint   string
	accountEndpoint string
	http            *http.Client
	now             func() time.Time
}

// New creates a Pinterest provider.
func New(cfg providers.Config) *Provider {
	return &Provider{
		cfg:             cfg,
		authEndpoint:    defaultAuthEndpoint,
		tokenEndpoint:   defaultTokenEndpoint,
		accountEndpoint: defaultAccountEndpoint,
		http:            &http.Client{Timeout: 10 * time.Second},
		now:             time.Now,
	}
}

func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the Pinterest authorization URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scopes)
	q.Set("state", state)
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

// Exchange performs the JSON-bodied code exchange and resolves the
// user account.
func (p *Provider) Exchange(ctx context.Context, code, userID string) ([]repository.Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  p.cfg.RedirectURI,
		"client_id":     p.cfg.ClientID,
		"client_secret": p.cfg.ClientSecret,
	})
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "token", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var tr tokenResponse
	if err := p.do(req, "token", &tr); err != nil {
		return nil, err
	}
	expiresAt := providers.ExpiryFrom(p.now(), tr.ExpiresIn)

	acctReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.accountEndpoint, nil)
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "user_account", Err: err}
	}
	acctReq.Header.Set("Authorization", "Bearer "+tr.AccessToken)

	// The account payload is kept whole; downstream consumers pick
	// what they need (username, profile image, board counts...).
	var account map[string]any
	if err := p.do(acctReq, "user_account", &account); err != nil {
		return nil, err
	}

	platformUserID, _ := account["id"].(string)
	if platformUserID == "" {
		platformUserID, _ = account["username"].(string)
	}

	return []repository.Credential{{
		UserID:         userID,
		Platform:       repository.PlatformPinterest,
		PlatformUserID: platformUserID,
		AccessToken:    tr.AccessToken,
		RefreshToken:   tr.RefreshToken,
		ExpiresAt:      expiresAt,
		Metadata:       account,
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
