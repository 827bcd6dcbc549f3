// Package google implements the YouTube (Google) OAuth2 provider.
// A single form-encoded code exchange yields access and refresh tokens;
// the caller's own channel is then resolved for a stable identity.
package google

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

const ProviderName = "youtube"

const (
	defaultAuthEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenEndpoint = "https://oauth2.googleapis.com/token"
	defaultChannelsURL   = "https://www.googleapis.com/youtube/v3/channels?part=snippet&mine=true"

	scopes = "https://www.googleapis.com/auth/youtube.upload https://www.googleapis.com/auth/youtube.readonly"
)

// Provider implements Google OAuth2 for YouTube.
type Provider struct {
	cfg providers.Config

	authEndpoint  string
	tokenEndpoint string
	channelsURL   string
	http          *http.Client
	now           func() time.Time
}

// New creates a YouTube provider.
func New(cfg providers.Config) *Provider {
	return &Provider{
		cfg:           cfg,
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: defaultTokenEndpoint,
		channelsURL:   defaultChannelsURL,
		http:          &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
}

func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the Google consent URL. access_type=offline and
// prompt=consent are required for Google to issue a refresh token.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scopes)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
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

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			CustomURL   string `json:"customUrl"`
		} `json:"snippet"`
	} `json:"items"`
}

// Exchange performs the code exchange and resolves the caller's channel.
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

	channel, err := p.ownChannel(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}

	cred := repository.Credential{
		UserID:       userID,
		Platform:     repository.PlatformYouTube,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	if channel != nil {
		cred.PlatformUserID = channel.id
		cred.Metadata = map[string]any{
			"channel_title": channel.title,
		}
		if channel.customURL != "" {
			cred.Metadata["custom_url"] = channel.customURL
		}
	}

	return []repository.Credential{cred}, nil
}

type channelInfo struct {
	id        string
	title     string
	customURL string
}

func (p *Provider) ownChannel(ctx context.Context, accessToken string) (*channelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.channelsURL, nil)
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Op: "channel", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var cr channelsResponse
	if err := p.do(req, "channel", &cr); err != nil {
		return nil, err
	}
	if len(cr.Items) == 0 {
		return nil, nil
	}
	item := cr.Items[0]
	return &channelInfo{
		id:        item.ID,
		title:     item.Snippet.Title,
		customURL: item.Snippet.CustomURL,
	}, nil
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
