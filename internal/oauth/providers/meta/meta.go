// Package meta implements the Meta (Facebook/Instagram) OAuth2 provider.
//
// This is the only adapter with a multi-step exchange: the code is
// upgraded from a short-lived to a long-lived user token, the user's
// managed pages are listed, and the first page is resolved to a page
// access token plus an optionally linked Instagram business account.
// One callback therefore yields one or two credential records, or a
// single "no pages" record when the user manages no page.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/oauth/providers"
)

const ProviderName = "facebook"

const (
	defaultAuthBase  = "https://www.facebook.com/v19.0"
	defaultGraphBase = "https://graph.facebook.com/v19.0"

	scopes = "pages_show_list,pages_read_engagement,pages_manage_posts,instagram_basic,instagram_content_publish"
)

// Provider implements Meta OAuth2 with page and Instagram discovery.
type Provider struct {
	cfg providers.Config

	authBase  string
	graphBase string
	http      *http.Client
	now       func() time.Time
}

// New creates a Meta provider.
func New(cfg providers.Config) *Provider {
	return &Provider{
		cfg:       cfg,
		authBase:  defaultAuthBase,
		graphBase: defaultGraphBase,
		http:      &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
}

func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the Facebook dialog URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authBase + "/dialog/oauth")
	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type pagesResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type pageTokenResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type igLinkResponse struct {
	ID                       string `json:"id"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

// Exchange runs the full Meta sequence:
// code -> short-lived token -> long-lived token -> pages -> page token
// -> linked Instagram account. Later calls depend on earlier results,
// so the chain is strictly ordered.
func (p *Provider) Exchange(ctx context.Context, code, userID string) ([]repository.Credential, error) {
	short, err := p.shortLivedToken(ctx, code)
	if err != nil {
		return nil, err
	}

	long, err := p.longLivedToken(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}
	expiresAt := providers.ExpiryFrom(p.now(), long.ExpiresIn)

	pages, err := p.listPages(ctx, long.AccessToken)
	if err != nil {
		return nil, err
	}

	if len(pages.Data) == 0 {
		// No managed pages: keep the long-lived user token so the
		// connection is not lost, annotated so consumers can tell.
		return []repository.Credential{{
			UserID:      userID,
			Platform:    repository.PlatformFacebook,
			AccessToken: long.AccessToken,
			ExpiresAt:   expiresAt,
			Metadata:    map[string]any{"note": "no_pages"},
		}}, nil
	}

	page := pages.Data[0]

	pageTok, err := p.pageToken(ctx, page.ID, long.AccessToken)
	if err != nil {
		return nil, err
	}

	ig, err := p.linkedInstagram(ctx, page.ID, pageTok.AccessToken)
	if err != nil {
		return nil, err
	}

	creds := []repository.Credential{{
		UserID:         userID,
		Platform:       repository.PlatformFacebook,
		PlatformUserID: page.ID,
		AccessToken:    pageTok.AccessToken,
		Metadata:       map[string]any{"page_name": pageTok.Name},
	}}

	if ig.InstagramBusinessAccount != nil && ig.InstagramBusinessAccount.ID != "" {
		// The Instagram record shares the page token; publishing to the
		// linked business account goes through the page.
		creds = append(creds, repository.Credential{
			UserID:         userID,
			Platform:       repository.PlatformInstagram,
			PlatformUserID: ig.InstagramBusinessAccount.ID,
			AccessToken:    pageTok.AccessToken,
			Metadata:       map[string]any{"page_id": page.ID},
		})
	}

	return creds, nil
}

func (p *Provider) shortLivedToken(ctx context.Context, code string) (*tokenResponse, error) {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("client_secret", p.cfg.ClientSecret)
	q.Set("redirect_uri", p.cfg.RedirectURI)
	q.Set("code", code)

	var tr tokenResponse
	if err := p.graphGet(ctx, "token", "/oauth/access_token?"+q.Encode(), &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (p *Provider) longLivedToken(ctx context.Context, shortToken string) (*tokenResponse, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", p.cfg.ClientID)
	q.Set("client_secret", p.cfg.ClientSecret)
	q.Set("fb_exchange_token", shortToken)

	var tr tokenResponse
	if err := p.graphGet(ctx, "long_lived_token", "/oauth/access_token?"+q.Encode(), &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (p *Provider) listPages(ctx context.Context, userToken string) (*pagesResponse, error) {
	var pr pagesResponse
	if err := p.graphGet(ctx, "pages", "/me/accounts?access_token="+url.QueryEscape(userToken), &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

func (p *Provider) pageToken(ctx context.Context, pageID, userToken string) (*pageTokenResponse, error) {
	path := fmt.Sprintf("/%s?fields=access_token,name&access_token=%s", pageID, url.QueryEscape(userToken))
	var ptr pageTokenResponse
	if err := p.graphGet(ctx, "page_token", path, &ptr); err != nil {
		return nil, err
	}
	return &ptr, nil
}

func (p *Provider) linkedInstagram(ctx context.Context, pageID, pageToken string) (*igLinkResponse, error) {
	path := fmt.Sprintf("/%s?fields=instagram_business_account&access_token=%s", pageID, url.QueryEscape(pageToken))
	var ir igLinkResponse
	if err := p.graphGet(ctx, "instagram_link", path, &ir); err != nil {
		return nil, err
	}
	return &ir, nil
}

// graphGet performs one Graph API GET and decodes the JSON response,
// mapping any failure to an ExchangeError carrying the raw payload.
func (p *Provider) graphGet(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBase+path, nil)
	if err != nil {
		return &providers.ExchangeError{Provider: ProviderName, Op: op, Err: err}
	}

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
