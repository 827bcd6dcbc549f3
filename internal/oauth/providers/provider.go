// Package providers defines the multi-provider OAuth brokering system.
//
// Each social platform is one adapter behind a shared interface:
// build the authorization redirect URL, exchange an authorization code
// for tokens (including provider-specific extra steps such as token
// upgrade or page discovery), and shape the result into normalized
// credential records.
//
// Design notes:
//   - Strategy: each provider is one strategy for the same flow.
//   - Adapter: provider responses are normalized to repository.Credential.
//   - Exchange returns a slice because Meta can legitimately produce
//     zero, one, or two records from a single callback; every other
//     adapter returns exactly one.
package providers

import (
	"context"
	"time"

	"github.com/postbridge/connect/internal/domain/repository"
)

// Provider is the capability set every platform adapter implements.
type Provider interface {
	// Name is the route-facing provider identifier ("facebook", "youtube", ...).
	Name() string

	// AuthorizeURL builds the provider's authorization endpoint URL with
	// client id, redirect URI, the fixed scope set, and the encoded state.
	AuthorizeURL(state string) string

	// Exchange performs the provider-specific code-to-token sequence and
	// returns the normalized credential records for userID.
	Exchange(ctx context.Context, code, userID string) ([]repository.Credential, error)
}

// Config is the per-provider OAuth client configuration, injected at
// construction time. Business logic never reads ambient process state.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether the flow can function at all.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// ExpiryFrom converts a provider-reported expires_in duration (seconds
// from the exchange instant) into an absolute expiry. A missing or
// non-positive duration yields nil, never a default.
func ExpiryFrom(now time.Time, expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(expiresIn) * time.Second).UTC()
	return &t
}
