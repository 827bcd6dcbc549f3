// Package repository defines the persistence contracts shared by the
// store adapters and the OAuth provider layer.
package repository

import (
	"context"
	"time"
)

// Platform tags a credential with the social platform it belongs to.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformX         Platform = "x"
	PlatformPinterest Platform = "pinterest"
	PlatformLinkedIn  Platform = "linkedin"
)

// Valid reports whether p is one of the known platform tags.
func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformYouTube,
		PlatformX, PlatformPinterest, PlatformLinkedIn:
		return true
	}
	return false
}

// Credential is the normalized record produced by a provider exchange
// and persisted per (user, platform) pair.
type Credential struct {
	ID             string
	UserID         string
	Platform       Platform
	PlatformUserID string
	AccessToken    string
	RefreshToken   string
	Metadata       map[string]any
	// ExpiresAt is absent when the provider token does not expire or
	// the provider reported no duration.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// CredentialStore is the durable keyed storage of credential records.
//
// Upsert must be atomic per (UserID, Platform): a second successful
// exchange for the same pair replaces every mutable field while
// preserving ID and CreatedAt.
type CredentialStore interface {
	Upsert(ctx context.Context, cred *Credential) error
	List(ctx context.Context, userID string) ([]Credential, error)
	Get(ctx context.Context, userID string, platform Platform) (*Credential, error)
	Delete(ctx context.Context, userID string, platform Platform) error

	Ping(ctx context.Context) error
	Close()
}
