// Package state implements the opaque token round-tripped through the
// provider redirect to correlate a callback with its initiating user.
//
// By default the token is an unsigned, URL-safe serialization and must
// be treated as advisory only. With a signing key configured the token
// becomes an HS256 JWT bound to a nonce and expiry; plain tokens are
// then rejected so there is no silent downgrade.
package state

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMalformed is returned when a state token is absent, not valid
// transport-safe text, or does not decode to the expected shape.
var ErrMalformed = errors.New("state: malformed token")

// DefaultTTL bounds the lifetime of signed state tokens.
const DefaultTTL = 15 * time.Minute

// Codec encodes and decodes redirect state tokens.
// The zero value is unusable; use New.
type Codec struct {
	signingKey []byte
	ttl        time.Duration
}

// New creates a codec. An empty signingKey selects the unsigned mode.
func New(signingKey string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Codec{ttl: ttl}
	if signingKey != "" {
		c.signingKey = []byte(signingKey)
	}
	return c
}

// Signed reports whether the codec produces signed tokens.
func (c *Codec) Signed() bool { return len(c.signingKey) > 0 }

type payload struct {
	UserID string `json:"user_id"`
	Nonce  string `json:"nonce,omitempty"`
}

// Encode produces a state token carrying the initiating user identifier.
func (c *Codec) Encode(userID string) (string, error) {
	if c.Signed() {
		now := time.Now().UTC()
		claims := jwtv5.MapClaims{
			"user_id": userID,
			"nonce":   uuid.NewString(),
			"iat":     now.Unix(),
			"exp":     now.Add(c.ttl).Unix(),
		}
		tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
		return tok.SignedString(c.signingKey)
	}

	b, err := json.Marshal(payload{UserID: userID, Nonce: uuid.NewString()})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode recovers the user identifier from a state token.
// Any failure is reported as ErrMalformed; callers decide how lenient
// to be about it.
func (c *Codec) Decode(token string) (string, error) {
	if token == "" {
		return "", ErrMalformed
	}

	if c.Signed() {
		tk, err := jwtv5.Parse(token, func(*jwtv5.Token) (any, error) {
			return c.signingKey, nil
		}, jwtv5.WithValidMethods([]string{"HS256"}))
		if err != nil || !tk.Valid {
			return "", ErrMalformed
		}
		claims, ok := tk.Claims.(jwtv5.MapClaims)
		if !ok {
			return "", ErrMalformed
		}
		uid, _ := claims["user_id"].(string)
		if uid == "" {
			return "", ErrMalformed
		}
		return uid, nil
	}

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrMalformed
	}
	var p payload
	if err := json.Unmarshal(b, &p); err != nil || p.UserID == "" {
		return "", ErrMalformed
	}
	return p.UserID, nil
}
