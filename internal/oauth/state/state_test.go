package state

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_Unsigned(t *testing.T) {
	c := New("", 0)

	for _, uid := range []string{"u1", "user-42", "7d4f2a", "user with spaces", "üñîçødé"} {
		tok, err := c.Encode(uid)
		require.NoError(t, err)

		// Must be transport-safe.
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")
		assert.NotContains(t, tok, "=")

		got, err := c.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, uid, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	c := New("", 0)

	cases := map[string]string{
		"empty":        "",
		"not base64":   "%%%not-base64%%%",
		"not json":     base64.RawURLEncoding.EncodeToString([]byte("plain text")),
		"wrong shape":  base64.RawURLEncoding.EncodeToString([]byte(`{"foo":"bar"}`)),
		"empty userid": base64.RawURLEncoding.EncodeToString([]byte(`{"user_id":""}`)),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(tok)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRoundTrip_Signed(t *testing.T) {
	c := New("super-secret-key", time.Minute)
	require.True(t, c.Signed())

	tok, err := c.Encode("u99")
	require.NoError(t, err)

	got, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "u99", got)
}

func TestSigned_RejectsTampering(t *testing.T) {
	c := New("super-secret-key", time.Minute)

	tok, err := c.Encode("u99")
	require.NoError(t, err)

	// Flip the signature segment.
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString([]byte("forged"))

	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSigned_RejectsPlainTokens(t *testing.T) {
	plain := New("", 0)
	signed := New("super-secret-key", time.Minute)

	tok, err := plain.Encode("u1")
	require.NoError(t, err)

	_, err = signed.Decode(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSigned_RejectsWrongKey(t *testing.T) {
	a := New("key-a", time.Minute)
	b := New("key-b", time.Minute)

	tok, err := a.Encode("u1")
	require.NoError(t, err)

	_, err = b.Decode(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}
