package invite

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParseRoundTrip(t *testing.T) {
	token := Generate(42, time.Hour)

	parsed, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.GroupID)
	assert.True(t, parsed.ExpiresAt.After(time.Now()))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-token!!!")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = Parse(base64.RawURLEncoding.EncodeToString([]byte("only.two")))
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestParseRejectsTamperedGroupID(t *testing.T) {
	token := Generate(7, time.Hour)
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	parts := strings.Split(string(decoded), ".")
	require.Len(t, parts, 3)
	parts[0] = "8"
	tampered := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, ".")))

	_, err = Parse(tampered)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParseRejectsExpired(t *testing.T) {
	token := Generate(7, -time.Minute)

	_, err := Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
}
