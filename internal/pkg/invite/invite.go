package invite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eduprompt/eduprompt/internal/pkg/env"
)

var (
	ErrMalformedToken = errors.New("malformed invite token")
	ErrBadSignature   = errors.New("invite token signature mismatch")
	ErrExpired        = errors.New("invite token expired")
)

// DefaultTTL is how long a generated invite link stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Token is the decoded payload of a group invite link.
type Token struct {
	GroupID   uint
	ExpiresAt time.Time
}

func secret() []byte {
	return []byte(env.GetEnv("INVITE_SECRET", "dev-invite-secret"))
}

// Generate creates a signed invite token for a group. Format:
// base64url(groupID.expiresUnix.signature)
func Generate(groupID uint, ttl time.Duration) string {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	expires := time.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("%d.%d", groupID, expires)
	sig := sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + "." + sig))
}

// Parse validates a token and returns its payload.
func Parse(raw string) (Token, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return Token{}, ErrMalformedToken
	}

	parts := strings.Split(string(decoded), ".")
	if len(parts) != 3 {
		return Token{}, ErrMalformedToken
	}

	groupID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Token{}, ErrMalformedToken
	}
	expiresUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Token{}, ErrMalformedToken
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(sign(payload)), []byte(parts[2])) {
		return Token{}, ErrBadSignature
	}

	expiresAt := time.Unix(expiresUnix, 0)
	if time.Now().After(expiresAt) {
		return Token{}, ErrExpired
	}

	return Token{GroupID: uint(groupID), ExpiresAt: expiresAt}, nil
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, secret())
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
