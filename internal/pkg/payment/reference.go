package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The transaction reference sent to the gateway is an underscore-delimited
// composite whose LAST segment is always the payment's public identifier.
// Both sides of the flow (checkout and return handler) go through this codec,
// so the format stays an explicit contract instead of ad hoc string splitting.

const referenceDelimiter = "_"

// ErrMalformedReference is returned when a transaction reference does not
// yield a non-empty payment identifier.
var ErrMalformedReference = errors.New("malformed transaction reference")

// Reference describes the composite transaction reference.
type Reference struct {
	UserID    uint
	TierID    string
	IssuedAt  int64
	PaymentID string
}

// Encode renders the reference as sent to the gateway, e.g.
// "user123_pro_1700000000_a1b2c3".
func (r Reference) Encode() string {
	return strings.Join([]string{
		"user" + strconv.FormatUint(uint64(r.UserID), 10),
		r.TierID,
		strconv.FormatInt(r.IssuedAt, 10),
		r.PaymentID,
	}, referenceDelimiter)
}

// ParsePaymentID extracts the payment identifier from a raw transaction
// reference echoed back by the gateway. The reference is split on the
// delimiter and the final segment is taken; an empty final segment is a
// typed error, never a silent empty string.
func ParsePaymentID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty reference: %w", ErrMalformedReference)
	}

	segments := strings.Split(trimmed, referenceDelimiter)
	last := segments[len(segments)-1]
	if last == "" {
		return "", fmt.Errorf("reference %q has empty payment id segment: %w", raw, ErrMalformedReference)
	}
	return last, nil
}
