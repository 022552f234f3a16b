package payment

import (
	"errors"
	"testing"
)

func TestReferenceEncode(t *testing.T) {
	ref := Reference{UserID: 123, TierID: "pro", IssuedAt: 1700000000, PaymentID: "pay789"}
	if got, want := ref.Encode(), "user123_pro_1700000000_pay789"; got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestParsePaymentID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "composite", in: "user123_tierABC_1700000000_pay789", want: "pay789"},
		{name: "single segment", in: "pay789", want: "pay789"},
		{name: "surrounding space", in: "  a_b_c  ", want: "c"},
		{name: "empty", in: "", wantErr: true},
		{name: "only spaces", in: "   ", wantErr: true},
		{name: "trailing delimiter", in: "user123_pro_", wantErr: true},
		{name: "only delimiters", in: "___", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePaymentID(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePaymentID(%q) expected error, got %q", tt.in, got)
				}
				if !errors.Is(err, ErrMalformedReference) {
					t.Fatalf("ParsePaymentID(%q) error %v is not ErrMalformedReference", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePaymentID(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePaymentID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReferenceRoundTrip(t *testing.T) {
	ref := Reference{UserID: 42, TierID: "premium", IssuedAt: 1712345678, PaymentID: "abc-def-123"}
	got, err := ParsePaymentID(ref.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ref.PaymentID {
		t.Fatalf("round trip returned %q, want %q", got, ref.PaymentID)
	}
}
