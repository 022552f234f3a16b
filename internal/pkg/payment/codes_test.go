package payment

import "testing"

func TestResponseMessage_KnownCodes(t *testing.T) {
	for _, code := range []string{"00", "07", "09", "10", "11", "12", "13", "24", "51", "65", "75", "79", "99"} {
		if ResponseMessage(code) == unknownResponseMessage {
			t.Fatalf("expected a dedicated message for code %q", code)
		}
	}
}

func TestResponseMessage_UnknownCodeFallsBack(t *testing.T) {
	for _, code := range []string{"", "42", "XX", "000"} {
		if got := ResponseMessage(code); got != unknownResponseMessage {
			t.Fatalf("ResponseMessage(%q) = %q, want generic fallback", code, got)
		}
	}
}

func TestResponseCodeSuccessHasApprovedMessage(t *testing.T) {
	if ResponseMessage(ResponseCodeSuccess) != "Transaction approved" {
		t.Fatalf("unexpected success message")
	}
}
