package shortener

import (
	"strings"
	"testing"
)

func TestEncodeDecodeID_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []uint{0, 1, 61, 62, 12345, 9999999} {
		if got := DecodeID(EncodeID(id)); got != id {
			t.Fatalf("round trip for %d returned %d", id, got)
		}
	}
}

func TestEncodeID_Alphabet(t *testing.T) {
	t.Parallel()

	code := EncodeID(123456789)
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) == -1 {
			t.Fatalf("code contains invalid character %q", code[i])
		}
	}
}

func TestDecodeID_SkipsInvalidCharacters(t *testing.T) {
	t.Parallel()

	if got, want := DecodeID("temp-1a"), DecodeID("temp1a"); got != want {
		t.Fatalf("invalid characters changed the decoded id: %d vs %d", got, want)
	}
}
