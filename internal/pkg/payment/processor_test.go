package payment

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	calls  int
	lastID string
	result *VerifyResult
	err    error
}

func (f *fakeVerifier) VerifyPayment(_ context.Context, paymentID string) (*VerifyResult, error) {
	f.calls++
	f.lastID = paymentID
	return f.result, f.err
}

func returnQuery(code, ref string) ReturnParams {
	q := url.Values{}
	if code != "" {
		q.Set("vnp_ResponseCode", code)
	}
	if ref != "" {
		q.Set("vnp_TxnRef", ref)
	}
	return ParseReturnParams(q)
}

func TestProcess_MissingTxnRef(t *testing.T) {
	verifier := &fakeVerifier{}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("00", ""))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, msgInvalidLink, outcome.Message)
	assert.Equal(t, 0, verifier.calls, "no backend call for malformed links")
	assert.Equal(t, StatusError, proc.State())
}

func TestProcess_MissingResponseCode(t *testing.T) {
	verifier := &fakeVerifier{}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, msgInvalidLink, outcome.Message)
	assert.Equal(t, 0, verifier.calls)
}

func TestProcess_UserCancelledCode(t *testing.T) {
	verifier := &fakeVerifier{}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("24", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, ResponseMessage("24"), outcome.Message)
	assert.Equal(t, 0, verifier.calls, "non-success codes are trusted at face value")
}

func TestProcess_UnknownCodeFallsBack(t *testing.T) {
	verifier := &fakeVerifier{}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("87", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, unknownResponseMessage, outcome.Message)
	assert.Equal(t, 0, verifier.calls)
}

func TestProcess_SuccessCodeExtractsPaymentID(t *testing.T) {
	verifier := &fakeVerifier{result: &VerifyResult{Status: "success", Message: "ok", TransactionID: "pay789"}}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("00", "user123_tierABC_1700000000_pay789"))

	require.Equal(t, 1, verifier.calls, "exactly one verification call")
	assert.Equal(t, "pay789", verifier.lastID)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, "pay789", outcome.TransactionID)
}

func TestProcess_MalformedReference(t *testing.T) {
	verifier := &fakeVerifier{}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("00", "user123_pro_"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, msgInvalidReference, outcome.Message)
	assert.Equal(t, 0, verifier.calls)
}

func TestProcess_VerifyErrorUsesFirstMessage(t *testing.T) {
	verifier := &fakeVerifier{err: &VerifyError{Messages: []string{"Payment not found", "secondary"}}}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("00", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, "Payment not found", outcome.Message)
}

func TestProcess_TransportErrorUsesGenericMessage(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("dial tcp: connection refused")}
	proc := NewReturnProcessor(verifier)

	outcome := proc.Process(context.Background(), returnQuery("00", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, msgVerifyFailed, outcome.Message)
}

func TestProcess_ReentryGuard(t *testing.T) {
	verifier := &fakeVerifier{result: &VerifyResult{Status: "success"}}
	proc := NewReturnProcessor(verifier)
	params := returnQuery("00", "user123_tierABC_1700000000_pay789")

	first := proc.Process(context.Background(), params)
	second := proc.Process(context.Background(), params)

	assert.Equal(t, 1, verifier.calls, "identical pair must verify exactly once")
	assert.Equal(t, first, second)
	assert.True(t, proc.Processed("00", "user123_tierABC_1700000000_pay789"))
}

func TestProcess_TerminalStateIsFrozen(t *testing.T) {
	verifier := &fakeVerifier{result: &VerifyResult{Status: "success"}}
	proc := NewReturnProcessor(verifier)

	first := proc.Process(context.Background(), returnQuery("00", "user1_pro_1_pay1"))
	require.Equal(t, StatusSuccess, first.Status)

	// A different pair cannot restart a terminal machine.
	second := proc.Process(context.Background(), returnQuery("24", "user1_pro_1_pay2"))

	assert.Equal(t, first, second)
	assert.Equal(t, 1, verifier.calls)
}

func TestProcess_SignatureValidation(t *testing.T) {
	verifier := &fakeVerifier{result: &VerifyResult{Status: "success"}}
	proc := NewReturnProcessor(verifier)
	proc.ValidateSignature = func(url.Values) bool { return false }

	outcome := proc.Process(context.Background(), returnQuery("00", "user1_pro_1_pay1"))

	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, msgInvalidSignature, outcome.Message)
	assert.Equal(t, 0, verifier.calls, "verification must not run on a bad signature")
}
