package payment

import (
	"context"
	"errors"
	"net/url"
)

// Verifier is the authoritative server-side payment check invoked only after
// the gateway response code passed the local success test.
type Verifier interface {
	VerifyPayment(ctx context.Context, paymentID string) (*VerifyResult, error)
}

// VerifyError carries application-level messages from a failed verification,
// as opposed to transport failures which surface as plain errors.
type VerifyError struct {
	Messages []string
}

func (e *VerifyError) Error() string {
	if len(e.Messages) > 0 {
		return e.Messages[0]
	}
	return "payment verification failed"
}

// Processing messages for locally detected failures.
const (
	msgInvalidLink      = "Invalid payment link"
	msgInvalidReference = "Invalid transaction reference"
	msgInvalidSignature = "Invalid payment signature"
	msgVerifyFailed     = "Payment verification failed"
	msgVerified         = "Payment verified successfully"
)

// ReturnProcessor drives the return-redirect state machine for a single
// gateway return event: pending -> success or pending -> error, both
// terminal. The last processed (responseCode, txnRef) pair is held as
// first-class state so a re-fired handler never re-invokes verification for
// the same return.
type ReturnProcessor struct {
	verifier Verifier

	// ValidateSignature, when set, must approve the raw return query before
	// any verification call is made.
	ValidateSignature func(url.Values) bool

	state    Status
	lastCode string
	lastRef  string
	seen     bool
	outcome  Outcome
}

// NewReturnProcessor creates a processor in the pending state.
func NewReturnProcessor(verifier Verifier) *ReturnProcessor {
	return &ReturnProcessor{
		verifier: verifier,
		state:    StatusPending,
	}
}

// State exposes the current machine state.
func (p *ReturnProcessor) State() Status {
	return p.state
}

// Processed reports whether the given return pair was already handled.
func (p *ReturnProcessor) Processed(responseCode, txnRef string) bool {
	return p.seen && p.lastCode == responseCode && p.lastRef == txnRef
}

// Process runs the return algorithm exactly once per distinct return pair.
// Re-entry with the identical pair (effect re-fire, page re-render) returns
// the cached outcome without any side effects.
func (p *ReturnProcessor) Process(ctx context.Context, params ReturnParams) Outcome {
	if p.Processed(params.ResponseCode, params.TxnRef) {
		return p.outcome
	}
	if p.state.IsTerminal() {
		// A different pair arriving after a terminal outcome cannot restart
		// the machine; the frozen outcome stands.
		return p.outcome
	}

	p.seen = true
	p.lastCode = params.ResponseCode
	p.lastRef = params.TxnRef

	// 1. Missing parameters: terminal error, no backend call.
	if params.ResponseCode == "" || params.TxnRef == "" {
		return p.fail(msgInvalidLink)
	}

	// 2. Non-success gateway code: trusted at face value, mapped message,
	// verification is skipped entirely.
	if params.ResponseCode != ResponseCodeSuccess {
		return p.fail(ResponseMessage(params.ResponseCode))
	}

	// 3. Extract the payment id from the composite reference.
	paymentID, err := ParsePaymentID(params.TxnRef)
	if err != nil {
		return p.fail(msgInvalidReference)
	}

	if p.ValidateSignature != nil && !p.ValidateSignature(params.RawQuery) {
		return p.fail(msgInvalidSignature)
	}

	// 4. Authoritative backend verification.
	result, err := p.verifier.VerifyPayment(ctx, paymentID)
	if err != nil {
		var verr *VerifyError
		if errors.As(err, &verr) && len(verr.Messages) > 0 {
			return p.fail(verr.Messages[0])
		}
		return p.fail(msgVerifyFailed)
	}

	p.state = StatusSuccess
	message := msgVerified
	transactionID := paymentID
	if result != nil {
		if result.Message != "" {
			message = result.Message
		}
		if result.TransactionID != "" {
			transactionID = result.TransactionID
		}
	}
	p.outcome = Outcome{Status: StatusSuccess, Message: message, TransactionID: transactionID}
	return p.outcome
}

func (p *ReturnProcessor) fail(message string) Outcome {
	p.state = StatusError
	p.outcome = Outcome{Status: StatusError, Message: message}
	return p.outcome
}
