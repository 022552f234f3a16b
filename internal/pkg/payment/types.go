package payment

import "net/url"

// Status is the state of one gateway return flow. The machine only moves
// pending -> success or pending -> error; both end states are terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Outcome is the user-facing result of processing a gateway return.
type Outcome struct {
	Status        Status `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// ReturnParams are the query parameters the gateway appends to the return
// URL redirect.
type ReturnParams struct {
	ResponseCode string
	TxnRef       string
	RawQuery     url.Values
}

// ParseReturnParams extracts the gateway fields from a return-URL query.
func ParseReturnParams(query url.Values) ReturnParams {
	return ReturnParams{
		ResponseCode: query.Get("vnp_ResponseCode"),
		TxnRef:       query.Get("vnp_TxnRef"),
		RawQuery:     query,
	}
}

// VerifyResult is the authoritative backend answer for one payment id.
type VerifyResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
}
