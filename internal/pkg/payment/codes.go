package payment

// ResponseCodeSuccess is the gateway code for an approved transaction. It is
// the only code that triggers server-side verification; every other code is
// treated as a terminal gateway-reported failure.
const ResponseCodeSuccess = "00"

// responseMessages maps the documented VNPay response codes to user-facing
// messages.
var responseMessages = map[string]string{
	"00": "Transaction approved",
	"07": "Transaction held as suspicious, please contact your bank",
	"09": "Card or account is not registered for online banking",
	"10": "Card or account authentication failed too many times",
	"11": "Payment session expired, please try again",
	"12": "Card or account is locked",
	"13": "Wrong one-time password (OTP)",
	"24": "Transaction was cancelled",
	"51": "Insufficient funds",
	"65": "Daily transaction limit exceeded",
	"75": "The bank is under maintenance",
	"79": "Wrong payment password entered too many times",
	"99": "Payment failed, please try again later",
}

const unknownResponseMessage = "Unknown payment error, please contact support"

// ResponseMessage returns the user-facing message for a gateway response
// code, falling back to a generic message for unrecognized codes.
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return unknownResponseMessage
}
