package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *VNPayClient {
	return &VNPayClient{
		TmnCode:    "EDUP0001",
		HashSecret: "testsecret",
		PayURL:     defaultVNPayPayURL,
		ReturnURL:  "https://eduprompt.example/payment/vnpay-return",
		Now:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestBuildPaymentURL(t *testing.T) {
	client := testClient()

	raw, err := client.BuildPaymentURL(CreatePaymentInput{
		AmountVND: 124750,
		TxnRef:    "user123_pro_1700000000_pay789",
		OrderInfo: "EduPrompt Pro subscription",
		ClientIP:  "203.0.113.7",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, defaultVNPayPayURL+"?"))

	q := parsed.Query()
	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "EDUP0001", q.Get("vnp_TmnCode"))
	// Amount carries two extra digits of sub-unit precision.
	assert.Equal(t, "12475000", q.Get("vnp_Amount"))
	assert.Equal(t, "user123_pro_1700000000_pay789", q.Get("vnp_TxnRef"))
	assert.Equal(t, "20240501120000", q.Get("vnp_CreateDate"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))
}

func TestBuildPaymentURL_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*VNPayClient, *CreatePaymentInput)
	}{
		{name: "missing secret", mutate: func(c *VNPayClient, _ *CreatePaymentInput) { c.HashSecret = "" }},
		{name: "missing return url", mutate: func(c *VNPayClient, _ *CreatePaymentInput) { c.ReturnURL = "" }},
		{name: "zero amount", mutate: func(_ *VNPayClient, in *CreatePaymentInput) { in.AmountVND = 0 }},
		{name: "negative amount", mutate: func(_ *VNPayClient, in *CreatePaymentInput) { in.AmountVND = -1 }},
		{name: "missing txn ref", mutate: func(_ *VNPayClient, in *CreatePaymentInput) { in.TxnRef = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient()
			in := CreatePaymentInput{AmountVND: 1000, TxnRef: "a_b", OrderInfo: "x", ClientIP: "127.0.0.1"}
			tt.mutate(client, &in)

			_, err := client.BuildPaymentURL(in)
			assert.Error(t, err)
		})
	}
}

func TestValidateReturnSignature_RoundTrip(t *testing.T) {
	client := testClient()

	params := url.Values{}
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TxnRef", "user123_pro_1700000000_pay789")
	params.Set("vnp_Amount", "12475000")
	params.Set("vnp_TransactionNo", "14226112")

	signed, err := url.ParseQuery(encodeSorted(params))
	require.NoError(t, err)
	signed.Set("vnp_SecureHash", client.sign(encodeSorted(params)))

	assert.True(t, client.ValidateReturnSignature(signed))
}

func TestValidateReturnSignature_Rejections(t *testing.T) {
	client := testClient()

	params := url.Values{}
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TxnRef", "ref")

	// No hash at all.
	assert.False(t, client.ValidateReturnSignature(params))

	// Tampered parameter after signing.
	params.Set("vnp_SecureHash", client.sign(encodeSorted(params)))
	params.Set("vnp_ResponseCode", "24")
	assert.False(t, client.ValidateReturnSignature(params))
}
