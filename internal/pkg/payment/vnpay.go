package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eduprompt/eduprompt/internal/pkg/env"
)

const (
	defaultVNPayPayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"

	vnpVersion    = "2.1.0"
	vnpCommand    = "pay"
	vnpCurrency   = "VND"
	vnpLocale     = "vn"
	vnpDateLayout = "20060102150405"
)

// VNPayClient builds signed redirect URLs for the VNPay gateway and
// validates the signature on return redirects.
type VNPayClient struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string

	// Now is injectable for deterministic tests.
	Now func() time.Time
}

// NewVNPayClientFromEnv assembles a client from environment configuration.
func NewVNPayClientFromEnv() *VNPayClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	returnURL := strings.TrimSpace(env.GetEnv("VNPAY_RETURN_URL", ""))
	if returnURL == "" && base != "" {
		returnURL = base + "/payment/vnpay-return"
	}

	return &VNPayClient{
		TmnCode:    strings.TrimSpace(env.GetEnv("VNPAY_TMN_CODE", "")),
		HashSecret: strings.TrimSpace(env.GetEnv("VNPAY_HASH_SECRET", "")),
		PayURL:     strings.TrimSpace(env.GetEnv("VNPAY_PAY_URL", defaultVNPayPayURL)),
		ReturnURL:  returnURL,
		Now:        time.Now,
	}
}

// CreatePaymentInput describes one checkout redirect to build.
type CreatePaymentInput struct {
	AmountVND int64
	TxnRef    string
	OrderInfo string
	ClientIP  string
}

// BuildPaymentURL returns the full signed gateway URL the browser must be
// navigated to. The gateway requires a top-level navigation for its own
// session handling, so the caller only redirects, never fetches.
func (c *VNPayClient) BuildPaymentURL(in CreatePaymentInput) (string, error) {
	if strings.TrimSpace(c.TmnCode) == "" || strings.TrimSpace(c.HashSecret) == "" {
		return "", errors.New("VNPAY_TMN_CODE/VNPAY_HASH_SECRET are not configured")
	}
	if strings.TrimSpace(c.ReturnURL) == "" {
		return "", errors.New("VNPAY_RETURN_URL is not configured")
	}
	if in.AmountVND <= 0 {
		return "", errors.New("amount must be a positive VND value")
	}
	if strings.TrimSpace(in.TxnRef) == "" {
		return "", errors.New("transaction reference is required")
	}

	now := c.Now()
	params := url.Values{}
	params.Set("vnp_Version", vnpVersion)
	params.Set("vnp_Command", vnpCommand)
	params.Set("vnp_TmnCode", c.TmnCode)
	// VNPay expects the amount multiplied by 100 to carry sub-unit precision.
	params.Set("vnp_Amount", strconv.FormatInt(in.AmountVND*100, 10))
	params.Set("vnp_CurrCode", vnpCurrency)
	params.Set("vnp_TxnRef", in.TxnRef)
	params.Set("vnp_OrderInfo", in.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", vnpLocale)
	params.Set("vnp_ReturnUrl", c.ReturnURL)
	params.Set("vnp_IpAddr", in.ClientIP)
	params.Set("vnp_CreateDate", now.Format(vnpDateLayout))
	params.Set("vnp_ExpireDate", now.Add(15*time.Minute).Format(vnpDateLayout))

	encoded := encodeSorted(params)
	signature := c.sign(encoded)

	return c.PayURL + "?" + encoded + "&vnp_SecureHash=" + signature, nil
}

// ValidateReturnSignature recomputes the secure hash over the returned query
// parameters (excluding the hash fields themselves) and compares it in
// constant time.
func (c *VNPayClient) ValidateReturnSignature(query url.Values) bool {
	got := strings.TrimSpace(query.Get("vnp_SecureHash"))
	if got == "" || strings.TrimSpace(c.HashSecret) == "" {
		return false
	}

	filtered := url.Values{}
	for key, values := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if len(values) > 0 {
			filtered.Set(key, values[0])
		}
	}

	want := c.sign(encodeSorted(filtered))
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

func (c *VNPayClient) sign(payload string) string {
	mac := hmac.New(sha512.New, []byte(c.HashSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeSorted encodes params in stable alphabetical key order, the order
// the gateway uses when it verifies the signature on its side.
func encodeSorted(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(key)))
	}
	return b.String()
}
