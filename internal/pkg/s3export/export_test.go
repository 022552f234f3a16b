package s3export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduprompt/eduprompt/app/models"
)

func TestRenderCSV(t *testing.T) {
	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	payments := []models.Payment{
		{
			PublicID:             "pay-1",
			UserID:               7,
			User:                 models.User{Email: "teacher@example.com"},
			TierID:               "pro",
			AmountVND:            124750,
			Currency:             "VND",
			Gateway:              "vnpay",
			GatewayTransactionNo: "14226112",
			PaidAt:               &paidAt,
		},
	}

	body, err := renderCSV(payments)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "payment_id,user_id,user_email,tier,amount_vnd,currency,gateway,gateway_txn_no,paid_at", lines[0])
	assert.Equal(t, "pay-1,7,teacher@example.com,pro,124750,VND,vnpay,14226112,2026-03-14T10:30:00Z", lines[1])
}

func TestRenderCSVEmptyAndPending(t *testing.T) {
	body, err := renderCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(body)), "\n")+1)

	// A payment without PaidAt renders an empty timestamp column.
	body, err = renderCSV([]models.Payment{{PublicID: "pay-2", Currency: "VND", Gateway: "vnpay"}})
	require.NoError(t, err)
	assert.Contains(t, string(body), "pay-2,0,,,0,VND,vnpay,,\n")
}

func TestGetObjectKey(t *testing.T) {
	cfg := &Config{BucketName: "exports"}
	key := cfg.GetObjectKey(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "exports/payments/2026/payments-2026-09.csv", key)
}

func TestGetSchoolObjectKey(t *testing.T) {
	cfg := &Config{BucketName: "exports"}
	key := cfg.GetSchoolObjectKey(42, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "exports/schools/42/2026/payments-2026-09.csv", key)
}
