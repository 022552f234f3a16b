package payment

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	builtURL   string
	buildCalls int
	sigValid   bool
}

func (f *fakeGateway) BuildPaymentURL(in CreatePaymentInput) (string, error) {
	f.buildCalls++
	f.builtURL = "https://gateway.example/pay?vnp_TxnRef=" + url.QueryEscape(in.TxnRef)
	return f.builtURL, nil
}

func (f *fakeGateway) ValidateReturnSignature(url.Values) bool { return f.sigValid }

type fakeRepo struct {
	payments      map[string]*models.Payment
	returnEvents  map[string]*models.PaymentReturnEvent
	subscriptions []models.Subscription
	settings      map[uint]*models.UserSettings
	school        *models.School
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments:     map[string]*models.Payment{},
		returnEvents: map[string]*models.PaymentReturnEvent{},
		settings:     map[uint]*models.UserSettings{},
	}
}

func (r *fakeRepo) CreatePayment(p *models.Payment) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.payments[p.PublicID] = &cp
	return nil
}

func (r *fakeRepo) GetPaymentByPublicID(publicID string) (*models.Payment, error) {
	p, ok := r.payments[publicID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) SavePayment(p *models.Payment) error {
	cp := *p
	r.payments[p.PublicID] = &cp
	return nil
}

func (r *fakeRepo) ExpirePendingPayments(olderThan time.Time) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			p.Status = models.PaymentStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CreateReturnEventIfNotExists(event *models.PaymentReturnEvent) (bool, *models.PaymentReturnEvent, error) {
	key := event.Gateway + "|" + event.TxnRef
	if existing, ok := r.returnEvents[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.returnEvents[key] = event
	return true, event, nil
}

func (r *fakeRepo) SaveReturnEvent(event *models.PaymentReturnEvent) error {
	r.returnEvents[event.Gateway+"|"+event.TxnRef] = event
	return nil
}

func (r *fakeRepo) MarkReturnProcessed(id uint, processingError string) error {
	for _, event := range r.returnEvents {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
		}
	}
	return nil
}

func (r *fakeRepo) HasSignatureValidReturn(gateway, txnRef string) (bool, error) {
	event, ok := r.returnEvents[gateway+"|"+txnRef]
	return ok && event.SignatureValid, nil
}

func (r *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	r.nextID++
	sub.ID = r.nextID
	r.subscriptions = append(r.subscriptions, *sub)
	return nil
}

func (r *fakeRepo) ListSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range r.subscriptions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ExpireDueSubscriptions(now time.Time) (int64, error) {
	var n int64
	for i := range r.subscriptions {
		sub := &r.subscriptions[i]
		if sub.Status == models.SubscriptionStatusActive && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
			sub.Status = models.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) GetOrCreateUserSettings(userID uint) (*models.UserSettings, error) {
	if us, ok := r.settings[userID]; ok {
		return us, nil
	}
	us := &models.UserSettings{UserID: userID, Plan: "free"}
	r.settings[userID] = us
	return us, nil
}

func (r *fakeRepo) SaveUserSettings(us *models.UserSettings) error {
	r.settings[us.UserID] = us
	return nil
}

func (r *fakeRepo) GetUserSchool(uint) (*models.School, error) {
	return r.school, nil
}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	svc := NewService(repo, gw)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// newSignedTestService wires a real VNPay client so return queries go
// through actual secure-hash validation.
func newSignedTestService(repo *fakeRepo) (*Service, *VNPayClient) {
	client := &VNPayClient{
		TmnCode:    "TESTTMN",
		HashSecret: "test-hash-secret",
		PayURL:     "https://gateway.example/pay",
		ReturnURL:  "https://app.example/payment/vnpay-return",
		Now:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	svc := NewService(repo, client)
	svc.now = client.Now
	return svc, client
}

// signReturnQuery appends the secure hash the gateway would compute for q.
func signReturnQuery(client *VNPayClient, q url.Values) {
	filtered := url.Values{}
	for key, values := range q {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if len(values) > 0 {
			filtered.Set(key, values[0])
		}
	}
	q.Set("vnp_SecureHash", client.sign(encodeSorted(filtered)))
}

// recordSignedReturn seeds the gateway evidence VerifyPayment requires.
func recordSignedReturn(repo *fakeRepo, txnRef string) {
	repo.returnEvents[models.PaymentGatewayVNPay+"|"+txnRef] = &models.PaymentReturnEvent{
		Gateway:        models.PaymentGatewayVNPay,
		TxnRef:         txnRef,
		ResponseCode:   "00",
		SignatureValid: true,
	}
}

func TestInitiateCheckout_UnknownTier(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 1, TierID: "enterprise"})
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestInitiateCheckout_SchoolTierHasNoCheckout(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 1, TierID: "school"})
	assert.ErrorIs(t, err, ErrTierNotSellable)
}

func TestInitiateCheckout_AmountMismatch(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{
		UserID:             1,
		TierID:             "pro",
		SubmittedAmountVND: 100000, // pro is 124750
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestInitiateCheckout_CreatesPendingPaymentAndRedirect(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	redirect, err := svc.InitiateCheckout(context.Background(), CheckoutInput{
		UserID:             7,
		TierID:             "pro",
		SubmittedAmountVND: entitlements.AmountVND(499),
		ClientIP:           "203.0.113.7",
	})
	require.NoError(t, err)
	assert.Equal(t, gw.builtURL, redirect)
	require.Len(t, repo.payments, 1)

	for _, p := range repo.payments {
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, int64(124750), p.AmountVND)
		assert.True(t, strings.HasPrefix(p.TxnRef, "user7_pro_"))
		assert.True(t, strings.HasSuffix(p.TxnRef, "_"+p.PublicID))
	}
}

func TestVerifyPayment_FinalizesAndUpgradesPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)

	var publicID string
	for id, p := range repo.payments {
		publicID = id
		recordSignedReturn(repo, p.TxnRef)
	}

	result, err := svc.VerifyPayment(context.Background(), publicID)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, publicID, result.TransactionID)

	p, _ := repo.GetPaymentByPublicID(publicID)
	assert.Equal(t, models.PaymentStatusPaid, p.Status)
	require.NotNil(t, p.PaidAt)

	require.Len(t, repo.subscriptions, 1)
	assert.Equal(t, "pro", repo.subscriptions[0].Plan)
	assert.Equal(t, "pro", repo.settings[7].Plan)
}

func TestVerifyPayment_UnknownPayment(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeGateway{})

	_, err := svc.VerifyPayment(context.Background(), "missing")
	var verr *VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Payment not found", verr.Messages[0])
}

func TestVerifyPayment_AlreadyPaidIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var publicID string
	for id, p := range repo.payments {
		publicID = id
		recordSignedReturn(repo, p.TxnRef)
	}

	_, err = svc.VerifyPayment(context.Background(), publicID)
	require.NoError(t, err)

	result, err := svc.VerifyPayment(context.Background(), publicID)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Len(t, repo.subscriptions, 1, "re-verification must not grant a second subscription")
}

func TestVerifyPayment_RequiresSignedGatewayReturn(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var publicID string
	for id := range repo.payments {
		publicID = id
	}

	// No return event at all: the payment owner knows their own id but
	// must not be able to self-finalize.
	_, err = svc.VerifyPayment(context.Background(), publicID)
	var verr *VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "No signed gateway confirmation for this payment", verr.Messages[0])

	// A recorded return whose signature failed is not evidence either.
	for _, p := range repo.payments {
		repo.returnEvents[models.PaymentGatewayVNPay+"|"+p.TxnRef] = &models.PaymentReturnEvent{
			Gateway:        models.PaymentGatewayVNPay,
			TxnRef:         p.TxnRef,
			ResponseCode:   "00",
			SignatureValid: false,
		}
	}
	_, err = svc.VerifyPayment(context.Background(), publicID)
	require.ErrorAs(t, err, &verr)

	p, _ := repo.GetPaymentByPublicID(publicID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Empty(t, repo.subscriptions)
}

func TestProcessReturn_DuplicateReturnDoesNotRefinalize(t *testing.T) {
	repo := newFakeRepo()
	svc, client := newSignedTestService(repo)

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var txnRef string
	for _, p := range repo.payments {
		txnRef = p.TxnRef
	}

	q := url.Values{}
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TxnRef", txnRef)
	signReturnQuery(client, q)

	first := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusSuccess, first.Status)

	second := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusSuccess, second.Status)
	assert.Len(t, repo.subscriptions, 1)
	assert.Len(t, repo.returnEvents, 1)
}

func TestProcessReturn_UnsignedSuccessReturnRejected(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newSignedTestService(repo)

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var publicID, txnRef string
	for id, p := range repo.payments {
		publicID = id
		txnRef = p.TxnRef
	}

	// The checkout owner knows their own reference from the redirect URL;
	// a success code without the secure hash must not finalize anything.
	q := url.Values{}
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TxnRef", txnRef)

	outcome := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, "Invalid payment signature", outcome.Message)

	p, _ := repo.GetPaymentByPublicID(publicID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Empty(t, repo.subscriptions)
}

func TestProcessReturn_ForgedSignatureRejected(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newSignedTestService(repo)

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var txnRef string
	for _, p := range repo.payments {
		txnRef = p.TxnRef
	}

	q := url.Values{}
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TxnRef", txnRef)
	q.Set("vnp_SecureHash", "deadbeef")

	outcome := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusError, outcome.Status)
	assert.Empty(t, repo.subscriptions)
}

func TestProcessReturn_SignedReturnAfterForgedAttemptSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc, client := newSignedTestService(repo)

	_, err := svc.InitiateCheckout(context.Background(), CheckoutInput{UserID: 7, TierID: "pro"})
	require.NoError(t, err)
	var txnRef string
	for _, p := range repo.payments {
		txnRef = p.TxnRef
	}

	forged := url.Values{}
	forged.Set("vnp_ResponseCode", "00")
	forged.Set("vnp_TxnRef", txnRef)

	outcome := svc.ProcessReturn(context.Background(), ParseReturnParams(forged))
	assert.Equal(t, StatusError, outcome.Status)

	// The genuine gateway redirect for the same reference must still be
	// able to complete the payment.
	genuine := url.Values{}
	genuine.Set("vnp_ResponseCode", "00")
	genuine.Set("vnp_TxnRef", txnRef)
	signReturnQuery(client, genuine)

	outcome = svc.ProcessReturn(context.Background(), ParseReturnParams(genuine))
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Len(t, repo.subscriptions, 1)
}

func TestProcessReturn_FailureCodeRecordsEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	q := url.Values{}
	q.Set("vnp_ResponseCode", "24")
	q.Set("vnp_TxnRef", "user7_pro_1_pay1")

	outcome := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, ResponseMessage("24"), outcome.Message)

	require.Len(t, repo.returnEvents, 1)
	for _, event := range repo.returnEvents {
		require.NotNil(t, event.ProcessedAt)
		assert.Equal(t, ResponseMessage("24"), event.ProcessingError)
	}
}

func TestProcessReturn_MissingRefRecordsNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	q := url.Values{}
	q.Set("vnp_ResponseCode", "00")

	outcome := svc.ProcessReturn(context.Background(), ParseReturnParams(q))
	assert.Equal(t, StatusError, outcome.Status)
	assert.Empty(t, repo.returnEvents)
}

func TestReconcileUserPlan_SchoolOverridesIndividualPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.school = &models.School{ID: 1, Name: "Eastside High", SubscribedFrom: &from, SubscribedUntil: &until}

	plan, err := svc.ReconcileUserPlan(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "school", plan)
	assert.Equal(t, "school", repo.settings[7].Plan)
}

func TestReconcileUserPlan_ExpiredSubscriptionDowngrades(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	past := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.subscriptions = append(repo.subscriptions, models.Subscription{
		UserID:           7,
		Plan:             "premium",
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &past,
	})
	repo.settings[7] = &models.UserSettings{UserID: 7, Plan: "premium"}

	plan, err := svc.ReconcileUserPlan(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "free", plan)
}
