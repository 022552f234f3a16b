package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gateway abstracts the payment gateway client so the service can be tested
// without building real signed URLs.
type Gateway interface {
	BuildPaymentURL(in CreatePaymentInput) (string, error)
	ValidateReturnSignature(query url.Values) bool
}

// Checkout errors surfaced to the user.
var (
	ErrUnknownTier     = errors.New("unknown subscription tier")
	ErrTierNotSellable = errors.New("this tier has no online checkout")
	ErrAmountMismatch  = errors.New("submitted amount does not match the tier price")
)

// Service owns checkout initiation, authoritative verification and plan
// reconciliation for gateway payments.
type Service struct {
	repo    Repository
	gateway Gateway
	now     func() time.Time
}

// NewService creates a payment service from injected dependencies.
func NewService(repo Repository, gateway Gateway) *Service {
	return &Service{repo: repo, gateway: gateway, now: time.Now}
}

// NewServiceFromDB creates a payment service from a GORM DB handle with the
// env-configured VNPay client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewVNPayClientFromEnv())
}

// CheckoutInput describes one checkout submission.
type CheckoutInput struct {
	UserID uint
	TierID string
	// SubmittedAmountVND, when non-zero, is cross-checked against the
	// server-computed tier amount so a stale client can never charge a
	// different price than it displayed.
	SubmittedAmountVND int64
	OrderDescription   string
	ClientIP           string
}

// InitiateCheckout converts a tier selection into a pending payment row plus
// a signed gateway redirect URL. The caller's only responsibility is to
// navigate the browser to that URL.
func (s *Service) InitiateCheckout(ctx context.Context, in CheckoutInput) (string, error) {
	_ = ctx
	tier, ok := entitlements.FindTier(in.TierID)
	if !ok {
		return "", ErrUnknownTier
	}
	if tier.ContactOnly || tier.PriceUSDCents <= 0 {
		return "", ErrTierNotSellable
	}

	amount := entitlements.AmountVND(tier.PriceUSDCents)
	if in.SubmittedAmountVND != 0 && in.SubmittedAmountVND != amount {
		return "", ErrAmountMismatch
	}

	orderInfo := in.OrderDescription
	if orderInfo == "" {
		orderInfo = fmt.Sprintf("EduPrompt %s subscription", tier.Name)
	}

	p := &models.Payment{
		PublicID:  uuid.New().String(),
		UserID:    in.UserID,
		Gateway:   models.PaymentGatewayVNPay,
		TierID:    in.TierID,
		AmountVND: amount,
		Currency:  "VND",
		OrderInfo: orderInfo,
		Status:    models.PaymentStatusPending,
	}
	p.TxnRef = Reference{
		UserID:    in.UserID,
		TierID:    in.TierID,
		IssuedAt:  s.now().Unix(),
		PaymentID: p.PublicID,
	}.Encode()

	if err := s.repo.CreatePayment(p); err != nil {
		return "", fmt.Errorf("failed to create payment record: %w", err)
	}

	redirectURL, err := s.gateway.BuildPaymentURL(CreatePaymentInput{
		AmountVND: amount,
		TxnRef:    p.TxnRef,
		OrderInfo: orderInfo,
		ClientIP:  in.ClientIP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build gateway redirect: %w", err)
	}
	return redirectURL, nil
}

// PaymentByPublicID exposes a read of one payment for presentation, for
// example the receipt mail after a verified checkout.
func (s *Service) PaymentByPublicID(publicID string) (*models.Payment, error) {
	return s.repo.GetPaymentByPublicID(publicID)
}

// VerifyPayment finalizes a pending payment: marks it paid, grants the
// subscription and reconciles the user's effective plan. Re-verifying an
// already paid payment is a no-op success.
func (s *Service) VerifyPayment(ctx context.Context, paymentID string) (*VerifyResult, error) {
	p, err := s.repo.GetPaymentByPublicID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &VerifyError{Messages: []string{"Payment not found"}}
		}
		return nil, err
	}

	if p.Status == models.PaymentStatusPaid {
		return &VerifyResult{
			Status:        string(StatusSuccess),
			Message:       "Payment already verified",
			TransactionID: p.PublicID,
		}, nil
	}
	if p.Status != models.PaymentStatusPending {
		return nil, &VerifyError{Messages: []string{fmt.Sprintf("Payment is %s and cannot be verified", p.Status)}}
	}

	// Finalizing requires gateway evidence: a return event for this
	// payment's reference whose secure hash checked out. Without it anyone
	// who knows a payment id could grant themselves the subscription.
	confirmed, err := s.repo.HasSignatureValidReturn(p.Gateway, p.TxnRef)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, &VerifyError{Messages: []string{"No signed gateway confirmation for this payment"}}
	}

	now := s.now()
	p.Status = models.PaymentStatusPaid
	p.PaidAt = &now
	if err := s.repo.SavePayment(p); err != nil {
		return nil, err
	}

	periodEnd := now.AddDate(0, 1, 0)
	sub := &models.Subscription{
		UserID:             p.UserID,
		PaymentID:          &p.ID,
		Plan:               p.TierID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, err
	}

	if _, err := s.ReconcileUserPlan(ctx, p.UserID); err != nil {
		return nil, err
	}

	return &VerifyResult{
		Status:        string(StatusSuccess),
		Message:       msgVerified,
		TransactionID: p.PublicID,
	}, nil
}

// ProcessReturn is the full gateway-return pipeline: record the return event
// idempotently, run the return state machine, and persist the processing
// result. Exactly one verification happens per distinct transaction
// reference even across process restarts (the DB unique key is the
// backstop; the processor guard covers in-process re-entry).
func (s *Service) ProcessReturn(ctx context.Context, params ReturnParams) Outcome {
	proc := NewReturnProcessor(s)
	// A success return without a valid secure hash must never reach
	// verification; omitting the hash fails validation like a wrong one.
	proc.ValidateSignature = s.gateway.ValidateReturnSignature

	// Returns without a reference cannot be deduplicated; let the processor
	// reject them without recording an event.
	if params.TxnRef == "" {
		return proc.Process(ctx, params)
	}

	sigValid := s.gateway.ValidateReturnSignature(params.RawQuery)
	event := &models.PaymentReturnEvent{
		Gateway:        models.PaymentGatewayVNPay,
		TxnRef:         params.TxnRef,
		ResponseCode:   params.ResponseCode,
		RawQuery:       params.RawQuery.Encode(),
		SignatureValid: sigValid,
	}
	created, stored, err := s.repo.CreateReturnEventIfNotExists(event)
	if err != nil {
		return Outcome{Status: StatusError, Message: msgVerifyFailed}
	}
	if !created {
		if !sigValid || stored.SignatureValid {
			return s.duplicateReturnOutcome(params)
		}
		// A forged return recorded earlier must not lock out the genuine
		// gateway redirect: store the now-proven signature and run the
		// pipeline for it.
		stored.SignatureValid = true
		stored.ResponseCode = params.ResponseCode
		stored.RawQuery = params.RawQuery.Encode()
		if err := s.repo.SaveReturnEvent(stored); err != nil {
			return Outcome{Status: StatusError, Message: msgVerifyFailed}
		}
	}

	outcome := proc.Process(ctx, params)

	procErr := ""
	if outcome.Status == StatusError {
		procErr = outcome.Message
	}
	_ = s.repo.MarkReturnProcessed(stored.ID, procErr)
	return outcome
}

// duplicateReturnOutcome answers a replayed return from the stored payment
// state without touching the gateway flow again.
func (s *Service) duplicateReturnOutcome(params ReturnParams) Outcome {
	paymentID, err := ParsePaymentID(params.TxnRef)
	if err == nil {
		if p, perr := s.repo.GetPaymentByPublicID(paymentID); perr == nil && p.Status == models.PaymentStatusPaid {
			return Outcome{Status: StatusSuccess, Message: "Payment already verified", TransactionID: p.PublicID}
		}
	}
	return Outcome{Status: StatusError, Message: "This payment return was already processed"}
}

// ReconcileUserPlan computes and writes the best effective plan for a user.
// An active school subscription overrides any individual entitlement.
func (s *Service) ReconcileUserPlan(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	if userID == 0 {
		return "", errors.New("user_id is required")
	}
	now := s.now()

	best := entitlements.PlanFree

	school, err := s.repo.GetUserSchool(userID)
	if err != nil {
		return "", err
	}
	if school.HasActiveSubscription(now) {
		best = entitlements.PlanSchool
	} else {
		subs, err := s.repo.ListSubscriptionsByUser(userID)
		if err != nil {
			return "", err
		}
		for _, sub := range subs {
			if sub.Status != models.SubscriptionStatusActive {
				continue
			}
			if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
				continue
			}
			candidate := entitlements.NormalizePlan(sub.Plan)
			if entitlements.PlanRank(candidate) > entitlements.PlanRank(best) {
				best = candidate
			}
		}
	}

	us, err := s.repo.GetOrCreateUserSettings(userID)
	if err != nil {
		return "", err
	}
	if entitlements.NormalizePlan(us.Plan) == best {
		return string(best), nil
	}
	us.Plan = string(best)
	if err := s.repo.SaveUserSettings(us); err != nil {
		return "", err
	}
	return string(best), nil
}

// ExpireStale downgrades lapsed entitlements: pending payments older than
// the cutoff become expired, due subscriptions are closed out.
func (s *Service) ExpireStale(ctx context.Context, pendingCutoff time.Duration) (int64, int64, error) {
	_ = ctx
	now := s.now()
	payments, err := s.repo.ExpirePendingPayments(now.Add(-pendingCutoff))
	if err != nil {
		return 0, 0, err
	}
	subs, err := s.repo.ExpireDueSubscriptions(now)
	if err != nil {
		return payments, 0, err
	}
	return payments, subs, nil
}
