package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
	"github.com/aifinder/aifinder-api/pkg/mailer"
	"github.com/aifinder/aifinder-api/pkg/razorpay"
)

var (
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrInvalidPlanAmount = errors.New("plan amount must be at least 1")
	ErrUnknownOrder      = errors.New("order not found")
)

// PaymentGateway is the slice of pkg/razorpay the service depends on.
type PaymentGateway interface {
	CreateOrder(planAmount int, receipt string, notes map[string]interface{}) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

type SubscriptionService struct {
	Users   repo.UserRepository
	Orders  repo.OrderRepository
	Gateway PaymentGateway
	Mail    EmailPublisher
	Logger  *logrus.Logger
}

func NewSubscriptionService(users repo.UserRepository, orders repo.OrderRepository, gw PaymentGateway, mail EmailPublisher, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{Users: users, Orders: orders, Gateway: gw, Mail: mail, Logger: logger}
}

// Status is the subscription snapshot with entitlements derived from the
// current balance.
type Status struct {
	IsSubscribed bool `json:"is_subscribed"`
	PlanAmount   int  `json:"plan_amount"`
	ToolLimit    int  `json:"tool_limit"`
	FolderLimit  int  `json:"folder_limit"`
	SavedTools   int  `json:"saved_tools"`
	Payments     int  `json:"payments"`
}

func (s *SubscriptionService) Status(ctx context.Context, clerkID string) (*Status, error) {
	u, err := s.Users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Status{
		IsSubscribed: u.IsSubscribed,
		PlanAmount:   u.PlanAmount,
		ToolLimit:    u.ToolLimit(),
		FolderLimit:  u.FolderLimit(),
		SavedTools:   u.TotalSavedTools(),
		Payments:     len(u.PaymentHist),
	}, nil
}

// CreateOrder registers a gateway order for planAmount units and persists the
// order -> payer mapping the webhook will use.
func (s *SubscriptionService) CreateOrder(ctx context.Context, clerkID string, planAmount int) (*razorpay.Order, error) {
	if planAmount < 1 {
		return nil, ErrInvalidPlanAmount
	}
	if _, err := s.Users.GetByClerkID(ctx, clerkID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	receipt := razorpay.ReceiptID(clerkID, planAmount)
	order, err := s.Gateway.CreateOrder(planAmount, receipt, map[string]interface{}{
		"clerk_id": clerkID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Orders.Create(ctx, &entity.PendingOrder{
		OrderID:    order.ID,
		ClerkID:    clerkID,
		PlanAmount: planAmount,
		Receipt:    receipt,
	}); err != nil {
		// Without the mapping the webhook cannot credit the payment.
		s.Logger.WithError(err).WithField("order_id", order.ID).Error("persist pending order failed")
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"clerk_id":    clerkID,
		"plan_amount": planAmount,
	}).Info("subscription order created")
	return order, nil
}

// VerifyAndApply handles the checkout confirmation callback. A bad signature
// leaves all state untouched.
func (s *SubscriptionService) VerifyAndApply(ctx context.Context, clerkID, orderID, paymentID, signature string) (bool, error) {
	if !s.Gateway.VerifyPaymentSignature(orderID, paymentID, signature) {
		return false, ErrSignatureMismatch
	}

	order, err := s.Orders.GetByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrUnknownOrder
	}
	if err != nil {
		return false, err
	}
	if order.ClerkID != clerkID {
		return false, ErrUnknownOrder
	}

	rec := entity.PaymentRecord{
		OrderID:    orderID,
		PaymentID:  paymentID,
		Amount:     int64(order.PlanAmount) * 100,
		Currency:   "INR",
		Status:     "captured",
		PlanAmount: order.PlanAmount,
		CreatedAt:  time.Now().UTC(),
	}
	return s.reconcile(ctx, clerkID, rec)
}

// webhookEvent is the subset of the gateway webhook body we consume.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook verifies the delivery against the raw body bytes, then
// credits captured payments. Events for orders we did not create are logged
// and skipped so the gateway does not retry them forever.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !s.Gateway.VerifyWebhookSignature(rawBody, signature) {
		return ErrSignatureMismatch
	}

	var ev webhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return err
	}
	if ev.Event != "payment.captured" {
		s.Logger.WithField("event", ev.Event).Debug("webhook event ignored")
		return nil
	}

	p := ev.Payload.Payment.Entity
	order, err := s.Orders.GetByOrderID(ctx, p.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithFields(logrus.Fields{
			"order_id":   p.OrderID,
			"payment_id": p.ID,
		}).Warn("webhook for unknown order skipped")
		return nil
	}
	if err != nil {
		return err
	}

	rec := entity.PaymentRecord{
		OrderID:    p.OrderID,
		PaymentID:  p.ID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Status:     p.Status,
		PlanAmount: order.PlanAmount,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.reconcile(ctx, order.ClerkID, rec)
	return err
}

// reconcile applies the payment exactly once. The repository runs one
// conditional update keyed on the payment id; a replay matches nothing and is
// absorbed silently.
func (s *SubscriptionService) reconcile(ctx context.Context, clerkID string, rec entity.PaymentRecord) (bool, error) {
	applied, err := s.Users.ApplyPayment(ctx, clerkID, rec)
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}

	log := s.Logger.WithFields(logrus.Fields{
		"clerk_id":   clerkID,
		"payment_id": rec.PaymentID,
		"order_id":   rec.OrderID,
	})
	if !applied {
		log.Info("payment already recorded, skipping")
		return false, nil
	}
	log.WithField("plan_amount", rec.PlanAmount).Info("payment applied")

	s.sendReceipt(ctx, clerkID, rec)
	return true, nil
}

// sendReceipt queues the receipt email. Failures are logged, never surfaced:
// the payment is already applied.
func (s *SubscriptionService) sendReceipt(ctx context.Context, clerkID string, rec entity.PaymentRecord) {
	if s.Mail == nil {
		return
	}
	u, err := s.Users.GetByClerkID(ctx, clerkID)
	if err != nil || u.Email == "" {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplatePaymentReceipt,
		Data: map[string]any{
			"Name":        u.Name,
			"Currency":    rec.Currency,
			"PlanAmount":  rec.PlanAmount,
			"OrderID":     rec.OrderID,
			"PaymentID":   rec.PaymentID,
			"TotalPlan":   u.PlanAmount,
			"ToolLimit":   u.ToolLimit(),
			"FolderLimit": u.FolderLimit(),
		},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("clerk_id", clerkID).Warn("queue receipt email failed")
	}
}
