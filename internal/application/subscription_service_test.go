package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/pkg/mailer"
)

func newSubscriptionService(users *fakeUserRepo, orders *fakeOrderRepo, gw *fakeGateway, mail *fakePublisher) *SubscriptionService {
	return NewSubscriptionService(users, orders, gw, mail, testLogger())
}

func webhookBody(t *testing.T, event, orderID, paymentID string, amount int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": orderID,
					"amount":   amount,
					"currency": "INR",
					"status":   "captured",
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestCreateOrderPersistsPayerMapping(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Email: "a@b.c"})
	orders := newFakeOrderRepo()
	gw := &fakeGateway{}
	svc := newSubscriptionService(users, orders, gw, &fakePublisher{})

	order, err := svc.CreateOrder(context.Background(), "user_1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(500), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Contains(t, order.Receipt, "receipt_user_1_5_")

	stored, err := orders.GetByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_1", stored.ClerkID)
	assert.Equal(t, 5, stored.PlanAmount)
}

func TestCreateOrderRejectsBadAmount(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	svc := newSubscriptionService(users, newFakeOrderRepo(), &fakeGateway{}, &fakePublisher{})

	_, err := svc.CreateOrder(context.Background(), "user_1", 0)
	assert.ErrorIs(t, err, ErrInvalidPlanAmount)

	_, err = svc.CreateOrder(context.Background(), "user_1", -3)
	assert.ErrorIs(t, err, ErrInvalidPlanAmount)

	_, err = svc.CreateOrder(context.Background(), "missing", 5)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyAndApplyIsIdempotent(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Email: "a@b.c"})
	orders := newFakeOrderRepo()
	gw := &fakeGateway{payValid: true}
	mail := &fakePublisher{}
	svc := newSubscriptionService(users, orders, gw, mail)

	order, err := svc.CreateOrder(context.Background(), "user_1", 5)
	require.NoError(t, err)

	applied, err := svc.VerifyAndApply(context.Background(), "user_1", order.ID, "pay_123", "sig")
	require.NoError(t, err)
	assert.True(t, applied)

	// Replay with the same payment id changes nothing.
	applied, err = svc.VerifyAndApply(context.Background(), "user_1", order.ID, "pay_123", "sig")
	require.NoError(t, err)
	assert.False(t, applied)

	u, err := users.GetByClerkID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 5, u.PlanAmount)
	assert.True(t, u.IsSubscribed)
	require.Len(t, u.PaymentHist, 1)
	assert.Equal(t, "pay_123", u.PaymentHist[0].PaymentID)

	// One receipt email, not two.
	assert.Len(t, mail.jobs, 1)
	assert.Equal(t, mailer.TemplatePaymentReceipt, mail.jobs[0].Template)
	assert.Equal(t, "a@b.c", mail.jobs[0].To)
}

func TestVerifyAndApplyRejectsBadSignature(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	orders := newFakeOrderRepo()
	svc := newSubscriptionService(users, orders, &fakeGateway{payValid: false}, &fakePublisher{})

	_, err := svc.VerifyAndApply(context.Background(), "user_1", "order_001", "pay_123", "bad")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	u, _ := users.GetByClerkID(context.Background(), "user_1")
	assert.Zero(t, u.PlanAmount)
	assert.Empty(t, u.PaymentHist)
}

func TestVerifyAndApplyRejectsForeignOrder(t *testing.T) {
	users := newFakeUserRepo(
		&entity.User{ClerkID: "user_1"},
		&entity.User{ClerkID: "user_2"},
	)
	orders := newFakeOrderRepo()
	gw := &fakeGateway{payValid: true}
	svc := newSubscriptionService(users, orders, gw, &fakePublisher{})

	order, err := svc.CreateOrder(context.Background(), "user_1", 5)
	require.NoError(t, err)

	_, err = svc.VerifyAndApply(context.Background(), "user_2", order.ID, "pay_123", "sig")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestWebhookDuplicateDeliveryAppliesOnce(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Email: "a@b.c", PlanAmount: 2, IsSubscribed: true})
	orders := newFakeOrderRepo()
	gw := &fakeGateway{hookValid: true}
	mail := &fakePublisher{}
	svc := newSubscriptionService(users, orders, gw, mail)

	require.NoError(t, orders.Create(context.Background(), &entity.PendingOrder{
		OrderID: "order_abc", ClerkID: "user_1", PlanAmount: 3,
	}))

	body := webhookBody(t, "payment.captured", "order_abc", "pay_789", 300)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))

	u, err := users.GetByClerkID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 5, u.PlanAmount)
	require.Len(t, u.PaymentHist, 1)
	assert.Equal(t, "pay_789", u.PaymentHist[0].PaymentID)
	assert.Equal(t, int64(300), u.PaymentHist[0].Amount)
	assert.Len(t, mail.jobs, 1)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	svc := newSubscriptionService(users, newFakeOrderRepo(), &fakeGateway{hookValid: false}, &fakePublisher{})

	body := webhookBody(t, "payment.captured", "order_abc", "pay_789", 300)
	err := svc.HandleWebhook(context.Background(), body, "bad")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	u, _ := users.GetByClerkID(context.Background(), "user_1")
	assert.Empty(t, u.PaymentHist)
}

func TestWebhookSkipsUnknownOrder(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	svc := newSubscriptionService(users, newFakeOrderRepo(), &fakeGateway{hookValid: true}, &fakePublisher{})

	body := webhookBody(t, "payment.captured", "order_missing", "pay_789", 300)
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))

	u, _ := users.GetByClerkID(context.Background(), "user_1")
	assert.Empty(t, u.PaymentHist)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	orders := newFakeOrderRepo()
	require.NoError(t, orders.Create(context.Background(), &entity.PendingOrder{
		OrderID: "order_abc", ClerkID: "user_1", PlanAmount: 3,
	}))
	svc := newSubscriptionService(users, orders, &fakeGateway{hookValid: true}, &fakePublisher{})

	body := webhookBody(t, "payment.failed", "order_abc", "pay_789", 300)
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, "sig"))

	u, _ := users.GetByClerkID(context.Background(), "user_1")
	assert.Empty(t, u.PaymentHist)
}

func TestStatusDerivesEntitlements(t *testing.T) {
	users := newFakeUserRepo(&entity.User{
		ClerkID:      "user_1",
		IsSubscribed: true,
		PlanAmount:   4,
		SavedTools:   []entity.SavedTool{{ToolID: "t1", Name: "One"}},
		Folders: []entity.Folder{
			{Name: "Writing", Tools: []entity.SavedTool{{ToolID: "t2", Name: "Two"}}},
		},
	})
	svc := newSubscriptionService(users, newFakeOrderRepo(), &fakeGateway{}, &fakePublisher{})

	st, err := svc.Status(context.Background(), "user_1")
	require.NoError(t, err)
	assert.True(t, st.IsSubscribed)
	assert.Equal(t, 4, st.PlanAmount)
	assert.Equal(t, 20+4*10, st.ToolLimit)
	assert.Equal(t, 3+4, st.FolderLimit)
	assert.Equal(t, 2, st.SavedTools)

	_, err = svc.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
