// Package razorpay wraps the payment gateway SDK behind the small surface the
// subscription flow needs: order creation and signature verification.
package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	rzpay "github.com/razorpay/razorpay-go"
)

var ErrOrderCreate = errors.New("razorpay: order creation failed")

// Order is the subset of the gateway order the API returns to clients.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway holds the SDK client plus the two signing secrets. The key secret
// signs checkout callbacks, the webhook secret signs webhook deliveries; they
// are independent credentials.
type Gateway struct {
	client        *rzpay.Client
	keySecret     string
	webhookSecret string
}

func NewGateway(keyID, keySecret, webhookSecret string) *Gateway {
	return &Gateway{
		client:        rzpay.NewClient(keyID, keySecret),
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// ReceiptID builds the order receipt string. The user id and plan amount are
// embedded for human traceability; reconciliation never parses it back.
func ReceiptID(clerkID string, planAmount int) string {
	return fmt.Sprintf("receipt_%s_%d_%d", clerkID, planAmount, time.Now().UnixMilli())
}

// CreateOrder registers an auto-capture order for the plan amount, given in
// major currency units.
func (g *Gateway) CreateOrder(planAmount int, receipt string, notes map[string]interface{}) (*Order, error) {
	data := map[string]interface{}{
		"amount":          planAmount * 100,
		"currency":        "INR",
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreate, err)
	}

	order := &Order{Receipt: receipt, Currency: "INR"}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	if amt, ok := body["amount"].(float64); ok {
		order.Amount = int64(amt)
	}
	if cur, ok := body["currency"].(string); ok {
		order.Currency = cur
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrOrderCreate)
	}
	return order, nil
}

// VerifyPaymentSignature checks the checkout callback signature, computed
// over "<order_id>|<payment_id>" with the key secret. Any malformed input
// fails closed.
func (g *Gateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" || g.keySecret == "" {
		return false
	}
	return verify([]byte(orderID+"|"+paymentID), signature, g.keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body. The body must be the exact bytes received, verified
// before any parsing.
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if len(body) == 0 || signature == "" || g.webhookSecret == "" {
		return false
	}
	return verify(body, signature, g.webhookSecret)
}

func verify(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
