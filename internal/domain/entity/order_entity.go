package entity

import "time"

// PendingOrder maps a gateway order id back to the paying user. It is written
// when the order is created so the webhook can resolve the payer by order id
// instead of parsing the receipt string.
type PendingOrder struct {
	OrderID    string    `bson:"_id" json:"order_id"`
	ClerkID    string    `bson:"clerk_id" json:"clerk_id"`
	PlanAmount int       `bson:"plan_amount" json:"plan_amount"`
	Receipt    string    `bson:"receipt" json:"receipt"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
