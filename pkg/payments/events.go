package payments

import (
	"encoding/json"
	"fmt"
)

// Event types delivered by the payment provider.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
	EventChargeRefunded    = "charge.refunded"
	EventDisputeCreated    = "charge.dispute.created"
)

// EventData carries the payment-side identifiers of an event. OrderID is the
// session metadata embedded at checkout time.
type EventData struct {
	OrderID         string  `json:"order_id"`
	SessionID       string  `json:"session_id,omitempty"`
	PaymentIntentID string  `json:"payment_intent_id,omitempty"`
	ChargeID        string  `json:"charge_id,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// Event is a parsed provider webhook payload.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// ParseEvent decodes a verified webhook body into an Event.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("webhook payload missing event id or type")
	}
	return &event, nil
}
