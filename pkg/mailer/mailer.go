package mailer

import (
	"encoding/json"
	"fmt"
	"log"

	"lapak/pkg/queue"
)

// Email template identifiers. The delivery worker maps these to the actual
// provider templates.
const (
	TemplateOrderConfirmation  = "order_confirmation"
	TemplateOperatorNewOrder   = "operator_new_order"
	TemplatePaymentFailed      = "payment_failed"
	TemplateRefundConfirmation = "refund_confirmation"
	TemplateOperatorDispute    = "operator_dispute"
	TemplateReturnRefund       = "return_refund"
)

// EmailJob is a queued request to deliver one templated email.
type EmailJob struct {
	Template string                 `json:"template"`
	To       string                 `json:"to"`
	Data     map[string]interface{} `json:"data"`
}

// Mailer is the surface the reconciliation flow uses to request emails.
// Implementations must return errors rather than panic; callers log failures
// and carry on, since a notification outage must never fail a payment event.
type Mailer interface {
	Send(job EmailJob) error
}

// Publisher is the slice of the queue client the dispatcher needs.
type Publisher interface {
	Publish(queueName string, body []byte) error
}

// Dispatcher hands email jobs to the notification queue so delivery is
// retried independently of the webhook request lifecycle.
type Dispatcher struct {
	publisher Publisher
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(publisher Publisher) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
	}
}

// Send enqueues the job for delivery.
func (d *Dispatcher) Send(job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}
	if err := d.publisher.Publish(queue.NotificationQueue, body); err != nil {
		return fmt.Errorf("failed to enqueue email job: %w", err)
	}
	return nil
}

// Sender delivers a single email job. The delivery worker feeds consumed
// queue messages into one of these.
type Sender interface {
	Deliver(job EmailJob) error
}

// LogSender is the default Sender: it logs the delivery instead of talking
// to a real email provider.
type LogSender struct{}

// Deliver logs the job.
func (LogSender) Deliver(job EmailJob) error {
	log.Printf("Delivering %s email to %s", job.Template, job.To)
	return nil
}
