package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/mailer"
	"lapak/pkg/payments"
)

// WebhookService reconciles internal order state with the payment provider's
// webhooks. Processing is idempotent on two levels: the provider event id is
// recorded under a unique index before anything else happens, and the paid
// transition itself is a conditional update that only fires while the order
// is still pending. A redelivered event therefore never re-runs stock
// decrements or emails. Redelivery of an event whose first attempt failed (or
// never recorded an outcome) is reprocessed, not skipped: the audit row's
// status decides, so provider retries remain the recovery path for transient
// failures.
//
// Error discipline follows the handler taxonomy: failures of the primary
// state transition propagate (the provider redelivers later), unknown orders
// are logged as integrity anomalies and acknowledged, and every advisory side
// effect (stock, cart, invoice, email) is logged and swallowed so a
// notification outage can never cause payment-event retries.
type WebhookService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	eventRepo   repositories.WebhookEventRepository
	invoices    *InvoiceService
	mail        mailer.Mailer
	storeEmail  string
}

// NewWebhookService creates a new WebhookService. storeEmail is the operator
// address notified of new orders and disputes.
func NewWebhookService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cartRepo repositories.CartRepository, eventRepo repositories.WebhookEventRepository, invoices *InvoiceService, mail mailer.Mailer, storeEmail string) *WebhookService {
	return &WebhookService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		eventRepo:   eventRepo,
		invoices:    invoices,
		mail:        mail,
		storeEmail:  storeEmail,
	}
}

// Process handles one verified provider event. A nil return means the event
// is settled and the provider should receive 200; an error means the primary
// state transition failed and the provider should redeliver.
func (s *WebhookService) Process(ctx context.Context, event *payments.Event) error {
	// Recording the event id is the dedupe gate. The unique index makes this
	// safe against concurrent deliveries of the same event: exactly one
	// insert wins. A duplicate is only skipped when the first attempt settled
	// the event; a failed (or outcome-less, after a crash) attempt must let
	// the redelivery run again, otherwise the provider's retry mechanism is
	// defeated and the order is stuck pending forever.
	err := s.eventRepo.Insert(&models.WebhookEvent{
		EventID:   event.ID,
		EventType: event.Type,
	})
	if errors.Is(err, repositories.ErrDuplicateEvent) {
		audit, lookupErr := s.eventRepo.GetByEventID(event.ID)
		if lookupErr != nil {
			return fmt.Errorf("failed to load audit row for redelivered event %s: %w", event.ID, lookupErr)
		}
		if audit.Status == models.WebhookProcessed || audit.Status == models.WebhookSkipped {
			log.Printf("Webhook event %s already processed, skipping", event.ID)
			return nil
		}
		log.Printf("Reprocessing webhook event %s after earlier failure", event.ID)
	} else if err != nil {
		return fmt.Errorf("failed to record webhook event %s: %w", event.ID, err)
	}

	var handlerErr error
	switch event.Type {
	case payments.EventCheckoutCompleted, payments.EventPaymentSucceeded:
		handlerErr = s.handlePaymentSucceeded(ctx, event)
	case payments.EventPaymentFailed:
		handlerErr = s.handlePaymentFailed(event)
	case payments.EventChargeRefunded:
		handlerErr = s.handleRefund(event)
	case payments.EventDisputeCreated:
		handlerErr = s.handleDispute(event)
	default:
		log.Printf("Ignoring webhook event %s of unhandled type %s", event.ID, event.Type)
		s.markOutcome(event.ID, models.WebhookSkipped, "")
		return nil
	}

	// The outcome decides how a redelivery of this event id is treated. A
	// failure to write it must not fail the request: a stale row just means
	// the next redelivery reprocesses, which the guarded transitions absorb.
	if handlerErr != nil {
		s.markOutcome(event.ID, models.WebhookFailed, handlerErr.Error())
		return handlerErr
	}
	s.markOutcome(event.ID, models.WebhookProcessed, "")
	return nil
}

func (s *WebhookService) markOutcome(eventID, status, errMsg string) {
	if err := s.eventRepo.MarkOutcome(eventID, status, errMsg); err != nil {
		log.Printf("Failed to record outcome for webhook event %s: %v", eventID, err)
	}
}

// handlePaymentSucceeded performs the reconciliation workflow: the mandatory
// pending -> paid transition, then the advisory side effects in sequence,
// each independently fallible and logged without rollback.
func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, event *payments.Event) error {
	order, err := s.orderRepo.GetByID(event.Data.OrderID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		// Cannot reconcile an unknown order. This should never happen since
		// the order id was embedded at checkout time, so treat it as a data
		// integrity anomaly rather than a retryable failure.
		log.Printf("Integrity warning: webhook event %s references unknown order %s", event.ID, event.Data.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	transitioned, err := s.orderRepo.MarkPaid(order.ID, event.Data.PaymentIntentID)
	if err != nil {
		return err
	}
	if !transitioned {
		// The order already left pending, so a previous delivery completed
		// the transition and its side effects. Nothing more to do.
		log.Printf("Order %s is no longer pending, skipping fulfillment for event %s", order.ID, event.ID)
		return nil
	}

	// Stock decrement, clamped at zero per line. Payment confirmation is
	// authoritative over the stock count, so a failed line is logged and the
	// rest proceed.
	for _, line := range order.Lines {
		if err := s.productRepo.DecrementStock(line.ProductID, line.Quantity); err != nil {
			log.Printf("Failed to decrement stock for product %s on order %s: %v", line.ProductID, order.ID, err)
		}
	}

	if order.UserID != nil {
		if err := s.cartRepo.Clear(ctx, *order.UserID); err != nil {
			log.Printf("Failed to clear cart for user %s on order %s: %v", *order.UserID, order.ID, err)
		}
	}

	if _, err := s.invoices.GenerateForOrder(order); err != nil {
		log.Printf("Failed to generate invoice for order %s: %v", order.ID, err)
	}

	s.sendMail(mailer.EmailJob{
		Template: mailer.TemplateOrderConfirmation,
		To:       order.CustomerEmail,
		Data:     orderMailData(order),
	})
	s.sendMail(mailer.EmailJob{
		Template: mailer.TemplateOperatorNewOrder,
		To:       s.storeEmail,
		Data:     orderMailData(order),
	})

	return nil
}

// handlePaymentFailed marks the payment failed but leaves the order status
// alone so the customer can retry checkout.
func (s *WebhookService) handlePaymentFailed(event *payments.Event) error {
	order, err := s.orderRepo.GetByID(event.Data.OrderID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		log.Printf("Integrity warning: webhook event %s references unknown order %s", event.ID, event.Data.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdatePaymentStatus(order.ID, models.PaymentStatusFailed); err != nil {
		return err
	}

	s.sendMail(mailer.EmailJob{
		Template: mailer.TemplatePaymentFailed,
		To:       order.CustomerEmail,
		Data:     orderMailData(order),
	})
	return nil
}

// handleRefund finds the order by the provider payment intent (unique per
// order) and records the refund.
func (s *WebhookService) handleRefund(event *payments.Event) error {
	order, err := s.orderRepo.GetByPaymentIntentID(event.Data.PaymentIntentID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		log.Printf("Integrity warning: refund event %s references unknown payment intent %s", event.ID, event.Data.PaymentIntentID)
		return nil
	}
	if err != nil {
		return err
	}

	amount := event.Data.Amount
	if amount == 0 {
		amount = order.Total
	}
	transitioned, err := s.orderRepo.MarkRefunded(order.ID, amount)
	if err != nil {
		return err
	}
	if !transitioned {
		// Refunds only apply to paid orders. A never-paid or already-refunded
		// order must not be flipped by a stray event.
		log.Printf("Order %s is not paid, ignoring refund event %s", order.ID, event.ID)
		return nil
	}

	s.sendMail(mailer.EmailJob{
		Template: mailer.TemplateRefundConfirmation,
		To:       order.CustomerEmail,
		Data: map[string]interface{}{
			"order_id":      order.ID,
			"refund_amount": amount,
		},
	})
	return nil
}

// handleDispute marks the payment disputed and notifies the operator only;
// disputes are an operator concern, the customer is not emailed.
func (s *WebhookService) handleDispute(event *payments.Event) error {
	order, err := s.orderRepo.GetByPaymentIntentID(event.Data.PaymentIntentID)
	if errors.Is(err, repositories.ErrOrderNotFound) {
		log.Printf("Integrity warning: dispute event %s references unknown payment intent %s", event.ID, event.Data.PaymentIntentID)
		return nil
	}
	if err != nil {
		return err
	}

	transitioned, err := s.orderRepo.MarkDisputed(order.ID)
	if err != nil {
		return err
	}
	if !transitioned {
		log.Printf("Order %s is not paid, ignoring dispute event %s", order.ID, event.ID)
		return nil
	}

	s.sendMail(mailer.EmailJob{
		Template: mailer.TemplateOperatorDispute,
		To:       s.storeEmail,
		Data: map[string]interface{}{
			"order_id": order.ID,
			"reason":   event.Data.Reason,
		},
	})
	return nil
}

// sendMail dispatches an advisory email, logging and swallowing failures. An
// email outage must never surface to the payment provider.
func (s *WebhookService) sendMail(job mailer.EmailJob) {
	if err := s.mail.Send(job); err != nil {
		log.Printf("Failed to send %s email to %s: %v", job.Template, job.To, err)
	}
}

func orderMailData(order *models.Order) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, map[string]interface{}{
			"product":    line.ProductName,
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
		})
	}
	return map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total,
		"lines":    lines,
	}
}
