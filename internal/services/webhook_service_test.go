package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
	"lapak/pkg/mailer"
	"lapak/pkg/payments"

	"github.com/stretchr/testify/assert"
)

// fakeMailer records dispatched email jobs.
type fakeMailer struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (f *fakeMailer) Send(job mailer.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeMailer) sent() []mailer.EmailJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.EmailJob(nil), f.jobs...)
}

func (f *fakeMailer) templates() []string {
	var out []string
	for _, job := range f.sent() {
		out = append(out, job.Template)
	}
	return out
}

type webhookFixture struct {
	orderRepo   *repositories.MockOrderRepository
	productRepo *repositories.MockProductRepository
	cartRepo    *repositories.MockCartRepository
	eventRepo   *repositories.MockWebhookEventRepository
	mail        *fakeMailer
	service     *services.WebhookService
}

func newWebhookFixture() *webhookFixture {
	f := &webhookFixture{
		orderRepo:   repositories.NewMockOrderRepository(),
		productRepo: repositories.NewMockProductRepository(),
		cartRepo:    repositories.NewMockCartRepository(),
		eventRepo:   repositories.NewMockWebhookEventRepository(),
		mail:        &fakeMailer{},
	}
	invoices := services.NewInvoiceService(repositories.NewMockInvoiceRepository())
	f.service = services.NewWebhookService(
		f.orderRepo, f.productRepo, f.cartRepo, f.eventRepo,
		invoices, f.mail, "ops@shop.example.com",
	)
	return f
}

// seedPendingOrder creates a product with the given stock and a pending order
// for qty units of it, optionally owned by a user.
func (f *webhookFixture) seedPendingOrder(t *testing.T, stock, qty int, userID *string) *models.Order {
	t.Helper()

	product := &models.Product{ID: "p1", Name: "P1", Price: 10.0, Stock: stock, Active: true}
	assert.NoError(t, f.productRepo.Create(product))

	order := &models.Order{
		UserID:        userID,
		CustomerEmail: "buyer@example.com",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      10.0 * float64(qty),
		Total:         10.0 * float64(qty),
		Lines: []models.OrderLine{
			{ProductID: "p1", ProductName: "P1", Quantity: qty, UnitPrice: 10.0},
		},
	}
	assert.NoError(t, f.orderRepo.Create(order))
	return order
}

func paymentSucceededEvent(eventID, orderID string) *payments.Event {
	return &payments.Event{
		ID:   eventID,
		Type: payments.EventPaymentSucceeded,
		Data: payments.EventData{OrderID: orderID, PaymentIntentID: "pi_1"},
	}
}

func TestWebhookService_PaymentSucceededRunsFulfillment(t *testing.T) {
	f := newWebhookFixture()
	userID := "u1"
	order := f.seedPendingOrder(t, 5, 1, &userID)
	assert.NoError(t, f.cartRepo.Put(context.Background(), &models.Cart{
		UserID: userID,
		Items:  []models.CartItem{{ProductID: "p1", Quantity: 1, Price: 10.0}},
	}))

	err := f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID))
	assert.NoError(t, err)

	got, err := f.orderRepo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "pi_1", got.PaymentIntentID)
	assert.Equal(t, 10.0, got.Total)

	product, err := f.productRepo.GetByID("p1")
	assert.NoError(t, err)
	assert.Equal(t, 4, product.Stock)

	cart, err := f.cartRepo.Get(context.Background(), userID)
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Exactly one customer email and one operator email
	assert.Equal(t, []string{mailer.TemplateOrderConfirmation, mailer.TemplateOperatorNewOrder}, f.mail.templates())
	assert.Equal(t, "buyer@example.com", f.mail.sent()[0].To)
	assert.Equal(t, "ops@shop.example.com", f.mail.sent()[1].To)

	audit, err := f.eventRepo.GetByEventID("evt_1")
	assert.NoError(t, err)
	assert.Equal(t, models.WebhookProcessed, audit.Status)
}

func TestWebhookService_RedeliveredEventIsNoOp(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)

	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))
	// Same provider event id delivered again
	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, 10.0, got.Total)

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 4, product.Stock, "stock must not be decremented twice")
	assert.Len(t, f.mail.sent(), 2, "no duplicate emails on redelivery")
}

// flakyOrderRepo fails MarkPaid a configurable number of times before
// delegating, simulating a transient database outage during the primary
// transition.
type flakyOrderRepo struct {
	*repositories.MockOrderRepository
	markPaidFailures int
}

func (r *flakyOrderRepo) MarkPaid(id string, paymentIntentID string) (bool, error) {
	if r.markPaidFailures > 0 {
		r.markPaidFailures--
		return false, fmt.Errorf("connection reset")
	}
	return r.MockOrderRepository.MarkPaid(id, paymentIntentID)
}

func TestWebhookService_RedeliveryAfterFailureReprocesses(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)

	flaky := &flakyOrderRepo{MockOrderRepository: f.orderRepo, markPaidFailures: 1}
	invoices := services.NewInvoiceService(repositories.NewMockInvoiceRepository())
	service := services.NewWebhookService(
		flaky, f.productRepo, f.cartRepo, f.eventRepo,
		invoices, f.mail, "ops@shop.example.com",
	)

	// First delivery fails on the paid transition, so the provider gets an
	// error and will redeliver.
	err := service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID))
	assert.Error(t, err)

	audit, err := f.eventRepo.GetByEventID("evt_1")
	assert.NoError(t, err)
	assert.Equal(t, models.WebhookFailed, audit.Status)

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Empty(t, f.mail.sent())

	// The redelivered event carries the same id. The failed audit row must
	// not count as "already processed"; the retry completes the transition.
	err = service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID))
	assert.NoError(t, err)

	got, _ = f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 4, product.Stock)
	assert.Len(t, f.mail.sent(), 2)

	audit, err = f.eventRepo.GetByEventID("evt_1")
	assert.NoError(t, err)
	assert.Equal(t, models.WebhookProcessed, audit.Status)
}

func TestWebhookService_SecondEventForPaidOrderSkipsSideEffects(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)

	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))
	// A distinct event id for the same order: the conditional transition is
	// the guard here, not the event dedupe.
	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_2", order.ID)))

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 4, product.Stock)
	assert.Len(t, f.mail.sent(), 2)
}

func TestWebhookService_StockClampsAtZero(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 10, nil)

	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 0, product.Stock, "stock clamps at zero, never negative")
}

func TestWebhookService_UnknownOrderIsAcknowledged(t *testing.T) {
	f := newWebhookFixture()

	err := f.service.Process(context.Background(), paymentSucceededEvent("evt_1", "missing-order"))
	assert.NoError(t, err, "unknown order is an integrity anomaly, not a retryable failure")
	assert.Empty(t, f.mail.sent())
}

func TestWebhookService_PaymentFailedLeavesOrderOpen(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)

	err := f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_1",
		Type: payments.EventPaymentFailed,
		Data: payments.EventData{OrderID: order.ID},
	})
	assert.NoError(t, err)

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusPending, got.Status, "order status unchanged so checkout can be retried")
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 5, product.Stock, "no stock change on failed payment")
	assert.Equal(t, []string{mailer.TemplatePaymentFailed}, f.mail.templates())
}

func TestWebhookService_RefundRecordsAmount(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 2, nil)
	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))

	err := f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_2",
		Type: payments.EventChargeRefunded,
		Data: payments.EventData{PaymentIntentID: "pi_1", Amount: 20.0},
	})
	assert.NoError(t, err)

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)
	assert.Equal(t, 20.0, got.RefundAmount)
	assert.Contains(t, f.mail.templates(), mailer.TemplateRefundConfirmation)
}

func TestWebhookService_RefundAndDisputeIgnoredForUnpaidOrder(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)

	// An intent id was recorded at session time but the payment never
	// confirmed; refund and dispute events for it must not move the order.
	order.PaymentIntentID = "pi_1"
	assert.NoError(t, f.orderRepo.Create(order))

	err := f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_1",
		Type: payments.EventChargeRefunded,
		Data: payments.EventData{PaymentIntentID: "pi_1", Amount: 10.0},
	})
	assert.NoError(t, err)

	err = f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_2",
		Type: payments.EventDisputeCreated,
		Data: payments.EventData{PaymentIntentID: "pi_1"},
	})
	assert.NoError(t, err)

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, models.PaymentStatusPending, got.PaymentStatus)
	assert.Zero(t, got.RefundAmount)
	assert.Empty(t, f.mail.sent())
}

func TestWebhookService_DisputeNotifiesOperatorOnly(t *testing.T) {
	f := newWebhookFixture()
	order := f.seedPendingOrder(t, 5, 1, nil)
	assert.NoError(t, f.service.Process(context.Background(), paymentSucceededEvent("evt_1", order.ID)))
	before := len(f.mail.sent())

	err := f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_2",
		Type: payments.EventDisputeCreated,
		Data: payments.EventData{PaymentIntentID: "pi_1", Reason: "fraudulent"},
	})
	assert.NoError(t, err)

	got, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.PaymentStatusDisputed, got.PaymentStatus)

	sent := f.mail.sent()
	assert.Len(t, sent, before+1)
	assert.Equal(t, mailer.TemplateOperatorDispute, sent[len(sent)-1].Template)
	assert.Equal(t, "ops@shop.example.com", sent[len(sent)-1].To)
}

func TestWebhookService_UnknownEventTypeIsSkipped(t *testing.T) {
	f := newWebhookFixture()

	err := f.service.Process(context.Background(), &payments.Event{
		ID:   "evt_1",
		Type: "customer.created",
	})
	assert.NoError(t, err)

	audit, err := f.eventRepo.GetByEventID("evt_1")
	assert.NoError(t, err)
	assert.Equal(t, models.WebhookSkipped, audit.Status)
}
