package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"lapak/internal/handlers"
	"lapak/internal/middleware"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
	"lapak/pkg/mailer"
	"lapak/pkg/payments"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

// stubGateway stands in for the hosted payment provider.
type stubGateway struct {
	fail       bool
	lastParams payments.CheckoutSessionParams
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, params payments.CheckoutSessionParams) (*payments.CheckoutSession, error) {
	if g.fail {
		return nil, fmt.Errorf("provider unavailable")
	}
	g.lastParams = params
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://pay.example.com/cs_test"}, nil
}

// recordingMailer captures email jobs instead of enqueueing them.
type recordingMailer struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (m *recordingMailer) Send(job mailer.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
	cartRepo    *repositories.MockCartRepository
	gateway     *stubGateway
	mail        *recordingMailer
}

// newTestEnv wires the full route surface against an isolated in-memory
// database, mirroring the production composition with the external edges
// (gateway, mail transport, cart store) replaced by fakes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A unique DSN per test keeps shared-cache in-memory databases isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Order{},
		&models.OrderLine{},
		&models.WebhookEvent{},
		&models.Return{},
		&models.ReturnItem{},
		&models.Invoice{},
	))

	env := &testEnv{
		db:          db,
		productRepo: repositories.NewGORMProductRepository(db),
		orderRepo:   repositories.NewGORMOrderRepository(db),
		cartRepo:    repositories.NewMockCartRepository(),
		gateway:     &stubGateway{},
		mail:        &recordingMailer{},
	}

	userRepo := repositories.NewGORMUserRepository(db)
	eventRepo := repositories.NewGORMWebhookEventRepository(db)
	returnRepo := repositories.NewGORMReturnRepository(db)
	invoiceRepo := repositories.NewGORMInvoiceRepository(db)

	authService := services.NewAuthService(userRepo, "test_secret")
	productService := services.NewProductService(env.productRepo)
	cartService := services.NewCartService(env.cartRepo, env.productRepo)
	invoiceService := services.NewInvoiceService(invoiceRepo)
	orderService := services.NewOrderService(env.orderRepo)
	checkoutService := services.NewCheckoutService(
		env.orderRepo, env.productRepo, env.gateway, 5.0,
		"https://shop.example.com/success", "https://shop.example.com/cancel",
	)
	webhookService := services.NewWebhookService(
		env.orderRepo, env.productRepo, env.cartRepo, eventRepo,
		invoiceService, env.mail, "ops@shop.example.com",
	)
	returnService := services.NewReturnService(returnRepo, env.orderRepo, env.productRepo, invoiceService, env.mail)
	reportService := services.NewReportService(db)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1)
	handlers.NewReturnHandler(returnService).RegisterRoutes(apiV1)
	handlers.NewWebhookHandler(webhookService, testWebhookSecret).RegisterRoutes(apiV1)

	checkoutRoutes := apiV1.Group("", middleware.AuthOptional(authService))
	handlers.NewCheckoutHandler(checkoutService).RegisterRoutes(checkoutRoutes)

	userRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewCartHandler(cartService).RegisterRoutes(userRoutes)
	handlers.NewOrderHandler(orderService).RegisterUserRoutes(userRoutes)

	adminRoutes := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	handlers.NewProductHandler(productService).RegisterAdminRoutes(adminRoutes)
	handlers.NewOrderHandler(orderService).RegisterAdminRoutes(adminRoutes)
	handlers.NewReturnHandler(returnService).RegisterAdminRoutes(adminRoutes)
	handlers.NewAdminHandler(reportService).RegisterRoutes(adminRoutes)

	env.app = app
	return env
}

func (env *testEnv) seedProduct(t *testing.T, id string, price float64, stock int) {
	t.Helper()
	assert.NoError(t, env.productRepo.Create(&models.Product{
		ID: id, Name: "Product " + id, Price: price, Stock: stock, Active: true,
	}))
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		encoded, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// signedEvent marshals and signs a provider event the way real deliveries
// arrive.
func signedEvent(t *testing.T, event payments.Event) ([]byte, map[string]string) {
	t.Helper()
	body, err := json.Marshal(event)
	assert.NoError(t, err)
	return body, map[string]string{
		handlers.SignatureHeader: payments.Sign(body, testWebhookSecret, time.Now()),
	}
}

func TestCheckoutToPaidReconciliation(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 5)

	resp, checkoutBody := env.request(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"lines":          []map[string]interface{}{{"product_id": "p1", "quantity": 2}},
		"customer_email": "buyer@example.com",
	}, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderID := checkoutBody["order_id"].(string)
	assert.Equal(t, "https://pay.example.com/cs_test", checkoutBody["payment_url"])
	assert.Equal(t, orderID, env.gateway.lastParams.OrderID)

	pending, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, pending.Status)
	assert.Equal(t, 25.0, pending.Total) // 2 * 10 + 5 shipping

	body, headers := signedEvent(t, payments.Event{
		ID:   "evt_1",
		Type: payments.EventPaymentSucceeded,
		Data: payments.EventData{OrderID: orderID, PaymentIntentID: "pi_1"},
	})
	resp, webhookBody := env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, headers)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, webhookBody["received"])

	paid, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "pi_1", paid.PaymentIntentID)

	product, err := env.productRepo.GetByID("p1")
	assert.NoError(t, err)
	assert.Equal(t, 3, product.Stock)
	assert.Equal(t, 2, env.mail.count(), "customer confirmation plus operator notification")

	// The provider redelivers the exact same event; nothing may change.
	resp, _ = env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, headers)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	product, _ = env.productRepo.GetByID("p1")
	assert.Equal(t, 3, product.Stock)
	assert.Equal(t, 2, env.mail.count())
}

func TestCheckoutIgnoresClientSuppliedMoneyFields(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 5)

	// A shopper posting discount or total fields must not be able to lower
	// what they pay; every money field is derived server-side.
	resp, checkoutBody := env.request(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"lines":          []map[string]interface{}{{"product_id": "p1", "quantity": 2}},
		"customer_email": "buyer@example.com",
		"discount":       1000.0,
		"total":          0.01,
	}, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	order, err := env.orderRepo.GetByID(checkoutBody["order_id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, 20.0, order.Subtotal)
	assert.Zero(t, order.Discount)
	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, 25.0, env.gateway.lastParams.Total)
}

func TestCheckoutConflictListsEveryLine(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 1)

	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": "p1", "quantity": 3},
			{"product_id": "missing", "quantity": 1},
		},
		"customer_email": "buyer@example.com",
	}, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Len(t, body["conflicts"], 2)

	var count int64
	assert.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "a rejected checkout persists nothing")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 5)

	body, err := json.Marshal(payments.Event{
		ID:   "evt_1",
		Type: payments.EventPaymentSucceeded,
		Data: payments.EventData{OrderID: "some-order"},
	})
	assert.NoError(t, err)

	// Unsigned
	resp, _ := env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Signed with the wrong secret
	resp, _ = env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, map[string]string{
		handlers.SignatureHeader: payments.Sign(body, "whsec_other", time.Now()),
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	assert.NoError(t, env.db.Model(&models.WebhookEvent{}).Count(&count).Error)
	assert.Zero(t, count, "rejected deliveries leave no audit record")
}

func TestPaymentFailedKeepsOrderOpen(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 5)

	resp, checkoutBody := env.request(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"lines":          []map[string]interface{}{{"product_id": "p1", "quantity": 1}},
		"customer_email": "buyer@example.com",
	}, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderID := checkoutBody["order_id"].(string)

	body, headers := signedEvent(t, payments.Event{
		ID:   "evt_1",
		Type: payments.EventPaymentFailed,
		Data: payments.EventData{OrderID: orderID},
	})
	resp, _ = env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, headers)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)

	product, _ := env.productRepo.GetByID("p1")
	assert.Equal(t, 5, product.Stock)
}

func TestLoggedInCheckoutClearsCartOnPayment(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10.0, 5)

	resp, _ := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, loginBody := env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "password123",
	}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	auth := map[string]string{"Authorization": "Bearer " + loginBody["token"].(string)}

	resp, cartBody := env.request(t, http.MethodPut, "/api/v1/cart/", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": "p1", "quantity": 1}},
	}, auth)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	// Re-priced from the catalog on sync
	assert.Equal(t, 10.0, cartBody["items"].([]interface{})[0].(map[string]interface{})["price"])

	resp, checkoutBody := env.request(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"lines":          []map[string]interface{}{{"product_id": "p1", "quantity": 1}},
		"customer_email": "alice@example.com",
	}, auth)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderID := checkoutBody["order_id"].(string)

	order, err := env.orderRepo.GetByID(orderID)
	assert.NoError(t, err)
	assert.NotNil(t, order.UserID, "logged-in checkout links the order to the account")

	body, headers := signedEvent(t, payments.Event{
		ID:   "evt_1",
		Type: payments.EventPaymentSucceeded,
		Data: payments.EventData{OrderID: orderID, PaymentIntentID: "pi_1"},
	})
	resp, _ = env.request(t, http.MethodPost, "/api/v1/webhooks/payments", body, headers)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, cartBody = env.request(t, http.MethodGet, "/api/v1/cart/", nil, auth)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, cartBody["items"])
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/api/v1/admin/orders", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password123",
	}, nil)
	_, loginBody := env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "bob",
		"password": "password123",
	}, nil)
	auth := map[string]string{"Authorization": "Bearer " + loginBody["token"].(string)}

	resp, _ = env.request(t, http.MethodGet, "/api/v1/admin/orders", nil, auth)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "registration never grants admin")
}
