package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/payments"

	"github.com/google/uuid"
)

// Conflict reasons reported on checkout rejection.
const (
	ConflictInsufficientStock = "insufficient_stock"
	ConflictProductNotFound   = "product_not_found"
	ConflictProductInactive   = "product_inactive"
)

// LineConflict describes one cart line that cannot be fulfilled.
type LineConflict struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
	Reason      string `json:"reason"`
}

// StockConflictError rejects a whole checkout request. Partial fulfillment is
// not offered, so every offending line is collected and reported together.
type StockConflictError struct {
	Conflicts []LineConflict
}

// Error implements the error interface.
func (e *StockConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", c.ProductID, c.Requested, c.Available))
	}
	return "checkout rejected: " + strings.Join(parts, "; ")
}

// CheckoutLine is one requested cart line.
type CheckoutLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckoutRequest carries the cart and customer details for a checkout. The
// money fields of the resulting order (prices, shipping, discount, total) are
// all server-derived; nothing in this payload can influence them.
type CheckoutRequest struct {
	Lines           []CheckoutLine         `json:"lines" validate:"required,min=1,dive"`
	CustomerEmail   string                 `json:"customer_email" validate:"required,email"`
	UserID          *string                `json:"-"` // set from the auth context, nil for guests
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

// CheckoutResult is returned on success: the pending order and the hosted
// payment page the customer is redirected to.
type CheckoutResult struct {
	Order      *models.Order `json:"order"`
	PaymentURL string        `json:"payment_url"`
}

// CheckoutService validates stock, persists the pending order and opens a
// hosted payment session. This is "reserve the intent, not the stock": the
// order is written before any payment happens, and stock is only decremented
// after the payment confirmation webhook arrives.
type CheckoutService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	gateway      payments.Gateway
	shippingFlat float64
	successURL   string
	cancelURL    string
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, gateway payments.Gateway, shippingFlat float64, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		gateway:      gateway,
		shippingFlat: shippingFlat,
		successURL:   successURL,
		cancelURL:    cancelURL,
	}
}

// CreateCheckoutSession runs the checkout contract: verify stock for every
// line (rejecting the whole request with every offending line on conflict),
// persist the pending order with captured unit prices, then open the hosted
// payment session with the order id embedded as metadata.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("checkout requires at least one line")
	}

	var conflicts []LineConflict
	var lines []models.OrderLine
	var lineItems []payments.LineItem
	var subtotal float64

	for _, line := range req.Lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			conflicts = append(conflicts, LineConflict{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Reason:    ConflictProductNotFound,
			})
			continue
		}
		if !product.Active {
			conflicts = append(conflicts, LineConflict{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
				Reason:      ConflictProductInactive,
			})
			continue
		}
		if product.Stock < line.Quantity {
			conflicts = append(conflicts, LineConflict{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
				Reason:      ConflictInsufficientStock,
			})
			continue
		}

		// Capture the unit price now. It is never recomputed from the catalog
		// afterwards.
		lines = append(lines, models.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
		lineItems = append(lineItems, payments.LineItem{
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		subtotal += product.Price * float64(line.Quantity)
	}

	if len(conflicts) > 0 {
		return nil, &StockConflictError{Conflicts: conflicts}
	}

	shippingCost := s.shippingFlat
	if req.ShippingAddress.Pickup {
		shippingCost = 0
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		CustomerEmail:   req.CustomerEmail,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Total:           subtotal + shippingCost,
		ShippingAddress: req.ShippingAddress,
		Lines:           lines,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to persist pending order: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		OrderID:       order.ID,
		CustomerEmail: req.CustomerEmail,
		LineItems:     lineItems,
		Total:         order.Total,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	})
	if err != nil {
		// The pending order is already on disk; cancel it so it does not
		// linger as a payable intent.
		if cancelErr := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusCancelled); cancelErr != nil {
			log.Printf("Failed to cancel order %s after gateway error: %v", order.ID, cancelErr)
		}
		return nil, fmt.Errorf("failed to open payment session for order %s: %w", order.ID, err)
	}

	if err := s.orderRepo.SetSessionID(order.ID, session.ID); err != nil {
		log.Printf("Failed to record session id on order %s: %v", order.ID, err)
	}
	order.SessionID = session.ID

	return &CheckoutResult{Order: order, PaymentURL: session.URL}, nil
}
