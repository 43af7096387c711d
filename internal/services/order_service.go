package services

import (
	"fmt"

	"lapak/internal/models"
	"lapak/internal/repositories"
)

// orderTransitions is the allowed status machine for admin-driven order
// updates. Payment-driven transitions (paid, refunded) go through the webhook
// and return services, never through here.
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

// OrderService handles order tracking and admin status updates.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

// GetOrderByID retrieves a single order by its ID. Guests poll their order by
// id after checkout; the id is the capability.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetAllOrders retrieves all orders. Admin use.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// ListOrdersByUser retrieves a registered user's order history.
func (s *OrderService) ListOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// UpdateOrderStatus moves an order along the fulfillment lifecycle, enforcing
// the transition map.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range orderTransitions[order.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("order %s cannot move from %s to %s", id, order.Status, status)
	}

	return s.orderRepo.UpdateStatus(id, status)
}
