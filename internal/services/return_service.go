package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/mailer"

	"github.com/google/uuid"
)

// returnTransitions is the allowed status machine for returns.
var returnTransitions = map[string][]string{
	models.ReturnStatusPending:  {models.ReturnStatusApproved, models.ReturnStatusRejected, models.ReturnStatusCancelled},
	models.ReturnStatusApproved: {models.ReturnStatusReceived, models.ReturnStatusCancelled},
	models.ReturnStatusReceived: {models.ReturnStatusCompleted},
}

// ReturnLineRequest references one order line being sent back.
type ReturnLineRequest struct {
	OrderLineID string `json:"order_line_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// ReturnRequest is the customer's RMA request. Any prices the client supplies
// are ignored; the refund is always computed from the persisted order lines.
type ReturnRequest struct {
	Reason      string              `json:"reason" validate:"required"`
	Description string              `json:"description" validate:"omitempty,max=1000"`
	Items       []ReturnLineRequest `json:"items" validate:"required,min=1,dive"`
}

// ReturnService handles the RMA lifecycle, including the secondary
// reconciliation path that runs on completion: stock replenishment, flipping
// the parent order to refunded and issuing a credit note. Those steps are
// sequenced with logged-but-non-fatal error handling; a failed invoice does
// not undo a replenishment that already happened.
type ReturnService struct {
	returnRepo  repositories.ReturnRepository
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	invoices    *InvoiceService
	mail        mailer.Mailer
}

// NewReturnService creates a new ReturnService.
func NewReturnService(returnRepo repositories.ReturnRepository, orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, invoices *InvoiceService, mail mailer.Mailer) *ReturnService {
	return &ReturnService{
		returnRepo:  returnRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		invoices:    invoices,
		mail:        mail,
	}
}

func returnNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("RMA-%s-%s", time.Now().Format("20060102"), frag)
}

// CreateReturn files an RMA against a delivered order. The refund amount is
// the sum of persisted unit price times returned quantity over the requested
// lines, excluding the original shipping cost.
func (s *ReturnService) CreateReturn(orderID string, req ReturnRequest) (*models.Return, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, fmt.Errorf("order %s is %s; only delivered orders can be returned", orderID, order.Status)
	}

	linesByID := make(map[string]models.OrderLine, len(order.Lines))
	for _, line := range order.Lines {
		linesByID[line.ID] = line
	}

	var refund float64
	items := make([]models.ReturnItem, 0, len(req.Items))
	for _, item := range req.Items {
		line, ok := linesByID[item.OrderLineID]
		if !ok {
			return nil, fmt.Errorf("order line %s does not belong to order %s", item.OrderLineID, orderID)
		}
		if item.Quantity <= 0 || item.Quantity > line.Quantity {
			return nil, fmt.Errorf("return quantity %d for line %s exceeds ordered quantity %d", item.Quantity, item.OrderLineID, line.Quantity)
		}
		refund += line.UnitPrice * float64(item.Quantity)
		items = append(items, models.ReturnItem{
			OrderLineID: line.ID,
			ProductID:   line.ProductID,
			Quantity:    item.Quantity,
		})
	}

	ret := &models.Return{
		ID:           uuid.New().String(),
		OrderID:      orderID,
		ReturnNumber: returnNumber(),
		Reason:       req.Reason,
		Description:  req.Description,
		Status:       models.ReturnStatusPending,
		RefundAmount: refund,
		Items:        items,
	}
	if err := s.returnRepo.Create(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetReturn retrieves a return by its ID.
func (s *ReturnService) GetReturn(id string) (*models.Return, error) {
	return s.returnRepo.GetByID(id)
}

// GetAllReturns retrieves all returns. Admin use.
func (s *ReturnService) GetAllReturns() ([]models.Return, error) {
	return s.returnRepo.GetAll()
}

// TransitionReturn moves a return to a new status, enforcing the transition
// map. Transitioning to completed triggers the completion side effects.
func (s *ReturnService) TransitionReturn(id string, status string) (*models.Return, error) {
	ret, err := s.returnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range returnTransitions[ret.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("return %s cannot move from %s to %s", id, ret.Status, status)
	}

	// The status update is the primary transition; completion side effects
	// only run once it is durable.
	if err := s.returnRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	ret.Status = status

	if status == models.ReturnStatusCompleted {
		s.completeReturn(ret)
	}
	return ret, nil
}

// completeReturn runs the secondary reconciliation path. Each step is
// independently fallible; failures are logged and the sequence continues.
func (s *ReturnService) completeReturn(ret *models.Return) {
	for _, item := range ret.Items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to replenish stock for product %s on return %s: %v", item.ProductID, ret.ID, err)
		}
	}

	if transitioned, err := s.orderRepo.MarkRefunded(ret.OrderID, ret.RefundAmount); err != nil {
		log.Printf("Failed to mark order %s refunded for return %s: %v", ret.OrderID, ret.ID, err)
	} else if !transitioned {
		log.Printf("Order %s is not paid, refund not recorded for return %s", ret.OrderID, ret.ID)
	}

	if _, err := s.invoices.GenerateCreditNote(ret); err != nil {
		log.Printf("Failed to generate credit note for return %s: %v", ret.ID, err)
	}

	order, err := s.orderRepo.GetByID(ret.OrderID)
	if err != nil {
		log.Printf("Failed to load order %s for return %s refund email: %v", ret.OrderID, ret.ID, err)
		return
	}
	if err := s.mail.Send(mailer.EmailJob{
		Template: mailer.TemplateReturnRefund,
		To:       order.CustomerEmail,
		Data: map[string]interface{}{
			"order_id":      order.ID,
			"return_number": ret.ReturnNumber,
			"refund_amount": ret.RefundAmount,
		},
	}); err != nil {
		log.Printf("Failed to send return refund email for return %s: %v", ret.ID, err)
	}
}
