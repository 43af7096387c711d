package services

import (
	"fmt"

	"lapak/internal/models"

	"gorm.io/gorm"
)

// StatusBreakdown is one row of the sales report: order count and revenue
// for a single order status.
type StatusBreakdown struct {
	Status  string  `json:"status"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// TopProduct is one best-seller row, counted over paid and later orders.
type TopProduct struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitsSold   int64   `json:"units_sold"`
	Revenue     float64 `json:"revenue"`
}

// SalesReport is the read-mostly aggregation served to the admin dashboard.
type SalesReport struct {
	ByStatus    []StatusBreakdown `json:"by_status"`
	TopProducts []TopProduct      `json:"top_products"`
}

// ReportService runs aggregation queries over orders and order lines. It
// reads through GORM directly; reports have no write path and no business
// rules worth an extra repository layer.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportService.
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{
		db: db,
	}
}

// Sales builds the sales report.
func (s *ReportService) Sales(topN int) (*SalesReport, error) {
	if topN <= 0 {
		topN = 5
	}

	var byStatus []StatusBreakdown
	err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Group("status").
		Order("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders by status: %w", err)
	}

	sellable := []string{
		models.OrderStatusPaid,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	}
	var topProducts []TopProduct
	err = s.db.Model(&models.OrderLine{}).
		Select("order_lines.product_id, order_lines.product_name, SUM(order_lines.quantity) AS units_sold, SUM(order_lines.quantity * order_lines.unit_price) AS revenue").
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("orders.status IN ?", sellable).
		Group("order_lines.product_id, order_lines.product_name").
		Order("units_sold DESC").
		Limit(topN).
		Scan(&topProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products: %w", err)
	}

	return &SalesReport{ByStatus: byStatus, TopProducts: topProducts}, nil
}
