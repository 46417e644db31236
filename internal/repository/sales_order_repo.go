package repository

import (
	"context"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesOrderRepository interface {
	Create(ctx context.Context, order *model.SalesOrder) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error)
	// FindForUpdateTx takes the order row lock; lines are loaded separately.
	FindForUpdateTx(tx *gorm.DB, tenantID, id uuid.UUID) (*model.SalesOrder, error)
	LinesTx(tx *gorm.DB, orderID uuid.UUID) ([]model.SalesOrderLine, error)
	UpdateStockStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	// ListBackordersForItem returns backordered orders of the tenant that
	// still owe units of the item, oldest order first. Strict FIFO is the
	// fairness contract for backorder re-allocation.
	ListBackordersForItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]model.SalesOrder, error)
	IncrementShippedTx(tx *gorm.DB, lineID uuid.UUID, qty int) error
	FindLineTx(tx *gorm.DB, lineID uuid.UUID) (*model.SalesOrderLine, error)

	DB() *gorm.DB
}

type salesOrderRepo struct{ db *gorm.DB }

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository { return &salesOrderRepo{db: db} }

func (r *salesOrderRepo) Create(ctx context.Context, order *model.SalesOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *salesOrderRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *salesOrderRepo) FindForUpdateTx(tx *gorm.DB, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *salesOrderRepo) LinesTx(tx *gorm.DB, orderID uuid.UUID) ([]model.SalesOrderLine, error) {
	var lines []model.SalesOrderLine
	err := tx.Where("order_id = ?", orderID).Order("created_at ASC").Find(&lines).Error
	return lines, err
}

func (r *salesOrderRepo) UpdateStockStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.SalesOrder{}).Where("id = ?", id).
		Update("stock_status", status).Error
}

func (r *salesOrderRepo) ListBackordersForItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]model.SalesOrder, error) {
	var orders []model.SalesOrder
	err := r.db.WithContext(ctx).
		Joins("JOIN sales_order_lines ON sales_order_lines.order_id = sales_orders.id").
		Where("sales_orders.tenant_id = ? AND sales_orders.stock_status = ?", tenantID, model.OrderStatusBackorder).
		Where("sales_order_lines.item_id = ? AND sales_order_lines.quantity > sales_order_lines.quantity_shipped", itemID).
		Group("sales_orders.id").
		Order("sales_orders.created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *salesOrderRepo) IncrementShippedTx(tx *gorm.DB, lineID uuid.UUID, qty int) error {
	return tx.Model(&model.SalesOrderLine{}).Where("id = ?", lineID).
		Update("quantity_shipped", gorm.Expr("quantity_shipped + ?", qty)).Error
}

func (r *salesOrderRepo) FindLineTx(tx *gorm.DB, lineID uuid.UUID) (*model.SalesOrderLine, error) {
	var line model.SalesOrderLine
	err := tx.Where("id = ?", lineID).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *salesOrderRepo) DB() *gorm.DB { return r.db }
