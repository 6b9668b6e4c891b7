package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMissingScope is returned when an order write needs a region and
// sub-unit but the caller supplied blank names.
var ErrMissingScope = errors.New("region and sub-unit are required")

// Order is an ad-hoc order bound to one region/sub-unit pair at
// creation time and identified by a generated id.
type Order struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy string      `gorm:"size:100" json:"created_by"`
	RegionId  int         `gorm:"not null" json:"region_id"`
	SubUnitId int         `gorm:"not null" json:"sub_unit_id"`
	Status    OrderStatus `gorm:"size:20;not null;default:IN_PROGRESS" json:"status"`
	Region    *Region     `gorm:"foreignKey:RegionId" json:"-"`
	SubUnit   *SubUnit    `gorm:"foreignKey:SubUnitId" json:"-"`
}

// OrderLine holds one item quantity inside an order. At most one line
// per (order, item); quantities at rest are always positive.
type OrderLine struct {
	ID       int             `gorm:"primary_key" json:"id"`
	OrderId  string          `gorm:"size:36;not null;uniqueIndex:idx_order_lines_order_item" json:"order_id"`
	ItemId   int             `gorm:"not null;uniqueIndex:idx_order_lines_order_item" json:"item_id"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Order    *Order          `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"-"`
	Item     *Item           `gorm:"foreignKey:ItemId" json:"-"`
}

// GetOrCreateOrder returns existingId untouched when that order exists.
// Otherwise it resolves or creates the region and sub-unit by name and
// inserts a fresh IN_PROGRESS order under a generated id.
func GetOrCreateOrder(db *gorm.DB, user string, regionName string, subUnitName string, existingId string) (string, error) {
	if existingId != "" {
		var order Order
		err := db.Where("id = ?", existingId).First(&order).Error
		if err == nil {
			return order.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}

	regionId, err := UpsertRegion(db, regionName)
	if err != nil {
		return "", err
	}
	if regionId == 0 {
		return "", ErrMissingScope
	}
	subUnitId, err := UpsertSubUnit(db, subUnitName, regionId)
	if err != nil {
		return "", err
	}
	if subUnitId == 0 {
		return "", ErrMissingScope
	}

	order := Order{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		CreatedBy: user,
		RegionId:  regionId,
		SubUnitId: subUnitId,
		Status:    OrderStatusInProgress,
	}
	if err := db.Create(&order).Error; err != nil {
		return "", err
	}
	return order.ID, nil
}

// SetOrderQuantity upserts the line for (order, item). A non-positive
// quantity is a deletion; a missing prior line is not an error.
func SetOrderQuantity(db *gorm.DB, orderId string, itemId int, quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return db.Where("order_id = ? AND item_id = ?", orderId, itemId).Delete(&OrderLine{}).Error
	}
	line := OrderLine{OrderId: orderId, ItemId: itemId, Quantity: quantity}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&line).Error
}

// DeleteOrderLine removes one line by its row id.
func DeleteOrderLine(db *gorm.DB, lineId int) error {
	return db.Delete(&OrderLine{}, "id = ?", lineId).Error
}

type OrderLineView struct {
	LineId             int             `json:"line_id"`
	ItemId             int             `json:"item_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	UnitOfPresentation string          `json:"unit_of_presentation"`
	Quantity           decimal.Decimal `json:"quantity"`
}

// ListOrderLines returns the order's lines joined with the item display
// fields, ordered by item name.
func ListOrderLines(db *gorm.DB, orderId string) ([]OrderLineView, error) {
	sql := `
SELECT
    order_lines.id AS line_id,
    items.id AS item_id,
    items.code,
    items.name,
    items.unit_of_presentation,
    order_lines.quantity
FROM order_lines
JOIN items ON items.id = order_lines.item_id
WHERE order_lines.order_id = ?
ORDER BY items.name
`
	lines := []OrderLineView{}
	err := db.Raw(sql, orderId).Scan(&lines).Error
	return lines, err
}

type OrderListRow struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	CreatedBy string      `json:"created_by"`
	Region    string      `json:"region"`
	SubUnit   string      `json:"sub_unit"`
	Status    OrderStatus `json:"status"`
}

// ListOrders returns the most recent orders with their scope names.
func ListOrders(db *gorm.DB, limit int) ([]OrderListRow, error) {
	if limit <= 0 {
		limit = 50
	}
	sql := `
SELECT
    orders.id,
    orders.created_at,
    orders.created_by,
    regions.name AS region,
    sub_units.name AS sub_unit,
    orders.status
FROM orders
JOIN regions ON regions.id = orders.region_id
JOIN sub_units ON sub_units.id = orders.sub_unit_id
ORDER BY orders.created_at DESC
LIMIT ?
`
	rows := []OrderListRow{}
	err := db.Raw(sql, limit).Scan(&rows).Error
	return rows, err
}

// OrderExportColumns is the flat-file header for ad-hoc order exports.
var OrderExportColumns = []string{
	"order_id", "created_at", "user", "region", "sub_unit",
	"item_code", "item_name", "unit_of_presentation", "quantity",
}

type OrderExportRow struct {
	OrderId            string          `json:"order_id"`
	CreatedAt          time.Time       `json:"created_at"`
	User               string          `json:"user"`
	Region             string          `json:"region"`
	SubUnit            string          `json:"sub_unit"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	UnitOfPresentation string          `json:"unit_of_presentation"`
	Quantity           decimal.Decimal `json:"quantity"`
}

func (r OrderExportRow) Record() []string {
	return []string{
		r.OrderId, r.CreatedAt.UTC().Format(time.RFC3339), r.User, r.Region, r.SubUnit,
		r.ItemCode, r.ItemName, r.UnitOfPresentation, r.Quantity.String(),
	}
}

func (r OrderExportRow) Cells() []interface{} {
	return []interface{}{
		r.OrderId, r.CreatedAt.UTC().Format(time.RFC3339), r.User, r.Region, r.SubUnit,
		r.ItemCode, r.ItemName, r.UnitOfPresentation, r.Quantity.InexactFloat64(),
	}
}

// ExportOrder is the full denormalized projection of one order: one row
// per line item with all order, scope and catalog fields.
func ExportOrder(db *gorm.DB, orderId string) ([]OrderExportRow, error) {
	sql := `
SELECT
    orders.id AS order_id,
    orders.created_at,
    orders.created_by AS user,
    regions.name AS region,
    sub_units.name AS sub_unit,
    items.code AS item_code,
    items.name AS item_name,
    items.unit_of_presentation,
    order_lines.quantity
FROM orders
JOIN regions ON regions.id = orders.region_id
JOIN sub_units ON sub_units.id = orders.sub_unit_id
JOIN order_lines ON order_lines.order_id = orders.id
JOIN items ON items.id = order_lines.item_id
WHERE orders.id = ?
ORDER BY items.name
`
	rows := []OrderExportRow{}
	err := db.Raw(sql, orderId).Scan(&rows).Error
	return rows, err
}
