package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidPeriod is returned when a period is not a YYYY-MM month.
var ErrInvalidPeriod = errors.New("period must be formatted YYYY-MM")

// MonthlyOrder is keyed by its calendar period: at most one order per
// month. The region/sub-unit scope lives on each line instead of the
// order, so one monthly order folds many scopes together.
type MonthlyOrder struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	Period    string      `gorm:"size:7;not null;uniqueIndex" json:"period"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy string      `gorm:"size:100" json:"created_by"`
	Status    OrderStatus `gorm:"size:20;not null;default:IN_PROGRESS" json:"status"`
}

// MonthlyOrderLine holds one item quantity for one region/sub-unit
// scope inside a monthly order. The same item may appear once per
// scope, never twice within one.
type MonthlyOrderLine struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   string          `gorm:"size:36;not null;uniqueIndex:idx_monthly_lines_scope" json:"order_id"`
	RegionId  int             `gorm:"not null;uniqueIndex:idx_monthly_lines_scope" json:"region_id"`
	SubUnitId int             `gorm:"not null;uniqueIndex:idx_monthly_lines_scope" json:"sub_unit_id"`
	ItemId    int             `gorm:"not null;uniqueIndex:idx_monthly_lines_scope" json:"item_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Note      string          `gorm:"size:500" json:"note"`
	Order     *MonthlyOrder   `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"-"`
	Region    *Region         `gorm:"foreignKey:RegionId" json:"-"`
	SubUnit   *SubUnit        `gorm:"foreignKey:SubUnitId" json:"-"`
	Item      *Item           `gorm:"foreignKey:ItemId" json:"-"`
}

// ValidPeriod reports whether p is a YYYY-MM calendar month.
func ValidPeriod(p string) bool {
	_, err := time.Parse("2006-01", p)
	return err == nil
}

// GetOrCreateMonthlyOrder resolves the order for a period, creating it
// when absent. Insert-or-ignore plus lookup run in one transaction, so
// two callers racing on a new period converge on the same id.
func GetOrCreateMonthlyOrder(db *gorm.DB, period string, user string) (string, error) {
	period = strings.TrimSpace(period)
	if !ValidPeriod(period) {
		return "", ErrInvalidPeriod
	}

	var id string
	err := db.Transaction(func(tx *gorm.DB) error {
		order := MonthlyOrder{
			ID:        uuid.NewString(),
			Period:    period,
			CreatedAt: time.Now().UTC(),
			CreatedBy: user,
			Status:    OrderStatusInProgress,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period"}},
			DoNothing: true,
		}).Create(&order).Error; err != nil {
			return err
		}
		var existing MonthlyOrder
		if err := tx.Where("period = ?", period).First(&existing).Error; err != nil {
			return err
		}
		id = existing.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindMonthlyOrderByPeriod is an exact lookup; absence is not an error.
func FindMonthlyOrderByPeriod(db *gorm.DB, period string) (*MonthlyOrder, bool, error) {
	var order MonthlyOrder
	err := db.Where("period = ?", strings.TrimSpace(period)).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &order, true, nil
}

// SetMonthlyQuantity upserts the line for (order, region, sub-unit,
// item), resolving or creating the scope by name. A non-positive
// quantity deletes the matching line; no prior line is not an error.
func SetMonthlyQuantity(db *gorm.DB, orderId string, regionName string, subUnitName string, itemId int, quantity decimal.Decimal, note string) error {
	regionId, err := UpsertRegion(db, regionName)
	if err != nil {
		return err
	}
	if regionId == 0 {
		return ErrMissingScope
	}
	subUnitId, err := UpsertSubUnit(db, subUnitName, regionId)
	if err != nil {
		return err
	}
	if subUnitId == 0 {
		return ErrMissingScope
	}

	if quantity.Sign() <= 0 {
		return db.Where(
			"order_id = ? AND region_id = ? AND sub_unit_id = ? AND item_id = ?",
			orderId, regionId, subUnitId, itemId,
		).Delete(&MonthlyOrderLine{}).Error
	}

	line := MonthlyOrderLine{
		OrderId:   orderId,
		RegionId:  regionId,
		SubUnitId: subUnitId,
		ItemId:    itemId,
		Quantity:  quantity,
		Note:      strings.TrimSpace(note),
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"}, {Name: "region_id"}, {Name: "sub_unit_id"}, {Name: "item_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "note"}),
	}).Create(&line).Error
}

// DeleteMonthlyLine removes one line by its row id.
func DeleteMonthlyLine(db *gorm.DB, lineId int) error {
	return db.Delete(&MonthlyOrderLine{}, "id = ?", lineId).Error
}

// ClearMonthlyLines bulk-deletes every line of an order.
func ClearMonthlyLines(db *gorm.DB, orderId string) error {
	return db.Where("order_id = ?", orderId).Delete(&MonthlyOrderLine{}).Error
}

// DeleteMonthlyOrder removes the order and all its lines.
func DeleteMonthlyOrder(db *gorm.DB, orderId string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderId).Delete(&MonthlyOrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&MonthlyOrder{}, "id = ?", orderId).Error
	})
}

// ListMonthlyOrders returns the most recent monthly orders.
func ListMonthlyOrders(db *gorm.DB, limit int) ([]MonthlyOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	orders := []MonthlyOrder{}
	err := db.Order("period DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

type MonthlyLineView struct {
	LineId             int             `json:"line_id"`
	Region             string          `json:"region"`
	SubUnit            string          `json:"sub_unit"`
	ItemId             int             `json:"item_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	UnitOfPresentation string          `json:"unit_of_presentation"`
	Quantity           decimal.Decimal `json:"quantity"`
	Note               string          `json:"note"`
}

// ListMonthlyLines returns the order's lines joined with scope and item
// display fields, ordered by region, sub-unit, item name.
func ListMonthlyLines(db *gorm.DB, orderId string) ([]MonthlyLineView, error) {
	sql := `
SELECT
    monthly_order_lines.id AS line_id,
    regions.name AS region,
    sub_units.name AS sub_unit,
    items.id AS item_id,
    items.code,
    items.name,
    items.unit_of_presentation,
    monthly_order_lines.quantity,
    monthly_order_lines.note
FROM monthly_order_lines
JOIN regions ON regions.id = monthly_order_lines.region_id
JOIN sub_units ON sub_units.id = monthly_order_lines.sub_unit_id
JOIN items ON items.id = monthly_order_lines.item_id
WHERE monthly_order_lines.order_id = ?
ORDER BY regions.name, sub_units.name, items.name
`
	lines := []MonthlyLineView{}
	err := db.Raw(sql, orderId).Scan(&lines).Error
	return lines, err
}

type MonthlySummaryRow struct {
	Region        string          `json:"region"`
	SubUnit       string          `json:"sub_unit"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// SummarizeMonthlyOrder sums quantity per (region, sub-unit, item).
// The unique line key already prevents duplicates, so the grouping is
// mostly a defensive collapse plus a stable presentation order.
func SummarizeMonthlyOrder(db *gorm.DB, orderId string) ([]MonthlySummaryRow, error) {
	sql := `
SELECT
    regions.name AS region,
    sub_units.name AS sub_unit,
    items.code AS item_code,
    items.name AS item_name,
    SUM(monthly_order_lines.quantity) AS total_quantity
FROM monthly_order_lines
JOIN regions ON regions.id = monthly_order_lines.region_id
JOIN sub_units ON sub_units.id = monthly_order_lines.sub_unit_id
JOIN items ON items.id = monthly_order_lines.item_id
WHERE monthly_order_lines.order_id = ?
GROUP BY regions.name, sub_units.name, items.code, items.name
ORDER BY regions.name, sub_units.name, items.name
`
	rows := []MonthlySummaryRow{}
	err := db.Raw(sql, orderId).Scan(&rows).Error
	return rows, err
}

// MonthlyExportColumns is the flat-file header for monthly exports.
var MonthlyExportColumns = []string{
	"period", "order_id", "created_at", "user", "region", "sub_unit",
	"item_code", "item_name", "unit_of_presentation", "quantity", "note",
}

type MonthlyExportRow struct {
	Period             string          `json:"period"`
	OrderId            string          `json:"order_id"`
	CreatedAt          time.Time       `json:"created_at"`
	User               string          `json:"user"`
	Region             string          `json:"region"`
	SubUnit            string          `json:"sub_unit"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	UnitOfPresentation string          `json:"unit_of_presentation"`
	Quantity           decimal.Decimal `json:"quantity"`
	Note               string          `json:"note"`
}

func (r MonthlyExportRow) Record() []string {
	return []string{
		r.Period, r.OrderId, r.CreatedAt.UTC().Format(time.RFC3339), r.User, r.Region, r.SubUnit,
		r.ItemCode, r.ItemName, r.UnitOfPresentation, r.Quantity.String(), r.Note,
	}
}

func (r MonthlyExportRow) Cells() []interface{} {
	return []interface{}{
		r.Period, r.OrderId, r.CreatedAt.UTC().Format(time.RFC3339), r.User, r.Region, r.SubUnit,
		r.ItemCode, r.ItemName, r.UnitOfPresentation, r.Quantity.InexactFloat64(), r.Note,
	}
}

const monthlyExportSQL = `
SELECT
    monthly_orders.period,
    monthly_orders.id AS order_id,
    monthly_orders.created_at,
    monthly_orders.created_by AS user,
    regions.name AS region,
    sub_units.name AS sub_unit,
    items.code AS item_code,
    items.name AS item_name,
    items.unit_of_presentation,
    monthly_order_lines.quantity,
    monthly_order_lines.note
FROM monthly_orders
JOIN monthly_order_lines ON monthly_order_lines.order_id = monthly_orders.id
JOIN regions ON regions.id = monthly_order_lines.region_id
JOIN sub_units ON sub_units.id = monthly_order_lines.sub_unit_id
JOIN items ON items.id = monthly_order_lines.item_id
`

// ExportMonthlyOrder is the denormalized projection of one monthly
// order: one row per line, no aggregation.
func ExportMonthlyOrder(db *gorm.DB, orderId string) ([]MonthlyExportRow, error) {
	sql := monthlyExportSQL + `
WHERE monthly_orders.id = ?
ORDER BY regions.name, sub_units.name, items.name
`
	rows := []MonthlyExportRow{}
	err := db.Raw(sql, orderId).Scan(&rows).Error
	return rows, err
}

// ExportPeriod exports the order owning a period, one row per line.
// Unknown periods export zero rows.
func ExportPeriod(db *gorm.DB, period string) ([]MonthlyExportRow, error) {
	sql := monthlyExportSQL + `
WHERE monthly_orders.period = ?
ORDER BY regions.name, sub_units.name, items.name
`
	rows := []MonthlyExportRow{}
	err := db.Raw(sql, strings.TrimSpace(period)).Scan(&rows).Error
	return rows, err
}
