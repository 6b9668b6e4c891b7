package models

import (
	"strings"
	"time"

	"github.com/datafocal/pedidos_backend/config"
	"github.com/datafocal/pedidos_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item is an orderable catalog entry. Code is the natural key: imports
// carrying a known code overwrite the row, they never duplicate it.
type Item struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	Code               string    `gorm:"size:100;not null;uniqueIndex" json:"code"`
	Name               string    `gorm:"size:200;not null" json:"name"`
	UnitOfPresentation string    `gorm:"size:100" json:"unit_of_presentation"`
	IsActive           *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertItem writes a catalog entry keyed on code. On conflict every
// other field takes the incoming value, last write wins. An empty code
// is a silent no-op.
func UpsertItem(db *gorm.DB, code string, name string, unit string, active bool) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	item := Item{
		Code:               code,
		Name:               strings.TrimSpace(name),
		UnitOfPresentation: strings.TrimSpace(unit),
		IsActive:           utils.NewBool(active),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "unit_of_presentation", "is_active", "updated_at"}),
	}).Create(&item).Error
}

// SearchItems matches an unanchored, case-insensitive substring against
// code or name. An empty query matches everything. Results come back
// ordered by name and truncated to limit (config.SearchLimit when the
// caller passes 0).
func SearchItems(db *gorm.DB, query string, activeOnly bool, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = config.SearchLimit
	}
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	q := db.Model(&Item{}).Where("(LOWER(code) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	items := []Item{}
	err := q.Order("name").Limit(limit).Find(&items).Error
	return items, err
}
