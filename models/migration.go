package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates any missing tables, indexes and constraints.
// Additive only; safe to run on every startup.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Region{}, &SubUnit{},
		&Item{},
		&Order{}, &OrderLine{},
		&MonthlyOrder{}, &MonthlyOrderLine{},
	)
}
