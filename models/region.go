package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Region struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type SubUnit struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_sub_units_name_region" json:"name"`
	RegionId  int       `gorm:"not null;uniqueIndex:idx_sub_units_name_region" json:"region_id"`
	Region    *Region   `gorm:"foreignKey:RegionId;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UpsertRegion resolves a region id by name, creating the row if it is
// absent. Insert and lookup run in one transaction so concurrent
// writers converge on the same id. An empty name resolves to 0.
func UpsertRegion(db *gorm.DB, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}

	var id int
	err := db.Transaction(func(tx *gorm.DB) error {
		region := Region{Name: name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&region).Error; err != nil {
			return err
		}
		if region.ID != 0 {
			id = region.ID
			return nil
		}
		var existing Region
		if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
			return err
		}
		id = existing.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertSubUnit resolves a sub-unit id by (name, region), creating the
// row if it is absent. An empty name or zero region resolves to 0.
func UpsertSubUnit(db *gorm.DB, name string, regionId int) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" || regionId == 0 {
		return 0, nil
	}

	var id int
	err := db.Transaction(func(tx *gorm.DB) error {
		subUnit := SubUnit{Name: name, RegionId: regionId}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "region_id"}},
			DoNothing: true,
		}).Create(&subUnit).Error; err != nil {
			return err
		}
		if subUnit.ID != 0 {
			id = subUnit.ID
			return nil
		}
		var existing SubUnit
		if err := tx.Where("name = ? AND region_id = ?", name, regionId).First(&existing).Error; err != nil {
			return err
		}
		id = existing.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindRegionId is an exact-match lookup. Absence is not an error.
func FindRegionId(db *gorm.DB, name string) (int, bool, error) {
	var region Region
	err := db.Where("name = ?", strings.TrimSpace(name)).First(&region).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return region.ID, true, nil
}

// FindSubUnitId is an exact-match lookup scoped to a region.
func FindSubUnitId(db *gorm.DB, name string, regionId int) (int, bool, error) {
	var subUnit SubUnit
	err := db.Where("name = ? AND region_id = ?", strings.TrimSpace(name), regionId).First(&subUnit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return subUnit.ID, true, nil
}

// ListRegions returns all region names, alphabetically.
func ListRegions(db *gorm.DB) ([]string, error) {
	names := []string{}
	err := db.Model(&Region{}).Order("name").Pluck("name", &names).Error
	return names, err
}

// ListSubUnits returns the sub-unit names under a region,
// alphabetically. Unknown regions yield an empty list.
func ListSubUnits(db *gorm.DB, regionName string) ([]string, error) {
	names := []string{}
	err := db.Model(&SubUnit{}).
		Joins("JOIN regions ON regions.id = sub_units.region_id").
		Where("regions.name = ?", strings.TrimSpace(regionName)).
		Order("sub_units.name").
		Pluck("sub_units.name", &names).Error
	return names, err
}
