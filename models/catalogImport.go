package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datafocal/pedidos_backend/utils"
	"gorm.io/gorm"
)

const (
	itemsSnapshotFile     = "catalog_items.csv"
	regionMapSnapshotFile = "region_sub_units.csv"
)

// ItemImportColumns are the required headers of an item catalog upload;
// "active" is optional and defaults to 1.
var ItemImportColumns = []string{"code", "name", "unit_of_presentation"}

// RegionMapImportColumns are the required headers of a region map upload.
var RegionMapImportColumns = []string{"region", "sub_unit"}

// MissingColumnsError reports the required headers an uploaded table
// lacks. Nothing is applied when it is returned.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ImportOptions control batch behavior. Rows apply independently by
// default; Atomic wraps the whole batch in one transaction so any row
// failure rolls everything back.
type ImportOptions struct {
	Atomic bool
}

// ImportResult reports what an import did. Coerced counts cells whose
// numeric parsing failed and fell back to the default, so the lenient
// coercion stays observable.
type ImportResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Coerced int `json:"coerced"`
}

func requireColumns(t *utils.Table, names []string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	missing := []string{}
	for _, name := range names {
		idx, ok := t.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return cols, nil
}

// ImportItems reconciles an uploaded item table against the catalog,
// row by row through the code-keyed upsert. The column check is
// all-or-nothing; rows with a blank code are skipped.
func ImportItems(db *gorm.DB, t *utils.Table, opts ImportOptions) (*ImportResult, error) {
	cols, err := requireColumns(t, ItemImportColumns)
	if err != nil {
		return nil, err
	}
	activeIdx, hasActive := t.Column("active")

	result := &ImportResult{}
	apply := func(tx *gorm.DB) error {
		for _, row := range t.Rows {
			code := utils.Cell(row, cols["code"])
			if code == "" {
				result.Skipped++
				continue
			}
			active := true
			if hasActive {
				var coerced bool
				active, coerced = utils.ParseActiveFlag(utils.Cell(row, activeIdx))
				if coerced {
					result.Coerced++
				}
			}
			err := UpsertItem(tx, code, utils.Cell(row, cols["name"]), utils.Cell(row, cols["unit_of_presentation"]), active)
			if err != nil {
				return err
			}
			result.Applied++
		}
		return nil
	}

	if opts.Atomic {
		err = db.Transaction(apply)
	} else {
		err = apply(db)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ImportRegionSubUnitMap resolves-or-creates a region and its sub-unit
// for every row of an uploaded map table.
func ImportRegionSubUnitMap(db *gorm.DB, t *utils.Table, opts ImportOptions) (*ImportResult, error) {
	cols, err := requireColumns(t, RegionMapImportColumns)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	apply := func(tx *gorm.DB) error {
		for _, row := range t.Rows {
			regionId, err := UpsertRegion(tx, utils.Cell(row, cols["region"]))
			if err != nil {
				return err
			}
			if regionId == 0 {
				result.Skipped++
				continue
			}
			if _, err := UpsertSubUnit(tx, utils.Cell(row, cols["sub_unit"]), regionId); err != nil {
				return err
			}
			result.Applied++
		}
		return nil
	}

	if opts.Atomic {
		err = db.Transaction(apply)
	} else {
		err = apply(db)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SaveItemsSnapshot persists a normalized copy of an item upload as the
// seed snapshot EnsureSeed reads on the next cold start.
func SaveItemsSnapshot(dir string, t *utils.Table) error {
	cols, err := requireColumns(t, ItemImportColumns)
	if err != nil {
		return err
	}
	activeIdx, hasActive := t.Column("active")

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		active := "1"
		if hasActive {
			if on, _ := utils.ParseActiveFlag(utils.Cell(row, activeIdx)); !on {
				active = "0"
			}
		}
		rows = append(rows, []string{
			utils.Cell(row, cols["code"]),
			utils.Cell(row, cols["name"]),
			utils.Cell(row, cols["unit_of_presentation"]),
			active,
		})
	}
	headers := append(append([]string{}, ItemImportColumns...), "active")
	return writeSnapshot(filepath.Join(dir, itemsSnapshotFile), headers, rows)
}

// SaveRegionMapSnapshot persists a normalized copy of a region map
// upload as the seed snapshot.
func SaveRegionMapSnapshot(dir string, t *utils.Table) error {
	cols, err := requireColumns(t, RegionMapImportColumns)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rows = append(rows, []string{
			utils.Cell(row, cols["region"]),
			utils.Cell(row, cols["sub_unit"]),
		})
	}
	return writeSnapshot(filepath.Join(dir, regionMapSnapshotFile), RegionMapImportColumns, rows)
}

func writeSnapshot(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := utils.WriteCSV(f, headers, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EnsureSeed loads the seed snapshots from dir at cold start. Each one
// applies only when its table is empty and its file exists; existing
// data is never overwritten.
func EnsureSeed(db *gorm.DB, dir string) error {
	var regions int64
	if err := db.Model(&Region{}).Count(&regions).Error; err != nil {
		return err
	}
	if regions == 0 {
		if err := seedFromSnapshot(db, filepath.Join(dir, regionMapSnapshotFile), ImportRegionSubUnitMap); err != nil {
			return err
		}
	}

	var items int64
	if err := db.Model(&Item{}).Count(&items).Error; err != nil {
		return err
	}
	if items == 0 {
		if err := seedFromSnapshot(db, filepath.Join(dir, itemsSnapshotFile), ImportItems); err != nil {
			return err
		}
	}
	return nil
}

func seedFromSnapshot(db *gorm.DB, path string, apply func(*gorm.DB, *utils.Table, ImportOptions) (*ImportResult, error)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	t, err := utils.ReadTable(f, path)
	if err != nil {
		return fmt.Errorf("read seed snapshot %s: %w", path, err)
	}
	if _, err := apply(db, t, ImportOptions{}); err != nil {
		return fmt.Errorf("apply seed snapshot %s: %w", path, err)
	}
	return nil
}
