// seed-catalog loads a catalog file and/or a region map file into the
// store and persists the seed snapshots, so a fresh deployment starts
// with reference data without going through the upload endpoints.
//
// Usage:
//
//	seed-catalog -items catalog.csv -region-map regions.xlsx [-atomic]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/datafocal/pedidos_backend/config"
	"github.com/datafocal/pedidos_backend/models"
	"github.com/datafocal/pedidos_backend/utils"
	"gorm.io/gorm"
)

func main() {
	itemsPath := flag.String("items", "", "item catalog file (csv or xlsx)")
	regionMapPath := flag.String("region-map", "", "region/sub-unit map file (csv or xlsx)")
	atomic := flag.Bool("atomic", false, "roll back the whole batch on any row failure")
	flag.Parse()

	if *itemsPath == "" && *regionMapPath == "" {
		log.Fatal("nothing to do: pass -items and/or -region-map")
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		log.Fatalf("migrate tables: %v", err)
	}

	opts := models.ImportOptions{Atomic: *atomic}

	if *regionMapPath != "" {
		result := load(db, *regionMapPath, opts, models.ImportRegionSubUnitMap, models.SaveRegionMapSnapshot)
		log.Printf("region map: applied=%d skipped=%d", result.Applied, result.Skipped)
	}
	if *itemsPath != "" {
		result := load(db, *itemsPath, opts, models.ImportItems, models.SaveItemsSnapshot)
		log.Printf("items: applied=%d skipped=%d coerced=%d", result.Applied, result.Skipped, result.Coerced)
	}
}

func load(
	db *gorm.DB,
	path string,
	opts models.ImportOptions,
	apply func(*gorm.DB, *utils.Table, models.ImportOptions) (*models.ImportResult, error),
	snapshot func(string, *utils.Table) error,
) *models.ImportResult {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	table, err := utils.ReadTable(f, path)
	if err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
	result, err := apply(db, table, opts)
	if err != nil {
		log.Fatalf("import %s: %v", path, err)
	}
	if err := snapshot(config.DataDir(), table); err != nil {
		log.Fatalf("save snapshot for %s: %v", path, err)
	}
	return result
}
