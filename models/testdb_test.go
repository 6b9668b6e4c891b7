package models_test

import (
	"testing"

	"github.com/datafocal/pedidos_backend/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a private in-memory store with the full schema. One
// connection only, so the in-memory database is shared across queries.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	return db
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func fetchItem(t *testing.T, db *gorm.DB, code string) models.Item {
	t.Helper()
	var item models.Item
	if err := db.Where("code = ?", code).First(&item).Error; err != nil {
		t.Fatalf("fetch item %s: %v", code, err)
	}
	return item
}
