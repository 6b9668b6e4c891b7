package models_test

import (
	"errors"
	"testing"

	"github.com/datafocal/pedidos_backend/models"
	"github.com/shopspring/decimal"
)

func TestGetOrCreateMonthlyOrderPeriodUniqueness(t *testing.T) {
	db := testDB(t)

	first, err := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	if err != nil {
		t.Fatalf("GetOrCreateMonthlyOrder: %v", err)
	}
	second, err := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	if err != nil {
		t.Fatalf("GetOrCreateMonthlyOrder (repeat): %v", err)
	}
	if first != second {
		t.Fatalf("expected the same order id, got %s then %s", first, second)
	}
	if n := count(t, db, &models.MonthlyOrder{}); n != 1 {
		t.Fatalf("expected exactly 1 order for the period, got %d", n)
	}
}

func TestGetOrCreateMonthlyOrderRejectsBadPeriod(t *testing.T) {
	db := testDB(t)

	for _, period := range []string{"", "2024", "2024-13", "05-2024", "2024-05-01"} {
		if _, err := models.GetOrCreateMonthlyOrder(db, period, "alice"); !errors.Is(err, models.ErrInvalidPeriod) {
			t.Fatalf("period %q: expected ErrInvalidPeriod, got %v", period, err)
		}
	}
	if n := count(t, db, &models.MonthlyOrder{}); n != 0 {
		t.Fatalf("expected no orders created, got %d", n)
	}
}

func TestFindMonthlyOrderByPeriod(t *testing.T) {
	db := testDB(t)

	_, found, err := models.FindMonthlyOrderByPeriod(db, "2024-05")
	if err != nil {
		t.Fatalf("FindMonthlyOrderByPeriod: %v", err)
	}
	if found {
		t.Fatal("expected absent result before creation")
	}

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	order, found, err := models.FindMonthlyOrderByPeriod(db, "2024-05")
	if err != nil {
		t.Fatalf("FindMonthlyOrderByPeriod: %v", err)
	}
	if !found || order.ID != orderId {
		t.Fatalf("expected order %s, got %+v found=%v", orderId, order, found)
	}
}

func TestSetMonthlyQuantityScopedUniqueness(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	item := fetchItem(t, db, "M1")

	if err := models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(10), ""); err != nil {
		t.Fatalf("SetMonthlyQuantity: %v", err)
	}
	if err := models.SetMonthlyQuantity(db, orderId, "R1", "E2", item.ID, decimal.NewFromInt(4), ""); err != nil {
		t.Fatalf("SetMonthlyQuantity: %v", err)
	}

	if n := count(t, db, &models.MonthlyOrderLine{}); n != 2 {
		t.Fatalf("expected distinct lines per sub-unit, got %d", n)
	}

	summary, err := models.SummarizeMonthlyOrder(db, orderId)
	if err != nil {
		t.Fatalf("SummarizeMonthlyOrder: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summary))
	}
	if summary[0].SubUnit != "E1" || !summary[0].TotalQuantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected first summary row: %+v", summary[0])
	}
	if summary[1].SubUnit != "E2" || !summary[1].TotalQuantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("unexpected second summary row: %+v", summary[1])
	}
}

func TestSetMonthlyQuantityOverwritesQuantityAndNote(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	item := fetchItem(t, db, "M1")

	models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(10), "first")
	if err := models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(6), "second"); err != nil {
		t.Fatalf("SetMonthlyQuantity (overwrite): %v", err)
	}

	lines, err := models.ListMonthlyLines(db, orderId)
	if err != nil {
		t.Fatalf("ListMonthlyLines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !lines[0].Quantity.Equal(decimal.NewFromInt(6)) || lines[0].Note != "second" {
		t.Fatalf("expected quantity 6 and note overwritten, got %+v", lines[0])
	}
}

func TestSetMonthlyQuantityZeroDeletesScopedLine(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	item := fetchItem(t, db, "M1")

	models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(10), "")
	models.SetMonthlyQuantity(db, orderId, "R1", "E2", item.ID, decimal.NewFromInt(4), "")

	if err := models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.Zero, ""); err != nil {
		t.Fatalf("SetMonthlyQuantity (zero): %v", err)
	}

	lines, _ := models.ListMonthlyLines(db, orderId)
	if len(lines) != 1 {
		t.Fatalf("expected only the E2 line to survive, got %+v", lines)
	}
	if lines[0].SubUnit != "E2" {
		t.Fatalf("wrong line deleted: %+v", lines[0])
	}
}

func TestListMonthlyLinesOrdering(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Zinc", "box", true)
	models.UpsertItem(db, "M2", "Aspirin", "blister", true)
	zinc := fetchItem(t, db, "M1")
	aspirin := fetchItem(t, db, "M2")

	models.SetMonthlyQuantity(db, orderId, "R2", "E1", aspirin.ID, decimal.NewFromInt(1), "")
	models.SetMonthlyQuantity(db, orderId, "R1", "E2", zinc.ID, decimal.NewFromInt(2), "")
	models.SetMonthlyQuantity(db, orderId, "R1", "E1", zinc.ID, decimal.NewFromInt(3), "")
	models.SetMonthlyQuantity(db, orderId, "R1", "E1", aspirin.ID, decimal.NewFromInt(4), "")

	lines, err := models.ListMonthlyLines(db, orderId)
	if err != nil {
		t.Fatalf("ListMonthlyLines: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	got := make([][3]string, 0, len(lines))
	for _, l := range lines {
		got = append(got, [3]string{l.Region, l.SubUnit, l.Name})
	}
	want := [][3]string{
		{"R1", "E1", "Aspirin"},
		{"R1", "E1", "Zinc"},
		{"R1", "E2", "Zinc"},
		{"R2", "E1", "Aspirin"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestClearMonthlyLines(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	item := fetchItem(t, db, "M1")
	models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(1), "")
	models.SetMonthlyQuantity(db, orderId, "R1", "E2", item.ID, decimal.NewFromInt(2), "")

	if err := models.ClearMonthlyLines(db, orderId); err != nil {
		t.Fatalf("ClearMonthlyLines: %v", err)
	}
	if n := count(t, db, &models.MonthlyOrderLine{}); n != 0 {
		t.Fatalf("expected all lines removed, got %d", n)
	}
	if n := count(t, db, &models.MonthlyOrder{}); n != 1 {
		t.Fatal("the order itself must survive a clear")
	}
}

func TestDeleteMonthlyOrderCascades(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	item := fetchItem(t, db, "M1")
	models.SetMonthlyQuantity(db, orderId, "R1", "E1", item.ID, decimal.NewFromInt(1), "")

	if err := models.DeleteMonthlyOrder(db, orderId); err != nil {
		t.Fatalf("DeleteMonthlyOrder: %v", err)
	}
	if n := count(t, db, &models.MonthlyOrder{}); n != 0 {
		t.Fatalf("expected the order removed, got %d", n)
	}
	if n := count(t, db, &models.MonthlyOrderLine{}); n != 0 {
		t.Fatalf("expected the lines removed with the order, got %d", n)
	}

	// The period is free again.
	again, err := models.GetOrCreateMonthlyOrder(db, "2024-05", "bob")
	if err != nil {
		t.Fatalf("GetOrCreateMonthlyOrder (after delete): %v", err)
	}
	if again == orderId {
		t.Fatal("expected a fresh order id after deletion")
	}
}

func TestExportPeriod(t *testing.T) {
	db := testDB(t)

	orderId, _ := models.GetOrCreateMonthlyOrder(db, "2024-05", "alice")
	models.UpsertItem(db, "M1", "Aspirin", "blister", true)
	models.UpsertItem(db, "M2", "Zinc", "box", true)
	models.SetMonthlyQuantity(db, orderId, "R1", "E1", fetchItem(t, db, "M1").ID, decimal.NewFromInt(5), "urgent")
	models.SetMonthlyQuantity(db, orderId, "R1", "E2", fetchItem(t, db, "M2").ID, decimal.NewFromInt(2), "")

	rows, err := models.ExportPeriod(db, "2024-05")
	if err != nil {
		t.Fatalf("ExportPeriod: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per line, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Period != "2024-05" || r.OrderId != orderId || r.User != "alice" {
			t.Fatalf("order fields incomplete: %+v", r)
		}
		if r.Region == "" || r.SubUnit == "" || r.ItemCode == "" || r.ItemName == "" {
			t.Fatalf("scope or catalog fields incomplete: %+v", r)
		}
		if len(r.Record()) != len(models.MonthlyExportColumns) {
			t.Fatalf("record width %d does not match %d columns", len(r.Record()), len(models.MonthlyExportColumns))
		}
	}

	byOrder, err := models.ExportMonthlyOrder(db, orderId)
	if err != nil {
		t.Fatalf("ExportMonthlyOrder: %v", err)
	}
	if len(byOrder) != len(rows) {
		t.Fatalf("order and period exports disagree: %d vs %d", len(byOrder), len(rows))
	}

	empty, err := models.ExportPeriod(db, "2030-01")
	if err != nil {
		t.Fatalf("ExportPeriod (unknown): %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no rows for an unknown period, got %d", len(empty))
	}
}
