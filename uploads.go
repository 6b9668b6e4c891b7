package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/datafocal/pedidos_backend/models"
	"github.com/datafocal/pedidos_backend/utils"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

// readUpload parses the multipart "file" field into a Table.
func readUpload(c *gin.Context) (*utils.Table, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file field is required"})
		return nil, false
	}
	if fileHeader.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return nil, false
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return nil, false
	}
	defer f.Close()

	table, err := utils.ReadTable(f, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return table, true
}

func importOptions(c *gin.Context) models.ImportOptions {
	return models.ImportOptions{Atomic: strings.EqualFold(c.Query("atomic"), "true")}
}

func (app *application) runImport(
	c *gin.Context,
	funcName string,
	table *utils.Table,
	apply func(*gorm.DB, *utils.Table, models.ImportOptions) (*models.ImportResult, error),
	snapshot func(string, *utils.Table) error,
) {
	result, err := apply(app.db, table, importOptions(c))
	if err != nil {
		var missing *models.MissingColumnsError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           missing.Error(),
				"missing_columns": missing.Missing,
			})
			return
		}
		app.serverError(c, funcName, err)
		return
	}
	if err := snapshot(app.dataDir, table); err != nil {
		app.serverError(c, funcName, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (app *application) importItemsHandler(c *gin.Context) {
	table, ok := readUpload(c)
	if !ok {
		return
	}
	app.runImport(c, "importItemsHandler", table, models.ImportItems, models.SaveItemsSnapshot)
}

func (app *application) importRegionMapHandler(c *gin.Context) {
	table, ok := readUpload(c)
	if !ok {
		return
	}
	app.runImport(c, "importRegionMapHandler", table, models.ImportRegionSubUnitMap, models.SaveRegionMapSnapshot)
}

func attachmentHeaders(c *gin.Context, filename string, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
}

func writeExport(c *gin.Context, name string, columns []string, records [][]string, cells [][]interface{}) {
	if c.DefaultQuery("format", "csv") == "xlsx" {
		attachmentHeaders(c, name+".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := utils.WriteXLSX(c.Writer, "pedido", columns, cells); err != nil {
			c.Status(http.StatusInternalServerError)
		}
		return
	}
	attachmentHeaders(c, name+".csv", "text/csv")
	if err := utils.WriteCSV(c.Writer, columns, records); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (app *application) exportOrderHandler(c *gin.Context) {
	orderId := c.Param("id")
	rows, err := models.ExportOrder(app.db, orderId)
	if err != nil {
		app.serverError(c, "exportOrderHandler", err)
		return
	}
	records := make([][]string, 0, len(rows))
	cells := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
		cells = append(cells, r.Cells())
	}
	writeExport(c, "order_"+orderId, models.OrderExportColumns, records, cells)
}

func monthlyExportPayload(rows []models.MonthlyExportRow) ([][]string, [][]interface{}) {
	records := make([][]string, 0, len(rows))
	cells := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
		cells = append(cells, r.Cells())
	}
	return records, cells
}

func (app *application) exportMonthlyOrderHandler(c *gin.Context) {
	orderId := c.Param("id")
	rows, err := models.ExportMonthlyOrder(app.db, orderId)
	if err != nil {
		app.serverError(c, "exportMonthlyOrderHandler", err)
		return
	}
	records, cells := monthlyExportPayload(rows)
	writeExport(c, "monthly_order_"+orderId, models.MonthlyExportColumns, records, cells)
}

func (app *application) exportPeriodHandler(c *gin.Context) {
	period := c.Param("period")
	rows, err := models.ExportPeriod(app.db, period)
	if err != nil {
		app.serverError(c, "exportPeriodHandler", err)
		return
	}
	records, cells := monthlyExportPayload(rows)
	writeExport(c, "period_"+period, models.MonthlyExportColumns, records, cells)
}
