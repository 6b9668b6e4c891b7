package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/datafocal/pedidos_backend/config"
	"github.com/datafocal/pedidos_backend/models"
	"github.com/datafocal/pedidos_backend/utils"
)

type application struct {
	db      *gorm.DB
	logger  *logrus.Logger
	dataDir string
}

func (app *application) serverError(c *gin.Context, funcName string, err error) {
	config.LogError(app.logger, "api", funcName, c.Request.URL.Path, nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return n, true
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (app *application) listRegionsHandler(c *gin.Context) {
	regions, err := models.ListRegions(app.db)
	if err != nil {
		app.serverError(c, "listRegionsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

func (app *application) listSubUnitsHandler(c *gin.Context) {
	subUnits, err := models.ListSubUnits(app.db, c.Param("region"))
	if err != nil {
		app.serverError(c, "listSubUnitsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_units": subUnits})
}

func (app *application) searchItemsHandler(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	items, err := models.SearchItems(app.db, c.Query("q"), activeOnly, intQuery(c, "limit", 0))
	if err != nil {
		app.serverError(c, "searchItemsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type newOrderRequest struct {
	User    string `json:"user"`
	Region  string `json:"region"`
	SubUnit string `json:"sub_unit"`
	OrderId string `json:"order_id"`
}

func (app *application) createOrderHandler(c *gin.Context) {
	var req newOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	orderId, err := models.GetOrCreateOrder(app.db, req.User, req.Region, req.SubUnit, req.OrderId)
	if err != nil {
		if errors.Is(err, models.ErrMissingScope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app.serverError(c, "createOrderHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderId})
}

func (app *application) listOrdersHandler(c *gin.Context) {
	orders, err := models.ListOrders(app.db, intQuery(c, "limit", 50))
	if err != nil {
		app.serverError(c, "listOrdersHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// setQuantityRequest carries the quantity as free text. Anything that
// does not parse counts as zero, and zero deletes the line; the
// response reports when that coercion happened.
type setQuantityRequest struct {
	ItemId   int    `json:"item_id" binding:"required"`
	Quantity string `json:"quantity"`
	Region   string `json:"region"`
	SubUnit  string `json:"sub_unit"`
	Note     string `json:"note"`
}

func (app *application) setOrderQuantityHandler(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	qty, coerced := utils.ParseQuantity(req.Quantity)
	if err := models.SetOrderQuantity(app.db, c.Param("id"), req.ItemId, qty); err != nil {
		app.serverError(c, "setOrderQuantityHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": qty.Sign() <= 0, "coerced": coerced})
}

func (app *application) listOrderLinesHandler(c *gin.Context) {
	lines, err := models.ListOrderLines(app.db, c.Param("id"))
	if err != nil {
		app.serverError(c, "listOrderLinesHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines})
}

func (app *application) deleteOrderLineHandler(c *gin.Context) {
	lineId, ok := intParam(c, "lineId")
	if !ok {
		return
	}
	if err := models.DeleteOrderLine(app.db, lineId); err != nil {
		app.serverError(c, "deleteOrderLineHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type newMonthlyOrderRequest struct {
	Period string `json:"period" binding:"required"`
	User   string `json:"user"`
}

func (app *application) createMonthlyOrderHandler(c *gin.Context) {
	var req newMonthlyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	orderId, err := models.GetOrCreateMonthlyOrder(app.db, req.Period, req.User)
	if err != nil {
		if errors.Is(err, models.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app.serverError(c, "createMonthlyOrderHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderId})
}

func (app *application) listMonthlyOrdersHandler(c *gin.Context) {
	orders, err := models.ListMonthlyOrders(app.db, intQuery(c, "limit", 50))
	if err != nil {
		app.serverError(c, "listMonthlyOrdersHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (app *application) setMonthlyQuantityHandler(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	qty, coerced := utils.ParseQuantity(req.Quantity)
	err := models.SetMonthlyQuantity(app.db, c.Param("id"), req.Region, req.SubUnit, req.ItemId, qty, req.Note)
	if err != nil {
		if errors.Is(err, models.ErrMissingScope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app.serverError(c, "setMonthlyQuantityHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": qty.Sign() <= 0, "coerced": coerced})
}

func (app *application) listMonthlyLinesHandler(c *gin.Context) {
	lines, err := models.ListMonthlyLines(app.db, c.Param("id"))
	if err != nil {
		app.serverError(c, "listMonthlyLinesHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines})
}

func (app *application) deleteMonthlyLineHandler(c *gin.Context) {
	lineId, ok := intParam(c, "lineId")
	if !ok {
		return
	}
	if err := models.DeleteMonthlyLine(app.db, lineId); err != nil {
		app.serverError(c, "deleteMonthlyLineHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) clearMonthlyLinesHandler(c *gin.Context) {
	if err := models.ClearMonthlyLines(app.db, c.Param("id")); err != nil {
		app.serverError(c, "clearMonthlyLinesHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) deleteMonthlyOrderHandler(c *gin.Context) {
	if err := models.DeleteMonthlyOrder(app.db, c.Param("id")); err != nil {
		app.serverError(c, "deleteMonthlyOrderHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (app *application) summarizeMonthlyOrderHandler(c *gin.Context) {
	rows, err := models.SummarizeMonthlyOrder(app.db, c.Param("id"))
	if err != nil {
		app.serverError(c, "summarizeMonthlyOrderHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": rows})
}
