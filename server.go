package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/datafocal/pedidos_backend/config"
	"github.com/datafocal/pedidos_backend/models"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func newRouter(app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Reference data.
	r.GET("/regions", app.listRegionsHandler)
	r.GET("/regions/:region/sub-units", app.listSubUnitsHandler)
	r.GET("/items", app.searchItemsHandler)

	// Ad-hoc orders (one region/sub-unit pair per order).
	r.GET("/orders", app.listOrdersHandler)
	r.POST("/orders", app.createOrderHandler)
	r.GET("/orders/:id/items", app.listOrderLinesHandler)
	r.POST("/orders/:id/items", app.setOrderQuantityHandler)
	r.DELETE("/order-items/:lineId", app.deleteOrderLineHandler)
	r.GET("/orders/:id/export", app.exportOrderHandler)

	// Monthly orders (one order per period, scope on each line).
	r.GET("/monthly-orders", app.listMonthlyOrdersHandler)
	r.POST("/monthly-orders", app.createMonthlyOrderHandler)
	r.GET("/monthly-orders/:id/items", app.listMonthlyLinesHandler)
	r.POST("/monthly-orders/:id/items", app.setMonthlyQuantityHandler)
	r.DELETE("/monthly-orders/:id/items", app.clearMonthlyLinesHandler)
	r.DELETE("/monthly-orders/:id", app.deleteMonthlyOrderHandler)
	r.DELETE("/monthly-order-items/:lineId", app.deleteMonthlyLineHandler)
	r.GET("/monthly-orders/:id/summary", app.summarizeMonthlyOrderHandler)
	r.GET("/monthly-orders/:id/export", app.exportMonthlyOrderHandler)
	r.GET("/periods/:period/export", app.exportPeriodHandler)

	// Catalog uploads.
	r.POST("/catalog/items", app.importItemsHandler)
	r.POST("/catalog/region-map", app.importRegionMapHandler)

	return r
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	db, err := config.ConnectDatabase()
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		logger.Fatalf("migrate tables: %v", err)
	}
	if err := models.EnsureSeed(db, config.DataDir()); err != nil {
		config.LogError(logger, "main", "main", "loading seed snapshots", nil, err)
	}

	app := &application{db: db, logger: logger, dataDir: config.DataDir()}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(app),
	}

	go func() {
		logger.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
