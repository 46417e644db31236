package router

import (
	"time"

	"stockcore/internal/config"
	"stockcore/internal/handler"
	"stockcore/internal/middleware"
	"stockcore/internal/repository"
	"stockcore/internal/service"
	"stockcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps exposes the wired services the non-HTTP side of the process needs:
// the worker pool handlers and the expiry cron are registered in main from
// these.
type Deps struct {
	Dispatcher  *worker.Dispatcher
	Fulfillment service.FulfillmentService
	Backorder   service.BackorderService
	Shipment    service.ShipmentService
	Reservation service.ReservationService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *Deps) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	itemRepo := repository.NewItemRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	levelRepo := repository.NewStockLevelRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	reservationRepo := repository.NewStockReservationRepository(db)
	orderRepo := repository.NewSalesOrderRepository(db)
	slipRepo := repository.NewPickingSlipRepository(db)
	shippingDocRepo := repository.NewShippingDocumentRepository(db)
	historyRepo := repository.NewFulfillmentHistoryRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs,
	// and the publisher behind reservation expiry / backorder alerts.
	dispatcher := worker.NewDispatcher(rdb, cfg.AlertEmail)

	// ── Services ─────────────────────────────────────────────────────────────
	ledgerSvc := service.NewStockLedgerService(levelRepo, movementRepo)
	reservationSvc := service.NewReservationService(reservationRepo, ledgerSvc, dispatcher)
	allocator := service.NewPickingAllocator()
	fulfillmentSvc := service.NewFulfillmentService(
		orderRepo, itemRepo, locationRepo, levelRepo, slipRepo, shippingDocRepo,
		reservationRepo, reservationSvc, allocator, dispatcher, cfg.SoftReservationTTL())
	backorderSvc := service.NewBackorderService(
		orderRepo, slipRepo, shippingDocRepo, reservationSvc, dispatcher, cfg.SoftReservationTTL())
	shipmentSvc := service.NewShipmentService(
		orderRepo, slipRepo, shippingDocRepo, reservationRepo, historyRepo, reservationSvc, ledgerSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	stockH := handler.NewStockHandler(ledgerSvc, itemRepo, locationRepo, levelRepo, movementRepo, dispatcher)
	orderH := handler.NewOrderHandler(orderRepo, itemRepo, slipRepo, fulfillmentSvc, dispatcher)
	shipmentH := handler.NewShipmentHandler(dispatcher)
	reservationH := handler.NewReservationHandler(reservationRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// All business routes are tenant-scoped
	v1 := r.Group("/v1", middleware.Tenant())
	{
		stock := v1.Group("/stock")
		{
			stock.POST("/receive", stockH.Receive)
			stock.POST("/transfer", stockH.Transfer)
			stock.POST("/adjust", stockH.Adjust)
			stock.GET("/levels", stockH.ListLevels)
			stock.GET("/movements", stockH.ListMovements)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", orderH.Create)
			orders.GET("/:id", orderH.Get)
			orders.POST("/:id/cancel", orderH.Cancel)
			orders.GET("/:id/picking-slips", orderH.ListPickingSlips)
			orders.GET("/:id/reservations", reservationH.ListForOrder)
		}

		slips := v1.Group("/picking-slips")
		{
			slips.POST("/:id/start", orderH.StartPicking)
			slips.POST("/:id/items/:item_id/pick", orderH.RecordPick)
		}

		v1.POST("/shipments/confirm", shipmentH.Confirm)
		v1.GET("/reservations", reservationH.List)
	}

	deps := &Deps{
		Dispatcher:  dispatcher,
		Fulfillment: fulfillmentSvc,
		Backorder:   backorderSvc,
		Shipment:    shipmentSvc,
		Reservation: reservationSvc,
	}
	return r, deps
}
