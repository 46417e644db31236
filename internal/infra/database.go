package infra

import (
	"fmt"

	"stockcore/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (partial indexes, CHECK constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates / updates the schema. Also used by integration tests
// against a disposable container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Item{},
		&model.Warehouse{},
		&model.Location{},
		&model.StockLevel{},
		&model.StockMovement{},
		&model.StockReservation{},
		&model.SalesOrder{},
		&model.SalesOrderLine{},
		&model.PickingSlip{},
		&model.PickingSlipItem{},
		&model.ShippingDocument{},
		&model.FulfillmentHistory{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the expiry sweep: only soft holds carry a deadline,
		// so the sweep query stays cheap no matter how many terminal rows pile up.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reservations_soft_expiry') THEN
		    CREATE INDEX idx_reservations_soft_expiry
		        ON stock_reservations (expires_at)
		        WHERE state = 'SOFT_RESERVED' AND expires_at IS NOT NULL;
		  END IF;
		END $$`,
		// Ledger floor: the database is the last line of defense against a
		// counter going negative under a bug in the locking discipline.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_levels_non_negative') THEN
		    ALTER TABLE stock_levels
		      ADD CONSTRAINT chk_stock_levels_non_negative
		      CHECK (quantity_on_hand >= 0 AND quantity_reserved >= 0 AND quantity_soft_reserved >= 0
		             AND quantity_on_hand - quantity_reserved - quantity_soft_reserved >= 0);
		  END IF;
		END $$`,
		// FIFO scan over waiting orders joins lines by item.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_order_lines_item_open') THEN
		    CREATE INDEX idx_order_lines_item_open
		        ON sales_order_lines (item_id)
		        WHERE quantity > quantity_shipped;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
