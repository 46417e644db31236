package service

import (
	"context"
	"testing"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backorderSetup drives an order through the normal confirmation path so
// it lands in backorder, then simulates a receipt at the location.
func backorderSetup(t *testing.T, f *fixture, item *model.Item, loc *model.Location, order *model.SalesOrder, received int) {
	t.Helper()
	require.NoError(t, f.fulfillment.ReserveForOrder(context.Background(), f.tenantID, order.ID))
	require.Equal(t, model.OrderStatusBackorder, f.orders.status(order.ID))
	_, err := f.ledger.Receive(context.Background(), MovementParams{
		Key:      f.stockKey(item.ID, loc.ID),
		Quantity: received,
		Reason:   "replenishment",
	})
	require.NoError(t, err)
}

func TestStockReceivedFulfillsBackorder(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	order := f.addOrder("SO-1001", timeAt(0), orderLine(item, 5))
	backorderSetup(t, f, item, loc, order, 10)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, allocated)
	assert.Equal(t, model.OrderStatusReserved, f.orders.status(order.ID))

	// The supplement is a second wave with its own document.
	slips := f.slips.forOrder(order.ID)
	require.Len(t, slips, 2)
	assert.Equal(t, 2, slips[1].Wave)
	require.Len(t, slips[1].Items, 1)
	assert.Equal(t, 5, slips[1].Items[0].Quantity)

	doc, err := f.shippingDocs.FindByID(context.Background(), f.tenantID, *slips[1].ShippingDocumentID)
	require.NoError(t, err)
	assert.Equal(t, "SHP-SO-1001-2", doc.DocumentNumber)

	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 5, level.QuantityReserved)
	assert.Equal(t, 5, level.Available())
}

func TestStockReceivedServesOldestOrderFirst(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	older := f.addOrder("SO-1001", timeAt(0), orderLine(item, 5))
	newer := f.addOrder("SO-1002", timeAt(10), orderLine(item, 5))
	require.NoError(t, f.fulfillment.ReserveForOrder(context.Background(), f.tenantID, older.ID))
	require.NoError(t, f.fulfillment.ReserveForOrder(context.Background(), f.tenantID, newer.ID))
	_, err := f.ledger.Receive(context.Background(), MovementParams{Key: f.stockKey(item.ID, loc.ID), Quantity: 7})
	require.NoError(t, err)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, allocated)

	// Oldest order is made whole; the newer one takes the scraps.
	assert.Equal(t, model.OrderStatusReserved, f.orders.status(older.ID))
	assert.Equal(t, model.OrderStatusBackorder, f.orders.status(newer.ID))

	olderSlips := f.slips.forOrder(older.ID)
	require.Len(t, olderSlips, 2)
	assert.Equal(t, 5, olderSlips[1].Items[0].Quantity)

	newerSlips := f.slips.forOrder(newer.ID)
	require.Len(t, newerSlips, 2)
	assert.Equal(t, 2, newerSlips[1].Items[0].Quantity)
}

func TestStockReceivedNeverAllocatesMoreThanReceived(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	order := f.addOrder("SO-1001", timeAt(0), orderLine(item, 10))
	backorderSetup(t, f, item, loc, order, 3)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, allocated)
	assert.Equal(t, model.OrderStatusBackorder, f.orders.status(order.ID), "still short, stays backorder")
	assert.Equal(t, 3, f.levels.get(f.stockKey(item.ID, loc.ID)).QuantityReserved)
}

func TestStockReceivedSubtractsAlreadyPromisedQuantity(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	// Wave 1 allocates the 3 on hand; 2 of the 5 stay owed.
	f.seedStock(item.ID, loc.ID, 3)
	order := f.addOrder("SO-1001", timeAt(0), orderLine(item, 5))
	backorderSetup(t, f, item, loc, order, 10)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, allocated, "the 3 promised on the open slip are not re-allocated")
	assert.Equal(t, model.OrderStatusReserved, f.orders.status(order.ID))

	slips := f.slips.forOrder(order.ID)
	require.Len(t, slips, 2)
	assert.Equal(t, 2, slips[1].Items[0].Quantity)
	assert.Equal(t, 5, f.levels.get(f.stockKey(item.ID, loc.ID)).QuantityReserved)
}

func TestStockReceivedNoBackorders(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, allocated)
}

func TestStockReceivedIgnoresOtherItems(t *testing.T) {
	f := newFixture()
	pads := f.addItem("BRK-PAD-001")
	discs := f.addItem("BRK-DSC-002")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	order := f.addOrder("SO-1001", timeAt(0), orderLine(pads, 5))
	require.NoError(t, f.fulfillment.ReserveForOrder(context.Background(), f.tenantID, order.ID))
	_, err := f.ledger.Receive(context.Background(), MovementParams{Key: f.stockKey(discs.ID, loc.ID), Quantity: 10})
	require.NoError(t, err)

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, discs.ID, f.warehouseID, loc.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, allocated)
	assert.Equal(t, model.OrderStatusBackorder, f.orders.status(order.ID))
}

func TestStockReceivedRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture()
	_, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, uuid.New(), f.warehouseID, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStockReceivedSkipsOrdersReservedMeanwhile(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	order := f.addOrder("SO-1001", timeAt(0), orderLine(item, 5))
	backorderSetup(t, f, item, loc, order, 10)

	// Another pass got here first and flipped the order.
	require.NoError(t, f.orders.UpdateStockStatusTx(nil, order.ID, model.OrderStatusReserved))

	allocated, err := f.backorder.HandleStockReceived(context.Background(), f.tenantID, item.ID, f.warehouseID, loc.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, allocated)
	assert.Len(t, f.slips.forOrder(order.ID), 1, "no supplemental wave for a non-backorder order")
}
