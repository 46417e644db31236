package service

import (
	"context"
	"testing"
	"time"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) softReservation(t *testing.T, itemID, locationID, referenceID uuid.UUID, qty int) *model.StockReservation {
	t.Helper()
	res, err := f.reservation.CreateSoft(context.Background(), CreateSoftParams{
		TenantID:    f.tenantID,
		ItemID:      itemID,
		WarehouseID: f.warehouseID,
		LocationID:  locationID,
		ReferenceID: referenceID,
		Quantity:    qty,
		TTL:         testSoftTTL,
	})
	require.NoError(t, err)
	return res
}

func TestCreateSoftHoldsStockWithTTL(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)

	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	assert.Equal(t, model.ReservationSoftReserved, res.State)
	require.NotNil(t, res.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(testSoftTTL), *res.ExpiresAt, 5*time.Second)

	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 4, level.QuantitySoftReserved)
	assert.Equal(t, 6, level.Available())
	assert.Equal(t, 10, level.QuantityOnHand, "soft hold does not touch on-hand")
}

func TestCreateSoftRejectsOverAvailable(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 3)

	_, err := f.reservation.CreateSoft(context.Background(), CreateSoftParams{
		TenantID:    f.tenantID,
		ItemID:      item.ID,
		WarehouseID: f.warehouseID,
		LocationID:  loc.ID,
		ReferenceID: uuid.New(),
		Quantity:    4,
		TTL:         testSoftTTL,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, f.reservations.reservations)
}

func TestPromoteToHardClearsExpiry(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	require.NoError(t, f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID))

	stored, err := f.reservations.FindByID(context.Background(), f.tenantID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationHardReserved, stored.State)
	assert.Nil(t, stored.ExpiresAt)

	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 4, level.QuantityReserved)
	assert.Equal(t, 0, level.QuantitySoftReserved)
}

func TestPromoteTwiceRejected(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	require.NoError(t, f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID))
	err := f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	// The counter moved exactly once.
	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 4, level.QuantityReserved)
}

func TestPromoteExpiredReservationRejected(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	past := time.Now().Add(-time.Minute)
	f.reservations.reservations[res.ID].ExpiresAt = &past

	err := f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestMarkAsPickingRequiresHardReservation(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	err := f.reservation.MarkAsPicking(context.Background(), f.tenantID, res.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	require.NoError(t, f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID))
	require.NoError(t, f.reservation.MarkAsPicking(context.Background(), f.tenantID, res.ID))

	stored, err := f.reservations.FindByID(context.Background(), f.tenantID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPicking, stored.State)
}

func TestReleaseSoftReturnsStockToPool(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	require.NoError(t, f.reservation.Release(context.Background(), f.tenantID, res.ID))

	stored, err := f.reservations.FindByID(context.Background(), f.tenantID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReleased, stored.State)
	assert.Equal(t, 10, f.levels.get(f.stockKey(item.ID, loc.ID)).Available())
}

func TestReleaseHardReturnsStockToPool(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)
	require.NoError(t, f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID))

	require.NoError(t, f.reservation.Release(context.Background(), f.tenantID, res.ID))

	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 0, level.QuantityReserved)
	assert.Equal(t, 10, level.Available())
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	require.NoError(t, f.reservation.Release(context.Background(), f.tenantID, res.ID))
	require.NoError(t, f.reservation.Release(context.Background(), f.tenantID, res.ID))

	assert.Equal(t, 10, f.levels.get(f.stockKey(item.ID, loc.ID)).Available())
}

func TestReleaseFulfilledRejected(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)
	require.NoError(t, f.reservation.MarkFulfilledTx(nil, f.tenantID, res.ID))

	err := f.reservation.Release(context.Background(), f.tenantID, res.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestExpireStaleSweep(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 20)

	orderA, orderB := uuid.New(), uuid.New()
	stale1 := f.softReservation(t, item.ID, loc.ID, orderA, 3)
	stale2 := f.softReservation(t, item.ID, loc.ID, orderB, 2)
	fresh := f.softReservation(t, item.ID, loc.ID, orderA, 5)

	past := time.Now().Add(-time.Minute)
	f.reservations.reservations[stale1.ID].ExpiresAt = &past
	f.reservations.reservations[stale2.ID].ExpiresAt = &past

	expired, err := f.reservation.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	assert.Len(t, f.reservations.inState(model.ReservationExpired), 2)
	storedFresh, err := f.reservations.FindByID(context.Background(), f.tenantID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationSoftReserved, storedFresh.State)

	// Only the fresh hold remains against the pool.
	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 5, level.QuantitySoftReserved)
	assert.Equal(t, 15, level.Available())

	// The order layer hears about each expiry.
	assert.Len(t, f.publisher.expired, 2)
	for _, res := range f.publisher.expired {
		assert.Equal(t, model.ReservationExpired, res.State)
	}
}

func TestExpireStaleSkipsPromotedRace(t *testing.T) {
	f := newFixture()
	item := f.addItem("BRK-PAD-001")
	loc := f.addLocation("PICK-01", model.LocationTypePicking, timeAt(0))
	f.seedStock(item.ID, loc.ID, 10)
	res := f.softReservation(t, item.ID, loc.ID, uuid.New(), 4)

	// Promoted before the sweep runs: no longer a soft hold, so the
	// sweep must not touch it even though the old expiry has passed.
	require.NoError(t, f.reservation.PromoteToHard(context.Background(), f.tenantID, res.ID))
	past := time.Now().Add(-time.Minute)
	f.reservations.reservations[res.ID].ExpiresAt = &past

	expired, err := f.reservation.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Empty(t, f.publisher.expired)

	level := f.levels.get(f.stockKey(item.ID, loc.ID))
	assert.Equal(t, 4, level.QuantityReserved)
}
