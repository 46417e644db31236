package service

import (
	"context"
	"sort"
	"time"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubItemRepo is an in-memory ItemRepository for testing.
type stubItemRepo struct {
	items map[uuid.UUID]*model.Item
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, item *model.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubItemRepo) FindByUUID(_ context.Context, tenantID, id uuid.UUID) (*model.Item, error) {
	item, ok := r.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *stubItemRepo) FindByPartNumber(_ context.Context, tenantID uuid.UUID, partNumber string) (*model.Item, error) {
	for _, item := range r.items {
		if item.TenantID == tenantID && item.PartNumber == partNumber {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubItemRepo) GetByPartNumbers(ctx context.Context, tenantID uuid.UUID, partNumbers []string) ([]model.Item, error) {
	var out []model.Item
	for _, pn := range partNumbers {
		if item, err := r.FindByPartNumber(ctx, tenantID, pn); err == nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *stubItemRepo) Resolve(ctx context.Context, tenantID uuid.UUID, ref string) (*model.Item, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.FindByUUID(ctx, tenantID, id)
	}
	return r.FindByPartNumber(ctx, tenantID, ref)
}

var _ repository.ItemRepository = (*stubItemRepo)(nil)

// stubLocationRepo is an in-memory LocationRepository for testing.
type stubLocationRepo struct {
	locations []model.Location
}

func newStubLocationRepo() *stubLocationRepo { return &stubLocationRepo{} }

func (r *stubLocationRepo) Create(_ context.Context, loc *model.Location) error {
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	r.locations = append(r.locations, *loc)
	return nil
}

func (r *stubLocationRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Location, error) {
	for i := range r.locations {
		if r.locations[i].TenantID == tenantID && r.locations[i].ID == id {
			cp := r.locations[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLocationRepo) ListCandidates(_ context.Context, tenantID, warehouseID uuid.UUID) ([]model.Location, error) {
	var out []model.Location
	for _, loc := range r.locations {
		if loc.TenantID == tenantID && loc.WarehouseID == warehouseID && loc.Active {
			out = append(out, loc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubLocationRepo) EnsureGeneralLocation(ctx context.Context, tenantID, warehouseID uuid.UUID) (*model.Location, error) {
	for i := range r.locations {
		loc := &r.locations[i]
		if loc.TenantID == tenantID && loc.WarehouseID == warehouseID && loc.Type == model.LocationTypeGeneral {
			cp := *loc
			return &cp, nil
		}
	}
	loc := &model.Location{
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Code:        "GENERAL",
		Type:        model.LocationTypeGeneral,
		Active:      true,
	}
	if err := r.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

var _ repository.LocationRepository = (*stubLocationRepo)(nil)

// stubLevelRepo is an in-memory StockLevelRepository for testing. Find
// variants return copies so mutations only land through SaveQuantitiesTx,
// mirroring the row-lock-then-save flow of the real repository.
type stubLevelRepo struct {
	levels map[repository.StockKey]*model.StockLevel
}

func newStubLevelRepo() *stubLevelRepo {
	return &stubLevelRepo{levels: make(map[repository.StockKey]*model.StockLevel)}
}

func levelKey(level *model.StockLevel) repository.StockKey {
	return repository.StockKey{
		TenantID:    level.TenantID,
		ItemID:      level.ItemID,
		WarehouseID: level.WarehouseID,
		LocationID:  level.LocationID,
	}
}

func (r *stubLevelRepo) seed(key repository.StockKey, onHand, reserved, softReserved int) {
	r.levels[key] = &model.StockLevel{
		ID:                   uuid.New(),
		TenantID:             key.TenantID,
		ItemID:               key.ItemID,
		WarehouseID:          key.WarehouseID,
		LocationID:           key.LocationID,
		QuantityOnHand:       onHand,
		QuantityReserved:     reserved,
		QuantitySoftReserved: softReserved,
	}
}

func (r *stubLevelRepo) get(key repository.StockKey) *model.StockLevel {
	return r.levels[key]
}

func (r *stubLevelRepo) FindForUpdateTx(_ *gorm.DB, key repository.StockKey) (*model.StockLevel, error) {
	level, ok := r.levels[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *level
	return &cp, nil
}

func (r *stubLevelRepo) FindOrCreateForUpdateTx(tx *gorm.DB, key repository.StockKey) (*model.StockLevel, error) {
	if _, ok := r.levels[key]; !ok {
		r.seed(key, 0, 0, 0)
	}
	return r.FindForUpdateTx(tx, key)
}

func (r *stubLevelRepo) SaveQuantitiesTx(_ *gorm.DB, level *model.StockLevel) error {
	cp := *level
	r.levels[levelKey(level)] = &cp
	return nil
}

func (r *stubLevelRepo) ListByItemWarehouse(_ context.Context, tenantID, itemID, warehouseID uuid.UUID) ([]model.StockLevel, error) {
	var out []model.StockLevel
	for _, level := range r.levels {
		if level.TenantID == tenantID && level.ItemID == itemID && level.WarehouseID == warehouseID {
			out = append(out, *level)
		}
	}
	return out, nil
}

func (r *stubLevelRepo) List(_ context.Context, tenantID uuid.UUID, filter repository.StockLevelFilter) ([]model.StockLevel, int64, error) {
	var out []model.StockLevel
	for _, level := range r.levels {
		if level.TenantID != tenantID {
			continue
		}
		if filter.ItemID != nil && level.ItemID != *filter.ItemID {
			continue
		}
		if filter.WarehouseID != nil && level.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.LocationID != nil && level.LocationID != *filter.LocationID {
			continue
		}
		out = append(out, *level)
	}
	return out, int64(len(out)), nil
}

func (r *stubLevelRepo) DB() *gorm.DB { return nil }

var _ repository.StockLevelRepository = (*stubLevelRepo)(nil)

// stubMovementRepo is an in-memory StockMovementRepository for testing.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, tenantID uuid.UUID, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.TenantID != tenantID {
			continue
		}
		if filter.ItemID != nil && m.ItemID != *filter.ItemID {
			continue
		}
		if filter.LocationID != nil && m.LocationID != *filter.LocationID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) ofType(movType string) []model.StockMovement {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.Type == movType {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubReservationRepo is an in-memory StockReservationRepository for testing.
type stubReservationRepo struct {
	reservations map[uuid.UUID]*model.StockReservation
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{reservations: make(map[uuid.UUID]*model.StockReservation)}
}

func (r *stubReservationRepo) CreateTx(_ *gorm.DB, res *model.StockReservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	res.CreatedAt = time.Now()
	cp := *res
	r.reservations[res.ID] = &cp
	return nil
}

// SaveTx mirrors the real repository: only state and expiry are updated.
func (r *stubReservationRepo) SaveTx(_ *gorm.DB, res *model.StockReservation) error {
	stored, ok := r.reservations[res.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.State = res.State
	stored.ExpiresAt = res.ExpiresAt
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	res, ok := r.reservations[id]
	if !ok || res.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *stubReservationRepo) FindForUpdateTx(_ *gorm.DB, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	return r.FindByID(context.Background(), tenantID, id)
}

func (r *stubReservationRepo) ListActiveByReference(_ context.Context, tenantID, referenceID uuid.UUID) ([]model.StockReservation, error) {
	var out []model.StockReservation
	for _, res := range r.reservations {
		if res.TenantID == tenantID && res.ReferenceID == referenceID && !res.State.Terminal() {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]model.StockReservation, error) {
	var out []model.StockReservation
	for _, res := range r.reservations {
		if res.ExpiredAt(now) {
			out = append(out, *res)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubReservationRepo) List(_ context.Context, tenantID uuid.UUID, state model.ReservationState, _, _ int) ([]model.StockReservation, int64, error) {
	var out []model.StockReservation
	for _, res := range r.reservations {
		if res.TenantID != tenantID {
			continue
		}
		if state != "" && res.State != state {
			continue
		}
		out = append(out, *res)
	}
	return out, int64(len(out)), nil
}

func (r *stubReservationRepo) inState(state model.ReservationState) []model.StockReservation {
	var out []model.StockReservation
	for _, res := range r.reservations {
		if res.State == state {
			out = append(out, *res)
		}
	}
	return out
}

var _ repository.StockReservationRepository = (*stubReservationRepo)(nil)

// stubOrderRepo is an in-memory SalesOrderRepository for testing.
type stubOrderRepo struct {
	orders map[uuid.UUID]*model.SalesOrder
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.SalesOrder)}
}

func (r *stubOrderRepo) Create(_ context.Context, order *model.SalesOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	cp := *order
	cp.Lines = append([]model.SalesOrderLine(nil), order.Lines...)
	r.orders[order.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	order, ok := r.orders[id]
	if !ok || order.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Lines = append([]model.SalesOrderLine(nil), order.Lines...)
	return &cp, nil
}

func (r *stubOrderRepo) FindForUpdateTx(_ *gorm.DB, tenantID, id uuid.UUID) (*model.SalesOrder, error) {
	order, ok := r.orders[id]
	if !ok || order.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Lines = nil
	return &cp, nil
}

func (r *stubOrderRepo) LinesTx(_ *gorm.DB, orderID uuid.UUID) ([]model.SalesOrderLine, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]model.SalesOrderLine(nil), order.Lines...), nil
}

func (r *stubOrderRepo) UpdateStockStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	order, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.StockStatus = status
	return nil
}

func (r *stubOrderRepo) ListBackordersForItem(_ context.Context, tenantID, itemID uuid.UUID) ([]model.SalesOrder, error) {
	var out []model.SalesOrder
	for _, order := range r.orders {
		if order.TenantID != tenantID || order.StockStatus != model.OrderStatusBackorder {
			continue
		}
		for i := range order.Lines {
			if order.Lines[i].ItemID == itemID && order.Lines[i].Outstanding() > 0 {
				cp := *order
				out = append(out, cp)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubOrderRepo) IncrementShippedTx(_ *gorm.DB, lineID uuid.UUID, qty int) error {
	for _, order := range r.orders {
		for i := range order.Lines {
			if order.Lines[i].ID == lineID {
				order.Lines[i].QuantityShipped += qty
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) FindLineTx(_ *gorm.DB, lineID uuid.UUID) (*model.SalesOrderLine, error) {
	for _, order := range r.orders {
		for i := range order.Lines {
			if order.Lines[i].ID == lineID {
				cp := order.Lines[i]
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

func (r *stubOrderRepo) status(id uuid.UUID) string { return r.orders[id].StockStatus }

var _ repository.SalesOrderRepository = (*stubOrderRepo)(nil)

// stubSlipRepo is an in-memory PickingSlipRepository for testing.
type stubSlipRepo struct {
	slips map[uuid.UUID]*model.PickingSlip
}

func newStubSlipRepo() *stubSlipRepo {
	return &stubSlipRepo{slips: make(map[uuid.UUID]*model.PickingSlip)}
}

func (r *stubSlipRepo) CreateTx(_ *gorm.DB, slip *model.PickingSlip) error {
	if slip.ID == uuid.Nil {
		slip.ID = uuid.New()
	}
	for i := range slip.Items {
		if slip.Items[i].ID == uuid.Nil {
			slip.Items[i].ID = uuid.New()
		}
		slip.Items[i].PickingSlipID = slip.ID
	}
	cp := *slip
	cp.Items = append([]model.PickingSlipItem(nil), slip.Items...)
	r.slips[slip.ID] = &cp
	return nil
}

func (r *stubSlipRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.PickingSlip, error) {
	slip, ok := r.slips[id]
	if !ok || slip.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *slip
	cp.Items = append([]model.PickingSlipItem(nil), slip.Items...)
	return &cp, nil
}

func (r *stubSlipRepo) HasActiveForOrder(_ context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	for _, slip := range r.slips {
		if slip.TenantID == tenantID && slip.OrderID == orderID && slip.Status != model.PickingSlipCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSlipRepo) CountForOrder(_ context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	for _, slip := range r.slips {
		if slip.TenantID == tenantID && slip.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (r *stubSlipRepo) PendingPromisedForLineTx(_ *gorm.DB, lineID uuid.UUID) (int, error) {
	pending := 0
	for _, slip := range r.slips {
		if slip.Status == model.PickingSlipCancelled {
			continue
		}
		for _, item := range slip.Items {
			if item.OrderLineID == lineID {
				pending += item.Quantity - item.QuantityPicked
			}
		}
	}
	return pending, nil
}

func (r *stubSlipRepo) FindItemByLineAndDocTx(_ *gorm.DB, lineID, shippingDocumentID uuid.UUID) (*model.PickingSlipItem, error) {
	for _, slip := range r.slips {
		if slip.ShippingDocumentID == nil || *slip.ShippingDocumentID != shippingDocumentID {
			continue
		}
		for _, item := range slip.Items {
			if item.OrderLineID == lineID {
				cp := item
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSlipRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	slip, ok := r.slips[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	slip.Status = status
	return nil
}

func (r *stubSlipRepo) UpdateItemPickedTx(_ *gorm.DB, itemID uuid.UUID, qtyPicked int) error {
	for _, slip := range r.slips {
		for i := range slip.Items {
			if slip.Items[i].ID == itemID {
				slip.Items[i].QuantityPicked = qtyPicked
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubSlipRepo) CancelActiveForOrderTx(_ *gorm.DB, orderID uuid.UUID) error {
	for _, slip := range r.slips {
		if slip.OrderID == orderID && slip.Status != model.PickingSlipCancelled {
			slip.Status = model.PickingSlipCancelled
		}
	}
	return nil
}

func (r *stubSlipRepo) ListActiveForOrder(_ context.Context, tenantID, orderID uuid.UUID) ([]model.PickingSlip, error) {
	var out []model.PickingSlip
	for _, slip := range r.slips {
		if slip.TenantID == tenantID && slip.OrderID == orderID && slip.Status != model.PickingSlipCancelled {
			cp := *slip
			cp.Items = append([]model.PickingSlipItem(nil), slip.Items...)
			out = append(out, cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wave < out[j].Wave })
	return out, nil
}

func (r *stubSlipRepo) forOrder(orderID uuid.UUID) []*model.PickingSlip {
	var out []*model.PickingSlip
	for _, slip := range r.slips {
		if slip.OrderID == orderID {
			out = append(out, slip)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wave < out[j].Wave })
	return out
}

var _ repository.PickingSlipRepository = (*stubSlipRepo)(nil)

// stubShippingDocRepo is an in-memory ShippingDocumentRepository for testing.
type stubShippingDocRepo struct {
	docs map[uuid.UUID]*model.ShippingDocument
}

func newStubShippingDocRepo() *stubShippingDocRepo {
	return &stubShippingDocRepo{docs: make(map[uuid.UUID]*model.ShippingDocument)}
}

func (r *stubShippingDocRepo) CreateTx(_ *gorm.DB, doc *model.ShippingDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *stubShippingDocRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.ShippingDocument, error) {
	doc, ok := r.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *stubShippingDocRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	doc, ok := r.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doc.Status = status
	return nil
}

func (r *stubShippingDocRepo) ListByOrder(_ context.Context, tenantID, orderID uuid.UUID) ([]model.ShippingDocument, error) {
	var out []model.ShippingDocument
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.OrderID == orderID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

var _ repository.ShippingDocumentRepository = (*stubShippingDocRepo)(nil)

// stubHistoryRepo is an in-memory FulfillmentHistoryRepository for testing.
type stubHistoryRepo struct {
	records []model.FulfillmentHistory
}

func newStubHistoryRepo() *stubHistoryRepo { return &stubHistoryRepo{} }

func (r *stubHistoryRepo) InsertIgnoreDuplicateTx(_ *gorm.DB, record *model.FulfillmentHistory) (bool, error) {
	for _, existing := range r.records {
		if existing.OrderLineID == record.OrderLineID && existing.ShippingDocumentID == record.ShippingDocumentID {
			return false, nil
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records = append(r.records, *record)
	return true, nil
}

func (r *stubHistoryRepo) ListByOrderLine(_ context.Context, tenantID, orderLineID uuid.UUID) ([]model.FulfillmentHistory, error) {
	var out []model.FulfillmentHistory
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.OrderLineID == orderLineID {
			out = append(out, rec)
		}
	}
	return out, nil
}

var _ repository.FulfillmentHistoryRepository = (*stubHistoryRepo)(nil)

// capturingPublisher records notifications instead of enqueueing them.
type capturingPublisher struct {
	expired    []model.StockReservation
	backorders []uuid.UUID
}

func (p *capturingPublisher) NotifyReservationExpired(_ context.Context, res *model.StockReservation) error {
	p.expired = append(p.expired, *res)
	return nil
}

func (p *capturingPublisher) NotifyBackorder(_ context.Context, _ uuid.UUID, orderID uuid.UUID, _ string) error {
	p.backorders = append(p.backorders, orderID)
	return nil
}

var _ EventPublisher = (*capturingPublisher)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

const testSoftTTL = 30 * time.Minute

// timeAt gives deterministic, strictly ordered timestamps for FIFO tests.
func timeAt(minutes int) time.Time {
	return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

// fixture wires the full service graph over the in-memory stubs. The nil
// *gorm.DB returned by the stub repos makes runTx execute callbacks
// directly, so every service path is exercisable without a database.
type fixture struct {
	tenantID    uuid.UUID
	warehouseID uuid.UUID

	items        *stubItemRepo
	locations    *stubLocationRepo
	levels       *stubLevelRepo
	movements    *stubMovementRepo
	reservations *stubReservationRepo
	orders       *stubOrderRepo
	slips        *stubSlipRepo
	shippingDocs *stubShippingDocRepo
	history      *stubHistoryRepo
	publisher    *capturingPublisher

	ledger      StockLedgerService
	reservation ReservationService
	fulfillment FulfillmentService
	backorder   BackorderService
	shipment    ShipmentService
}

func newFixture() *fixture {
	f := &fixture{
		tenantID:     uuid.New(),
		warehouseID:  uuid.New(),
		items:        newStubItemRepo(),
		locations:    newStubLocationRepo(),
		levels:       newStubLevelRepo(),
		movements:    newStubMovementRepo(),
		reservations: newStubReservationRepo(),
		orders:       newStubOrderRepo(),
		slips:        newStubSlipRepo(),
		shippingDocs: newStubShippingDocRepo(),
		history:      newStubHistoryRepo(),
		publisher:    &capturingPublisher{},
	}
	f.ledger = NewStockLedgerService(f.levels, f.movements)
	f.reservation = NewReservationService(f.reservations, f.ledger, f.publisher)
	f.fulfillment = NewFulfillmentService(
		f.orders, f.items, f.locations, f.levels, f.slips, f.shippingDocs,
		f.reservations, f.reservation, NewPickingAllocator(), f.publisher, testSoftTTL,
	)
	f.backorder = NewBackorderService(f.orders, f.slips, f.shippingDocs, f.reservation, f.publisher, testSoftTTL)
	f.shipment = NewShipmentService(f.orders, f.slips, f.shippingDocs, f.reservations, f.history, f.reservation, f.ledger)
	return f
}

func (f *fixture) addItem(partNumber string) *model.Item {
	item := &model.Item{TenantID: f.tenantID, PartNumber: partNumber, Name: partNumber, UOM: "unit", Active: true}
	_ = f.items.Create(context.Background(), item)
	return item
}

func (f *fixture) addLocation(code string, locType model.LocationType, createdAt time.Time) *model.Location {
	loc := &model.Location{
		TenantID:    f.tenantID,
		WarehouseID: f.warehouseID,
		Code:        code,
		Type:        locType,
		Active:      true,
		CreatedAt:   createdAt,
	}
	_ = f.locations.Create(context.Background(), loc)
	return loc
}

func (f *fixture) stockKey(itemID, locationID uuid.UUID) repository.StockKey {
	return repository.StockKey{
		TenantID:    f.tenantID,
		ItemID:      itemID,
		WarehouseID: f.warehouseID,
		LocationID:  locationID,
	}
}

func (f *fixture) seedStock(itemID, locationID uuid.UUID, onHand int) {
	f.levels.seed(f.stockKey(itemID, locationID), onHand, 0, 0)
}

func (f *fixture) addOrder(orderNumber string, createdAt time.Time, lines ...model.SalesOrderLine) *model.SalesOrder {
	order := &model.SalesOrder{
		TenantID:    f.tenantID,
		OrderNumber: orderNumber,
		WarehouseID: f.warehouseID,
		StockStatus: model.OrderStatusConfirmed,
		CreatedAt:   createdAt,
		Lines:       lines,
	}
	_ = f.orders.Create(context.Background(), order)
	return order
}

func orderLine(item *model.Item, qty int) model.SalesOrderLine {
	return model.SalesOrderLine{
		ItemID:     item.ID,
		PartNumber: item.PartNumber,
		Name:       item.Name,
		Quantity:   qty,
	}
}
