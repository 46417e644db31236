package service

import (
	"sort"

	"stockcore/internal/model"

	"github.com/google/uuid"
)

// AllocationStep is one entry of a picking allocation plan. A nil
// LocationID marks the unfulfillable remainder — the backorder signal.
type AllocationStep struct {
	LocationID *uuid.UUID
	Quantity   int
}

// PickingAllocator turns a requested quantity into an ordered list of
// (location, quantity) steps. It is a pure function over a read-only
// snapshot: the plan consumes each candidate's on-hand quantity, not its
// available quantity — availability is the committer's concern, planning
// is ours — and performs no mutation.
type PickingAllocator struct{}

func NewPickingAllocator() *PickingAllocator { return &PickingAllocator{} }

// BuildPlan greedily consumes candidate locations in priority order until
// the required quantity is satisfied or candidates run out. Candidates are
// active locations holding stock, excluding DAMAGED/RETURN/INBOUND types.
// Priority: PICKING zones first, the GENERAL bucket last, all others in
// between; ties broken by ascending creation time (first-in-first-out lot
// consumption). Steps always sum to required; any unmet remainder comes
// back with a nil location.
func (a *PickingAllocator) BuildPlan(locations []model.Location, onHand map[uuid.UUID]int, required int) []AllocationStep {
	if required <= 0 {
		return nil
	}

	candidates := make([]model.Location, 0, len(locations))
	for _, loc := range locations {
		if !loc.Active || !loc.Type.Allocatable() {
			continue
		}
		if onHand[loc.ID] <= 0 {
			continue
		}
		candidates = append(candidates, loc)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := zoneRank(candidates[i].Type), zoneRank(candidates[j].Type)
		if ri != rj {
			return ri < rj
		}
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		// Deterministic order for locations created in the same instant.
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	var plan []AllocationStep
	remaining := required
	for _, loc := range candidates {
		if remaining == 0 {
			break
		}
		take := onHand[loc.ID]
		if take > remaining {
			take = remaining
		}
		locID := loc.ID
		plan = append(plan, AllocationStep{LocationID: &locID, Quantity: take})
		remaining -= take
	}

	if remaining > 0 {
		plan = append(plan, AllocationStep{LocationID: nil, Quantity: remaining})
	}
	return plan
}

func zoneRank(t model.LocationType) int {
	switch t {
	case model.LocationTypePicking:
		return 0
	case model.LocationTypeGeneral:
		return 2
	default:
		return 1
	}
}
