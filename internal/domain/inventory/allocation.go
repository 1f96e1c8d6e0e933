package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Allocation is the quantity taken from one batch
type Allocation struct {
	BatchID   uuid.UUID
	BatchCode string
	Quantity  int
}

// AllocationPlan is the ordered result of walking batches for one request
type AllocationPlan struct {
	Key         StockKey
	Requested   int
	Allocations []Allocation
}

// Total is the sum of allocated quantities
func (p AllocationPlan) Total() int {
	total := 0
	for _, a := range p.Allocations {
		total += a.Quantity
	}
	return total
}

// SortFIFO orders batches oldest import first; batch code breaks ties so the order is total
func SortFIFO(batches []*ShipmentBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ImportedAt.Equal(batches[j].ImportedAt) {
			return batches[i].ImportedAt.Before(batches[j].ImportedAt)
		}
		return batches[i].BatchCode < batches[j].BatchCode
	})
}

// PlanFIFO allocates requested units from the oldest batches first and deducts them
// from the given batch objects. On InsufficientStockError the batches are left as they were.
func PlanFIFO(key StockKey, batches []*ShipmentBatch, requested int) (AllocationPlan, error) {
	if requested <= 0 {
		return AllocationPlan{}, shared.NewValidationError("requested quantity must be positive")
	}

	ordered := make([]*ShipmentBatch, 0, len(batches))
	available := 0
	for _, b := range batches {
		if b.Key() != key || !b.HasStock() {
			continue
		}
		ordered = append(ordered, b)
		available += b.RemainingQuantity
	}
	if available < requested {
		return AllocationPlan{}, shared.NewInsufficientStockError(
			key.ProductID.String(), key.VariantSlug, requested, available,
		)
	}
	SortFIFO(ordered)

	plan := AllocationPlan{Key: key, Requested: requested}
	stillNeeded := requested
	for _, b := range ordered {
		if stillNeeded == 0 {
			break
		}
		take := min(b.RemainingQuantity, stillNeeded)
		if err := b.Deduct(take); err != nil {
			return AllocationPlan{}, err
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			BatchID:   b.ID,
			BatchCode: b.BatchCode,
			Quantity:  take,
		})
		stillNeeded -= take
	}
	return plan, nil
}
