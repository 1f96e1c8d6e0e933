package inventory

import (
	"context"
	"slices"
)

// AllocationLocker serializes deductions per stock key. Lock returns a release func
// that must be called exactly once, or ErrConcurrencyConflict when the wait runs out.
type AllocationLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// lockAll takes locks for every key in sorted order so two requests touching the
// same keys can never wait on each other in a cycle.
func lockAll(ctx context.Context, locker AllocationLocker, keys []string) (func(), error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, key := range sorted {
		unlock, err := locker.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
