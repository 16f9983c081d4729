// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package media

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/parfour/parfour/internal/metrics"
)

// BatchItemFailure records one failed deletion within a batch.
type BatchItemFailure struct {
	PublicID string `json:"public_id"`
	Message  string `json:"message"`
}

// PartialBatchFailureError reports a batch delete where some items
// failed. Deleted and Failed together cover every requested ID exactly
// once; callers use the split to report per-item outcomes.
type PartialBatchFailureError struct {
	// Deleted lists the public IDs that were removed.
	Deleted []string

	// Failed lists each failed ID with its upstream message.
	Failed []BatchItemFailure
}

// Error implements the error interface.
func (e *PartialBatchFailureError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		ids[i] = f.PublicID
	}
	return fmt.Sprintf("batch delete: %d of %d items failed (%s)",
		len(e.Failed), len(e.Deleted)+len(e.Failed), strings.Join(ids, ", "))
}

// Complete reports whether every item in the batch failed.
func (e *PartialBatchFailureError) Complete() bool {
	return len(e.Deleted) == 0
}

// BatchDelete deletes a set of assets concurrently. Every deletion is
// attempted regardless of how the others fare: one failure never
// short-circuits the rest. Results are collected after all attempts
// complete and reported in the request's original ID order.
//
// Returns nil when every item was deleted, and a
// *PartialBatchFailureError otherwise.
func BatchDelete(ctx context.Context, client ClientInterface, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}

	// Each goroutine writes only its own slot; ordering is preserved
	// without any post-collection sorting.
	errs := make([]error, len(publicIDs))
	var wg sync.WaitGroup
	for i, id := range publicIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = client.Delete(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var deleted []string
	var failed []BatchItemFailure
	for i, err := range errs {
		if err != nil {
			failed = append(failed, BatchItemFailure{PublicID: publicIDs[i], Message: err.Error()})
			continue
		}
		deleted = append(deleted, publicIDs[i])
	}

	metrics.MediaBatchDeleteItems.WithLabelValues("deleted").Add(float64(len(deleted)))
	metrics.MediaBatchDeleteItems.WithLabelValues("failed").Add(float64(len(failed)))

	if len(failed) > 0 {
		return &PartialBatchFailureError{Deleted: deleted, Failed: failed}
	}
	return nil
}
