package workflow

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BatchError records one failed item.
type BatchError struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

// BatchResult summarizes a batch run. Error order follows completion, not
// input order.
type BatchResult struct {
	SuccessCount int          `json:"success_count"`
	FailedCount  int          `json:"failed_count"`
	Errors       []BatchError `json:"errors,omitempty"`
}

// AllFailed reports whether no item succeeded. False for an empty batch.
func (r BatchResult) AllFailed() bool {
	return r.FailedCount > 0 && r.SuccessCount == 0
}

// ExecuteBatch runs op over items with at most limit concurrent workers.
// Failures and panics in op are collected per item and never abort the
// rest of the batch; ctx is checked before dispatching each item but
// already-dispatched items run to completion.
func ExecuteBatch[T any](
	ctx context.Context,
	items []T,
	limit int,
	id func(T) string,
	op func(context.Context, T) error,
) BatchResult {
	if limit < 1 {
		limit = 1
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)

	g := &errgroup.Group{}
	g.SetLimit(limit)

	for _, item := range items {
		if ctx.Err() != nil {
			mu.Lock()
			result.FailedCount++
			result.Errors = append(result.Errors, BatchError{
				ItemID:  id(item),
				Message: ctx.Err().Error(),
			})
			mu.Unlock()
			continue
		}

		item := item
		g.Go(func() error {
			err := runOne(ctx, item, op)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, BatchError{
					ItemID:  id(item),
					Message: err.Error(),
				})
			} else {
				result.SuccessCount++
			}
			return nil
		})
	}

	g.Wait()
	return result
}

func runOne[T any](ctx context.Context, item T, op func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return op(ctx, item)
}
