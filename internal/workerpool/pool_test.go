package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_OneFailureDoesNotAbortSiblings(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var completed int32

	results := Run(context.Background(), 2, items, func(i int) string { return fmt.Sprintf("item-%d", i) },
		func(ctx context.Context, i int) error {
			atomic.AddInt32(&completed, 1)
			if i == 3 {
				return fmt.Errorf("boom")
			}
			return nil
		})

	assert.Equal(t, int32(5), completed)
	assert.Len(t, results, 5)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			assert.Equal(t, "item-3", r.Key)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestRun_DefaultsSizeWhenZero(t *testing.T) {
	results := Run(context.Background(), 0, []int{1, 2}, func(i int) string { return fmt.Sprintf("%d", i) },
		func(ctx context.Context, i int) error { return nil })
	assert.Len(t, results, 2)
}

func TestRun_EmptyInput(t *testing.T) {
	results := Run(context.Background(), 4, []int{}, func(i int) string { return "" },
		func(ctx context.Context, i int) error { return nil })
	assert.Empty(t, results)
}
