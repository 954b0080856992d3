package notifications

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFanOut_IsolatesFailures(t *testing.T) {
	candidates := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	var attempted atomic.Int64

	result := FanOut(context.Background(), discardLogger(), candidates, 3,
		func(_ context.Context, n int) (bool, error) {
			attempted.Add(1)
			switch {
			case n%4 == 0:
				return false, errors.New("send failed")
			case n == 5:
				panic("unexpected")
			case n == 7:
				return false, nil
			}
			return true, nil
		})

	assert.Equal(t, int64(10), attempted.Load())
	assert.Equal(t, 10, result.Candidates)
	assert.Equal(t, 6, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 3, result.Failed)
}

func TestFanOut_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int64
	candidates := make([]int, 20)

	FanOut(context.Background(), discardLogger(), candidates, 4,
		func(context.Context, int) (bool, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return true, nil
		})

	assert.LessOrEqual(t, peak.Load(), int64(4))
}

func TestFanOut_Empty(t *testing.T) {
	result := FanOut(context.Background(), nil, []string(nil), 0,
		func(context.Context, string) (bool, error) { return true, nil })
	assert.Equal(t, BatchResult{Duration: result.Duration}, result)
}

func TestBatchResult_Summary(t *testing.T) {
	r := BatchResult{Candidates: 5, Sent: 3, Skipped: 1, Failed: 1, Duration: 1500 * time.Millisecond}
	assert.Equal(t, "5 candidates: 3 sent, 1 skipped, 1 failed in 1.5s", r.Summary())
}
