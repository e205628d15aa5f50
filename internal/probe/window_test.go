package probe

import (
	"context"
	"errors"
	"testing"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/logger"
)

func TestProbeFirstNonzeroWindowWins(t *testing.T) {
	var calls []int
	counts := map[int]int{5: 0, 10: 0, 15: 7}
	count := func(_ context.Context, w int) (int, error) {
		calls = append(calls, w)
		return counts[w], nil
	}

	p := NewWindowProbe(logger.Nop(), nil)
	res, err := p.Probe(context.Background(), "orders", count, []int{5, 10, 15, 30, 60})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Outcome != models.ProbeFound || res.Count != 7 || res.WindowMinutes != 15 {
		t.Errorf("result = %+v", res)
	}
	if len(calls) != 3 {
		t.Errorf("expected exactly 3 queries, got %v", calls)
	}
}

func TestProbeAllZeroIsNotFound(t *testing.T) {
	queries := 0
	count := func(_ context.Context, _ int) (int, error) {
		queries++
		return 0, nil
	}

	p := NewWindowProbe(logger.Nop(), nil)
	res, err := p.Probe(context.Background(), "stocks", count, []int{5, 10, 15})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Outcome != models.ProbeNotFound || res.WindowMinutes != 15 {
		t.Errorf("result = %+v", res)
	}
	if queries != 3 {
		t.Errorf("expected every window queried, got %d", queries)
	}
}

func TestProbeThreeConsecutiveFailuresAbort(t *testing.T) {
	queries := 0
	count := func(_ context.Context, _ int) (int, error) {
		queries++
		return 0, &models.BackendError{Status: 502, Message: "bad gateway"}
	}

	p := NewWindowProbe(logger.Nop(), nil)
	res, err := p.Probe(context.Background(), "prices", count, []int{5, 10, 15, 30, 60})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Outcome != models.ProbeBackendError || res.Status != 502 {
		t.Errorf("result = %+v", res)
	}
	if queries != 3 {
		t.Errorf("sweep must stop after 3 failures, got %d queries", queries)
	}
}

func TestProbeFailureCounterResetsOnSuccess(t *testing.T) {
	// fail, fail, zero, fail, fail, found: never 3 failures in a row.
	outcomes := []struct {
		n   int
		err error
	}{
		{0, errors.New("boom")},
		{0, errors.New("boom")},
		{0, nil},
		{0, errors.New("boom")},
		{0, errors.New("boom")},
		{9, nil},
	}
	i := 0
	count := func(_ context.Context, _ int) (int, error) {
		o := outcomes[i]
		i++
		return o.n, o.err
	}

	p := NewWindowProbe(logger.Nop(), nil)
	res, err := p.Probe(context.Background(), "orders", count, []int{5, 10, 15, 30, 60, 120})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Outcome != models.ProbeFound || res.Count != 9 || res.WindowMinutes != 120 {
		t.Errorf("result = %+v", res)
	}
}

func TestProbeRejectsBadWindows(t *testing.T) {
	p := NewWindowProbe(logger.Nop(), nil)
	count := func(_ context.Context, _ int) (int, error) {
		t.Fatal("no query may run with a rejected configuration")
		return 0, nil
	}

	for _, windows := range [][]int{nil, {}, {10, 5}, {5, 5}, {0, 5}, {-1, 5}} {
		_, err := p.Probe(context.Background(), "orders", count, windows)
		if !errors.Is(err, models.ErrInvalidConfig) {
			t.Errorf("windows %v: err = %v, want ErrInvalidConfig", windows, err)
		}
	}
}

func TestProbeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewWindowProbe(logger.Nop(), nil)
	count := func(_ context.Context, _ int) (int, error) { return 1, nil }
	_, err := p.Probe(ctx, "orders", count, []int{5, 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
