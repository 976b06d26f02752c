package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastSleep skips real sleeping and records requested delays.
func fastSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_TwoRetryableFailuresThenSuccess(t *testing.T) {
	var delays []time.Duration
	var calls int
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Sleep: fastSleep(&delays)}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewRetryableError(errors.New("CONCURRENT_MODIFICATION"), 409)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	if len(delays) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(delays))
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	var calls int
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Sleep: fastSleep(&delays)}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return NewRetryableError(errors.New("rate exceeded"), 429)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_TerminalErrorNoRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("INVALID_ARGUMENT: bad identifier")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for terminal error, got %d", calls)
	}
}

func TestDo_ContextCancelStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewRetryableError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls > 3 {
		t.Errorf("expected <= 3 calls after cancel, got %d", calls)
	}
}

func TestDo_OnRetryAttemptNumbers(t *testing.T) {
	var attempts []int
	var delays []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       fastSleep(&delays),
		OnRetry: func(attempt int, _ error) {
			attempts = append(attempts, attempt)
		},
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewRetryableError(errors.New("fail"), 503)
	})

	if len(attempts) != 2 || attempts[0] != 2 || attempts[1] != 3 {
		t.Errorf("expected OnRetry attempts [2 3], got %v", attempts)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Sleep: fastSleep(&delays)}

	var calls int
	val, err := DoVal(context.Background(), cfg, func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewRetryableError(errors.New("fail"), 500)
		}
		return "job-7", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "job-7" {
		t.Errorf("expected %q, got %q", "job-7", val)
	}
}

func TestBackoffDelay_RangePerAttempt(t *testing.T) {
	cfg := applyDefaults(RetryConfig{BaseDelay: 2 * time.Second, MaxDelay: time.Minute})

	// delay = base * 2^(n-1) * [0.5, 1.0)
	bounds := []struct {
		attempt  int
		min, max time.Duration
	}{
		{1, time.Second, 2 * time.Second},
		{2, 2 * time.Second, 4 * time.Second},
		{3, 4 * time.Second, 8 * time.Second},
	}
	for _, b := range bounds {
		for i := 0; i < 50; i++ {
			d := backoffDelay(b.attempt, cfg)
			if d < b.min || d > b.max {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", b.attempt, d, b.min, b.max)
			}
		}
	}
}

func TestBackoffDelay_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{BaseDelay: time.Second, MaxDelay: 4 * time.Second})

	for i := 0; i < 50; i++ {
		if d := backoffDelay(10, cfg); d > 4*time.Second {
			t.Fatalf("expected delay capped at 4s, got %v", d)
		}
	}
}
