package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
)

func TestDefaultPendingPolicy(t *testing.T) {
	p := DefaultPendingPolicy()

	if p.MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d, want 10", p.MaxAttempts)
	}
	if p.InitialDelay != 5*time.Second {
		t.Errorf("InitialDelay = %v, want 5s", p.InitialDelay)
	}
	if p.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", p.MaxDelay)
	}
	if p.Multiplier != 1.5 {
		t.Errorf("Multiplier = %v, want 1.5", p.Multiplier)
	}
}

func TestPollPending_ReadyImmediately(t *testing.T) {
	calls := 0
	err := pollPending(context.Background(), fastPending(), zerolog.Nop(), func() (bool, error) {
		calls++
		return false, nil
	})
	if err != nil {
		t.Fatalf("pollPending() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPollPending_ErrorNotRetried(t *testing.T) {
	boom := client.NewError(client.KindTransportFailure, "boom")
	calls := 0
	err := pollPending(context.Background(), fastPending(), zerolog.Nop(), func() (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("pollPending() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (transport failures are not retried)", calls)
	}
}

func TestPollPending_Exhausted(t *testing.T) {
	calls := 0
	err := pollPending(context.Background(), fastPending(), zerolog.Nop(), func() (bool, error) {
		calls++
		return true, nil
	})
	if !errors.Is(err, client.ErrQueryRejected) {
		t.Errorf("pollPending() error = %v, want ErrQueryRejected", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPollPending_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_ = pollPending(context.Background(), PendingPolicy{}, zerolog.Nop(), func() (bool, error) {
		calls++
		return true, nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPollPending_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := PendingPolicy{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 1}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := pollPending(ctx, policy, zerolog.Nop(), func() (bool, error) {
		return true, nil
	})
	if !errors.Is(err, client.ErrTransportFailure) {
		t.Errorf("pollPending() error = %v, want ErrTransportFailure", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("pollPending() error = %v, want wrapped context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("cancellation not honored, took %v", time.Since(start))
	}
}
