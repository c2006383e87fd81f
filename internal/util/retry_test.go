package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	got, err := Retry(3, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Retry() = %d, want 42", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	wantErr := errors.New("always fails")
	attempts := 0
	_, err := Retry(4, func() (string, error) {
		attempts++
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Retry() error = %v, want %v", err, wantErr)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestRetryDefaultsToOneAttempt(t *testing.T) {
	attempts := 0
	_, _ = Retry(0, func() (int, error) {
		attempts++
		return 0, errors.New("fail")
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryErrWithContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryErrWithContext(ctx, 5, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryErrWithContext() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithContextPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RetryWithContext(ctx, 3, func(ctx context.Context) (int, error) {
		t.Fatal("fn should not run with canceled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithContext() error = %v, want context.Canceled", err)
	}
}

func TestRetryWithContextBacksOffBetweenAttempts(t *testing.T) {
	saved := retryBaseDelay
	retryBaseDelay = 20 * time.Millisecond
	defer func() { retryBaseDelay = saved }()

	start := time.Now()
	attempts := 0
	_, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("transient")
	})
	if err == nil {
		t.Fatal("RetryWithContext() error = nil, want transient error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	// first retry waits 20ms, second 40ms
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 60ms of backoff", elapsed)
	}
}

func TestRetryWithContextBackoffAbortsOnCancel(t *testing.T) {
	saved := retryBaseDelay
	retryBaseDelay = time.Hour
	defer func() { retryBaseDelay = saved }()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		_, err := RetryWithContext(ctx, 3, func(ctx context.Context) (int, error) {
			attempts++
			return 0, errors.New("transient")
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RetryWithContext() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RetryWithContext did not return after cancellation")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry2WithContext(t *testing.T) {
	a, b, err := Retry2WithContext(context.Background(), 2, func(ctx context.Context) (string, int, error) {
		return "ok", 7, nil
	})
	if err != nil {
		t.Fatalf("Retry2WithContext() error = %v", err)
	}
	if a != "ok" || b != 7 {
		t.Errorf("Retry2WithContext() = (%q, %d), want (ok, 7)", a, b)
	}
}
