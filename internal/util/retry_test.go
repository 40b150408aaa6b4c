package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetryErr(t *testing.T) {
	attempts := 0
	err := RetryErr(3, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryErr() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryErrExhausted(t *testing.T) {
	want := errors.New("persistent")
	err := RetryErr(2, func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("RetryErr() error = %v, want %v", err, want)
	}
}

func TestRetryWithContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithContext(ctx, 5, func(context.Context) (int, error) {
		t.Fatal("fn should not run with canceled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithContext() error = %v, want context.Canceled", err)
	}
}

func TestRetryWithContextSucceeds(t *testing.T) {
	attempts := 0
	got, err := RetryWithContext(context.Background(), 3, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("RetryWithContext() = %q, want %q", got, "ok")
	}
}
