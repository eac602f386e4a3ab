package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", config.MaxRetries)
	}

	if config.InitialInterval != 1*time.Second {
		t.Errorf("InitialInterval = %v, want 1s", config.InitialInterval)
	}

	if config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", config.MaxInterval)
	}

	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", config.Multiplier)
	}

	if config.MaxElapsedTime != 0 {
		t.Errorf("MaxElapsedTime = %v, want 0 (unbounded)", config.MaxElapsedTime)
	}
}

func TestNew_WithNilConfig(t *testing.T) {
	retrier := New(nil)
	if retrier == nil {
		t.Fatal("New(nil) returned nil")
	}

	if retrier.config.InitialInterval != 1*time.Second {
		t.Errorf("Default InitialInterval = %v, want 1s", retrier.config.InitialInterval)
	}
}

func TestNew_WithZeroValues(t *testing.T) {
	retrier := New(&Config{})

	if retrier.config.InitialInterval != 1*time.Second {
		t.Errorf("InitialInterval = %v, want 1s (default)", retrier.config.InitialInterval)
	}

	if retrier.config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s (default)", retrier.config.MaxInterval)
	}

	if retrier.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0 (default)", retrier.config.Multiplier)
	}
}

func TestRetrier_Do_Success(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if result.Attempts != 1 || attempts != 1 {
		t.Errorf("Attempts = %d (op ran %d times), want 1", result.Attempts, attempts)
	}
}

func TestRetrier_Do_SuccessAfterRetries(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestRetrier_Do_MaxRetriesExceeded(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	expectedErr := errors.New("persistent error")
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return expectedErr
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}

	if result.LastError == nil || result.LastError.Error() != expectedErr.Error() {
		t.Errorf("LastError = %v, want %v", result.LastError, expectedErr)
	}

	// Initial attempt + 3 retries = 4 total
	if result.Attempts != 4 || attempts != 4 {
		t.Errorf("Attempts = %d (op ran %d times), want 4", result.Attempts, attempts)
	}
}

func TestRetrier_Do_PermanentError(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	permErr := errors.New("schema violation")
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(permErr)
	})

	if result.Err == nil || result.Err.Error() != permErr.Error() {
		t.Errorf("Err = %v, want %v", result.Err, permErr)
	}

	// Should stop immediately, no retries
	if result.Attempts != 1 || attempts != 1 {
		t.Errorf("Attempts = %d (op ran %d times), want 1", result.Attempts, attempts)
	}
}

func TestRetrier_Do_RetryWindowClosed(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      100,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      1.0,
		JitterFactor:    0,
		MaxElapsedTime:  120 * time.Millisecond,
	})

	attempts := 0
	result := retrier.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("still failing")
	})

	if !errors.Is(result.Err, ErrRetryWindowClosed) {
		t.Errorf("Err = %v, want ErrRetryWindowClosed", result.Err)
	}

	if result.LastError == nil {
		t.Error("LastError should carry the final attempt error")
	}

	// Far fewer than MaxRetries attempts fit in the window
	if attempts >= 100 {
		t.Errorf("op ran %d times, window did not bound retries", attempts)
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	result := retrier.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}

	if result.Attempts < 2 {
		t.Errorf("Attempts = %d, want >= 2", result.Attempts)
	}
}

func TestRetrier_DoWithCallback(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     100 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	attempts := 0
	callbackCalls := 0
	result := retrier.DoWithCallback(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("error")
		}
		return nil
	}, func(attempt int, err error, nextInterval time.Duration) {
		callbackCalls++
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	// Callback runs before retry 2 and 3
	if callbackCalls != 2 {
		t.Errorf("Callback called %d times, want 2", callbackCalls)
	}
}

func TestCalculateInterval_ExponentialBackoff(t *testing.T) {
	retrier := New(&Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second}, // 32s capped at 30s
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		got := retrier.calculateInterval(tt.attempt)
		if got != tt.expected {
			t.Errorf("calculateInterval(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryable_And_Permanent(t *testing.T) {
	err := errors.New("test error")

	var re *RetryableError
	if !errors.As(Retryable(err), &re) {
		t.Error("Retryable error should be RetryableError")
	}
	if !errors.Is(re.Unwrap(), err) {
		t.Error("RetryableError.Unwrap() should return original error")
	}

	var pe *PermanentError
	if !errors.As(Permanent(err), &pe) {
		t.Error("Permanent error should be PermanentError")
	}
	if !errors.Is(pe.Unwrap(), err) {
		t.Error("PermanentError.Unwrap() should return original error")
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should return nil")
	}
}

func TestIsPermanent(t *testing.T) {
	err := errors.New("bad row")

	if !IsPermanent(Permanent(err)) {
		t.Error("IsPermanent(Permanent(err)) = false, want true")
	}
	if IsPermanent(err) {
		t.Error("IsPermanent(plain error) = true, want false")
	}
	if IsPermanent(Retryable(err)) {
		t.Error("IsPermanent(Retryable(err)) = true, want false")
	}
}
