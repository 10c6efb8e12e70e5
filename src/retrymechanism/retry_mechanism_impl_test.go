package retrymechanism

import (
	"errors"
	"testing"
)

var (
	errOperationFailed = errors.New("operation failed")
	errTryAgain        = errors.New("try again")
	errFatal           = errors.New("fatal")
)

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{}

	err := retryMechanism.Retry(func() error {
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRetry_FailureAfterMaxAttempts(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{MaxAttempts: 3}
	attempts := 0

	err := retryMechanism.Retry(func() error {
		attempts++
		return errOperationFailed
	})

	if !errors.Is(err, errOperationFailed) {
		t.Fatalf("expected error %v, got %v", errOperationFailed, err)
	}

	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_DefaultAttempts(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{}
	attempts := 0

	_ = retryMechanism.Retry(func() error {
		attempts++
		return errOperationFailed
	})

	if attempts != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, attempts)
	}
}

func TestRetry_SuccessOnSubsequentAttempt(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{MaxAttempts: 3}
	var attempts int

	err := retryMechanism.Retry(func() error {
		attempts++
		if attempts == 2 {
			return nil
		}
		return errTryAgain
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	retryMechanism := &RetryMechanismImpl{
		MaxAttempts: 5,
		IsRetryable: func(err error) bool { return !errors.Is(err, errFatal) },
	}
	attempts := 0

	err := retryMechanism.Retry(func() error {
		attempts++
		return errFatal
	})

	if !errors.Is(err, errFatal) {
		t.Fatalf("expected error %v, got %v", errFatal, err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
