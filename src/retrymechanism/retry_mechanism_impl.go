package retrymechanism

const DefaultMaxAttempts = 2

// RetryMechanismImpl repeats an operation until it succeeds, the attempts run out or
// IsRetryable rejects the error. A nil IsRetryable retries every error.
type RetryMechanismImpl struct {
	MaxAttempts int
	IsRetryable func(err error) bool
}

// Ensure RetryMechanismImpl implements RetryMechanism
var _ RetryMechanism = (*RetryMechanismImpl)(nil)

func (r *RetryMechanismImpl) Retry(operation func() error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var err error
	for i := 0; i < maxAttempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if r.IsRetryable != nil && !r.IsRetryable(err) {
			return err
		}
	}
	return err
}
