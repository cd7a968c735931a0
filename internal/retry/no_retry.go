package retry

import "context"

// NoRetryStrategy runs operations exactly once
type NoRetryStrategy struct{}

// NewNoRetryStrategy creates a new NoRetryStrategy
func NewNoRetryStrategy() *NoRetryStrategy {
	return &NoRetryStrategy{}
}

// Execute runs op once
func (s *NoRetryStrategy) Execute(ctx context.Context, name string, op Operation) error {
	return op(ctx)
}

// Name returns the strategy name
func (s *NoRetryStrategy) Name() string {
	return "NoRetry"
}
