package resilience

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
)

// ErrPermanent marks an error that Retry must not repeat.
var ErrPermanent = errors.New("permanent failure")

// Retry calls fn until it succeeds or the attempts are used up. Errors
// wrapping ErrPermanent or ErrCircuitOpen stop it at once. Backoff doubles per
// attempt up to MaxBackoff.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	attempts := max(cfg.Attempts, 1)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(ctx)
		if errors.Is(err, ErrPermanent) || errors.Is(err, ErrCircuitOpen) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(cfg.policy()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}

func (c RetryConfig) policy() backoff.BackOff {
	if c.BaseBackoff <= 0 {
		return &backoff.ZeroBackOff{}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.BaseBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = c.BaseBackoff
	if c.MaxBackoff > c.BaseBackoff {
		policy.MaxInterval = c.MaxBackoff
	}
	policy.Reset()
	return policy
}
