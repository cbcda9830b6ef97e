package service

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// ModelClient issues a single-turn prompt to a hosted language model and
// returns the raw text of the reply. Implementations either return a
// non-empty response or a kind-tagged error, never an empty result.
type ModelClient interface {
	Query(ctx context.Context, prompt string) (string, error)
	Model() string
}

// sleep is stubbed out in tests so retry paths run instantly.
var sleep = time.Sleep

const maxBackoff = 30 * time.Second

// backoffDelay computes the exponential backoff delay for a retry attempt
// (attempt >= 1), with jitter so concurrent requests do not retry in
// lockstep.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if delay > maxBackoff {
		delay = maxBackoff
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay - delay/8 + jitter
}
