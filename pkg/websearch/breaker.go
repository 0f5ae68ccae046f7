package websearch

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker wraps a Searcher in a circuit breaker so a failing backend is
// skipped quickly once it has tripped.
type Breaker struct {
	searcher Searcher
	cb       *gobreaker.CircuitBreaker
}

// NewBreaker trips after at least 3 requests with a failure ratio of 60% or
// more and probes again after 30 seconds.
func NewBreaker(s Searcher, name string, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        "websearch-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Search circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{searcher: s, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Search(ctx context.Context, query string) ([]Hit, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.searcher.Search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Hit), nil
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
