package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var errNotDelivered = errors.New("no notification channel delivered")

// Breaker stops calling a failing notifier for a while so checkouts fail fast
// instead of waiting on a dead transport.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[Result]
}

func NewBreaker(next Notifier, consecutiveFailures uint32, openFor time.Duration, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        "seller-notifier",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[Result](settings)}
}

func (b *Breaker) Notify(ctx context.Context, order OrderContext) (Result, error) {
	var partial Result
	res, err := b.cb.Execute(func() (Result, error) {
		r, err := b.next.Notify(ctx, order)
		if err != nil {
			return r, err
		}
		if !r.Delivered() {
			partial = r
			return r, errNotDelivered
		}
		return r, nil
	})
	if errors.Is(err, errNotDelivered) {
		// a negative answer is a result, not a transport error
		return partial, nil
	}
	return res, err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
