package notify

import (
	"context"

	"go.uber.org/zap"
)

// Simulated pretends both channels delivered and logs what would be sent.
type Simulated struct {
	logger *zap.Logger
}

func NewSimulated(logger *zap.Logger) *Simulated {
	return &Simulated{logger: logger}
}

func (s *Simulated) Notify(ctx context.Context, order OrderContext) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.logger.Info("seller notified (simulated)",
		zap.String("order_ref", order.Reference),
		zap.String("customer_email", order.CustomerEmail),
		zap.String("summary", order.Summary))
	return Result{EmailSent: true, WhatsAppSent: true}, nil
}
