package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sender delivers one notification over a single channel.
type Sender interface {
	Send(ctx context.Context, channel string, order OrderContext) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Dispatcher consumes the seller-notification topic and hands each message to
// the Sender for its channel.
type Dispatcher struct {
	reader  messageReader
	senders map[string]Sender
	logger  *zap.Logger
}

func NewDispatcher(topic, groupID string, senders map[string]Sender, logger *zap.Logger, brokers ...string) *Dispatcher {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Dispatcher{reader: reader, senders: senders, logger: logger}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := d.dispatchNext(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn("notification dispatch failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) Close() {
	if err := d.reader.Close(); err != nil {
		d.logger.Warn("error closing notification reader", zap.Error(err))
	}
}

func (d *Dispatcher) dispatchNext(ctx context.Context) error {
	m, err := d.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}

	var order OrderContext
	if err := json.Unmarshal(m.Value, &order); err != nil {
		return fmt.Errorf("parse message at offset %d: %w", m.Offset, err)
	}

	channel := channelOf(m)
	sender, ok := d.senders[channel]
	if !ok {
		return fmt.Errorf("no sender for channel %q", channel)
	}
	if err := sender.Send(ctx, channel, order); err != nil {
		return fmt.Errorf("send %s for %s: %w", channel, order.Reference, err)
	}
	return nil
}

func channelOf(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "channel" {
			return string(h.Value)
		}
	}
	return ""
}

// LogSender records deliveries in the log instead of contacting the seller.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, channel string, order OrderContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if order.Reference == "" {
		return errors.New("notification has no order reference")
	}
	s.logger.Info("seller notification delivered",
		zap.String("channel", channel),
		zap.String("order_ref", order.Reference),
		zap.String("customer_name", order.CustomerName))
	return nil
}
