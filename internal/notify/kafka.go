package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier hands one message per channel to the seller-notification
// topic; downstream senders deliver them.
type KafkaNotifier struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaNotifier(topic string, writeTimeout time.Duration, logger *zap.Logger, brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w, logger: logger}
}

func (k *KafkaNotifier) Notify(ctx context.Context, order OrderContext) (Result, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return Result{}, fmt.Errorf("marshal notification: %w", err)
	}

	errEmail := k.publish(ctx, ChannelEmail, order.Reference, payload)
	errWhatsApp := k.publish(ctx, ChannelWhatsApp, order.Reference, payload)

	result := Result{EmailSent: errEmail == nil, WhatsAppSent: errWhatsApp == nil}
	if !result.Delivered() {
		return result, errors.Join(errEmail, errWhatsApp)
	}
	if errEmail != nil || errWhatsApp != nil {
		k.logger.Warn("seller notification partially delivered",
			zap.String("order_ref", order.Reference),
			zap.Bool("email_sent", result.EmailSent),
			zap.Bool("whatsapp_sent", result.WhatsAppSent))
	}
	return result, nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func (k *KafkaNotifier) publish(ctx context.Context, channel, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(channel)},
			{Key: "event_type", Value: []byte("order_placed")},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s notification: %w", channel, err)
	}
	return nil
}
