package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return kafka.Message{}, m.err
	}
	if len(m.messages) == 0 {
		m.mu.Unlock()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	m.mu.Unlock()
	return msg, nil
}

func (m *mockReader) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *mockReader) Close() error {
	m.closed = true
	return nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(_ context.Context, channel string, order OrderContext) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, channel+":"+order.Reference)
	return nil
}

func message(t *testing.T, channel string, order OrderContext) kafka.Message {
	t.Helper()
	value, err := json.Marshal(order)
	require.NoError(t, err)
	return kafka.Message{
		Key:     []byte(order.Reference),
		Value:   value,
		Headers: []kafka.Header{{Key: "channel", Value: []byte(channel)}},
	}
}

func TestDispatcher_RoutesByChannel(t *testing.T) {
	email, whatsapp := &recordingSender{}, &recordingSender{}
	reader := &mockReader{messages: []kafka.Message{
		message(t, ChannelEmail, sampleOrder()),
		message(t, ChannelWhatsApp, sampleOrder()),
	}}
	d := &Dispatcher{
		reader:  reader,
		senders: map[string]Sender{ChannelEmail: email, ChannelWhatsApp: whatsapp},
		logger:  zap.NewNop(),
	}

	require.NoError(t, d.dispatchNext(context.Background()))
	require.NoError(t, d.dispatchNext(context.Background()))

	assert.Equal(t, []string{"email:ORD-1700000000000"}, email.sent)
	assert.Equal(t, []string{"whatsapp:ORD-1700000000000"}, whatsapp.sent)
}

func TestDispatcher_Errors(t *testing.T) {
	boom := errors.New("smtp down")
	tests := []struct {
		name    string
		msg     kafka.Message
		sender  Sender
		readErr error
	}{
		{"read failure", kafka.Message{}, &recordingSender{}, errors.New("broker gone")},
		{"malformed payload", kafka.Message{Value: []byte("{"), Headers: []kafka.Header{{Key: "channel", Value: []byte(ChannelEmail)}}}, &recordingSender{}, nil},
		{"unknown channel", message(t, "sms", sampleOrder()), &recordingSender{}, nil},
		{"sender failure", message(t, ChannelEmail, sampleOrder()), &recordingSender{err: boom}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dispatcher{
				reader:  &mockReader{messages: []kafka.Message{tt.msg}, err: tt.readErr},
				senders: map[string]Sender{ChannelEmail: tt.sender},
				logger:  zap.NewNop(),
			}
			assert.Error(t, d.dispatchNext(context.Background()))
		})
	}
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	sender := &recordingSender{}
	reader := &mockReader{messages: []kafka.Message{message(t, ChannelEmail, sampleOrder())}}
	d := &Dispatcher{reader: reader, senders: map[string]Sender{ChannelEmail: sender}, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reader.pending() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
	d.Close()

	assert.Equal(t, []string{"email:ORD-1700000000000"}, sender.sent)
	assert.True(t, reader.closed)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	assert.NoError(t, s.Send(context.Background(), ChannelEmail, sampleOrder()))
	assert.Error(t, s.Send(context.Background(), ChannelEmail, OrderContext{}))
}
