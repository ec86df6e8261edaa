package consumer

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"roadmon/internal/models"
)

// MockConsumer replays fixed synthetic road samples for local development
// without a broker.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.TelemetryMessage
}

// predefinedSamples builds the synthetic payloads fed by the mock. The
// second sample uses the legacy field names some gateways still send.
func predefinedSamples() []*models.TelemetryMessage {
	return []*models.TelemetryMessage{
		{
			RequestID: uuid.NewString(),
			Payload: map[string]interface{}{
				"deviceId": "mock-device-1", "latitude": 48.2082, "longitude": 16.3738,
				"accelX": 0.4, "accelY": 0.2, "accelZ": 9.8, "accelMagnitude": 1.1,
			},
		},
		{
			RequestID: uuid.NewString(),
			Payload: map[string]interface{}{
				"deviceId": "mock-device-1", "latitude": 48.2085, "longitude": 16.3741,
				"x": 2.8, "y": 1.9, "z": 10.4, "accelerometer": 6.3,
			},
		},
		{
			RequestID: uuid.NewString(),
			Payload: map[string]interface{}{
				"deviceId": "mock-device-2", "latitude": 48.1990, "longitude": 16.3610,
				"accelMagnitude": 14.7,
			},
		},
	}
}

// NewMockConsumer creates a MockConsumer and loads the predefined samples.
func NewMockConsumer(logger *log.Logger) *MockConsumer {
	samples := predefinedSamples()
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.TelemetryMessage, len(samples)+5),
	}
	logger.Println("[MockConsumer] Initializing with predefined samples...")
	for _, msg := range samples {
		mc.messages <- msg
		logger.Printf("[MockConsumer] Added predefined sample: request_id=%s", msg.RequestID)
	}
	logger.Println("[MockConsumer] Predefined samples loaded")
	return mc
}

// Enqueue adds an extra message to the mock queue.
func (m *MockConsumer) Enqueue(msg *models.TelemetryMessage) {
	m.messages <- msg
}

// Consume reads predefined messages from the channel.
func (m *MockConsumer) Consume(ctx context.Context) (msg *models.TelemetryMessage, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case msg := <-m.messages:
		if msg == nil {
			m.logger.Println("[MockConsumer] Message channel closed")
			return nil, nil, errors.New("message channel closed")
		}
		m.logger.Printf("[MockConsumer] Consumed message: request_id=%s", msg.RequestID)

		ackCallback := func(success bool) {
			if success {
				return
			}
			m.logger.Printf("[MockConsumer] NACK received for message: request_id=%s. Re-queueing (mock)", msg.RequestID)
			select {
			case m.messages <- msg:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue message (channel full?): request_id=%s", msg.RequestID)
			}
		}
		return msg, ackCallback, nil
	}
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
