package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	publisher := NewEventPublisher(&Producer{writer: w, logger: zap.NewNop()})

	order := &models.Order{
		ID:     12,
		UserID: 3,
		Total:  decimal.RequireFromString("19.98"),
		Items: []models.OrderItem{
			{ProductID: 1, Price: decimal.RequireFromString("9.99"), Quantity: 2},
		},
	}
	event := models.NewOrderPlacedEvent("evt-1", order)

	require.NoError(t, publisher.PublishOrderPlaced(context.Background(), event))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "order-12", string(w.messages[0].Key))

	var decoded models.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, models.EventTypeOrderPlaced, decoded.EventType)
	assert.Equal(t, "evt-1", decoded.EventID)
	assert.True(t, decimal.RequireFromString("19.98").Equal(decoded.Total))
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, 2, decoded.Items[0].Quantity)
}

func TestPublishEvent_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, logger: zap.NewNop()}

	err := p.PublishEvent(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorContains(t, err, "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
