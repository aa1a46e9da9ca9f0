package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	kind       string
	durable    bool
	keys       []string
	published  []amqp.Publishing
	publishErr error
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name)
	c.kind = kind
	c.durable = durable
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitPublisherDeclaresDurableTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := newRabbitPublisher(ch, "ecoride.events", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"ecoride.events"}, ch.declared)
	assert.Equal(t, "topic", ch.kind)
	assert.True(t, ch.durable)
}

func TestRabbitPublisherWrapsPayloadInEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newRabbitPublisher(ch, "ecoride.events", zaptest.NewLogger(t))
	require.NoError(t, err)

	err = p.Publish(context.Background(), BookingCreated, map[string]any{"booking_id": 42})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	assert.Equal(t, BookingCreated, ch.keys[0])

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var env struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, msg.MessageId, env.ID)
	assert.Equal(t, BookingCreated, env.Type)
	assert.EqualValues(t, 42, env.Data["booking_id"])
}

func TestRabbitPublisherReturnsPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newRabbitPublisher(ch, "ecoride.events", zaptest.NewLogger(t))
	require.NoError(t, err)

	err = p.Publish(context.Background(), TripStarted, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TripStarted)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNopPublisherAcceptsEverything(t *testing.T) {
	p := NewNopPublisher(zaptest.NewLogger(t))
	assert.NoError(t, p.Publish(context.Background(), RatingCreated, struct{}{}))
	assert.NoError(t, p.Close())
}
