package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_NoBrokers(t *testing.T) {
	assert.Nil(t, NewProducer(nil))
	assert.Nil(t, NewProducer([]string{}))
}

func TestNilProducer_IsNoOp(t *testing.T) {
	var p *Producer

	require.NoError(t, p.Publish(context.Background(), TopicOrders, "k", map[string]any{"type": "order_created"}))
	require.NoError(t, p.Close())
}

func TestPublish_RejectsUnmarshalableEvent(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	t.Cleanup(func() { _ = p.Close() })

	err := p.Publish(context.Background(), TopicOrders, "k", make(chan int))
	require.Error(t, err)
}
