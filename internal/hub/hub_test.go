package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubDeliversToSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("user-1")
	defer sub.Close()

	h.Publish(Event{Type: EventOrderPending, UserID: "user-1", Payload: "order-1"})

	got := <-sub.C
	assert.Equal(t, EventOrderPending, got.Type)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "order-1", got.Payload)
	assert.False(t, got.At.IsZero(), "publish stamps the event time")
}

func TestHubIsolatesUsers(t *testing.T) {
	h := NewHub(zap.NewNop())
	mine := h.Subscribe("user-1")
	theirs := h.Subscribe("user-2")
	defer mine.Close()
	defer theirs.Close()

	h.Publish(Event{Type: EventOrderProcessing, UserID: "user-2"})

	select {
	case e := <-mine.C:
		t.Fatalf("user-1 received user-2's event: %+v", e)
	default:
	}
	assert.Equal(t, EventOrderProcessing, (<-theirs.C).Type)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("user-1")

	// never drained: fill the buffer, then one more
	for i := 0; i <= subscriberBuf; i++ {
		h.Publish(Event{Type: EventOrderPending, UserID: "user-1"})
	}

	// the overflowing publish closed the channel after draining stops
	received := 0
	for range sub.C {
		received++
	}
	assert.Equal(t, subscriberBuf, received)

	// dropped subscribers receive nothing further
	h.Publish(Event{Type: EventOrderProcessing, UserID: "user-1"})
	_, open := <-sub.C
	assert.False(t, open)
}

func TestHubCloseIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop())
	sub := h.Subscribe("user-1")

	sub.Close()
	require.NotPanics(t, sub.Close)

	h.Publish(Event{Type: EventOrderPending, UserID: "user-1"})
	_, open := <-sub.C
	assert.False(t, open)
}
