// internal/handlers/gateway_test.go
package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// drain pops every queued message off a client's OutChan.
func drain(c *client) []map[string]interface{} {
	var msgs []map[string]interface{}
	for {
		select {
		case m := <-c.OutChan:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	logger := testLogger()
	g := NewGateway(logger)

	a1 := newClient(uuid.New(), "a1", logger)
	a2 := newClient(uuid.New(), "a2", logger)
	b1 := newClient(uuid.New(), "b1", logger)
	g.Subscribe("1111", a1)
	g.Subscribe("1111", a2)
	g.Subscribe("2222", b1)

	g.BroadcastNotice("1111", "hello room A")

	require.Len(t, drain(a1), 1)
	require.Len(t, drain(a2), 1)
	assert.Empty(t, drain(b1), "other rooms must not see the broadcast")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	logger := testLogger()
	g := NewGateway(logger)

	c := newClient(uuid.New(), "c", logger)
	g.Subscribe("1111", c)
	g.Unsubscribe("1111", c.ConnID)

	g.BroadcastNotice("1111", "gone already")
	assert.Empty(t, drain(c))

	g.Unsubscribe("1111", c.ConnID) // repeated unsubscribe is a no-op
	g.Unsubscribe("9999", c.ConnID) // unknown room too
}

func TestWriteDropsWhenQueueIsFull(t *testing.T) {
	logger := testLogger()
	c := newClient(uuid.New(), "c", logger)

	for i := 0; i < cap(c.OutChan)+5; i++ {
		c.Write(map[string]interface{}{"type": "server-message"})
	}
	assert.Len(t, drain(c), cap(c.OutChan), "overflow must drop, never block")
}
