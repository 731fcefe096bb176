package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RunStopsOnContextCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("хаб не остановился по отмене контекста")
	}

	// Остановленный хаб не блокирует отправителей.
	err := hub.BroadcastToUser(uuid.New(), "proposal.created", nil)
	assert.Error(t, err)
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	userID := uuid.New()
	client := &Client{hub: hub, userID: userID, send: make(chan []byte, 1)}
	hub.Register(client)

	err := hub.BroadcastToUser(userID, "proposal.status_changed", map[string]string{"status": "accepted"})
	require.NoError(t, err)

	select {
	case raw := <-client.send:
		var payload struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "proposal.status_changed", payload.Type)
		assert.Equal(t, "accepted", payload.Data["status"])
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено клиенту")
	}

	hub.Unregister(client)
}
