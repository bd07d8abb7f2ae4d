package redis_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/events"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func getRedisClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := infraredis.NewClient(context.Background(), config.RedisConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestEventForwarder_PublicaYGuardaSecuencia(t *testing.T) {
	client := getRedisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := "ledger:test:" + time.Now().Format("150405.000000")
	listener := client.Subscribe(ctx, channel)
	defer listener.Close()
	_, err := listener.Receive(ctx)
	require.NoError(t, err)

	broker := events.NewBroker(nil)
	fwd := infraredis.NewEventForwarder(client, channel, nil)
	done := make(chan struct{})
	go func() {
		fwd.Run(ctx, broker.Subscribe(8))
		close(done)
	}()
	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	broker.Publish(entity.Event{
		ID:       "evt-1",
		Sequence: 7,
		Name:     entity.EventUserAuthorized,
		Payload:  entity.UserAuthorized{User: "0xffcf8fdee72ac11b5c542428b35eef5769c409f0", Authorizer: "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"},
	})

	msg, err := listener.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "UserAuthorized", got["event"])
	assert.Equal(t, float64(7), got["sequence"])

	seq, err := client.Get(ctx, fwd.SequenceKey()).Int()
	require.NoError(t, err)
	assert.Equal(t, 7, seq)
	client.Del(ctx, fwd.SequenceKey())

	broker.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run debe terminar al cerrarse el broker")
	}
}
