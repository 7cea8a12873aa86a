package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/ports"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	err := n.NotifyNewLogin(context.Background(), ports.LoginEvent{
		ActorID: "user-1", Username: "cajero", TokenID: "tok-1", Device: "caja", At: time.Now(),
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user-1", line["actor_id"])
	assert.Equal(t, "tok-1", line["token_id"])
	assert.Equal(t, "nuevo inicio de sesión", line["message"])
}

func TestRedisPublisher_ErrorDeConexion(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	p := NewRedisPublisher(client, "auth:new-login")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := p.NotifyNewLogin(ctx, ports.LoginEvent{ActorID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth:new-login")
}
