// Package notify entrega los eventos de nuevo inicio de sesión: publicación en un canal Redis
// para los consumidores externos (correo, push) o solo registro en log.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Facturacion-api/internal/application/ports"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

var _ ports.LoginNotifier = (*RedisPublisher)(nil)

// RedisPublisher publica cada LoginEvent como JSON en un canal pub/sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisPublisher construye el publicador sobre un cliente existente.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// NotifyNewLogin serializa y publica el evento.
func (p *RedisPublisher) NotifyNewLogin(ctx context.Context, ev ports.LoginEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publicar en %s: %w", p.channel, err)
	}
	return nil
}
