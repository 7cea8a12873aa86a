package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

func TestActorRunner_CancelacionEsperandoCandadoEsUnavailable(t *testing.T) {
	r := memory.NewActorRunner(memory.NewTokenRepo())
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	var inner error
	err := r.RunForActor(context.Background(), "actor-1", func(repository.AccessTokenRepository) error {
		inner = r.RunForActor(cancelled, "actor-1", func(repository.AccessTokenRepository) error {
			t.Fatal("no debe ejecutarse sin el candado")
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, domain.ErrUnavailable)
	assert.ErrorIs(t, inner, context.Canceled)
}

func TestSubscriptionRunner_CancelacionEsperandoCandadoEsUnavailable(t *testing.T) {
	r := memory.NewSubscriptionRunner(memory.NewSubscriptionRepo(), memory.NewTransitionRepo())
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	noop := func(repository.SubscriptionRepository, repository.TransitionRepository) error { return nil }
	var inner error
	err := r.RunForSubscription(context.Background(), "sub-1", func(repository.SubscriptionRepository, repository.TransitionRepository) error {
		inner = r.RunForSubscription(cancelled, "sub-1", noop)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, domain.ErrUnavailable)
	assert.ErrorIs(t, inner, context.Canceled)

	assert.NoError(t, r.RunForSubscription(context.Background(), "sub-1", noop), "el candado queda libre")
}
