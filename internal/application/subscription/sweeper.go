package subscription

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper ejecuta EvaluateStates al arrancar y luego cada Interval hasta que ctx termine.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper construye el barrido. Un intervalo no positivo usa una hora.
func NewSweeper(svc *Service, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Run bloquea hasta que ctx se cancele.
func (w *Sweeper) Run(ctx context.Context) {
	w.sweep(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("barrido de suscripciones detenido")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	changed, err := w.svc.EvaluateStates(ctx)
	ev := w.log.Info()
	if err != nil {
		ev = w.log.Error().Err(err)
	}
	ev.Int("changed", len(changed)).Dur("took", time.Since(start)).Msg("barrido de suscripciones")
}
