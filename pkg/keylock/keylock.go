// Package keylock serializa trabajo por clave (actor, suscripción) sin un candado global:
// operaciones sobre claves distintas nunca se bloquean entre sí.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{} // buffer 1: lleno = tomado
	refs int
}

// Locker mantiene un candado por clave y libera la entrada cuando nadie la usa.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New crea un Locker vacío.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock toma el candado de key. Respeta la cancelación de ctx mientras espera.
// La función devuelta libera el candado y debe llamarse exactamente una vez.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len devuelve cuántas claves tienen candado activo o en espera.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
