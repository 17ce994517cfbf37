// Package sideeffect ejecuta efectos secundarios best-effort (notificaciones, asientos,
// eventos) fuera del camino principal, con reintentos y sin deshacer al disparador.
package sideeffect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Task unidad de trabajo. Key identifica la instancia (ej: "commission:invoice:<id>") en los logs.
type Task struct {
	Name string
	Key  string
	Run  func(ctx context.Context) error
}

// Enqueuer puerto que usan los casos de uso para encolar efectos.
type Enqueuer interface {
	Enqueue(t Task)
}

// permanentError marca un fallo que no se reintenta.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent envuelve err para que el dispatcher no lo reintente.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Config parámetros del dispatcher.
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	TaskTimeout time.Duration
}

// Stats contadores acumulados.
type Stats struct {
	Succeeded int64
	Failed    int64
	Retried   int64
	Dropped   int64
}

// Dispatcher cola acotada con N workers.
type Dispatcher struct {
	cfg   Config
	log   zerolog.Logger
	queue chan Task

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	stopped chan struct{}

	succeeded, failed, retried, dropped atomic.Int64
}

// New construye el dispatcher; hay que llamar Start para lanzar los workers.
func New(cfg Config, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	return &Dispatcher{
		cfg:     cfg,
		log:     log,
		queue:   make(chan Task, cfg.QueueSize),
		stopped: make(chan struct{}),
	}
}

// Start lanza los workers. Cancelar ctx interrumpe las esperas de backoff.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for t := range d.queue {
				d.execute(ctx, t)
			}
		}()
	}
	go func() {
		d.wg.Wait()
		close(d.stopped)
	}()
	d.log.Info().Int("workers", d.cfg.Workers).Int("queue", d.cfg.QueueSize).Msg("dispatcher iniciado")
}

// Enqueue no bloquea: con la cola llena o el dispatcher detenido la tarea se descarta y se registra.
func (d *Dispatcher) Enqueue(t Task) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		d.log.Error().Str("task", t.Name).Str("key", t.Key).Msg("dispatcher detenido; efecto descartado")
		return
	}
	select {
	case d.queue <- t:
	default:
		d.dropped.Add(1)
		d.log.Error().Str("task", t.Name).Str("key", t.Key).Msg("cola de efectos llena; efecto descartado")
	}
}

// Stop deja de aceptar tareas y espera a que la cola se vacíe o a que ctx expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	select {
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats devuelve los contadores actuales.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
		Retried:   d.retried.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) execute(ctx context.Context, t Task) {
	backoff := d.cfg.BaseBackoff
	for attempt := 1; ; attempt++ {
		err := d.runOnce(ctx, t)
		if err == nil {
			d.succeeded.Add(1)
			if attempt > 1 {
				d.log.Info().Str("task", t.Name).Str("key", t.Key).Int("attempt", attempt).Msg("efecto completado tras reintento")
			}
			return
		}
		if isPermanent(err) || attempt >= d.cfg.MaxAttempts {
			d.failed.Add(1)
			d.log.Error().Err(err).Str("task", t.Name).Str("key", t.Key).Int("attempt", attempt).Msg("efecto fallido; sin más reintentos")
			return
		}
		d.retried.Add(1)
		d.log.Warn().Err(err).Str("task", t.Name).Str("key", t.Key).Int("attempt", attempt).Dur("backoff", backoff).Msg("efecto fallido; reintentando")
		select {
		case <-ctx.Done():
			d.failed.Add(1)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > d.cfg.MaxBackoff {
			backoff = d.cfg.MaxBackoff
		}
	}
}

// runOnce aísla panics de la tarea para no matar al worker.
func (d *Dispatcher) runOnce(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("task", t.Name).Msg("panic en efecto")
			err = Permanent(errors.New("panic en efecto"))
		}
	}()
	taskCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()
	return t.Run(taskCtx)
}

// Inline ejecuta las tareas en el mismo goroutine, con reintentos inmediatos.
// Lo usan los comandos CLI y los tests.
type Inline struct {
	MaxAttempts int
	Log         zerolog.Logger
	Errors      []error
}

// Enqueue ejecuta t de inmediato.
func (in *Inline) Enqueue(t Task) {
	attempts := in.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = t.Run(context.Background()); err == nil || isPermanent(err) {
			break
		}
	}
	if err != nil {
		in.Errors = append(in.Errors, err)
		in.Log.Error().Err(err).Str("task", t.Name).Str("key", t.Key).Msg("efecto fallido")
	}
}
