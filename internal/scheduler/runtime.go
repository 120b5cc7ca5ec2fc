package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runtime owns the recurring jobs and their lifecycle; no business logic
// lives here. It registers the dispatch poll on a fixed interval, the daily
// regeneration at local midnight, and a one-shot startup catch-up fired a
// few seconds after boot so it does not race storage initialization.
type Runtime struct {
	dispatcher *Dispatcher
	regen      *Regenerator
	loc        *time.Location
	interval   time.Duration
	startDelay time.Duration
	log        zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopCh  chan struct{}
	jobCtx  context.Context
	wg      sync.WaitGroup
	started bool
}

func NewRuntime(dispatcher *Dispatcher, regen *Regenerator, loc *time.Location, interval, startDelay time.Duration, log zerolog.Logger) *Runtime {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runtime{
		dispatcher: dispatcher,
		regen:      regen,
		loc:        loc,
		interval:   interval,
		startDelay: startDelay,
		log:        log.With().Str("component", "runtime").Logger(),
	}
}

// Start registers the jobs and begins scheduling. ctx is passed to job
// invocations; cancelling it aborts in-flight store and delivery calls, but
// the normal shutdown path is Stop, which lets the running cycle finish.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("scheduler runtime already started")
	}

	r.jobCtx = ctx
	r.stopCh = make(chan struct{})
	r.cron = cron.New(cron.WithLocation(r.loc))

	if _, err := r.cron.AddFunc(cronEvery(r.interval), func() {
		r.runJob("dispatch", func(ctx context.Context) error {
			_, err := r.dispatcher.RunCycle(ctx)
			return err
		})
	}); err != nil {
		return err
	}

	// Midnight in the runtime's location: materialize the next day.
	if _, err := r.cron.AddFunc("0 0 * * *", func() {
		r.runJob("daily regeneration", func(ctx context.Context) error {
			_, err := r.regen.Run(ctx)
			return err
		})
	}); err != nil {
		return err
	}

	r.cron.Start()

	// Startup catch-up covers a process that was down across midnight.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-r.stopCh:
			return
		case <-r.jobCtx.Done():
			return
		case <-time.After(r.startDelay):
		}
		r.runJob("startup catch-up", func(ctx context.Context) error {
			_, err := r.regen.Run(ctx)
			return err
		})
	}()

	r.started = true
	r.log.Info().
		Str("tz", r.loc.String()).
		Dur("dispatch_interval", r.interval).
		Dur("startup_delay", r.startDelay).
		Msg("scheduler runtime started")
	return nil
}

// Stop cancels the job registrations and blocks until in-flight work has
// finished committing.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	close(r.stopCh)
	<-r.cron.Stop().Done()
	r.wg.Wait()
	r.cron = nil
	r.started = false
	r.log.Info().Msg("scheduler runtime stopped")
}

// runJob isolates one invocation: a panic or error is logged and never
// terminates the runtime.
func (r *Runtime) runJob(name string, job func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("job", name).Msg("job panicked")
		}
	}()
	if err := job(r.jobCtx); err != nil {
		r.log.Error().Err(err).Str("job", name).Msg("job invocation failed")
	}
}

func cronEvery(d time.Duration) string {
	return "@every " + d.String()
}
