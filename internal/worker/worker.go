// Package worker runs background maintenance for the task store.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Flusher is satisfied by *store.Store.
type Flusher interface {
	Dirty() bool
	Flush(ctx context.Context) error
}

type FlushConfig struct {
	Interval     time.Duration
	MaxBackoff   time.Duration
	FlushTimeout time.Duration
}

func DefaultFlushConfig() FlushConfig {
	return FlushConfig{
		Interval:     30 * time.Second,
		MaxBackoff:   10 * time.Minute,
		FlushTimeout: 10 * time.Second,
	}
}

// FlushWorker retries writing the collection while the store holds changes
// that never reached storage. Failed attempts back off exponentially.
type FlushWorker struct {
	store  Flusher
	config FlushConfig
	log    logrus.FieldLogger

	mu       sync.Mutex
	attempts int
	nextTry  time.Time
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFlushWorker(store Flusher, config FlushConfig, log logrus.FieldLogger) *FlushWorker {
	defaults := DefaultFlushConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = defaults.FlushTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FlushWorker{
		store:  store,
		config: config,
		log:    log,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *FlushWorker) Start() {
	w.log.WithField("interval", w.config.Interval).Info("starting flush worker")

	w.wg.Add(1)
	go w.loop()
}

func (w *FlushWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.log.Info("flush worker stopped")
}

func (w *FlushWorker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Tick makes one flush attempt if the store is dirty and the backoff has
// elapsed. It reports whether an attempt was made.
func (w *FlushWorker) Tick() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.store.Dirty() {
		w.attempts = 0
		return false
	}
	if w.now().Before(w.nextTry) {
		return false
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.config.FlushTimeout)
	defer cancel()

	if err := w.store.Flush(ctx); err != nil {
		w.attempts++
		delay := w.backoff()
		w.nextTry = w.now().Add(delay)
		w.log.WithError(err).WithFields(logrus.Fields{
			"attempts": w.attempts,
			"retry_in": delay,
		}).Warn("background flush failed")
		return true
	}

	w.log.WithField("attempts", w.attempts+1).Info("unsaved task changes written")
	w.attempts = 0
	w.nextTry = time.Time{}
	return true
}

func (w *FlushWorker) backoff() time.Duration {
	delay := w.config.Interval
	for i := 1; i < w.attempts; i++ {
		delay *= 2
		if delay >= w.config.MaxBackoff {
			return w.config.MaxBackoff
		}
	}
	return delay
}
