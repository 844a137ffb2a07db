package stats

import (
	"context"
	"sync"
	"time"

	"diamond-app-go/pkg/logger"
)

const (
	defaultQueueSize     = 64
	changeUpdateDeadline = 30 * time.Second
)

type change struct {
	userID string
	year   int
}

// Worker consumes project-change events and refreshes the stats cache in the
// background. It implements the projects package's ChangePublisher, which is
// how mutation success paths stay decoupled from the stats implementation:
// publishing never blocks, and a full queue drops the event (the cache was
// already invalidated, so the next read recomputes anyway).
type Worker struct {
	svc  *Service
	ch   chan change
	done chan struct{}
	log  logger.Logger

	mu      sync.Mutex
	stopped bool
}

func NewWorker(svc *Service, queueSize int, log logger.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Worker{
		svc:  svc,
		ch:   make(chan change, queueSize),
		done: make(chan struct{}),
		log:  log,
	}
}

func (w *Worker) Start() {
	go w.run()
}

// Stop drains pending events and waits for the loop to exit. Idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.ch)
	w.mu.Unlock()
	<-w.done
}

// ProjectChanged enqueues a refresh for (userID, year). Non-blocking by
// contract: the primary mutation has already succeeded by the time this runs.
// Publishing after Stop drops the event instead of sending on a closed
// channel; the next dashboard read recomputes anyway.
func (w *Worker) ProjectChanged(userID string, year int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		w.log.Warn("stats worker: stopped, dropping change event", "user_id", userID, "year", year)
		return
	}
	select {
	case w.ch <- change{userID: userID, year: year}:
	default:
		w.log.Warn("stats worker: queue full, dropping change event", "user_id", userID, "year", year)
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for c := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), changeUpdateDeadline)
		w.svc.UpdateCacheAfterProjectChange(ctx, c.userID, c.year)
		cancel()
	}
}
