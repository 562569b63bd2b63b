package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dori/simplr/internal/model"
)

// TaskWriter is the persistence side used by Writer
type TaskWriter interface {
	UpsertTasks(ctx context.Context, tasks []model.Task) error
	DeleteTasks(ctx context.Context, ids []string) error
}

type writeOp struct {
	save    []model.Task
	delete  []string
	barrier chan struct{}
}

// Writer applies task writes on a single background goroutine so mutations
// never block on disk I/O. Writes are applied in submission order.
type Writer struct {
	repo    TaskWriter
	log     *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan writeOp
	done   chan struct{}
}

// NewWriter starts a writer with the given queue size
func NewWriter(repo TaskWriter, queueSize int, log *slog.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &Writer{
		repo:    repo,
		log:     log,
		timeout: 10 * time.Second,
		queue:   make(chan writeOp, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// SaveTasks queues an upsert of the given tasks
func (w *Writer) SaveTasks(tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	cp := make([]model.Task, len(tasks))
	for i, t := range tasks {
		cp[i] = t.Clone()
	}
	w.enqueue(writeOp{save: cp})
}

// DeleteTasks queues a delete of the given task ids
func (w *Writer) DeleteTasks(ids []string) {
	if len(ids) == 0 {
		return
	}
	cp := make([]string, len(ids))
	copy(cp, ids)
	w.enqueue(writeOp{delete: cp})
}

// Flush waits until every write queued before the call has been applied
func (w *Writer) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !w.enqueue(writeOp{barrier: barrier}) {
		return nil
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
}

func (w *Writer) enqueue(op writeOp) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn("write dropped after close", "saves", len(op.save), "deletes", len(op.delete))
		return false
	}
	w.queue <- op
	return true
}

func (w *Writer) run() {
	defer close(w.done)
	for op := range w.queue {
		if op.barrier != nil {
			close(op.barrier)
			continue
		}
		w.apply(op)
	}
}

func (w *Writer) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if len(op.save) > 0 {
		if err := w.repo.UpsertTasks(ctx, op.save); err != nil {
			w.log.Error("persist tasks failed", "count", len(op.save), "error", err)
		}
	}
	if len(op.delete) > 0 {
		if err := w.repo.DeleteTasks(ctx, op.delete); err != nil {
			w.log.Error("delete tasks failed", "count", len(op.delete), "error", err)
		}
	}
}
