package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"coalesce/internal/data/history"
	"coalesce/internal/data/queue"
)

const (
	historyQueueSize  = 64
	historyBatchSize  = 16
	historyBatchDelay = 250 * time.Millisecond
)

// historyWriter records runs off the caller's goroutine so watch callbacks
// never wait on SQLite.
type historyWriter struct {
	app   *App
	queue *queue.MemoryQueue[history.Run]
	done  chan struct{}
}

// newHistoryWriter starts a writer, or returns nil when history is disabled.
func (a *App) newHistoryWriter() *historyWriter {
	if a.history == nil {
		return nil
	}
	w := &historyWriter{
		app:   a,
		queue: queue.NewMemoryQueue[history.Run](historyQueueSize),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *historyWriter) Submit(run history.Run) {
	if w == nil {
		return
	}
	if w.queue.Enqueue(run) == queue.EnqueueDropped {
		slog.Warn("history queue full, run not recorded", "kind", run.Kind, "files", run.FileCount)
	}
}

// Close stops accepting runs and waits until queued ones are stored.
func (w *historyWriter) Close() {
	if w == nil {
		return
	}
	_ = w.queue.Close()
	<-w.done
}

func (w *historyWriter) loop() {
	defer close(w.done)
	ctx := context.Background()
	for {
		batch, err := w.queue.DequeueBatch(ctx, historyBatchSize, historyBatchDelay)
		for _, run := range batch {
			w.app.recordRun(ctx, run)
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			slog.Warn("history writer stopped", "error", err)
			return
		}
	}
}
