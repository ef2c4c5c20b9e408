package clipboard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/echosync/internal/logging"
)

// DefaultQueueSize bounds the pending clipboard writes.
const DefaultQueueSize = 32

// TextWriter is the write half of a Bridge.
type TextWriter interface {
	Write(ctx context.Context, text string) error
}

// Writer applies clipboard writes in order on one background goroutine so
// callers never block on the OS clipboard.
type Writer struct {
	target    TextWriter
	queue     chan string
	log       logging.Logger
	onError   func(error)
	accepting atomic.Bool
	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

// NewWriter starts the worker. onError, if non-nil, receives every failed
// write (typically common.ErrPlatform).
func NewWriter(target TextWriter, queueSize int, log logging.Logger, onError func(error)) *Writer {
	if queueSize < 1 {
		queueSize = 1
	}
	w := &Writer{
		target:  target,
		queue:   make(chan string, queueSize),
		log:     log.With(logging.KeyComponent, "clipboard-writer"),
		onError: onError,
		done:    make(chan struct{}),
	}
	w.accepting.Store(true)
	go w.run()
	return w
}

// Enqueue schedules a write. It returns false when the writer is stopped or
// the queue is full; the write is dropped in both cases.
func (w *Writer) Enqueue(text string) bool {
	if !w.accepting.Load() {
		return false
	}

	w.wg.Add(1)
	select {
	case w.queue <- text:
		return true
	default:
		w.wg.Done()
		w.log.Warn(context.Background(), "clipboard write queue full, dropping write")
		return false
	}
}

// Drain stops accepting writes and waits for queued ones, bounded by ctx.
func (w *Writer) Drain(ctx context.Context) {
	w.accepting.Store(false)

	flushed := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
	case <-ctx.Done():
		w.log.Warn(ctx, "clipboard writer drain timed out")
	}

	w.closeOnce.Do(func() { close(w.done) })
}

func (w *Writer) run() {
	for {
		select {
		case text := <-w.queue:
			w.apply(text)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) apply(text string) {
	defer w.wg.Done()

	ctx := context.Background()
	if err := w.target.Write(ctx, text); err != nil {
		w.log.Warn(ctx, "clipboard write failed", logging.KeyError, err)
		if w.onError != nil {
			w.onError(err)
		}
	}
}
