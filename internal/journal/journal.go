// Package journal records command activations.
//
// A Journal is a scheduler.Observer. The control loop hands it events
// without blocking: they are queued on a buffered channel and written to a
// Store by a background goroutine in batches. When the queue is full,
// events are dropped and counted rather than stalling the loop.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/scheduler"
)

// DefaultBuffer is the queue length used when none is configured.
const DefaultBuffer = 256

// writeTimeout bounds one batch write.
const writeTimeout = 2 * time.Second

// Journal queues scheduler events and writes them to a Store.
type Journal struct {
	store Store
	log   *logging.Logger

	queue   chan Entry
	flushes chan chan struct{}
	done    chan struct{}
	dropped atomic.Int64
	written atomic.Int64

	mu       sync.Mutex
	closed   bool
	closedWg sync.WaitGroup
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger for write failures.
func WithLogger(l *logging.Logger) Option {
	return func(j *Journal) {
		if l != nil {
			j.log = l
		}
	}
}

// WithBuffer sets the queue length.
func WithBuffer(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.queue = make(chan Entry, n)
		}
	}
}

// New initializes store and starts the writer.
func New(ctx context.Context, store Store, opts ...Option) (*Journal, error) {
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	j := &Journal{
		store:   store,
		log:     logging.Discard(),
		queue:   make(chan Entry, DefaultBuffer),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}

	j.closedWg.Add(1)
	go j.writeLoop()
	return j, nil
}

// OnEvent implements scheduler.Observer. It never blocks.
func (j *Journal) OnEvent(ev scheduler.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- entryFromEvent(ev):
	default:
		j.dropped.Add(1)
	}
}

func (j *Journal) writeLoop() {
	defer j.closedWg.Done()
	defer close(j.done)

	batch := make([]Entry, 0, cap(j.queue))
	for {
		select {
		case e, ok := <-j.queue:
			if !ok {
				return
			}
			batch = j.drain(append(batch[:0], e))
			j.write(batch)

		case ack := <-j.flushes:
			batch = j.drain(batch[:0])
			j.write(batch)
			close(ack)
		}
	}
}

// drain appends whatever is queued without waiting.
func (j *Journal) drain(batch []Entry) []Entry {
	for {
		select {
		case e, ok := <-j.queue:
			if !ok {
				return batch
			}
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

func (j *Journal) write(batch []Entry) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := j.store.Append(ctx, batch...); err != nil {
		j.log.Error("journal: writing %d entries: %v", len(batch), err)
		return
	}
	j.written.Add(int64(len(batch)))
}

// Flush waits until every event queued so far has been written.
func (j *Journal) Flush(ctx context.Context) error {
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ack := make(chan struct{})
	select {
	case j.flushes <- ack:
	case <-j.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent returns the last n written entries, oldest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	return j.store.Recent(ctx, n)
}

// Activation returns the written entries of one activation.
func (j *Journal) Activation(ctx context.Context, id string) ([]Entry, error) {
	return j.store.Activation(ctx, id)
}

// Dropped returns how many events were discarded because the queue was full.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Written returns how many entries reached the store.
func (j *Journal) Written() int64 {
	return j.written.Load()
}

// Close writes what is queued, stops the writer and closes the store. It is
// safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	j.closedWg.Wait()
	return j.store.Close()
}
