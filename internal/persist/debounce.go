// Package persist batches rapidly changing values into occasional writes to
// a durable key-value store.
package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/clock"
)

// DefaultWindow is the quiet window used when none is configured.
const DefaultWindow = 500 * time.Millisecond

// Store is the durable key-value store the Debouncer writes to.
type Store[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, value V) error
}

type options struct {
	log          *zap.Logger
	flushOnClose bool
	timeout      time.Duration
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithFlushOnClose controls whether Close writes pending values (the
// default) or drops them.
func WithFlushOnClose(flush bool) Option {
	return func(o *options) { o.flushOnClose = flush }
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Debouncer writes the latest value for a key once no newer value has
// arrived for a full quiet window. Each key has at most one pending entry.
// A failed write is logged and dropped; the next Update for that key
// schedules a fresh write. A Debouncer is not safe for concurrent use.
type Debouncer[K comparable, V any] struct {
	clk     clock.Clock
	store   Store[K, V]
	window  time.Duration
	opts    options
	pending map[K]*entry[V]
	closed  bool
}

type entry[V any] struct {
	value    V
	deadline time.Time
	timer    clock.Timer
}

func New[K comparable, V any](c clock.Clock, store Store[K, V], window time.Duration, opts ...Option) *Debouncer[K, V] {
	o := options{log: zap.NewNop(), flushOnClose: true, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer[K, V]{
		clk:     c,
		store:   store,
		window:  window,
		opts:    o,
		pending: make(map[K]*entry[V]),
	}
}

func (d *Debouncer[K, V]) Window() time.Duration { return d.window }

// Update replaces the pending value for key and restarts its quiet window.
// Updates after Close are dropped.
func (d *Debouncer[K, V]) Update(key K, value V) {
	if d.closed {
		return
	}
	if old, ok := d.pending[key]; ok {
		old.timer.Stop()
	}
	e := &entry[V]{value: value, deadline: d.clk.Now().Add(d.window)}
	e.timer = d.clk.AfterFunc(d.window, func() { d.commit(key, e) })
	d.pending[key] = e
}

// Cancel discards the pending value for key without writing it.
func (d *Debouncer[K, V]) Cancel(key K) bool {
	e, ok := d.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending returns the value waiting to be written for key.
func (d *Debouncer[K, V]) Pending(key K) (V, bool) {
	e, ok := d.pending[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Deadline returns when the pending value for key will be written.
func (d *Debouncer[K, V]) Deadline(key K) (time.Time, bool) {
	e, ok := d.pending[key]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

func (d *Debouncer[K, V]) PendingCount() int {
	return len(d.pending)
}

// Load returns the pending value for key if there is one, otherwise the
// stored value.
func (d *Debouncer[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	if v, ok := d.Pending(key); ok {
		return v, true, nil
	}
	v, ok, err := d.store.Get(ctx, key)
	if err != nil {
		return v, false, fmt.Errorf("load %v: %w", key, err)
	}
	return v, ok, nil
}

// Flush writes every pending value now.
func (d *Debouncer[K, V]) Flush() {
	for key, e := range d.pending {
		e.timer.Stop()
		d.commit(key, e)
	}
}

// Close stops accepting updates and either flushes or drops what is
// pending. Closing twice does nothing.
func (d *Debouncer[K, V]) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.opts.flushOnClose {
		d.Flush()
		return
	}
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
		d.opts.log.Debug("dropped pending write on close", zap.Any("key", key))
	}
}

func (d *Debouncer[K, V]) commit(key K, e *entry[V]) {
	// A superseded or cancelled entry may still be queued on the executor.
	if d.pending[key] != e {
		return
	}
	delete(d.pending, key)

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.timeout)
	defer cancel()
	if err := d.store.Set(ctx, key, e.value); err != nil {
		d.opts.log.Warn("persist write failed", zap.Any("key", key), zap.Error(err))
		return
	}
	d.opts.log.Debug("persisted", zap.Any("key", key))
}
