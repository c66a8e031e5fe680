package gamepad

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	minBackoff = 250 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// ReaderOptions tune a Reader.
type ReaderOptions struct {
	// Reconnect redials after transport errors instead of returning them.
	Reconnect bool
	Logger    *slog.Logger
}

// Reader pulls snapshot lists from a Transport and publishes them to a Store.
type Reader struct {
	dial      DialFunc
	store     *Store
	reconnect bool
	logger    *slog.Logger
	changes   chan *Batch

	updates      atomic.Uint64
	decodeErrors atomic.Uint64
}

func NewReader(store *Store, dial DialFunc, opts ReaderOptions) *Reader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		dial:      dial,
		store:     store,
		reconnect: opts.Reconnect,
		logger:    logger.With("component", "reader"),
		changes:   make(chan *Batch, 1),
	}
}

// Changes delivers published batches. Only the latest unread batch is kept.
func (r *Reader) Changes() <-chan *Batch {
	return r.changes
}

// Stats returns the number of published updates and of rejected messages.
func (r *Reader) Stats() (updates, decodeErrors uint64) {
	return r.updates.Load(), r.decodeErrors.Load()
}

// Run connects and exchanges messages until ctx is done or, without
// Reconnect, until the first transport error. The store is left untouched by
// any failure.
func (r *Reader) Run(ctx context.Context) error {
	backoff := minBackoff

	for {
		t, err := r.dial(ctx)
		if err == nil {
			r.logger.Info("Connected")
			var progressed bool
			progressed, err = r.serve(ctx, t)
			t.Close()
			if progressed {
				backoff = minBackoff
			}
		} else {
			err = fmt.Errorf("connect: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.reconnect {
			return err
		}

		r.logger.Warn("Connection lost, retrying", "error", err, "in", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (r *Reader) serve(ctx context.Context, t Transport) (progressed bool, err error) {
	stop := context.AfterFunc(ctx, func() { t.Close() })
	defer stop()

	for {
		msg, err := t.Exchange()
		if err != nil {
			return progressed, err
		}
		progressed = true

		snaps, err := Decode(msg)
		if err != nil {
			r.decodeErrors.Add(1)
			r.logger.Warn("Failed to decode update", "error", err, "bytes", len(msg))
			continue
		}

		b := r.store.Publish(snaps)
		r.updates.Add(1)
		r.logger.Debug("Update", "seq", b.Seq, "controllers", len(snaps))
		r.emit(b)
	}
}

// emit never blocks the network loop: a stale unread batch is replaced.
func (r *Reader) emit(b *Batch) {
	select {
	case r.changes <- b:
		return
	default:
	}
	select {
	case <-r.changes:
	default:
	}
	select {
	case r.changes <- b:
	default:
	}
}
