// Package publisher delivers audit events to a store, either synchronously or
// through a bounded async buffer drained by a background goroutine.
package publisher

import (
	"context"
	"sync"
	"time"

	id "tally/pkg/domain"
	audit "tally/pkg/platform/audit"
)

// Publisher emits audit events. In sync mode Emit blocks until the store
// write completes. With an async buffer, Emit enqueues and returns; a full
// buffer drops the event rather than blocking the request path.
type Publisher struct {
	store audit.Store

	inbox     chan audit.Event
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async delivery with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit delivers an event. A zero Timestamp is stamped with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full: drop. Audit delivery must not stall request handling.
	}
	return nil
}

// List returns events for a user from the underlying store.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops async delivery, draining any buffered events first. Idempotent.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		_ = p.store.Append(context.Background(), event)
	}
}
