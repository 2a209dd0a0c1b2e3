// Package publisher delivers audit events to a store. Compliance-category
// events are the legal record and always take the synchronous fail-closed
// path; operations-category events may be routed through a bounded async
// buffer so they never slow the request path.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "fecgate/pkg/domain"
	audit "fecgate/pkg/platform/audit"
)

// Forwarder receives a copy of every stored event, best-effort. The Kafka
// sink implements this.
type Forwarder interface {
	Forward(ctx context.Context, event audit.Event)
}

// Publisher writes audit events to a Store.
type Publisher struct {
	store     audit.Store
	forwarder Forwarder
	logger    *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery for operations-category
// events through a buffer of the given size. When the buffer is full the
// event is dropped and logged rather than blocking the caller.
// Compliance-category events ignore the buffer and always write
// synchronously.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets a logger for delivery failures and drops.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithForwarder tees every successfully stored event to the forwarder.
func WithForwarder(f Forwarder) Option {
	return func(p *Publisher) { p.forwarder = f }
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit delivers an event. Compliance-category events block until the store
// write succeeds or fails; operations-category events are best-effort when
// the async buffer is enabled.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Category == "" {
		event.Category = audit.CategoryOf(audit.AuditEvent(event.Action))
	}

	if p.inbox == nil || event.Category == audit.CategoryCompliance {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
		if p.forwarder != nil {
			p.forwarder.Forward(ctx, event)
		}
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"contributor_id", event.ContributorID.String(),
			)
		}
	}
	return nil
}

// List exposes the store's per-contributor listing for handlers that share
// the publisher rather than the raw store.
func (p *Publisher) List(ctx context.Context, contributorID id.ContributorID) ([]audit.Event, error) {
	return p.store.ListByContributor(ctx, contributorID)
}

// Close drains any buffered events and stops the background worker.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: request contexts are gone by the time async
		// events land.
		if err := p.store.Append(context.Background(), event); err != nil {
			if p.logger != nil {
				p.logger.Error("audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
			continue
		}
		if p.forwarder != nil {
			p.forwarder.Forward(context.Background(), event)
		}
	}
}
