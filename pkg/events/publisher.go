package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitabwire/frame/queue"
	"github.com/rs/xid"
)

const defaultSubscriberBuffer = 64

type subscriber struct {
	ch    chan Envelope
	types map[EventType]bool // empty means every type
}

func (s *subscriber) wants(et EventType) bool {
	return len(s.types) == 0 || s.types[et]
}

// Publisher sends speech and key events to the frame queue and to local
// subscribers. With a nil queue manager only local subscribers see events.
type Publisher struct {
	queueMgr queue.Manager
	source   string
	queueRef string

	mu      sync.RWMutex
	subs    map[string]*subscriber
	dropped atomic.Int64
}

// NewPublisher creates a publisher for queueRef. source is stamped on every
// envelope.
func NewPublisher(queueMgr queue.Manager, source string, queueRef string) *Publisher {
	return &Publisher{
		queueMgr: queueMgr,
		source:   source,
		queueRef: queueRef,
		subs:     make(map[string]*subscriber),
	}
}

// Emit wraps data in an envelope, hands it to local subscribers without
// blocking and publishes it on the queue.
func (p *Publisher) Emit(ctx context.Context, eventType EventType, requestID string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		ID:        xid.New().String(),
		Type:      eventType,
		Source:    p.source,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}

	p.fanOut(ctx, env)

	if p.queueMgr == nil {
		return nil
	}
	if err := p.queueMgr.Publish(ctx, p.queueRef, env); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *Publisher) fanOut(ctx context.Context, env Envelope) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, s := range p.subs {
		if !s.wants(env.Type) {
			continue
		}
		select {
		case s.ch <- env:
		default:
			p.dropped.Add(1)
			slog.WarnContext(ctx, "event dropped, subscriber buffer full",
				slog.String("subscriber", id), slog.String("event_type", string(env.Type)))
		}
	}
}

// Subscribe registers a local subscriber under id. Only the listed types are
// delivered; no types means all. Resubscribing with an existing id replaces
// (and closes) the previous channel. Call Unsubscribe when done.
func (p *Publisher) Subscribe(id string, bufSize int, types ...EventType) <-chan Envelope {
	if bufSize <= 0 {
		bufSize = defaultSubscriberBuffer
	}
	s := &subscriber{ch: make(chan Envelope, bufSize)}
	if len(types) > 0 {
		s.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}

	p.mu.Lock()
	if old, ok := p.subs[id]; ok {
		close(old.ch)
	}
	p.subs[id] = s
	p.mu.Unlock()
	return s.ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (p *Publisher) Unsubscribe(id string) {
	p.mu.Lock()
	if s, ok := p.subs[id]; ok {
		close(s.ch)
		delete(p.subs, id)
	}
	p.mu.Unlock()
}

// Dropped returns how many local deliveries were skipped because a
// subscriber was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}
