// Package sse streams repository change notifications to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeRefCreated         = "ref.created"
	TypeRefUpdated         = "ref.updated"
	TypeRefDeleted         = "ref.deleted"
	TypeHistoryInvalidated = "history.invalidated"
)

// Event is one message broadcast to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RefChange is the payload of ref.* events.
type RefChange struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

// Invalidation is the payload of history.invalidated events. Refs lists
// every ref that moved since the previous invalidation.
type Invalidation struct {
	Refs []string `json:"refs"`
}

// Stats is a snapshot of broker counters.
type Stats struct {
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Option configures a Broker.
type Option func(*Broker)

// WithThrottle sets the minimum spacing between history.invalidated
// events (default 2s).
func WithThrottle(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.throttle = d
		}
	}
}

// WithKeepAlive sets how often idle streams receive a comment line
// (default 15s, 0 disables).
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) {
		b.keepAlive = d
	}
}

// WithBuffer sets the per-client queue length (default 64).
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithLogger sets the broker logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = l
	}
}

// Broker fans events out to subscribers. A single event loop owns the
// client set, the event sequence and the invalidation throttle; public
// methods talk to it over channels.
//
// Invalidations are coalesced on the trailing edge: ref changes inside a
// throttle window are collected and emitted together when it closes, so
// the last change is never swallowed.
type Broker struct {
	throttle  time.Duration
	keepAlive time.Duration
	buffer    int
	logger    *slog.Logger

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	refCh         chan RefChange
	statsCh       chan chan Stats

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		throttle:      2 * time.Second,
		keepAlive:     15 * time.Second,
		buffer:        64,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		refCh:         make(chan RefChange, 256),
		statsCh:       make(chan chan Stats),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	go b.run()
	return b
}

// encode renders an event in the text/event-stream wire format.
func encode(id uint64, e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, e.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		seq     uint64
		stats   Stats
		last    time.Time // last invalidation sent
		pending []string  // refs waiting for the window to close
		timer   *time.Timer
		timerC  <-chan time.Time
	)

	broadcast := func(e Event) {
		raw, err := encode(seq+1, e)
		if err != nil {
			b.logger.Warn("sse: encode failed", slog.String("type", e.Type), slog.String("error", err.Error()))
			return
		}
		seq++
		for ch := range clients {
			select {
			case ch <- raw:
				stats.Sent++
			default:
				stats.Dropped++
			}
		}
	}

	invalidate := func(now time.Time) {
		broadcast(Event{Type: TypeHistoryInvalidated, Data: Invalidation{Refs: pending}})
		pending = nil
		last = now
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.publishCh:
			broadcast(e)

		case c := <-b.refCh:
			typ := refEventType(c.Kind)
			if typ == "" {
				continue
			}
			broadcast(Event{Type: typ, Data: c})
			pending = appendUnique(pending, c.Ref)

			now := time.Now()
			if wait := b.throttle - now.Sub(last); wait > 0 {
				if timerC == nil {
					timer = time.NewTimer(wait)
					timerC = timer.C
				}
				continue
			}
			invalidate(now)

		case now := <-timerC:
			timer, timerC = nil, nil
			if len(pending) > 0 {
				invalidate(now)
			}

		case resp := <-b.statsCh:
			s := stats
			s.Clients = len(clients)
			resp <- s
		}
	}
}

func appendUnique(refs []string, ref string) []string {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	return append(refs, ref)
}

func refEventType(kind string) string {
	switch kind {
	case "created":
		return TypeRefCreated
	case "updated":
		return TypeRefUpdated
	case "deleted":
		return TypeRefDeleted
	}
	return ""
}

// Close stops the event loop and closes every subscriber channel. It is
// safe to call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, b.buffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// Stats returns the current counters. A closed broker reports zero
// clients.
func (b *Broker) Stats() Stats {
	if b.closed.Load() {
		return Stats{}
	}
	resp := make(chan Stats, 1)
	select {
	case b.statsCh <- resp:
	case <-b.stopped:
		return Stats{}
	}
	select {
	case s := <-resp:
		return s
	case <-b.stopped:
		return Stats{}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	return b.Stats().Clients
}

// Publish broadcasts e to all clients.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- e:
	case <-b.stopped:
	}
}

// PublishRefChange reports a moved git ref. kind is "created", "updated"
// or "deleted". It has the watch.Callback signature.
func (b *Broker) PublishRefChange(kind, ref string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.refCh <- RefChange{Kind: kind, Ref: ref}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects or the
// broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	// reconnect delay hint for EventSource clients
	_, _ = w.Write([]byte("retry: " + strconv.Itoa(int(b.throttle.Milliseconds())) + "\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var ping <-chan time.Time
	if b.keepAlive > 0 {
		t := time.NewTicker(b.keepAlive)
		defer t.Stop()
		ping = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
