// Package sse implements a Server-Sent Events broker for document changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/starford/nexusmap/internal/models"
	"github.com/starford/nexusmap/internal/validate"
)

// Event types.
const (
	TypeDocumentCreated  = "document.created"
	TypeDocumentUpdated  = "document.updated"
	TypeDocumentDeleted  = "document.deleted"
	TypeChecklistUpdated = "checklist.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChecklistEntry is the latest validation summary of one document. Deleted
// documents carry no summary.
type ChecklistEntry struct {
	Path     string            `json:"path"`
	Revision string            `json:"revision,omitempty"`
	Deleted  bool              `json:"deleted,omitempty"`
	Summary  *validate.Summary `json:"summary,omitempty"`
}

type documentEventReq struct {
	ev     models.DocumentEvent
	report *validate.Report
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the checklist throttle state;
// public methods talk to it over channels.
type Broker struct {
	checklistMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	documentCh    chan documentEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits checklist.updated at most once per
// throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		checklistMin:  throttle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		documentCh:    make(chan documentEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func documentEventType(kind string) (string, bool) {
	switch kind {
	case models.EventCreated:
		return TypeDocumentCreated, true
	case models.EventUpdated:
		return TypeDocumentUpdated, true
	case models.EventDeleted:
		return TypeDocumentDeleted, true
	}
	return "", false
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	// Trailing-edge throttle: the newest entry per path waits in pending
	// until the interval since the last flush has elapsed.
	var (
		lastFlush time.Time
		pending   = make(map[string]ChecklistEntry)
		timer     *time.Timer
		timerC    <-chan time.Time
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		entries := make([]ChecklistEntry, 0, len(pending))
		for _, e := range pending {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
		clear(pending)
		lastFlush = time.Now()
		broadcast(Event{Type: TypeChecklistUpdated, Data: map[string]any{"documents": entries}})
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

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.documentCh:
			typ, ok := documentEventType(req.ev.Kind)
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: req.ev})

			entry := ChecklistEntry{Path: req.ev.Path, Revision: req.ev.Revision, Deleted: req.ev.Kind == models.EventDeleted}
			if req.report != nil {
				summary := req.report.Summary
				entry.Summary = &summary
			}
			pending[req.ev.Path] = entry

			if wait := b.checklistMin - time.Since(lastFlush); wait <= 0 {
				flush()
			} else if timerC == nil {
				timer = time.NewTimer(wait)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			flush()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
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

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocumentEvent broadcasts a document change and queues its
// validation summary for the throttled checklist.updated event.
func (b *Broker) PublishDocumentEvent(ev models.DocumentEvent, report *validate.Report) {
	if b.closed.Load() {
		return
	}
	select {
	case b.documentCh <- documentEventReq{ev: ev, report: report}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler.
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
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
