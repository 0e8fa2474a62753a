package preview

import (
	"sync"
	"time"

	"github.com/ayusman/handcast/internal/payload"
)

// Update is one transmitted payload as seen by observers.
type Update struct {
	Values    []int `json:"values"`
	Signal    *int  `json:"signal,omitempty"`
	Landmarks int   `json:"landmarks"`
	Timestamp int64 `json:"timestamp"`
}

// NewUpdate describes p as observed at the given time.
func NewUpdate(p payload.Payload, at time.Time) Update {
	u := Update{
		Values:    p.Values(),
		Landmarks: p.Landmarks(),
		Timestamp: at.UnixMilli(),
	}
	if p.Signal != nil {
		s := int(*p.Signal)
		u.Signal = &s
	}
	return u
}

// Hub holds the latest annotated frame and payload and hands them to
// subscribers. Slow subscribers only ever see the newest value.
type Hub struct {
	mu          sync.RWMutex
	frame       []byte
	update      *Update
	frameSubs   map[chan []byte]struct{}
	payloadSubs map[chan Update]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		frameSubs:   make(map[chan []byte]struct{}),
		payloadSubs: make(map[chan Update]struct{}),
	}
}

// WantsFrames reports whether anyone is subscribed to frames, so callers can
// skip JPEG encoding when nobody is watching.
func (h *Hub) WantsFrames() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frameSubs) > 0
}

// PublishFrame stores jpeg as the latest frame and offers it to subscribers.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frame = jpeg
	for ch := range h.frameSubs {
		offer(ch, jpeg)
	}
}

// PublishPayload stores u as the latest update and offers it to subscribers.
func (h *Hub) PublishPayload(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.update = &u
	for ch := range h.payloadSubs {
		offer(ch, u)
	}
}

// LatestFrame returns the most recent frame, or nil.
func (h *Hub) LatestFrame() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame
}

// LatestPayload returns the most recent update.
func (h *Hub) LatestPayload() (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.update == nil {
		return Update{}, false
	}
	return *h.update, true
}

// SubscribeFrames returns a channel of frames and a function that ends the
// subscription. The latest frame, if any, is delivered first.
func (h *Hub) SubscribeFrames() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	h.frameSubs[ch] = struct{}{}
	if h.frame != nil {
		ch <- h.frame
	}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.frameSubs, ch)
		h.mu.Unlock()
	}
}

// SubscribePayloads returns a channel of updates and a function that ends
// the subscription.
func (h *Hub) SubscribePayloads() (<-chan Update, func()) {
	ch := make(chan Update, 1)

	h.mu.Lock()
	h.payloadSubs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.payloadSubs, ch)
		h.mu.Unlock()
	}
}

// offer replaces whatever is buffered in ch with v.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
