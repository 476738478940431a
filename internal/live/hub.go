// Package live fans click-count updates out to the owner's open connections.
//
// A Hub keeps one room per owner. Each Subscriber sits in at most one room;
// joining the same room again changes nothing, so a connection never receives
// the same event twice. Delivery is fire-and-forget: a subscriber whose buffer
// is full loses the message, and nothing is replayed to late joiners.
//
// Rooms live in process memory, so updates only reach connections held by the
// same server instance.
package live

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClickUpdate is pushed to an owner's room after one of their URLs is visited.
type ClickUpdate struct {
	URLID     string    `json:"urlId"`
	Clicks    int64     `json:"clicks"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishResult counts how a publish was handled. It is informational; callers may ignore it.
type PublishResult struct {
	Delivered int
	Dropped   int
	Err       error
}

// Subscriber is one connection's delivery endpoint.
type Subscriber struct {
	id     string
	userID string
	send   chan []byte
	closed bool // guarded by the owning Hub's mutex
}

// NewSubscriber creates an endpoint for an authenticated user with a bounded buffer.
func NewSubscriber(userID string, buffer int) *Subscriber {
	if buffer < 1 {
		buffer = 1
	}
	return &Subscriber{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, buffer),
	}
}

func (s *Subscriber) ID() string     { return s.id }
func (s *Subscriber) UserID() string { return s.userID }

// Messages yields encoded events. It is closed when the subscriber is removed.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Subscriber]struct{} // owner ID -> members
	memberOf map[*Subscriber]string
	subs     map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Subscriber]struct{}),
		memberOf: make(map[*Subscriber]string),
		subs:     make(map[*Subscriber]struct{}),
	}
}

// Register tracks sub so Close can reach it before it joins a room.
func (h *Hub) Register(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !sub.closed {
		h.subs[sub] = struct{}{}
	}
}

// Join puts sub in ownerID's room, leaving any other room first.
// It reports false when sub was already a member or has been removed.
func (h *Hub) Join(sub *Subscriber, ownerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return false
	}
	if current, ok := h.memberOf[sub]; ok {
		if current == ownerID {
			return false
		}
		h.leaveLocked(sub, current)
	}

	room, ok := h.rooms[ownerID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[ownerID] = room
	}
	room[sub] = struct{}{}
	h.memberOf[sub] = ownerID
	h.subs[sub] = struct{}{}
	return true
}

// Leave takes sub out of ownerID's room; it reports false if sub was not in it.
func (h *Hub) Leave(sub *Subscriber, ownerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.memberOf[sub] != ownerID {
		return false
	}
	h.leaveLocked(sub, ownerID)
	return true
}

// Remove drops sub from its room and closes its message channel. Safe to call more than once.
func (h *Hub) Remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.memberOf[sub]; ok {
		h.leaveLocked(sub, current)
	}
	delete(h.subs, sub)
	h.closeLocked(sub)
}

func (h *Hub) leaveLocked(sub *Subscriber, ownerID string) {
	delete(h.memberOf, sub)
	if room, ok := h.rooms[ownerID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, ownerID)
		}
	}
}

func (h *Hub) closeLocked(sub *Subscriber) {
	if !sub.closed {
		sub.closed = true
		close(sub.send)
	}
}

// Publish sends update to every member of ownerID's room without blocking.
func (h *Hub) Publish(ownerID string, update ClickUpdate) PublishResult {
	message, err := Encode(EventURLClicked, update)
	if err != nil {
		return PublishResult{Err: fmt.Errorf("encode click update: %w", err)}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var result PublishResult
	for sub := range h.rooms[ownerID] {
		if sub.offer(message) {
			result.Delivered++
		} else {
			result.Dropped++
		}
	}
	return result
}

// Send queues a message for one subscriber; false if its buffer is full or it was removed.
func (h *Hub) Send(sub *Subscriber, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if sub.closed {
		return false
	}
	return sub.offer(message)
}

// offer must be called with the hub lock held so send is never closed underneath it.
func (s *Subscriber) offer(message []byte) bool {
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

// RoomSize reports how many subscribers are in ownerID's room.
func (h *Hub) RoomSize(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ownerID])
}

// Room reports which room sub is in.
func (h *Hub) Room(sub *Subscriber) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ownerID, ok := h.memberOf[sub]
	return ownerID, ok
}

// Close removes every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		h.closeLocked(sub)
	}
	h.rooms = make(map[string]map[*Subscriber]struct{})
	h.memberOf = make(map[*Subscriber]string)
	h.subs = make(map[*Subscriber]struct{})
}

// Encode builds a wire message {"event": event, "data": data}.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(Message{Event: event, Data: data})
}
