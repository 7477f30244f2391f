package realtime

import (
	"log"
	"sync"
	"time"
)

// Hub is the in-memory room membership table.
// Delivery is immediate and best-effort: nothing is queued for sessions that
// join after a publish, and nothing is persisted.
type Hub struct {
	mu    sync.RWMutex
	rooms map[Room]map[*Session]struct{}
	now   func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[Room]map[*Session]struct{}),
		now:   time.Now,
	}
}

// Join subscribes s to room.
func (h *Hub) Join(room Room, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
}

// Leave unsubscribes s from room.
func (h *Hub) Leave(room Room, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, s)
}

// LeaveAll unsubscribes s from every room it joined.
func (h *Hub) LeaveAll(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.leaveLocked(room, s)
	}
}

func (h *Hub) leaveLocked(room Room, s *Session) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Members returns the number of sessions subscribed to room.
func (h *Hub) Members(room Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish hands ev to every session currently subscribed to any of ev.Rooms.
// A session sitting in several of those rooms receives the event once.
// It returns the number of sessions the event was queued for.
func (h *Hub) Publish(ev Event) int {
	if ev.SentAt.IsZero() {
		ev.SentAt = h.now().UTC()
	}

	h.mu.RLock()
	targets := make(map[*Session]struct{})
	for _, room := range ev.Rooms {
		for s := range h.rooms[room] {
			targets[s] = struct{}{}
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for s := range targets {
		if s.deliver(ev) {
			delivered++
			continue
		}
		log.Printf("realtime: dropped %s for session=%s user=%q", ev.Name, s.ID(), s.Principal().UserID)
	}
	return delivered
}
