package ws

import (
	"log"
	"sync"

	"github.com/codedrop/codedrop/internal/store"
)

// Subscriber is one connected session from the hub's point of view.
// Deliver must not block; it reports false when the subscriber cannot
// keep up, at which point the hub drops it.
type Subscriber interface {
	ID() string
	Deliver(data []byte) bool
	CloseSend()
}

type joinRequest struct {
	sub  Subscriber
	room string
}

type editMessage struct {
	sender Subscriber
	room   string
	code   string
}

// Hub routes edits between sessions in the same room and hydrates
// newly joined sessions from the store. All membership state is owned
// by the Run loop; a session belongs to at most one room at a time.
type Hub struct {
	store *store.Store

	// Subscribers by room
	rooms map[string]map[Subscriber]bool

	// Current room per subscriber; "" until the first join
	members map[Subscriber]string

	register   chan Subscriber
	unregister chan Subscriber
	join       chan joinRequest
	publish    chan editMessage

	mu sync.RWMutex
}

func NewHub(st *store.Store) *Hub {
	return &Hub{
		store:      st,
		rooms:      make(map[string]map[Subscriber]bool),
		members:    make(map[Subscriber]string),
		register:   make(chan Subscriber),
		unregister: make(chan Subscriber),
		join:       make(chan joinRequest),
		publish:    make(chan editMessage),
	}
}

// Register announces a new connection. It holds no room until Join.
func (h *Hub) Register(sub Subscriber) {
	h.register <- sub
}

// Unregister removes a disconnected session and closes its send path.
func (h *Hub) Unregister(sub Subscriber) {
	h.unregister <- sub
}

// Join attaches sub to room's broadcast group, leaving any previous
// room, and hydrates it with the room's current text if the room is
// still live. Joining the same room again is harmless.
func (h *Hub) Join(sub Subscriber, room string) {
	h.join <- joinRequest{sub: sub, room: room}
}

// Publish writes code into the store and fans it out to every other
// member of room. Per-sender ordering is preserved by the single Run
// loop; concurrent senders race and the last store write wins.
func (h *Hub) Publish(sender Subscriber, room, code string) {
	h.publish <- editMessage{sender: sender, room: room, code: code}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.members[sub] = ""
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.members[sub]; ok {
				h.detach(sub, room)
				delete(h.members, sub)
				sub.CloseSend()
			}
			h.mu.Unlock()

		case req := <-h.join:
			h.mu.Lock()
			prev, ok := h.members[req.sub]
			if !ok {
				// Disconnected before the join was processed
				h.mu.Unlock()
				continue
			}
			if prev != req.room {
				h.detach(req.sub, prev)
				if _, ok := h.rooms[req.room]; !ok {
					h.rooms[req.room] = make(map[Subscriber]bool)
				}
				h.rooms[req.room][req.sub] = true
				h.members[req.sub] = req.room
				log.Printf("Session %s joined room %s (members: %d)", req.sub.ID(), req.room, len(h.rooms[req.room]))
			}
			if text, ok := h.store.Get(req.room); ok {
				h.deliver(req.sub, marshalCodeUpdate(text))
			}
			h.mu.Unlock()

		case msg := <-h.publish:
			h.mu.Lock()
			if !h.store.SetText(msg.room, msg.code) {
				// The room expired out from under the editor; tell it
				// instead of losing the edit silently.
				h.deliver(msg.sender, marshalRoomExpired(msg.room))
				h.mu.Unlock()
				continue
			}
			data := marshalCodeUpdate(msg.code)
			for sub := range h.rooms[msg.room] {
				if sub != msg.sender {
					h.deliver(sub, data)
				}
			}
			h.mu.Unlock()
		}
	}
}

// detach removes sub from room's group. Caller holds the lock.
func (h *Hub) detach(sub Subscriber, room string) {
	if room == "" {
		return
	}
	if subs, ok := h.rooms[room]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, room)
			log.Printf("Room %s has no more subscribers", room)
		}
	}
}

// deliver hands data to sub, dropping the subscriber entirely if its
// send buffer is full. Caller holds the lock.
func (h *Hub) deliver(sub Subscriber, data []byte) {
	if sub.Deliver(data) {
		return
	}
	if room, ok := h.members[sub]; ok {
		h.detach(sub, room)
		delete(h.members, sub)
		sub.CloseSend()
		log.Printf("Dropped slow session %s", sub.ID())
	}
}

// GetRoomCount returns the number of rooms with at least one subscriber.
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientCount returns the number of connected sessions.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// GetActiveRooms maps each subscribed room to its member count.
func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make(map[string]int, len(h.rooms))
	for room, subs := range h.rooms {
		active[room] = len(subs)
	}
	return active
}
