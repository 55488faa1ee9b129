package ws

import (
	"encoding/json"
	"fmt"
)

// Wire events. Clients send joinRoom and codeUpdate; the server sends
// codeUpdate (hydration and rebroadcast) and roomExpired.
const (
	EventJoinRoom    = "joinRoom"
	EventCodeUpdate  = "codeUpdate"
	EventRoomExpired = "roomExpired"
)

// ClientEvent is the envelope for everything a client may send.
type ClientEvent struct {
	Event string `json:"event"`
	Room  string `json:"room"`
	Code  string `json:"code"`
}

// ParseClientEvent decodes and validates an inbound frame. Invalid
// frames are dropped by the caller, never broadcast.
func ParseClientEvent(data []byte) (ClientEvent, error) {
	var ev ClientEvent
	if len(data) == 0 {
		return ev, fmt.Errorf("empty message")
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("malformed frame: %w", err)
	}

	switch ev.Event {
	case EventJoinRoom, EventCodeUpdate:
		if ev.Room == "" {
			return ev, fmt.Errorf("%s without a room", ev.Event)
		}
		return ev, nil
	default:
		return ev, fmt.Errorf("unknown event type: %q", ev.Event)
	}
}

type codeUpdateEvent struct {
	Event string `json:"event"`
	Code  string `json:"code"`
}

type roomExpiredEvent struct {
	Event string `json:"event"`
	Room  string `json:"room"`
}

func marshalCodeUpdate(code string) []byte {
	data, _ := json.Marshal(codeUpdateEvent{Event: EventCodeUpdate, Code: code})
	return data
}

func marshalRoomExpired(room string) []byte {
	data, _ := json.Marshal(roomExpiredEvent{Event: EventRoomExpired, Room: room})
	return data
}
