package service

import (
	"sync"

	"github.com/google/uuid"
)

type emitted struct {
	Room  string
	User  uuid.UUID
	Event string
	Data  interface{}
}

// recordingBroadcaster запоминает все события для проверок в тестах.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []emitted
}

func (b *recordingBroadcaster) EmitToRoom(room, event string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{Room: room, Event: event, Data: data})
	return nil
}

func (b *recordingBroadcaster) EmitToUser(userID uuid.UUID, event string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emitted{User: userID, Event: event, Data: data})
	return nil
}

func (b *recordingBroadcaster) byEvent(event string) []emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emitted
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
