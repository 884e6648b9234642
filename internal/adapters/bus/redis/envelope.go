package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

const (
	kindPresence = "presence"
	kindRoom     = "room"
)

// envelope is the JSON message carried on the events channel.
type envelope struct {
	Kind     string      `json:"kind"`
	Origin   string      `json:"origin"`
	Presence *changeJSON `json:"presence,omitempty"`
	Room     *roomJSON   `json:"room,omitempty"`
}

type changeJSON struct {
	Kind     string    `json:"kind"`
	RoomID   string    `json:"roomId"`
	ClientID string    `json:"clientId"`
	Entry    entryJSON `json:"entry"`
}

type entryJSON struct {
	ClientID     string         `json:"clientId"`
	UserID       string         `json:"userId"`
	UserName     string         `json:"userName"`
	Color        string         `json:"color"`
	Cursor       *cursorJSON    `json:"cursor,omitempty"`
	Selection    *selectionJSON `json:"selection,omitempty"`
	LastActiveAt time.Time      `json:"lastActiveAt"`
	Status       string         `json:"status"`
	InstanceID   string         `json:"instanceId"`
}

type cursorJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type selectionJSON struct {
	IDs    []string `json:"ids"`
	Anchor *int     `json:"anchor,omitempty"`
	Head   *int     `json:"head,omitempty"`
}

type roomJSON struct {
	RoomID string          `json:"roomId"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

func encodeChange(c presence.Change) ([]byte, error) {
	e := c.Entry
	ej := entryJSON{
		ClientID:     e.ClientID,
		UserID:       e.UserID,
		UserName:     e.UserName,
		Color:        string(e.Color),
		LastActiveAt: e.LastActiveAt,
		Status:       string(e.Status),
		InstanceID:   e.InstanceID,
	}
	if e.Cursor != nil {
		ej.Cursor = &cursorJSON{X: e.Cursor.X, Y: e.Cursor.Y}
	}
	if e.Selection != nil {
		ej.Selection = &selectionJSON{IDs: e.Selection.IDs, Anchor: e.Selection.Anchor, Head: e.Selection.Head}
	}

	return json.Marshal(envelope{
		Kind:   kindPresence,
		Origin: c.Origin,
		Presence: &changeJSON{
			Kind:     string(c.Kind),
			RoomID:   c.RoomID,
			ClientID: c.ClientID,
			Entry:    ej,
		},
	})
}

func encodeRoomEvent(ev ports.RoomEvent) ([]byte, error) {
	data := json.RawMessage(ev.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(envelope{
		Kind:   kindRoom,
		Origin: ev.Origin,
		Room:   &roomJSON{RoomID: ev.RoomID, Event: ev.Event, Data: data},
	})
}

func decode(payload []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("decoding bus message: %w", err)
	}
	switch {
	case env.Kind == kindPresence && env.Presence != nil:
	case env.Kind == kindRoom && env.Room != nil:
	default:
		return envelope{}, fmt.Errorf("bus message of kind %q has no body", env.Kind)
	}
	return env, nil
}

func (env envelope) change() presence.Change {
	p := env.Presence
	e := presence.Entry{
		ClientID:     p.Entry.ClientID,
		UserID:       p.Entry.UserID,
		UserName:     p.Entry.UserName,
		Color:        presence.Color(p.Entry.Color),
		LastActiveAt: p.Entry.LastActiveAt,
		Status:       presence.Status(p.Entry.Status),
		InstanceID:   p.Entry.InstanceID,
	}
	if p.Entry.Cursor != nil {
		e.Cursor = &presence.Cursor{X: p.Entry.Cursor.X, Y: p.Entry.Cursor.Y}
	}
	if s := p.Entry.Selection; s != nil {
		e.Selection = &presence.Selection{IDs: s.IDs, Anchor: s.Anchor, Head: s.Head}
	}
	return presence.Change{
		Kind:     presence.ChangeKind(p.Kind),
		RoomID:   p.RoomID,
		ClientID: p.ClientID,
		Entry:    e,
		Origin:   env.Origin,
	}
}

func (env envelope) roomEvent() ports.RoomEvent {
	return ports.RoomEvent{
		Origin: env.Origin,
		RoomID: env.Room.RoomID,
		Event:  env.Room.Event,
		Data:   []byte(env.Room.Data),
	}
}
