package wire

import (
	"encoding/json"
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// Client to server events.
const (
	EventRoomJoin          = "room:join"
	EventRoomLeave         = "room:leave"
	EventPresenceUpdate    = "presence:update"
	EventPresenceHeartbeat = "presence:heartbeat"
	EventItemMove          = "item:move"
	EventItemUpdate        = "item:update"
	EventDocumentGet       = "document:get"
)

// Server to client events. presence:update is used in both directions.
const (
	EventPresenceSnapshot = "presence:snapshot"
	EventItemMoved        = "item:moved"
	EventDocumentUpdate   = "document:update"
	EventDocumentResync   = "document:resync"
	EventError            = "error"
	EventAck              = "ack"
)

// Envelope frames every message. Ack is set by the client on requests it
// wants answered and echoed on the matching ack. ID is a server-assigned
// ULID on outbound messages.
type Envelope struct {
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Error is the body of error events and failed acks.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AckResult answers a request that carried an ack id.
type AckResult struct {
	Success  bool      `json:"success"`
	Color    string    `json:"color,omitempty"`
	Document *Document `json:"document,omitempty"`
	Result   *Moved    `json:"result,omitempty"`
	Error    *Error    `json:"error,omitempty"`
}

// JoinPayload is the body of room:join.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Validate checks required fields. The client id comes from the connection.
func (p JoinPayload) Validate() error {
	fields := make(map[string]string)
	required(fields, "roomId", p.RoomID)
	required(fields, "userId", p.UserID)
	required(fields, "userName", p.UserName)
	return fieldsErr(fields)
}

// RoomPayload is the body of room:leave and presence:heartbeat.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// Validate checks required fields.
func (p RoomPayload) Validate() error {
	fields := make(map[string]string)
	required(fields, "roomId", p.RoomID)
	return fieldsErr(fields)
}

// PresencePayload is the body of an inbound presence:update.
type PresencePayload struct {
	RoomID         string     `json:"roomId"`
	CursorPosition *Cursor    `json:"cursorPosition,omitempty"`
	Selection      *Selection `json:"selection,omitempty"`
}

// Validate checks required fields and selection ranges.
func (p PresencePayload) Validate() error {
	fields := make(map[string]string)
	required(fields, "roomId", p.RoomID)
	if s := p.Selection; s != nil {
		if s.Anchor != nil && *s.Anchor < 0 {
			fields["selection.anchor"] = domain.MsgNegative
		}
		if s.Head != nil && *s.Head < 0 {
			fields["selection.head"] = domain.MsgNegative
		}
	}
	return fieldsErr(fields)
}

// MovePayload is the body of item:move and of the REST move request.
type MovePayload struct {
	RoomID          string `json:"roomId"`
	DocumentID      string `json:"documentId,omitempty"`
	ItemID          string `json:"itemId"`
	FromContainerID string `json:"fromContainerId"`
	FromPosition    int    `json:"fromPosition"`
	ToContainerID   string `json:"toContainerId"`
	ToPosition      int    `json:"toPosition"`
}

// Validate checks the move fields. The room is optional on the REST path
// and checked by the gateway.
func (p MovePayload) Validate() error {
	return p.Move().Validate()
}

// Move converts the payload to a domain move.
func (p MovePayload) Move() ordering.Move {
	return ordering.Move{
		ItemID:          p.ItemID,
		FromContainerID: p.FromContainerID,
		ToContainerID:   p.ToContainerID,
		FromPosition:    p.FromPosition,
		ToPosition:      p.ToPosition,
	}
}

// ItemUpdatePayload is the body of item:update: a whole-section document
// commit.
type ItemUpdatePayload struct {
	RoomID     string `json:"roomId"`
	DocumentID string `json:"documentId"`
	Patch      Patch  `json:"patch"`
}

// Validate checks required fields. Patch contents are checked against the
// stored document.
func (p ItemUpdatePayload) Validate() error {
	fields := make(map[string]string)
	required(fields, "documentId", p.DocumentID)
	if p.Patch.Items == nil && p.Patch.Nodes == nil && p.Patch.Viewport == nil {
		fields["patch"] = "must change at least one section"
	}
	return fieldsErr(fields)
}

// DocumentPayload is the body of document:get.
type DocumentPayload struct {
	DocumentID string `json:"documentId"`
}

// Validate checks required fields.
func (p DocumentPayload) Validate() error {
	fields := make(map[string]string)
	required(fields, "documentId", p.DocumentID)
	return fieldsErr(fields)
}

// Snapshot is the body of presence:snapshot.
type Snapshot struct {
	RoomID string `json:"roomId"`
	Users  []User `json:"users"`
}

// Delta is the body of an outbound presence:update.
type Delta struct {
	RoomID string `json:"roomId"`
	User
}

// Moved is the body of item:moved.
type Moved struct {
	RoomID     string           `json:"roomId,omitempty"`
	ItemID     string           `json:"itemId"`
	NoOp       bool             `json:"noop,omitempty"`
	Updates    []Update         `json:"updates"`
	Containers []ContainerItems `json:"containers"`
}

// DocumentEvent is the body of document:update.
type DocumentEvent struct {
	RoomID   string   `json:"roomId"`
	Document Document `json:"document"`
}

// Resync is the body of document:resync.
type Resync struct {
	RoomID     string           `json:"roomId"`
	Containers []ContainerItems `json:"containers,omitempty"`
	Document   *Document        `json:"document,omitempty"`
}

func required(fields map[string]string, name, v string) {
	if strings.TrimSpace(v) == "" {
		fields[name] = domain.MsgRequired
	}
}

func fieldsErr(fields map[string]string) error {
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
