package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/wire"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

var (
	errClosed     = errors.New("connection closed")
	errSendBuffer = errors.New("send buffer full")
)

// Compile-time interface check.
var _ ports.Peer = (*Conn)(nil)

// Conn is one client socket. Outbound frames go through a bounded queue
// drained by a single write pump; a full queue fails the send and the
// caller drops the client.
type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	cfg    Config
	logger *slog.Logger
}

func newConn(id string, ws *websocket.Conn, cfg Config, logger *slog.Logger) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger.With(slog.String("client_id", id)),
	}
}

// ClientID implements ports.Peer.
func (c *Conn) ClientID() string { return c.id }

// SendSnapshot implements ports.Peer.
func (c *Conn) SendSnapshot(roomID string, entries []presence.Entry) error {
	return c.emit(wire.EventPresenceSnapshot, "", wire.Snapshot{RoomID: roomID, Users: wire.FromEntries(entries)})
}

// SendDelta implements ports.Peer.
func (c *Conn) SendDelta(roomID string, entry presence.Entry) error {
	return c.emit(wire.EventPresenceUpdate, "", wire.Delta{RoomID: roomID, User: wire.FromEntry(entry)})
}

// Send queues an encoded frame.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errSendBuffer
	}
}

// Close stops the write pump and closes the socket. Safe to call more than
// once.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.ws.Close()
	})
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) emit(event, ack string, data any) error {
	frame, err := encode(event, ack, data)
	if err != nil {
		return err
	}
	return c.Send(frame)
}

// writePump is the only writer of data frames. It exits when the
// connection closes or a write fails.
func (c *Conn) writePump() {
	var ping <-chan time.Time
	if c.cfg.PingInterval > 0 {
		t := time.NewTicker(c.cfg.PingInterval)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("write failed", slog.Any("error", err))
				c.Close()
				return
			}
		case <-ping:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.Close()
				return
			}
		}
	}
}

// configureRead applies the read limit and keepalive deadlines.
func (c *Conn) configureRead() {
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	if c.cfg.PingInterval <= 0 {
		return
	}
	wait := 2 * c.cfg.PingInterval
	_ = c.ws.SetReadDeadline(time.Now().Add(wait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})
}

// encode builds an outbound frame with a fresh ULID.
func encode(event, ack string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", event, err)
	}
	frame, err := json.Marshal(wire.Envelope{
		ID:    ulid.Make().String(),
		Event: event,
		Ack:   ack,
		Data:  raw,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", event, err)
	}
	return frame, nil
}
