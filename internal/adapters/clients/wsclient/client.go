// Package wsclient is a Go client for the collaboration gateway. It
// implements ports.DocumentStore and ports.DocumentFeed over one socket so a
// syncbridge.Bridge can run in a Go process, and exposes the room and move
// operations for tools and tests.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/wire"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// ErrClosed is returned once the connection has ended.
var ErrClosed = errors.New("wsclient: connection closed")

// feedBuffer is the per-subscription channel length. Documents are whole
// snapshots, so an overflowing subscription keeps only the newest ones.
const feedBuffer = 8

// Compile-time interface checks.
var (
	_ ports.DocumentStore = (*Client)(nil)
	_ ports.DocumentFeed  = (*Client)(nil)
)

type subscription struct {
	documentID string
	ch         chan document.Document
}

// Client is one gateway connection.
type Client struct {
	ws           *websocket.Conn
	logger       *slog.Logger
	writeTimeout time.Duration
	onEvent      func(wire.Envelope)

	writeMu sync.Mutex

	mu      sync.Mutex
	room    string
	pending map[string]chan wire.AckResult
	subs    map[*subscription]struct{}
	err     error

	done chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventHandler receives every pushed event that is not an ack, on the
// read goroutine. fn must not block.
func WithEventHandler(fn func(wire.Envelope)) Option {
	return func(c *Client) { c.onEvent = fn }
}

// WithRoom sets the room that SaveDocument notifies. Join also sets it.
func WithRoom(roomID string) Option {
	return func(c *Client) { c.room = roomID }
}

// Dial connects to the gateway at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	c := &Client{
		ws:           ws,
		logger:       slog.New(slog.DiscardHandler),
		writeTimeout: 10 * time.Second,
		pending:      make(map[string]chan wire.AckResult),
		subs:         make(map[*subscription]struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Close ends the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Join enters a room and returns the assigned color.
func (c *Client) Join(ctx context.Context, roomID, userID, userName string) (presence.Color, error) {
	res, err := c.request(ctx, wire.EventRoomJoin, wire.JoinPayload{RoomID: roomID, UserID: userID, UserName: userName})
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.room = roomID
	c.mu.Unlock()
	return presence.Color(res.Color), nil
}

// Leave exits a room.
func (c *Client) Leave(ctx context.Context, roomID string) error {
	_, err := c.request(ctx, wire.EventRoomLeave, wire.RoomPayload{RoomID: roomID})
	return err
}

// UpdatePresence sends the cursor and selection. Nil fields are left
// unchanged on the server.
func (c *Client) UpdatePresence(ctx context.Context, roomID string, update presence.Update) error {
	p := wire.PresencePayload{RoomID: roomID}
	if update.Cursor != nil {
		p.CursorPosition = &wire.Cursor{X: update.Cursor.X, Y: update.Cursor.Y}
	}
	if s := update.Selection; s != nil {
		p.Selection = &wire.Selection{IDs: s.IDs, Anchor: s.Anchor, Head: s.Head}
	}
	_, err := c.request(ctx, wire.EventPresenceUpdate, p)
	return err
}

// Heartbeat refreshes the client's liveness in a room.
func (c *Client) Heartbeat(ctx context.Context, roomID string) error {
	_, err := c.request(ctx, wire.EventPresenceHeartbeat, wire.RoomPayload{RoomID: roomID})
	return err
}

// MoveItem asks the server to relocate an item and returns the committed
// container snapshots.
func (c *Client) MoveItem(ctx context.Context, roomID, documentID string, m ordering.Move) (*wire.Moved, error) {
	res, err := c.request(ctx, wire.EventItemMove, wire.MovePayload{
		RoomID:          roomID,
		DocumentID:      documentID,
		ItemID:          m.ItemID,
		FromContainerID: m.FromContainerID,
		FromPosition:    m.FromPosition,
		ToContainerID:   m.ToContainerID,
		ToPosition:      m.ToPosition,
	})
	if err != nil {
		return nil, err
	}
	if res.Result == nil {
		return nil, fmt.Errorf("item:move ack without result")
	}
	return res.Result, nil
}

// GetDocument implements ports.DocumentStore.
func (c *Client) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	res, err := c.request(ctx, wire.EventDocumentGet, wire.DocumentPayload{DocumentID: id})
	if err != nil {
		return nil, err
	}
	return ackDocument(wire.EventDocumentGet, res)
}

// SaveDocument implements ports.DocumentStore. The commit is announced to
// the current room.
func (c *Client) SaveDocument(ctx context.Context, id string, patch document.Patch) (*document.Document, error) {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()

	res, err := c.request(ctx, wire.EventItemUpdate, wire.ItemUpdatePayload{
		RoomID:     room,
		DocumentID: id,
		Patch:      wire.FromPatch(patch),
	})
	if err != nil {
		return nil, err
	}
	return ackDocument(wire.EventItemUpdate, res)
}

// SubscribeDocument implements ports.DocumentFeed. The first value is the
// current document; later values come from document:update and
// document:resync pushes for the same document in the rooms this client
// has joined.
func (c *Client) SubscribeDocument(ctx context.Context, documentID string) (<-chan document.Document, error) {
	sub := &subscription{documentID: documentID, ch: make(chan document.Document, feedBuffer)}

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, c.err
	}
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		c.unsubscribe(sub)
		return nil, err
	}
	c.mu.Lock()
	if _, ok := c.subs[sub]; ok {
		push(sub.ch, *doc)
	}
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		c.unsubscribe(sub)
	}()
	return sub.ch, nil
}

func (c *Client) unsubscribe(sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[sub]; ok {
		delete(c.subs, sub)
		close(sub.ch)
	}
}

// request sends event with a fresh ack id and waits for the answer.
func (c *Client) request(ctx context.Context, event string, data any) (wire.AckResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return wire.AckResult{}, fmt.Errorf("encoding %s: %w", event, err)
	}
	id := ulid.Make().String()
	ch := make(chan wire.AckResult, 1)

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return wire.AckResult{}, c.err
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	err = c.ws.WriteJSON(wire.Envelope{Event: event, Ack: id, Data: raw})
	c.writeMu.Unlock()
	if err != nil {
		return wire.AckResult{}, fmt.Errorf("sending %s: %w", event, err)
	}

	select {
	case res := <-ch:
		if res.Error != nil {
			return res, fmt.Errorf("%s: %w", event, wire.ToError(res.Error))
		}
		return res, nil
	case <-c.done:
		return wire.AckResult{}, c.Err()
	case <-ctx.Done():
		return wire.AckResult{}, fmt.Errorf("%s: %w", event, ctx.Err())
	}
}

func (c *Client) readLoop() {
	var err error
	defer func() {
		c.mu.Lock()
		c.err = fmt.Errorf("%w: %w", ErrClosed, err)
		for sub := range c.subs {
			delete(c.subs, sub)
			close(sub.ch)
		}
		c.mu.Unlock()
		close(c.done)
	}()

	for {
		var env wire.Envelope
		if err = c.ws.ReadJSON(&env); err != nil {
			return
		}
		switch env.Event {
		case wire.EventAck:
			c.resolve(env)
		case wire.EventDocumentUpdate, wire.EventDocumentResync:
			c.fanout(env)
		}
		if env.Event != wire.EventAck && c.onEvent != nil {
			c.onEvent(env)
		}
	}
}

func (c *Client) resolve(env wire.Envelope) {
	var res wire.AckResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		c.logger.Warn("undecodable ack", slog.String("ack", env.Ack), slog.Any("error", err))
		res = wire.AckResult{Error: &wire.Error{Code: wire.CodeInternal, Message: err.Error()}}
	}

	c.mu.Lock()
	ch, ok := c.pending[env.Ack]
	c.mu.Unlock()
	if ok {
		ch <- res
	}
}

// fanout forwards a pushed document to the subscriptions that follow it.
func (c *Client) fanout(env wire.Envelope) {
	var doc *wire.Document
	switch env.Event {
	case wire.EventDocumentUpdate:
		var ev wire.DocumentEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			c.logger.Warn("undecodable document push", slog.Any("error", err))
			return
		}
		doc = &ev.Document
	case wire.EventDocumentResync:
		var ev wire.Resync
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			c.logger.Warn("undecodable resync", slog.Any("error", err))
			return
		}
		doc = ev.Document
	}
	if doc == nil {
		return
	}
	d := wire.ToDocument(*doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		if sub.documentID == d.ID {
			push(sub.ch, d.Clone())
		}
	}
}

// push delivers doc without blocking, evicting the oldest queued document
// when the channel is full. Callers hold c.mu, so there is one producer.
func push(ch chan document.Document, doc document.Document) {
	for {
		select {
		case ch <- doc:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func ackDocument(event string, res wire.AckResult) (*document.Document, error) {
	if res.Document == nil {
		return nil, fmt.Errorf("%s ack without document", event)
	}
	d := wire.ToDocument(*res.Document)
	return &d, nil
}
