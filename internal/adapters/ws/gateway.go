// Package ws is the collaboration gateway: a WebSocket transport over the
// presence, ordering, and document services. Every client frame is a JSON
// envelope {event, ack?, data}. Events that name a room are processed in
// arrival order per room by a keyed serial queue; distinct rooms proceed in
// parallel. Requests carrying an ack id are answered with an ack frame,
// failures of the rest with an error frame.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/wire"
	"github.com/jsamuelsen11/collab-sync/internal/app/roomqueue"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
	"github.com/jsamuelsen11/collab-sync/internal/platform/telemetry"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// handlerTimeout bounds one event's store work.
const handlerTimeout = 15 * time.Second

// Config holds transport settings.
type Config struct {
	ReadLimit      int64
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (c Config) withDefaults() Config {
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 << 10
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	return c
}

// Services are the application ports the gateway drives.
type Services struct {
	Presence  ports.PresenceService
	Ordering  ports.OrderingService
	Documents ports.DocumentService
}

// Gateway upgrades HTTP requests and serves the event protocol.
type Gateway struct {
	cfg      Config
	upgrader websocket.Upgrader
	hub      *Hub
	svc      Services
	queue    *roomqueue.Queue
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the fallback logger for connections whose request
// context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics records connection counts.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway wires the gateway. queue serializes events per room and is
// owned by the caller.
func NewGateway(cfg Config, hub *Hub, svc Services, queue *roomqueue.Queue, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:    cfg.withDefaults(),
		hub:    hub,
		svc:    svc,
		queue:  queue,
		logger: slog.New(slog.DiscardHandler),
	}
	g.upgrader = websocket.Upgrader{CheckOrigin: g.checkOrigin}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// checkOrigin allows same-origin requests, requests without an Origin
// header, and the configured origins. "*" allows everything.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(g.cfg.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(g.cfg.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := g.logger
	if l := logging.FromContext(r.Context()); l != slog.Default() {
		logger = l
	}

	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := newConn(uuid.NewString(), socket, g.cfg, logger)
	ctx := logging.WithLogger(context.WithoutCancel(r.Context()), c.logger)

	g.hub.Register(c)
	g.addConnections(ctx, 1)
	c.logger.InfoContext(ctx, "client connected", slog.String("remote_addr", r.RemoteAddr))

	go c.writePump()
	g.readLoop(ctx, c)

	c.Close()
	g.hub.Unregister(c.id)
	g.svc.Presence.Disconnect(ctx, c.id)
	g.addConnections(ctx, -1)
	c.logger.InfoContext(ctx, "client disconnected")
}

func (g *Gateway) readLoop(ctx context.Context, c *Conn) {
	c.configureRead()
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.DebugContext(ctx, "read failed", slog.Any("error", err))
			}
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			g.reply(ctx, c, "", nil, fmt.Errorf("malformed envelope: %w", domain.ErrValidation))
			continue
		}
		g.dispatch(ctx, c, env)
	}
}

// job is a parsed request ready to run.
type job struct {
	key string
	run func(ctx context.Context) (*wire.AckResult, error)
}

func (g *Gateway) dispatch(ctx context.Context, c *Conn, env wire.Envelope) {
	ctx = logging.With(ctx, slog.String("event", env.Event))
	j, err := g.parse(c, env)
	if err != nil {
		g.reply(ctx, c, env.Ack, nil, err)
		return
	}

	exec := func() {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()
		res, err := j.run(runCtx)
		g.reply(ctx, c, env.Ack, res, err)
	}
	if err := g.queue.Submit(j.key, exec); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "rejecting event",
			slog.String("queue_key", j.key),
			slog.Any("error", err),
		)
		g.reply(ctx, c, env.Ack, nil, fmt.Errorf("%w: %w", wire.ErrBusy, err))
	}
}

// parse decodes and validates the payload for env.Event.
func (g *Gateway) parse(c *Conn, env wire.Envelope) (job, error) {
	switch env.Event {
	case wire.EventRoomJoin:
		var p wire.JoinPayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		return job{key: p.RoomID, run: func(ctx context.Context) (*wire.AckResult, error) {
			if c.Closed() {
				return nil, errClosed
			}
			id := presence.Identity{ClientID: c.id, UserID: p.UserID, UserName: p.UserName}
			entry, err := g.svc.Presence.Join(ctx, p.RoomID, id, c)
			if err != nil {
				return nil, err
			}
			return &wire.AckResult{Success: true, Color: string(entry.Color)}, nil
		}}, nil

	case wire.EventRoomLeave:
		var p wire.RoomPayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		return job{key: p.RoomID, run: func(ctx context.Context) (*wire.AckResult, error) {
			g.svc.Presence.Leave(ctx, p.RoomID, c.id)
			return &wire.AckResult{Success: true}, nil
		}}, nil

	case wire.EventPresenceUpdate:
		var p wire.PresencePayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		return job{key: p.RoomID, run: func(ctx context.Context) (*wire.AckResult, error) {
			err := g.svc.Presence.UpdatePresence(ctx, p.RoomID, c.id, wire.ToUpdate(p.CursorPosition, p.Selection))
			if err != nil {
				return nil, err
			}
			return &wire.AckResult{Success: true}, nil
		}}, nil

	case wire.EventPresenceHeartbeat:
		var p wire.RoomPayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		return job{key: p.RoomID, run: func(ctx context.Context) (*wire.AckResult, error) {
			g.svc.Presence.Heartbeat(ctx, p.RoomID, c.id)
			return &wire.AckResult{Success: true}, nil
		}}, nil

	case wire.EventItemMove:
		var p wire.MovePayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		if p.RoomID == "" {
			return job{}, &domain.ValidationError{Fields: map[string]string{"roomId": domain.MsgRequired}}
		}
		return job{key: p.RoomID, run: func(ctx context.Context) (*wire.AckResult, error) {
			res, err := g.svc.Ordering.MoveItem(ctx, ports.MoveRequest{
				RoomID:     p.RoomID,
				DocumentID: p.DocumentID,
				Move:       p.Move(),
			})
			if err != nil {
				return nil, err
			}
			return &wire.AckResult{Success: true, Result: &wire.Moved{
				RoomID:     p.RoomID,
				ItemID:     p.ItemID,
				NoOp:       res.NoOp,
				Updates:    wire.FromUpdates(res.Updates),
				Containers: wire.FromSnapshots(res.Containers),
			}}, nil
		}}, nil

	case wire.EventItemUpdate:
		var p wire.ItemUpdatePayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		key := p.RoomID
		if key == "" {
			key = "document:" + p.DocumentID
		}
		return job{key: key, run: func(ctx context.Context) (*wire.AckResult, error) {
			doc, err := g.svc.Documents.SaveDocument(ctx, p.RoomID, p.DocumentID, wire.ToPatch(p.Patch))
			if err != nil {
				return nil, err
			}
			d := wire.FromDocument(doc)
			return &wire.AckResult{Success: true, Document: &d}, nil
		}}, nil

	case wire.EventDocumentGet:
		var p wire.DocumentPayload
		if err := decodeValid(env.Data, &p); err != nil {
			return job{}, err
		}
		return job{key: "document:" + p.DocumentID, run: func(ctx context.Context) (*wire.AckResult, error) {
			doc, err := g.svc.Documents.GetDocument(ctx, p.DocumentID)
			if err != nil {
				return nil, err
			}
			d := wire.FromDocument(doc)
			return &wire.AckResult{Success: true, Document: &d}, nil
		}}, nil

	default:
		return job{}, fmt.Errorf("%w: %q", errUnknownEvent, env.Event)
	}
}

var errUnknownEvent = errors.New("unknown event")

// reply answers a request. With an ack id the outcome always goes back as
// an ack; without one only failures are reported, as error frames.
func (g *Gateway) reply(ctx context.Context, c *Conn, ack string, res *wire.AckResult, err error) {
	if errors.Is(err, errClosed) {
		return
	}

	var wireErr *wire.Error
	if err != nil {
		wireErr = wire.NewError(err)
		if errors.Is(err, errUnknownEvent) {
			wireErr.Code = wire.CodeUnknownEvent
			wireErr.Message = err.Error()
		}
		level := slog.LevelWarn
		if wireErr.Code == wire.CodeInternal {
			level = slog.LevelError
		}
		logging.FromContext(ctx).Log(ctx, level, "event failed",
			slog.String("code", wireErr.Code),
			slog.Any("error", err),
		)
	}

	var sendErr error
	switch {
	case ack != "":
		if res == nil {
			res = &wire.AckResult{}
		}
		res.Error = wireErr
		res.Success = wireErr == nil
		sendErr = c.emit(wire.EventAck, ack, res)
	case wireErr != nil:
		sendErr = c.emit(wire.EventError, "", wireErr)
	}
	if sendErr != nil && !errors.Is(sendErr, errClosed) {
		logging.FromContext(ctx).WarnContext(ctx, "reply dropped", slog.Any("error", sendErr))
		c.Close()
	}
}

func (g *Gateway) addConnections(ctx context.Context, n int64) {
	if g.metrics != nil {
		g.metrics.WSConnections.Add(ctx, n)
	}
}

func decodeValid(data json.RawMessage, v interface{ Validate() error }) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w: %w", domain.ErrValidation, err)
	}
	return v.Validate()
}

// Close disconnects every client. Read loops then run their cleanup.
func (g *Gateway) Close() {
	g.hub.CloseAll()
}
