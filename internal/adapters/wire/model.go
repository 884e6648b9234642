// Package wire defines the JSON representation of engine state shared by the
// WebSocket gateway, its Go client, and the REST handlers, together with the
// conversions to and from domain types.
package wire

import (
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
)

// Cursor is a pointer location in document coordinates.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection is a member's selected ids and optional text range.
type Selection struct {
	IDs    []string `json:"ids"`
	Anchor *int     `json:"anchor,omitempty"`
	Head   *int     `json:"head,omitempty"`
}

// User is one member's presence as seen by clients.
type User struct {
	ClientID       string     `json:"clientId"`
	UserID         string     `json:"userId"`
	UserName       string     `json:"userName"`
	Color          string     `json:"color"`
	CursorPosition *Cursor    `json:"cursorPosition,omitempty"`
	Selection      *Selection `json:"selection,omitempty"`
	LastActiveAt   time.Time  `json:"lastActiveAt"`
	Status         string     `json:"status"`
}

// Item is an ordered entity.
type Item struct {
	ID          string `json:"id"`
	ContainerID string `json:"containerId"`
	Position    int    `json:"position"`
}

// Update assigns an item to a container at a position.
type Update struct {
	ItemID      string `json:"itemId"`
	ContainerID string `json:"containerId"`
	Position    int    `json:"position"`
}

// ContainerItems is one container's ordered content at a version.
type ContainerItems struct {
	ContainerID string `json:"containerId"`
	Version     int64  `json:"version"`
	Items       []Item `json:"items"`
}

// Container is a document's container header.
type Container struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
}

// Node is a positioned canvas element.
type Node struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"containerId,omitempty"`
	Kind        string         `json:"kind"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Data        map[string]any `json:"data,omitempty"`
}

// Viewport is the visible canvas region.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Document is the canonical state of a collaborative structure.
type Document struct {
	ID         string      `json:"id"`
	Version    int64       `json:"version"`
	Archived   bool        `json:"archived,omitempty"`
	Containers []Container `json:"containers"`
	Items      []Item      `json:"items"`
	Nodes      []Node      `json:"nodes"`
	Viewport   Viewport    `json:"viewport"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Patch replaces whole document sections. Absent sections are left alone.
type Patch struct {
	Items    *[]Item   `json:"items,omitempty"`
	Nodes    *[]Node   `json:"nodes,omitempty"`
	Viewport *Viewport `json:"viewport,omitempty"`
}

// FromEntry converts a presence entry.
func FromEntry(e presence.Entry) User {
	u := User{
		ClientID:     e.ClientID,
		UserID:       e.UserID,
		UserName:     e.UserName,
		Color:        string(e.Color),
		LastActiveAt: e.LastActiveAt,
		Status:       string(e.Status),
	}
	if e.Cursor != nil {
		u.CursorPosition = &Cursor{X: e.Cursor.X, Y: e.Cursor.Y}
	}
	if e.Selection != nil {
		u.Selection = fromSelection(e.Selection)
	}
	return u
}

// FromEntries converts entries, returning an empty (not nil) slice.
func FromEntries(entries []presence.Entry) []User {
	out := make([]User, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}

// ToUpdate converts optional cursor and selection fields to a presence update.
func ToUpdate(cursor *Cursor, sel *Selection) presence.Update {
	var u presence.Update
	if cursor != nil {
		u.Cursor = &presence.Cursor{X: cursor.X, Y: cursor.Y}
	}
	if sel != nil {
		u.Selection = &presence.Selection{IDs: sel.IDs, Anchor: sel.Anchor, Head: sel.Head}
	}
	return u
}

// ToEntry converts a wire user back to a presence entry.
func ToEntry(u User) presence.Entry {
	upd := ToUpdate(u.CursorPosition, u.Selection)
	return presence.Entry{
		ClientID:     u.ClientID,
		UserID:       u.UserID,
		UserName:     u.UserName,
		Color:        presence.Color(u.Color),
		Cursor:       upd.Cursor,
		Selection:    upd.Selection,
		LastActiveAt: u.LastActiveAt,
		Status:       presence.Status(u.Status),
	}
}

func fromSelection(s *presence.Selection) *Selection {
	return &Selection{IDs: s.IDs, Anchor: s.Anchor, Head: s.Head}
}

// FromItems converts ordered items.
func FromItems(items []ordering.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{ID: it.ID, ContainerID: it.ContainerID, Position: it.Position}
	}
	return out
}

// ToItems converts wire items.
func ToItems(items []Item) []ordering.Item {
	out := make([]ordering.Item, len(items))
	for i, it := range items {
		out[i] = ordering.Item{ID: it.ID, ContainerID: it.ContainerID, Position: it.Position}
	}
	return out
}

// FromUpdates converts position updates.
func FromUpdates(updates []ordering.Update) []Update {
	out := make([]Update, len(updates))
	for i, u := range updates {
		out[i] = Update{ItemID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}
	return out
}

// ToUpdates converts wire updates.
func ToUpdates(updates []Update) []ordering.Update {
	out := make([]ordering.Update, len(updates))
	for i, u := range updates {
		out[i] = ordering.Update{ItemID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}
	return out
}

// FromSnapshot converts a container snapshot.
func FromSnapshot(s ordering.Snapshot) ContainerItems {
	return ContainerItems{ContainerID: s.ContainerID, Version: s.Version, Items: FromItems(s.Items)}
}

// FromSnapshots converts container snapshots.
func FromSnapshots(snaps []ordering.Snapshot) []ContainerItems {
	out := make([]ContainerItems, len(snaps))
	for i, s := range snaps {
		out[i] = FromSnapshot(s)
	}
	return out
}

// ToSnapshot converts wire container items.
func ToSnapshot(c ContainerItems) ordering.Snapshot {
	return ordering.Snapshot{ContainerID: c.ContainerID, Version: c.Version, Items: ToItems(c.Items)}
}

// FromDocument converts a canonical document.
func FromDocument(d *document.Document) Document {
	out := Document{
		ID:         d.ID,
		Version:    d.Version,
		Archived:   d.Archived,
		Containers: make([]Container, len(d.Containers)),
		Items:      FromItems(d.Items),
		Nodes:      fromNodes(d.Nodes),
		Viewport:   Viewport{X: d.Viewport.X, Y: d.Viewport.Y, Zoom: d.Viewport.Zoom},
		UpdatedAt:  d.UpdatedAt,
	}
	for i, c := range d.Containers {
		out.Containers[i] = Container{ID: c.ID, Title: c.Title, Version: c.Version}
	}
	return out
}

// ToDocument converts a wire document.
func ToDocument(d Document) document.Document {
	out := document.Document{
		ID:        d.ID,
		Version:   d.Version,
		Archived:  d.Archived,
		Items:     ToItems(d.Items),
		Nodes:     toNodes(d.Nodes),
		Viewport:  document.Viewport{X: d.Viewport.X, Y: d.Viewport.Y, Zoom: d.Viewport.Zoom},
		UpdatedAt: d.UpdatedAt,
	}
	for _, c := range d.Containers {
		out.Containers = append(out.Containers, document.Container{ID: c.ID, Title: c.Title, Version: c.Version})
	}
	return out
}

// FromPatch converts a domain patch.
func FromPatch(p document.Patch) Patch {
	var out Patch
	if p.SetItems {
		items := FromItems(p.Items)
		out.Items = &items
	}
	if p.SetNodes {
		nodes := fromNodes(p.Nodes)
		out.Nodes = &nodes
	}
	if p.Viewport != nil {
		out.Viewport = &Viewport{X: p.Viewport.X, Y: p.Viewport.Y, Zoom: p.Viewport.Zoom}
	}
	return out
}

// ToPatch converts a wire patch.
func ToPatch(p Patch) document.Patch {
	var out document.Patch
	if p.Items != nil {
		out.Items = ToItems(*p.Items)
		out.SetItems = true
	}
	if p.Nodes != nil {
		out.Nodes = toNodes(*p.Nodes)
		out.SetNodes = true
	}
	if p.Viewport != nil {
		out.Viewport = &document.Viewport{X: p.Viewport.X, Y: p.Viewport.Y, Zoom: p.Viewport.Zoom}
	}
	return out
}

func fromNodes(nodes []document.Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node(n)
	}
	return out
}

func toNodes(nodes []Node) []document.Node {
	out := make([]document.Node, len(nodes))
	for i, n := range nodes {
		out[i] = document.Node(n)
	}
	return out
}
