// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// CursorResponse is a member's pointer position.
type CursorResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SelectionResponse is a member's selection.
type SelectionResponse struct {
	IDs    []string `json:"ids"`
	Anchor *int     `json:"anchor,omitempty"`
	Head   *int     `json:"head,omitempty"`
}

// MemberResponse represents one presence entry in HTTP responses.
type MemberResponse struct {
	ClientID     string             `json:"client_id"`
	UserID       string             `json:"user_id"`
	UserName     string             `json:"user_name"`
	Color        string             `json:"color"`
	Status       string             `json:"status"`
	Cursor       *CursorResponse    `json:"cursor,omitempty"`
	Selection    *SelectionResponse `json:"selection,omitempty"`
	LastActiveAt string             `json:"last_active_at"`
}

// PresenceResponse lists a room's members in join order.
type PresenceResponse struct {
	RoomID  string           `json:"room_id"`
	Members []MemberResponse `json:"members"`
	Count   int              `json:"count"`
}

// ToPresenceResponse converts a room snapshot to an HTTP response DTO.
// An unknown room yields an empty member list.
func ToPresenceResponse(roomID string, entries []presence.Entry) PresenceResponse {
	members := make([]MemberResponse, len(entries))
	for i, e := range entries {
		m := MemberResponse{
			ClientID:     e.ClientID,
			UserID:       e.UserID,
			UserName:     e.UserName,
			Color:        string(e.Color),
			Status:       string(e.Status),
			LastActiveAt: e.LastActiveAt.Format(time.RFC3339),
		}
		if e.Cursor != nil {
			m.Cursor = &CursorResponse{X: e.Cursor.X, Y: e.Cursor.Y}
		}
		if s := e.Selection; s != nil {
			m.Selection = &SelectionResponse{IDs: s.IDs, Anchor: s.Anchor, Head: s.Head}
		}
		members[i] = m
	}
	return PresenceResponse{RoomID: roomID, Members: members, Count: len(members)}
}

// ItemResponse is an item's placement.
type ItemResponse struct {
	ID          string `json:"id"`
	ContainerID string `json:"container_id"`
	Position    int    `json:"position"`
}

// ContainerItemsResponse is a container's items in position order.
type ContainerItemsResponse struct {
	ContainerID string         `json:"container_id"`
	Version     int64          `json:"version"`
	Items       []ItemResponse `json:"items"`
	Count       int            `json:"count"`
}

// ToContainerItemsResponse converts a container snapshot to an HTTP
// response DTO.
func ToContainerItemsResponse(s ordering.Snapshot) ContainerItemsResponse {
	items := toItemResponses(ordering.Sorted(s.Items))
	return ContainerItemsResponse{
		ContainerID: s.ContainerID,
		Version:     s.Version,
		Items:       items,
		Count:       len(items),
	}
}

// MoveResponse describes a committed move.
type MoveResponse struct {
	ItemID     string                   `json:"item_id"`
	NoOp       bool                     `json:"noop"`
	Updates    []ItemResponse           `json:"updates"`
	Containers []ContainerItemsResponse `json:"containers"`
}

// ToMoveResponse converts a move result to an HTTP response DTO.
func ToMoveResponse(res *ports.MoveResult) MoveResponse {
	updates := make([]ItemResponse, len(res.Updates))
	for i, u := range res.Updates {
		updates[i] = ItemResponse{ID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}
	containers := make([]ContainerItemsResponse, len(res.Containers))
	for i, s := range res.Containers {
		containers[i] = ToContainerItemsResponse(s)
	}
	return MoveResponse{
		ItemID:     res.Move.ItemID,
		NoOp:       res.NoOp,
		Updates:    updates,
		Containers: containers,
	}
}

// ContainerResponse is a container's header within a document.
type ContainerResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
}

// NodeResponse is a positioned canvas node.
type NodeResponse struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"container_id,omitempty"`
	Kind        string         `json:"kind"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Data        map[string]any `json:"data,omitempty"`
}

// ViewportResponse is the canvas viewport.
type ViewportResponse struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DocumentResponse represents a canonical document in HTTP responses.
type DocumentResponse struct {
	ID         string              `json:"id"`
	Version    int64               `json:"version"`
	Archived   bool                `json:"archived"`
	Containers []ContainerResponse `json:"containers"`
	Items      []ItemResponse      `json:"items"`
	Nodes      []NodeResponse      `json:"nodes"`
	Viewport   ViewportResponse    `json:"viewport"`
	UpdatedAt  string              `json:"updated_at"`
}

// ToDocumentResponse converts a domain Document to an HTTP response DTO.
func ToDocumentResponse(d *document.Document) DocumentResponse {
	containers := make([]ContainerResponse, len(d.Containers))
	for i, c := range d.Containers {
		containers[i] = ContainerResponse{ID: c.ID, Title: c.Title, Version: c.Version}
	}
	nodes := make([]NodeResponse, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = NodeResponse{
			ID:          n.ID,
			ContainerID: n.ContainerID,
			Kind:        n.Kind,
			X:           n.X,
			Y:           n.Y,
			Width:       n.Width,
			Height:      n.Height,
			Data:        n.Data,
		}
	}
	return DocumentResponse{
		ID:         d.ID,
		Version:    d.Version,
		Archived:   d.Archived,
		Containers: containers,
		Items:      toItemResponses(d.Items),
		Nodes:      nodes,
		Viewport:   ViewportResponse{X: d.Viewport.X, Y: d.Viewport.Y, Zoom: d.Viewport.Zoom},
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}

func toItemResponses(items []ordering.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = ItemResponse{ID: it.ID, ContainerID: it.ContainerID, Position: it.Position}
	}
	return out
}
