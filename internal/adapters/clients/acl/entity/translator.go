package entity

import (
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// ToSnapshot converts a ContainerItemsDTO to an ordering snapshot. Items
// are sorted by position since the store does not promise an order.
func ToSnapshot(dto ContainerItemsDTO) ordering.Snapshot {
	items := make([]ordering.Item, len(dto.Items))
	for i, it := range dto.Items {
		items[i] = toItem(it, dto.ContainerID)
	}
	return ordering.Snapshot{
		ContainerID: dto.ContainerID,
		Version:     dto.Version,
		Items:       ordering.Sorted(items),
	}
}

// ToPositionBatchRequest converts an ordering batch to the store's request.
func ToPositionBatchRequest(b ordering.Batch) PositionBatchRequestDTO {
	req := PositionBatchRequestDTO{
		Expected: make(map[string]int64, len(b.Expected)),
		Updates:  make([]PositionUpdateDTO, len(b.Updates)),
	}
	for id, v := range b.Expected {
		req.Expected[id] = v
	}
	for i, u := range b.Updates {
		req.Updates[i] = PositionUpdateDTO{ItemID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}
	return req
}

// ToDocument converts a DocumentDTO to a domain document. A missing zoom
// defaults to 1 and an unparseable timestamp is left zero.
func ToDocument(dto *DocumentDTO) document.Document {
	updatedAt, _ := time.Parse(time.RFC3339Nano, dto.UpdatedAt)

	doc := document.Document{
		ID:        dto.ID,
		Version:   dto.Version,
		Archived:  dto.Archived,
		Viewport:  toViewport(dto.Viewport),
		UpdatedAt: updatedAt,
	}
	for _, c := range dto.Containers {
		doc.Containers = append(doc.Containers, document.Container{ID: c.ID, Title: c.Title, Version: c.Version})
	}
	for _, it := range dto.Items {
		doc.Items = append(doc.Items, toItem(it, it.ContainerID))
	}
	for _, n := range dto.Nodes {
		doc.Nodes = append(doc.Nodes, document.Node{
			ID:          n.ID,
			ContainerID: n.ContainerID,
			Kind:        n.Kind,
			X:           n.X,
			Y:           n.Y,
			Width:       n.Width,
			Height:      n.Height,
			Data:        n.Data,
		})
	}
	return doc
}

// ToDocumentPatchRequest converts a domain patch to the store's request.
func ToDocumentPatchRequest(p document.Patch) DocumentPatchRequestDTO {
	var req DocumentPatchRequestDTO
	if p.SetItems {
		items := make([]ItemDTO, len(p.Items))
		for i, it := range p.Items {
			items[i] = ItemDTO{ID: it.ID, ContainerID: it.ContainerID, Position: it.Position}
		}
		req.Items = &items
	}
	if p.SetNodes {
		nodes := make([]NodeDTO, len(p.Nodes))
		for i, n := range p.Nodes {
			nodes[i] = NodeDTO{
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
		req.Nodes = &nodes
	}
	if p.Viewport != nil {
		req.Viewport = &ViewportDTO{X: p.Viewport.X, Y: p.Viewport.Y, Zoom: p.Viewport.Zoom}
	}
	return req
}

func toItem(dto ItemDTO, containerID string) ordering.Item {
	if dto.ContainerID != "" {
		containerID = dto.ContainerID
	}
	return ordering.Item{ID: dto.ID, ContainerID: containerID, Position: dto.Position}
}

func toViewport(dto ViewportDTO) document.Viewport {
	zoom := dto.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return document.Viewport{X: dto.X, Y: dto.Y, Zoom: zoom}
}
