// Package entity implements the Anti-Corruption Layer translators for the
// external entity store's container, item, and document resources.
package entity

// ItemDTO matches the store's Item schema.
type ItemDTO struct {
	ID          string `json:"id"`
	ContainerID string `json:"container_id"`
	Position    int    `json:"position"`
}

// ContainerItemsDTO matches the store's ContainerItems response.
type ContainerItemsDTO struct {
	ContainerID string    `json:"container_id"`
	Version     int64     `json:"version"`
	Items       []ItemDTO `json:"items"`
}

// PositionUpdateDTO matches one entry of the store's PositionBatch schema.
type PositionUpdateDTO struct {
	ItemID      string `json:"item_id"`
	ContainerID string `json:"container_id"`
	Position    int    `json:"position"`
}

// PositionBatchRequestDTO matches the store's PositionBatch request. The
// store applies every update or none of them.
type PositionBatchRequestDTO struct {
	Expected map[string]int64    `json:"expected_versions"`
	Updates  []PositionUpdateDTO `json:"updates"`
}

// ContainerDTO matches the store's Container schema.
type ContainerDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
}

// NodeDTO matches the store's Node schema.
type NodeDTO struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"container_id,omitempty"`
	Kind        string         `json:"kind"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Data        map[string]any `json:"data,omitempty"`
}

// ViewportDTO matches the store's Viewport schema.
type ViewportDTO struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DocumentDTO matches the store's Document schema.
type DocumentDTO struct {
	ID         string         `json:"id"`
	Version    int64          `json:"version"`
	Archived   bool           `json:"archived"`
	Containers []ContainerDTO `json:"containers"`
	Items      []ItemDTO      `json:"items"`
	Nodes      []NodeDTO      `json:"nodes"`
	Viewport   ViewportDTO    `json:"viewport"`
	UpdatedAt  string         `json:"updated_at"`
}

// DocumentPatchRequestDTO matches the store's DocumentPatch request.
// Nil sections are left unchanged.
type DocumentPatchRequestDTO struct {
	Items    *[]ItemDTO   `json:"items,omitempty"`
	Nodes    *[]NodeDTO   `json:"nodes,omitempty"`
	Viewport *ViewportDTO `json:"viewport,omitempty"`
}
