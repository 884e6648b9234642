package store

import (
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
)

// nodeRow is the stored form of a canvas node.
type nodeRow struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"containerId,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Data        map[string]any `json:"data,omitempty"`
}

type viewportRow struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// EncodeNodes serializes nodes for a text column.
func EncodeNodes(nodes []document.Node) (string, error) {
	rows := make([]nodeRow, len(nodes))
	for i, n := range nodes {
		rows[i] = nodeRow(n)
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding nodes: %w", err)
	}
	return string(b), nil
}

// DecodeNodes parses a column written by EncodeNodes.
func DecodeNodes(raw string) ([]document.Node, error) {
	if raw == "" {
		return nil, nil
	}
	var rows []nodeRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decoding nodes: %w", err)
	}
	nodes := make([]document.Node, len(rows))
	for i, r := range rows {
		nodes[i] = document.Node(r)
	}
	return nodes, nil
}

// EncodeViewport serializes a viewport for a text column.
func EncodeViewport(v document.Viewport) (string, error) {
	b, err := json.Marshal(viewportRow(v))
	if err != nil {
		return "", fmt.Errorf("encoding viewport: %w", err)
	}
	return string(b), nil
}

// DecodeViewport parses a column written by EncodeViewport.
func DecodeViewport(raw string) (document.Viewport, error) {
	if raw == "" {
		return document.Viewport{Zoom: 1}, nil
	}
	var r viewportRow
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return document.Viewport{}, fmt.Errorf("decoding viewport: %w", err)
	}
	return document.Viewport(r), nil
}
