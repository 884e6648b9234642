package document

import (
	"errors"
	"testing"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

func board() Document {
	return Document{
		ID:      "doc-1",
		Version: 4,
		Containers: []Container{
			{ID: "todo", Title: "To Do", Version: 2},
			{ID: "done", Title: "Done", Version: 1},
		},
		Items: []ordering.Item{
			{ID: "A", ContainerID: "todo", Position: 0},
			{ID: "B", ContainerID: "todo", Position: 1},
			{ID: "C", ContainerID: "todo", Position: 2},
			{ID: "D", ContainerID: "done", Position: 0},
		},
		Nodes:    []Node{{ID: "n1", Kind: "sticky", X: 10, Y: 20, Data: map[string]any{"text": "hi"}}},
		Viewport: Viewport{Zoom: 1},
	}
}

func TestDocument_Snapshot(t *testing.T) {
	t.Parallel()

	d := board()

	s, ok := d.Snapshot("todo")
	if !ok {
		t.Fatal("Snapshot(todo) ok = false, want true")
	}
	if s.Version != 2 {
		t.Errorf("Version = %d, want 2", s.Version)
	}
	if len(s.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(s.Items))
	}

	if _, ok := d.Snapshot("missing"); ok {
		t.Error("Snapshot(missing) ok = true, want false")
	}
}

func TestDocument_MoveItem(t *testing.T) {
	t.Parallel()

	d := board()

	updates, err := d.MoveItem(ordering.Move{ItemID: "B", FromContainerID: "todo", ToContainerID: "done", ToPosition: 0})
	if err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if len(updates) == 0 {
		t.Fatal("MoveItem() returned no updates")
	}
	if err := d.ValidateItems(); err != nil {
		t.Errorf("ValidateItems() = %v, want nil", err)
	}

	done, _ := d.Snapshot("done")
	if done.Items[0].ID != "B" || done.Items[1].ID != "D" {
		t.Errorf("done = %+v, want [B D]", done.Items)
	}
}

func TestDocument_MoveItemErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		move    ordering.Move
		wantErr error
	}{
		{
			name:    "unknown destination",
			move:    ordering.Move{ItemID: "A", FromContainerID: "todo", ToContainerID: "nope"},
			wantErr: domain.ErrContainerNotFound,
		},
		{
			name:    "unknown item",
			move:    ordering.Move{ItemID: "Z", FromContainerID: "todo", ToContainerID: "done"},
			wantErr: domain.ErrItemNotFound,
		},
		{
			name:    "invalid request",
			move:    ordering.Move{ItemID: "A", FromContainerID: "todo", ToContainerID: "done", ToPosition: -2},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := board()
			if _, err := d.MoveItem(tt.move); !errors.Is(err, tt.wantErr) {
				t.Errorf("MoveItem() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	t.Parallel()

	d := board()
	c := d.Clone()

	c.Items[0].Position = 9
	c.Nodes[0].Data["text"] = "changed"
	c.Containers[0].Title = "changed"

	if d.Items[0].Position != 0 {
		t.Error("Items shared with clone")
	}
	if d.Nodes[0].Data["text"] != "hi" {
		t.Error("Node data shared with clone")
	}
	if d.Containers[0].Title != "To Do" {
		t.Error("Containers shared with clone")
	}
}

func TestDocument_MoveNode(t *testing.T) {
	t.Parallel()

	d := board()
	if err := d.MoveNode("n1", 5, 6); err != nil {
		t.Fatalf("MoveNode() error = %v", err)
	}
	if d.Nodes[0].X != 5 || d.Nodes[0].Y != 6 {
		t.Errorf("node at (%v,%v), want (5,6)", d.Nodes[0].X, d.Nodes[0].Y)
	}
	if err := d.MoveNode("nope", 0, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("MoveNode(nope) error = %v, want ErrNotFound", err)
	}
}

func TestPatch_Validate(t *testing.T) {
	t.Parallel()

	d := board()
	moved := d.Clone()
	if _, err := moved.MoveItem(ordering.Move{ItemID: "C", FromContainerID: "todo", ToContainerID: "todo", ToPosition: 0}); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}

	gap := d.Clone()
	gap.Items[2].Position = 5

	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{name: "full patch", patch: FullPatch(moved)},
		{name: "viewport only", patch: Patch{Viewport: &Viewport{Zoom: 2}}},
		{name: "empty", patch: Patch{}, wantErr: true},
		{name: "zero zoom", patch: Patch{Viewport: &Viewport{}}, wantErr: true},
		{name: "gap in container", patch: Patch{Items: gap.Items, SetItems: true}, wantErr: true},
		{name: "missing item", patch: Patch{Items: d.Items[:3], SetItems: true}, wantErr: true},
		{
			name: "unknown container",
			patch: Patch{SetItems: true, Items: append(d.Clone().Items[:3],
				ordering.Item{ID: "D", ContainerID: "archive", Position: 0})},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.patch.Validate(d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("errors.Is(err, ErrValidation) = false, got %v", err)
			}
		})
	}
}

func TestPatch_ApplyTo(t *testing.T) {
	t.Parallel()

	d := board()
	vp := Viewport{X: 3, Zoom: 1.5}

	got := Patch{Viewport: &vp, Nodes: nil, SetNodes: true}.ApplyTo(d)

	if got.Viewport != vp {
		t.Errorf("Viewport = %+v, want %+v", got.Viewport, vp)
	}
	if len(got.Nodes) != 0 {
		t.Errorf("len(Nodes) = %d, want 0", len(got.Nodes))
	}
	if len(got.Items) != len(d.Items) {
		t.Errorf("len(Items) = %d, want %d", len(got.Items), len(d.Items))
	}
	if len(d.Nodes) != 1 {
		t.Error("ApplyTo mutated its input")
	}
}
