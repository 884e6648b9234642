// Package presence defines the ephemeral per-room state of connected users.
package presence

import (
	"fmt"
	"strings"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// Status describes a member's liveness as observed by the heartbeat sweep.
type Status string

const (
	StatusActive Status = "active"
	StatusIdle   Status = "idle"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusIdle
}

// Cursor is a pointer location in document coordinates.
type Cursor struct {
	X float64
	Y float64
}

// Selection is what a member has selected: a set of items or nodes, and for
// text-like targets an optional range.
type Selection struct {
	IDs    []string
	Anchor *int
	Head   *int
}

// Entry is one client's presence in one room.
type Entry struct {
	ClientID     string
	UserID       string
	UserName     string
	Color        Color
	Cursor       *Cursor
	Selection    *Selection
	LastActiveAt time.Time
	Status       Status

	// InstanceID names the server process holding the client's connection.
	InstanceID string
}

// Identity is the caller-supplied part of a join.
type Identity struct {
	ClientID string
	UserID   string
	UserName string
}

// Validate checks that all identity fields are present.
func (id Identity) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(id.ClientID) == "" {
		fields["clientId"] = domain.MsgRequired
	}
	if strings.TrimSpace(id.UserID) == "" {
		fields["userId"] = domain.MsgRequired
	}
	if strings.TrimSpace(id.UserName) == "" {
		fields["userName"] = domain.MsgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	if e.Cursor != nil {
		c := *e.Cursor
		e.Cursor = &c
	}
	if e.Selection != nil {
		s := Selection{IDs: append([]string(nil), e.Selection.IDs...)}
		if e.Selection.Anchor != nil {
			a := *e.Selection.Anchor
			s.Anchor = &a
		}
		if e.Selection.Head != nil {
			h := *e.Selection.Head
			s.Head = &h
		}
		e.Selection = &s
	}
	return e
}

// Update carries the optional fields of a presence update. Nil fields leave
// the entry's current value in place.
type Update struct {
	Cursor    *Cursor
	Selection *Selection
}

// Apply merges u into e and marks it active at now.
func (e *Entry) Apply(u Update, now time.Time) {
	if u.Cursor != nil {
		c := *u.Cursor
		e.Cursor = &c
	}
	if u.Selection != nil {
		e.Selection = Entry{Selection: u.Selection}.Clone().Selection
	}
	e.Touch(now)
}

// Touch refreshes liveness without changing cursor or selection.
func (e *Entry) Touch(now time.Time) {
	e.LastActiveAt = now
	e.Status = StatusActive
}

// Color is a CSS color string.
type Color string

// Palette is the ordered set of colors handed out at join.
type Palette []Color

// DefaultPalette is used when configuration does not supply one.
var DefaultPalette = Palette{
	"#E57373", "#64B5F6", "#81C784", "#FFB74D",
	"#BA68C8", "#4DB6AC", "#F06292", "#A1887F",
}

// ForSize returns the color for a member joining a room that currently
// holds size members. Colors repeat once members leave and rejoin.
func (p Palette) ForSize(size int) Color {
	if len(p) == 0 {
		return DefaultPalette.ForSize(size)
	}
	return p[size%len(p)]
}

// ParsePalette builds a palette from configuration strings.
func ParsePalette(colors []string) (Palette, error) {
	if len(colors) == 0 {
		return DefaultPalette, nil
	}
	p := make(Palette, 0, len(colors))
	for i, c := range colors {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"palette": fmt.Sprintf("entry %d %s", i, domain.MsgRequired),
			}}
		}
		p = append(p, Color(c))
	}
	return p, nil
}
