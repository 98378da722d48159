package core

import (
	"fmt"
	"slices"
	"time"
)

// UntitledLabel is shown for notes with an empty title.
const UntitledLabel = "Untitled"

// Toggle is a titled, collapsible content section belonging to a note.
type Toggle struct {
	ID      int64  `json:"id" yaml:"id" validate:"gt=0"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	IsOpen  bool   `json:"isOpen" yaml:"isOpen"`
}

// Note is the central entity of the domain: an ordered collection of
// toggles plus a title and timestamps.
// Its JSON form is the persisted layout and must stay stable.
type Note struct {
	ID      int64     `json:"id" yaml:"id" validate:"gt=0"`
	Title   string    `json:"title" yaml:"title"`
	Toggles []Toggle  `json:"toggles" yaml:"toggles" validate:"required,unique=ID,dive"`
	Created time.Time `json:"created" yaml:"created"`
	Updated time.Time `json:"updated" yaml:"updated"`
}

// Snapshot is the editable state of a note (title + toggles) captured for
// history purposes. It excludes the id and timestamps.
type Snapshot struct {
	Title   string   `json:"title"`
	Toggles []Toggle `json:"toggles"`
}

// SectionTitle returns the default title for the n-th (1-based) toggle.
func SectionTitle(n int) string {
	return fmt.Sprintf("Section %d", n)
}

// NewNote builds a note seeded with count empty, closed toggles titled
// "Section 1..count".
func NewNote(id int64, count int, now time.Time) Note {
	toggles := make([]Toggle, 0, count)
	for i := 1; i <= count; i++ {
		toggles = append(toggles, Toggle{
			ID:    int64(i),
			Title: SectionTitle(i),
		})
	}

	ts := Timestamp(now)
	return Note{
		ID:      id,
		Toggles: toggles,
		Created: ts,
		Updated: ts,
	}
}

// Timestamp normalizes t to the persisted precision (UTC milliseconds).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// DisplayTitle returns the title, or "Untitled" when it is empty.
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return UntitledLabel
	}
	return n.Title
}

// Clone returns a deep copy of the note. The copy never aliases n.
func (n Note) Clone() Note {
	c := n
	c.Toggles = cloneToggles(n.Toggles)
	return c
}

// Snapshot captures the editable state of the note.
func (n Note) Snapshot() Snapshot {
	return Snapshot{
		Title:   n.Title,
		Toggles: cloneToggles(n.Toggles),
	}
}

// Restore replaces the editable state of the note with s.
// The id and timestamps are left untouched.
func (n *Note) Restore(s Snapshot) {
	n.Title = s.Title
	n.Toggles = cloneToggles(s.Toggles)
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Title:   s.Title,
		Toggles: cloneToggles(s.Toggles),
	}
}

// Equal reports structural equality of two snapshots.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Title == o.Title && slices.Equal(s.Toggles, o.Toggles)
}

// IsZero reports whether the snapshot carries no state at all.
func (s Snapshot) IsZero() bool {
	return s.Title == "" && s.Toggles == nil
}

func cloneToggles(in []Toggle) []Toggle {
	if in == nil {
		return nil
	}
	out := make([]Toggle, len(in))
	copy(out, in)
	return out
}
