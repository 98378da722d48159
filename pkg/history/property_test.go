package history_test

import (
	"testing"

	"github.com/aretw0/sheaf/pkg/core"
	"github.com/aretw0/sheaf/pkg/history"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func titles() gopter.Gen {
	return gen.SliceOf(gen.Identifier())
}

func pushAll(m *history.Manager[core.Snapshot], ts []string) {
	for _, s := range ts {
		m.Push(snap(s))
	}
}

func TestProperty_UndoThenRedoRestores(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("redo after undo returns the pre-undo state", prop.ForAll(
		func(ts []string, current string, size int) bool {
			m := history.New[core.Snapshot](history.WithMaxSize(size))
			pushAll(m, ts)

			cur := snap(current)
			prev, ok := m.Undo(cur)
			if !ok {
				return len(ts) == 0
			}
			back, ok := m.Redo(prev)
			return ok && back.Equal(cur)
		},
		titles(),
		gen.AlphaString(),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_PushEqualTopIsNoop(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("pushing the top again changes nothing", prop.ForAll(
		func(ts []string, last string) bool {
			m := history.New[core.Snapshot]()
			pushAll(m, ts)
			m.Push(snap(last))
			before := m.UndoLen()
			st := m.Push(snap(last))
			return m.UndoLen() == before && st.CanUndo
		},
		titles(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestProperty_PushClearsRedo(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("a successful push empties redo", prop.ForAll(
		func(ts []string, undos int, next string) bool {
			m := history.New[core.Snapshot]()
			pushAll(m, ts)
			cur := snap("current")
			for range undos {
				if prev, ok := m.Undo(cur); ok {
					cur = prev
				}
			}
			m.Push(snap(next + "!"))
			return m.RedoLen() == 0 && !m.Status().CanRedo
		},
		titles(),
		gen.IntRange(0, 5),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestProperty_UndoOnEmptyChangesNothing(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("undo on an empty stack is inert", prop.ForAll(
		func(ts []string) bool {
			m := history.New[core.Snapshot]()
			cur := snap("current")
			// Drain the undo stack onto redo first.
			pushAll(m, ts)
			for {
				prev, ok := m.Undo(cur)
				if !ok {
					break
				}
				cur = prev
			}
			redo := m.RedoLen()
			_, ok := m.Undo(cur)
			return !ok && m.UndoLen() == 0 && m.RedoLen() == redo
		},
		titles(),
	))

	properties.TestingRun(t)
}

func TestProperty_BoundedFIFO(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("undo never exceeds max and keeps the newest", prop.ForAll(
		func(n, size int) bool {
			m := history.New[core.Snapshot](history.WithMaxSize(size))
			for i := range n {
				m.Push(snap(string(rune('A' + i%26)) + string(rune('a'+i/26))))
				if m.UndoLen() > size {
					return false
				}
			}

			want := min(n, size)
			if m.UndoLen() != want {
				return false
			}
			// The survivors are the newest pushes, popped newest first.
			cur := snap("current")
			for i := n - 1; i >= n-want; i-- {
				prev, ok := m.Undo(cur)
				if !ok || prev.Title != string(rune('A'+i%26))+string(rune('a'+i/26)) {
					return false
				}
				cur = prev
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

func TestProperty_ClearIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("clear twice reports nothing available", prop.ForAll(
		func(ts []string) bool {
			m := history.New[core.Snapshot]()
			pushAll(m, ts)
			_, _ = m.Undo(snap("current"))
			first := m.Clear()
			second := m.Clear()
			return first == history.Status{} && second == history.Status{}
		},
		titles(),
	))

	properties.TestingRun(t)
}
