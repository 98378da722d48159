package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural invariants of a note: a positive id, a
// non-nil toggle list, and positive, unique toggle ids.
func Validate(n Note) error {
	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidNote, verrs[0].Namespace()+" failed "+verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}
	return nil
}

// cleanResult describes what load-time validation did to the stored data.
type cleanResult struct {
	notes   []Note
	dropped int
	dirty   bool
}

// cleanNotes parses the stored collection leniently, dropping malformed
// entries instead of failing. dirty is set when the result differs from what
// was stored and must be written back.
func cleanNotes(raw json.RawMessage, now time.Time, logger *slog.Logger) cleanResult {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		logger.Warn("stored notes are not a list, starting empty", "error", err)
		return cleanResult{notes: []Note{}, dirty: true}
	}

	res := cleanResult{notes: make([]Note, 0, len(entries))}
	seen := make(map[int64]struct{}, len(entries))
	for i, entry := range entries {
		n, changed, ok := cleanNote(entry, now)
		if !ok {
			logger.Debug("dropping malformed note", "index", i)
			res.dropped++
			res.dirty = true
			continue
		}
		if _, dup := seen[n.ID]; dup {
			logger.Debug("dropping duplicate note", "index", i, "id", n.ID)
			res.dropped++
			res.dirty = true
			continue
		}
		seen[n.ID] = struct{}{}
		if changed {
			res.dirty = true
		}
		res.notes = append(res.notes, n)
	}
	return res
}

func cleanNote(entry json.RawMessage, now time.Time) (Note, bool, bool) {
	obj, ok := decodeObject(entry)
	if !ok {
		return Note{}, false, false
	}

	id, ok := decodeID(obj["id"])
	if !ok {
		return Note{}, false, false
	}

	var rawToggles []json.RawMessage
	if v, found := obj["toggles"]; !found || json.Unmarshal(v, &rawToggles) != nil || rawToggles == nil {
		return Note{}, false, false
	}

	changed := false
	n := Note{
		ID:      id,
		Toggles: make([]Toggle, 0, len(rawToggles)),
	}
	if !decodeString(obj["title"], &n.Title) {
		changed = true
	}

	seen := make(map[int64]struct{}, len(rawToggles))
	for _, rt := range rawToggles {
		t, tChanged, ok := cleanToggle(rt)
		if !ok {
			changed = true
			continue
		}
		if _, dup := seen[t.ID]; dup {
			changed = true
			continue
		}
		seen[t.ID] = struct{}{}
		if tChanged {
			changed = true
		}
		n.Toggles = append(n.Toggles, t)
	}

	ts := Timestamp(now)
	var ok1, ok2 bool
	n.Created, ok1 = decodeTime(obj["created"])
	n.Updated, ok2 = decodeTime(obj["updated"])
	if !ok1 {
		n.Created = ts
		changed = true
	}
	if !ok2 {
		n.Updated = n.Created
		changed = true
	}
	return n, changed, true
}

func cleanToggle(entry json.RawMessage) (Toggle, bool, bool) {
	obj, ok := decodeObject(entry)
	if !ok {
		return Toggle{}, false, false
	}
	id, ok := decodeID(obj["id"])
	if !ok {
		return Toggle{}, false, false
	}
	t := Toggle{ID: id}
	if v, found := obj["title"]; !found || json.Unmarshal(v, &t.Title) != nil || isNull(v) {
		return Toggle{}, false, false
	}

	changed := false
	if !decodeString(obj["content"], &t.Content) {
		changed = true
	}
	if v, found := obj["isOpen"]; found {
		if json.Unmarshal(v, &t.IsOpen) != nil {
			t.IsOpen = false
			changed = true
		}
	} else {
		changed = true
	}
	return t, changed, true
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// decodeID accepts positive JSON numbers with an integral value, including
// forms such as 1e3 or 42.0.
func decodeID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	// json.Number also accepts quoted numerals.
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return 0, false
	}
	if id, err := num.Int64(); err == nil {
		return id, id > 0
	}
	f, err := num.Float64()
	if err != nil || f < 1 || f >= math.MaxInt64 || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// decodeString reads a string field into dst. A missing or non-string value
// leaves dst empty and reports false.
func decodeString(raw json.RawMessage, dst *string) bool {
	if raw == nil {
		return false
	}
	if isNull(raw) || json.Unmarshal(raw, dst) != nil {
		*dst = ""
		return false
	}
	return true
}

func decodeTime(raw json.RawMessage) (time.Time, bool) {
	if raw == nil || isNull(raw) {
		return time.Time{}, false
	}
	var t time.Time
	if err := json.Unmarshal(raw, &t); err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return Timestamp(t), true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
