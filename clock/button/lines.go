package button

import "fmt"

// MaxLines bounds the line numbers a Map accepts. Lookup uses a fixed table of
// this size so it can run in interrupt context without map access.
const MaxLines = 64

// Line is a platform input line (GPIO index).
type Line uint8

// Map is the injective identity to line mapping. Build it with NewMap.
type Map struct {
	lines  [Count]Line
	byLine [MaxLines]ID
}

// NewMap validates m and builds the lookup tables. Every identity must be
// present and no two identities may share a line.
func NewMap(m map[ID]Line) (*Map, error) {
	out := &Map{}
	for i := range out.byLine {
		out.byLine[i] = None
	}

	for id, line := range m {
		if !id.Valid() {
			return nil, fmt.Errorf("map %s: %w", id, ErrUnknownButton)
		}
		if int(line) >= MaxLines {
			return nil, fmt.Errorf("map %s to line %d: %w", id, line, ErrLineRange)
		}
		if prev := out.byLine[line]; prev != None {
			return nil, fmt.Errorf("map %s to line %d (already %s): %w", id, line, prev, ErrDuplicateLine)
		}
		out.byLine[line] = id
		out.lines[id] = line
	}
	for _, id := range All() {
		if _, ok := m[id]; !ok {
			return nil, fmt.Errorf("map %s: %w", id, ErrMissingButton)
		}
	}
	return out, nil
}

// Lookup returns the identity wired to line.
func (m *Map) Lookup(line Line) (ID, bool) {
	if m == nil || int(line) >= MaxLines {
		return None, false
	}
	id := m.byLine[line]
	return id, id != None
}

// Line returns the line of id.
func (m *Map) Line(id ID) Line {
	if m == nil || !id.Valid() {
		return 0
	}
	return m.lines[id]
}

// Sequential maps the identities in enumeration order onto first, first+1, ...
func Sequential(first Line) map[ID]Line {
	m := make(map[ID]Line, Count)
	for _, id := range All() {
		m[id] = first + Line(id)
	}
	return m
}
