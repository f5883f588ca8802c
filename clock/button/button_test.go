package button

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("start-stop")
	require.NoError(t, err)
	assert.Equal(t, StartStop, id)

	id, err = ParseID(" ok ")
	require.NoError(t, err)
	assert.Equal(t, OK, id)

	_, err = ParseID("select")
	assert.ErrorIs(t, err, ErrUnknownButton)
}

func TestRepeatableButtons(t *testing.T) {
	for _, id := range All() {
		want := id == Up || id == Down
		assert.Equal(t, want, id.IsRepeatable(), id.String())
	}
}

func TestNewMapLookup(t *testing.T) {
	m, err := NewMap(map[ID]Line{
		StartStop: 4, Menu: 5, Left: 6, Right: 7,
		Up: 10, Down: 11, Cancel: 12, OK: 13,
	})
	require.NoError(t, err)

	id, ok := m.Lookup(10)
	require.True(t, ok)
	assert.Equal(t, Up, id)
	assert.Equal(t, Line(13), m.Line(OK))

	_, ok = m.Lookup(8)
	assert.False(t, ok)
	_, ok = m.Lookup(MaxLines + 1)
	assert.False(t, ok)
}

func TestNewMapRejectsSharedLine(t *testing.T) {
	lines := Sequential(0)
	lines[OK] = lines[Cancel]

	_, err := NewMap(lines)
	assert.ErrorIs(t, err, ErrDuplicateLine)
}

func TestNewMapRejectsMissingButton(t *testing.T) {
	lines := Sequential(0)
	delete(lines, Menu)

	_, err := NewMap(lines)
	assert.ErrorIs(t, err, ErrMissingButton)
}

func TestNewMapRejectsOutOfRangeLine(t *testing.T) {
	lines := Sequential(0)
	lines[Left] = MaxLines

	_, err := NewMap(lines)
	assert.ErrorIs(t, err, ErrLineRange)
}

func TestNilMapLookup(t *testing.T) {
	var m *Map
	_, ok := m.Lookup(1)
	assert.False(t, ok)
}
