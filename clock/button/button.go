// Package button defines the physical button identities of the clock and
// their fixed mapping onto input lines.
package button

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one physical button.
type ID uint8

const (
	StartStop ID = iota
	Menu
	Left
	Right
	Up
	Down
	Cancel
	OK

	// Count is the number of button identities.
	Count = int(OK) + 1
)

// None is returned by lookups that find no button.
const None ID = 0xff

var names = [Count]string{
	StartStop: "START_STOP",
	Menu:      "MENU",
	Left:      "LEFT",
	Right:     "RIGHT",
	Up:        "UP",
	Down:      "DOWN",
	Cancel:    "CANCEL",
	OK:        "OK",
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("button(%d)", uint8(id))
	}
	return names[id]
}

// Valid reports whether id is one of the defined identities.
func (id ID) Valid() bool { return int(id) < Count }

// IsRepeatable reports whether the button supports long-press and auto-repeat.
// Only UP and DOWN do.
func (id ID) IsRepeatable() bool { return id == Up || id == Down }

// All returns every identity in enumeration order.
func All() []ID {
	ids := make([]ID, Count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// ParseID accepts the canonical names (case-insensitive, '-' or '_').
func ParseID(s string) (ID, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, n := range names {
		if n == norm {
			return ID(i), nil
		}
	}
	return None, fmt.Errorf("button %q: %w", s, ErrUnknownButton)
}

var (
	ErrUnknownButton = errors.New("unknown button")
	ErrDuplicateLine = errors.New("line mapped to more than one button")
	ErrMissingButton = errors.New("button has no line")
	ErrLineRange     = errors.New("line out of range")
)
