//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var hostKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyTab, KeyTab},
	{ebiten.KeySpace, KeySpace},
}

// pollKeys drives the bound button lines from the window's keyboard state.
func (h *hostHAL) pollKeys() {
	for _, k := range hostKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			h.press(k.code, true)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			h.press(k.code, false)
		}
	}
}
