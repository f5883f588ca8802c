//go:build !tinygo

package hal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// consoleTap is how long a console key stays pressed unless a hold time is
// given.
const consoleTap = 100 * time.Millisecond

var consoleKeys = map[string]KeyCode{
	"up":     KeyUp,
	"down":   KeyDown,
	"left":   KeyLeft,
	"right":  KeyRight,
	"ok":     KeyEnter,
	"enter":  KeyEnter,
	"cancel": KeyEscape,
	"esc":    KeyEscape,
	"menu":   KeyTab,
	"tab":    KeyTab,
	"start":  KeySpace,
	"space":  KeySpace,
}

// parseConsoleLine reads "<key> [hold]", for example "up" or "down 1.5s".
func parseConsoleLine(line string) (KeyCode, time.Duration, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 || len(fields) > 2 {
		return KeyUnknown, 0, fmt.Errorf("console: want <key> [hold], got %q", line)
	}
	k, ok := consoleKeys[fields[0]]
	if !ok {
		return KeyUnknown, 0, fmt.Errorf("console: unknown key %q", fields[0])
	}
	hold := consoleTap
	if len(fields) == 2 {
		d, err := time.ParseDuration(fields[1])
		if err != nil || d <= 0 {
			return KeyUnknown, 0, fmt.Errorf("console: bad hold %q", fields[1])
		}
		hold = d
	}
	return k, hold, nil
}

// runConsole presses keys named on r, one per line, until r ends or ctx is
// done. It is the headless stand-in for the window keyboard.
func (h *hostHAL) runConsole(ctx context.Context, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		k, hold, err := parseConsoleLine(line)
		if err != nil {
			h.logger.WriteLineString(err.Error())
			continue
		}
		if !h.press(k, true) {
			h.logger.WriteLineString(fmt.Sprintf("console: %s is not bound", line))
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(hold):
		}
		h.press(k, false)
	}
}
