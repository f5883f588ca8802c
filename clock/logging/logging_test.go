package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lines struct {
	mu  sync.Mutex
	out []string
}

func (l *lines) WriteLineString(s string) {
	l.mu.Lock()
	l.out = append(l.out, s)
	l.mu.Unlock()
}

func TestHandlerFormatsComponentAndAttrs(t *testing.T) {
	var sink lines
	log := New(&sink, slog.LevelDebug).With("component", "bus")

	log.Warn("event dropped", "event", "timer_pause", "queue", 64)
	log.Debug("slow", "took", 1500*time.Millisecond)

	require.Len(t, sink.out, 2)
	assert.Equal(t, "WARN bus: event dropped event=timer_pause queue=64", sink.out[0])
	assert.Equal(t, "DEBUG bus: slow took=1.5s", sink.out[1])
}

func TestHandlerLevelFilter(t *testing.T) {
	var sink lines
	log := New(&sink, slog.LevelWarn)

	log.Info("hidden")
	log.Error("shown", "err", errors.New("boom"))

	require.Len(t, sink.out, 1)
	assert.Equal(t, "ERROR shown err=boom", sink.out[0])
}

func TestHandlerQuotesAndGroups(t *testing.T) {
	var sink lines
	log := New(&sink, nil).WithGroup("cfg")

	log.Info("loaded", "path", "my config.toml", slog.Group("timing", "poll", "10ms"))

	require.Len(t, sink.out, 1)
	assert.Equal(t, `INFO loaded cfg.path="my config.toml" cfg.timing.poll=10ms`, sink.out[0])
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	log.Error("nothing")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
