package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastclock/clock/event"
	"fastclock/clock/model"
)

// memFlash is NOR flash in memory.
type memFlash struct {
	data   []byte
	block  uint32
	erases int
}

func newMemFlash(size, block uint32) *memFlash {
	f := &memFlash{data: make([]byte, size), block: block}
	for i := range f.data {
		f.data[i] = 0xff
	}
	return f
}

func (f *memFlash) SizeBytes() uint32       { return uint32(len(f.data)) }
func (f *memFlash) EraseBlockBytes() uint32 { return f.block }

func (f *memFlash) ReadAt(p []byte, off uint32) (int, error) {
	return copy(p, f.data[off:]), nil
}

func (f *memFlash) WriteAt(p []byte, off uint32) (int, error) {
	for i, b := range p {
		if f.data[int(off)+i]&b != b {
			return 0, errors.New("write requires erase")
		}
	}
	for i, b := range p {
		f.data[int(off)+i] &= b
	}
	return len(p), nil
}

func (f *memFlash) Erase(off, size uint32) error {
	for i := off; i < off+size; i++ {
		f.data[i] = 0xff
	}
	f.erases++
	return nil
}

func TestFlashStoreEmpty(t *testing.T) {
	s := NewFlashStore(newMemFlash(8192, 4096))
	rec, err := s.Load()
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, Defaults(), rec)
}

func TestFlashStoreSaveLoad(t *testing.T) {
	f := newMemFlash(8192, 4096)
	s := NewFlashStore(f)
	want := Record{ModelTS: 1735700000, RealTS: 1760000000, Timescale: 12}

	require.NoError(t, s.Save(Record{ModelTS: 1, RealTS: 2, Timescale: 3}))
	require.NoError(t, s.Save(want))

	got, err := NewFlashStore(f).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Zero(t, f.erases)
	assert.Equal(t, byte(0xff), f.data[0], "only the last block is used")
}

func TestFlashStoreWrapsFullBlock(t *testing.T) {
	f := newMemFlash(1024, 256)
	s := NewFlashStore(f)
	slots := 256 / RecordSize

	for i := 0; i <= slots; i++ {
		require.NoError(t, s.Save(Record{ModelTS: int64(i), Timescale: 2}))
	}

	assert.Equal(t, 1, f.erases)
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(slots), got.ModelTS)
}

func TestFlashStoreSkipsCorruptSlot(t *testing.T) {
	f := newMemFlash(1024, 256)
	s := NewFlashStore(f)
	require.NoError(t, s.Save(Record{ModelTS: 10, Timescale: 2}))
	require.NoError(t, s.Save(Record{ModelTS: 20, Timescale: 2}))

	// Flip a bit in the second record.
	f.data[1024-256+RecordSize+8] &^= 0x04

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ModelTS)
}

func TestFlashStoreSanitizesTimescale(t *testing.T) {
	s := NewFlashStore(newMemFlash(1024, 256))
	require.NoError(t, s.Save(Record{ModelTS: 5, Timescale: 0}))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(model.DefaultTimescale), got.Timescale)
}

func TestFlashStoreWithoutFlash(t *testing.T) {
	s := NewFlashStore(newMemFlash(0, 0))
	_, err := s.Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecord)
}

type memStore struct {
	rec   Record
	ok    bool
	saved []Record
	err   error
}

func (m *memStore) Load() (Record, error) {
	if m.err != nil {
		return Record{}, m.err
	}
	if !m.ok {
		return Defaults(), ErrNoRecord
	}
	return m.rec, nil
}

func (m *memStore) Save(r Record) error {
	m.saved = append(m.saved, r)
	return nil
}

func collect(t *testing.T, bus *event.Bus, topics ...event.Topic) *[]event.Event {
	t.Helper()
	var got []event.Event
	for _, topic := range topics {
		require.NoError(t, bus.Subscribe(topic, func(e event.Event) { got = append(got, e) }))
	}
	return &got
}

func TestRestorePublishesRecord(t *testing.T) {
	bus := event.New()
	store := &memStore{rec: Record{ModelTS: 100, RealTS: 200, Timescale: 7}, ok: true}
	p := NewPersister(store, func() Record { return Record{} }, bus)
	require.NoError(t, p.Subscribe(bus))
	got := collect(t, bus, event.TimerScale, event.SetModelTime, event.SetRealTime)

	rec, err := p.Restore()
	require.NoError(t, err)
	assert.Equal(t, store.rec, rec)
	bus.Flush()

	assert.Equal(t, []event.Event{
		event.Value(event.TimerScale, 7),
		event.Value(event.SetModelTime, 100),
		event.Value(event.SetRealTime, 200),
	}, *got)
	assert.Empty(t, store.saved, "restoring does not write back")
}

func TestRestoreFallsBackToDefaults(t *testing.T) {
	bus := event.New()
	p := NewPersister(&memStore{err: errors.New("i/o")}, func() Record { return Record{} }, bus)
	rec, err := p.Restore()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), rec)
}

func TestPersisterSaveTriggers(t *testing.T) {
	bus := event.New()
	store := &memStore{}
	snap := Record{ModelTS: 42, RealTS: 43, Timescale: 4}
	p := NewPersister(store, func() Record { return snap }, bus, WithSaveEvery(3))
	require.NoError(t, p.Subscribe(bus))
	saved := collect(t, bus, event.StorageSaved)

	publish := func(e event.Event) {
		require.NoError(t, bus.Publish(e))
		bus.Flush()
	}

	publish(event.Notify(event.TimerStateChanged))
	assert.Len(t, store.saved, 1)

	for i := 0; i < 5; i++ {
		publish(event.Value(event.ModelMinuteTick, int64(i)))
	}
	assert.Len(t, store.saved, 2)

	publish(event.Value(event.SetModelTime, 9))
	assert.Len(t, store.saved, 3)

	publish(event.Notify(event.RestartRequested))
	assert.Len(t, store.saved, 4)
	assert.Equal(t, 4, p.Saves())
	assert.Equal(t, snap, store.saved[3])

	require.Len(t, *saved, 4)
	assert.Equal(t, event.Value(event.StorageSaved, 42), (*saved)[0])
}

func TestFlashStoreNilFlash(t *testing.T) {
	s := NewFlashStore(nil)
	_, err := s.Load()
	assert.Error(t, err)
	assert.Error(t, s.Save(Defaults()))
}
