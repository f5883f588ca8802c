package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
)

// Flash is raw NOR flash: writes can only clear bits, Erase sets a whole
// erase block back to 0xFF. hal.Flash implements it.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// RecordSize is the encoded size of a Record in flash.
const RecordSize = 32

const (
	recordMagic   uint32 = 0x4b4c4346 // "FCLK"
	recordVersion uint16 = 1
)

var errNoFlash = errors.New("flash has no erase block")

// FlashStore keeps records in the last erase block of flash. Records are
// appended slot by slot; the block is erased only when it is full, and the
// last valid slot wins on Load.
type FlashStore struct {
	flash Flash

	mu  sync.Mutex
	buf []byte
}

// NewFlashStore uses the last erase block of f.
func NewFlashStore(f Flash) *FlashStore {
	return &FlashStore{flash: f}
}

func (s *FlashStore) region() (off, size uint32, err error) {
	if s.flash == nil {
		return 0, 0, errNoFlash
	}
	size = s.flash.EraseBlockBytes()
	total := s.flash.SizeBytes()
	if size < RecordSize || total < size {
		return 0, 0, errNoFlash
	}
	return total - size, size, nil
}

// scan reads the block and returns the last valid record and the first
// blank slot (-1 when the block is full).
func (s *FlashStore) scan() (rec Record, found bool, free int, err error) {
	off, size, err := s.region()
	if err != nil {
		return Record{}, false, -1, err
	}
	if uint32(len(s.buf)) != size {
		s.buf = make([]byte, size)
	}
	if _, err := s.flash.ReadAt(s.buf, off); err != nil {
		return Record{}, false, -1, fmt.Errorf("read settings block: %w", err)
	}

	free = -1
	slots := int(size / RecordSize)
	for i := 0; i < slots; i++ {
		slot := s.buf[i*RecordSize : (i+1)*RecordSize]
		if blank(slot) {
			free = i
			break
		}
		if r, ok := decodeRecord(slot); ok {
			rec, found = r, true
		}
	}
	return rec, found, free, nil
}

// Load returns the newest saved record, or Defaults and ErrNoRecord.
func (s *FlashStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found, _, err := s.scan()
	if err != nil {
		return Defaults(), err
	}
	if !found {
		return Defaults(), ErrNoRecord
	}
	return rec.Sanitize(), nil
}

// Save appends r, erasing the block first when it is full.
func (s *FlashStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, free, err := s.scan()
	if err != nil {
		return err
	}
	off, size, _ := s.region()

	var enc [RecordSize]byte
	encodeRecord(enc[:], r)

	if free >= 0 {
		if _, err := s.flash.WriteAt(enc[:], off+uint32(free)*RecordSize); err == nil {
			return nil
		}
	}
	if err := s.flash.Erase(off, size); err != nil {
		return fmt.Errorf("erase settings block: %w", err)
	}
	if _, err := s.flash.WriteAt(enc[:], off); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func blank(p []byte) bool {
	for _, b := range p {
		if b != 0xff {
			return false
		}
	}
	return true
}

func encodeRecord(p []byte, r Record) {
	le := binary.LittleEndian
	le.PutUint32(p[0:], recordMagic)
	le.PutUint16(p[4:], recordVersion)
	le.PutUint16(p[6:], 0)
	le.PutUint64(p[8:], uint64(r.ModelTS))
	le.PutUint64(p[16:], uint64(r.RealTS))
	le.PutUint32(p[24:], r.Timescale)
	le.PutUint32(p[28:], crc32.ChecksumIEEE(p[:28]))
}

func decodeRecord(p []byte) (Record, bool) {
	le := binary.LittleEndian
	if len(p) < RecordSize || le.Uint32(p[0:]) != recordMagic || le.Uint16(p[4:]) != recordVersion {
		return Record{}, false
	}
	if le.Uint32(p[28:]) != crc32.ChecksumIEEE(p[:28]) {
		return Record{}, false
	}
	return Record{
		ModelTS:   int64(le.Uint64(p[8:])),
		RealTS:    int64(le.Uint64(p[16:])),
		Timescale: le.Uint32(p[24:]),
	}, true
}
