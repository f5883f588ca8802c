//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"fmt"
	"machine"
)

// settingsBlocks is how many erase blocks at the end of the free flash area
// the firmware may touch.
const settingsBlocks = 1

// rp2Flash exposes only the tail of machine.Flash, so a bad offset cannot
// reach anything stored below it.
type rp2Flash struct {
	base  int64
	size  uint32
	block uint32
}

func newRP2Flash() Flash {
	bs := machine.Flash.EraseBlockSize()
	total := machine.Flash.Size()
	if bs <= 0 || total < bs*settingsBlocks {
		return rp2Flash{}
	}
	size := bs * settingsBlocks
	return rp2Flash{base: total - size, size: uint32(size), block: uint32(bs)}
}

func (f rp2Flash) SizeBytes() uint32       { return f.size }
func (f rp2Flash) EraseBlockBytes() uint32 { return f.block }

func (f rp2Flash) check(off uint32, n int) error {
	if f.size == 0 {
		return ErrNotImplemented
	}
	if uint64(off)+uint64(n) > uint64(f.size) {
		return fmt.Errorf("flash: %d bytes at %d outside %d byte region", n, off, f.size)
	}
	return nil
}

func (f rp2Flash) ReadAt(p []byte, off uint32) (int, error) {
	if err := f.check(off, len(p)); err != nil {
		return 0, err
	}
	n, err := machine.Flash.ReadAt(p, f.base+int64(off))
	if err != nil {
		return n, fmt.Errorf("flash read at %d: %w", off, err)
	}
	return n, nil
}

func (f rp2Flash) WriteAt(p []byte, off uint32) (int, error) {
	if err := f.check(off, len(p)); err != nil {
		return 0, err
	}
	n, err := machine.Flash.WriteAt(p, f.base+int64(off))
	if err != nil {
		return n, fmt.Errorf("flash write at %d: %w", off, err)
	}
	return n, nil
}

func (f rp2Flash) Erase(off, size uint32) error {
	if size == 0 {
		return nil
	}
	if err := f.check(off, int(size)); err != nil {
		return err
	}
	if off%f.block != 0 || size%f.block != 0 {
		return fmt.Errorf("flash erase off=%d size=%d: unaligned", off, size)
	}
	first := (f.base + int64(off)) / int64(f.block)
	return machine.Flash.EraseBlocks(first, int64(size/f.block))
}
