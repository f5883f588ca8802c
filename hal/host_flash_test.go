//go:build !tinygo

package hal

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestHostFlashNORSemantics(t *testing.T) {
	fl, err := OpenFlashFile(filepath.Join(t.TempDir(), "test.flash"))
	if err != nil {
		t.Fatalf("OpenFlashFile: %v", err)
	}
	if fl.SizeBytes() != HostFlashSizeBytes {
		t.Fatalf("size = %d, want %d", fl.SizeBytes(), HostFlashSizeBytes)
	}

	off := fl.SizeBytes() - fl.EraseBlockBytes()
	buf := make([]byte, 4)
	if _, err := fl.ReadAt(buf, off); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for _, b := range buf {
		if b != 0xFF {
			t.Fatalf("new image not erased: % x", buf)
		}
	}

	if _, err := fl.WriteAt([]byte{0x0F, 0x00, 0xAA, 0x55}, off); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	// Clearing further bits is allowed, setting them is not.
	if _, err := fl.WriteAt([]byte{0x0E}, off); err != nil {
		t.Fatalf("WriteAt clear: %v", err)
	}
	if _, err := fl.WriteAt([]byte{0xFF}, off); !errors.Is(err, ErrFlashWriteRequiresErase) {
		t.Fatalf("WriteAt set bits err = %v", err)
	}

	if err := fl.Erase(off, 100); err == nil {
		t.Fatal("expected unaligned erase to fail")
	}
	if err := fl.Erase(off, fl.EraseBlockBytes()); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if _, err := fl.ReadAt(buf, off); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if buf[0] != 0xFF || buf[3] != 0xFF {
		t.Fatalf("block not erased: % x", buf)
	}
}

func TestHostFlashReopenKeepsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.flash")
	fl, err := OpenFlashFile(path)
	if err != nil {
		t.Fatalf("OpenFlashFile: %v", err)
	}
	if _, err := fl.WriteAt([]byte{0x12}, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	again, err := OpenFlashFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	b := make([]byte, 1)
	if _, err := again.ReadAt(b, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if b[0] != 0x12 {
		t.Fatalf("got %#x after reopen, want 0x12", b[0])
	}
}
