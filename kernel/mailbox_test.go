package kernel

import (
	"runtime"
	"sync"
	"testing"
)

func TestMailboxTryRecvEmpty(t *testing.T) {
	var mb Mailbox[uint8]

	_, ok := mb.TryRecv()
	if ok {
		t.Fatalf("TryRecv() ok = true, want false")
	}
}

func TestMailboxTrySendFull(t *testing.T) {
	var mb Mailbox[uint8]

	for i := 0; i < MailboxSlots; i++ {
		if ok := mb.TrySend(uint8(i)); !ok {
			t.Fatalf("TrySend() ok = false at slot %d, want true", i)
		}
	}
	if ok := mb.TrySend(0xff); ok {
		t.Fatalf("TrySend() ok = true when full, want false")
	}
	if got := mb.Len(); got != MailboxSlots {
		t.Fatalf("Len() = %d, want %d", got, MailboxSlots)
	}

	for i := 0; i < MailboxSlots; i++ {
		v, ok := mb.TryRecv()
		if !ok {
			t.Fatalf("TryRecv() ok = false at slot %d, want true", i)
		}
		if int(v) != i {
			t.Fatalf("TryRecv() = %d, want %d (FIFO)", v, i)
		}
	}
	if got := mb.Len(); got != 0 {
		t.Fatalf("Len() = %d after drain, want 0", got)
	}
}

func TestMailboxWrapsAround(t *testing.T) {
	var mb Mailbox[int]

	for round := 0; round < 5; round++ {
		for i := 0; i < MailboxSlots-1; i++ {
			if !mb.TrySend(round*100 + i) {
				t.Fatalf("round %d: TrySend(%d) failed", round, i)
			}
		}
		for i := 0; i < MailboxSlots-1; i++ {
			v, ok := mb.TryRecv()
			if !ok || v != round*100+i {
				t.Fatalf("round %d: TryRecv() = %d, %v; want %d, true", round, v, ok, round*100+i)
			}
		}
	}
}

func TestMailboxConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 10_000
		total     = producers * perProd
	)

	var mb Mailbox[uint32]

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				id := uint32(producerID*perProd + i)
				for !mb.TrySend(id) {
					runtime.Gosched()
				}
			}
		}(producerID)
	}
	close(start)

	seen := make([]bool, total)
	for i := 0; i < total; i++ {
		var id uint32
		for {
			v, ok := mb.TryRecv()
			if ok {
				id = v
				break
			}
			runtime.Gosched()
		}
		if int(id) >= total {
			t.Fatalf("TryRecv() id = %d, want < %d", id, total)
		}
		if seen[id] {
			t.Fatalf("TryRecv() duplicate id %d", id)
		}
		seen[id] = true
	}

	wg.Wait()
}
