package kernel

import "sync/atomic"

// MailboxSlots is the fixed capacity of a Mailbox.
const MailboxSlots = 16

// Mailbox is a fixed-size multi-producer, single-consumer queue.
//
// TrySend never blocks and never allocates, so it may run in interrupt context.
// Only one goroutine may call TryRecv.
type Mailbox[T any] struct {
	_     [0]func() // not comparable
	head  atomic.Uint32
	tail  atomic.Uint32
	ready [MailboxSlots]atomic.Bool
	slots [MailboxSlots]T
}

// TrySend attempts to enqueue v, returning false if the mailbox is full.
func (mb *Mailbox[T]) TrySend(v T) bool {
	for {
		head := mb.head.Load()
		tail := mb.tail.Load()
		if head-tail >= MailboxSlots {
			return false
		}

		// Reserve a slot.
		if !mb.head.CompareAndSwap(head, head+1) {
			continue
		}

		i := head % MailboxSlots
		mb.slots[i] = v
		mb.ready[i].Store(true)
		return true
	}
}

// TryRecv attempts to dequeue one value, returning false if empty.
//
// A slot that has been reserved but not yet published reads as empty.
func (mb *Mailbox[T]) TryRecv() (T, bool) {
	var zero T
	tail := mb.tail.Load()
	if tail == mb.head.Load() {
		return zero, false
	}

	i := tail % MailboxSlots
	if !mb.ready[i].Load() {
		return zero, false
	}
	v := mb.slots[i]
	mb.slots[i] = zero
	mb.ready[i].Store(false)
	mb.tail.Store(tail + 1)
	return v, true
}

// Len returns the number of reserved slots.
func (mb *Mailbox[T]) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}
