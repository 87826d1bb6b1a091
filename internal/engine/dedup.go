package engine

import "sync"

// Dedup decides whether a transaction hash was already processed.
// CheckAndStore records the hash and reports true when the caller must
// suppress it. Implementations serialize the read-then-write internally so
// two concurrent deliveries of the same transaction cannot both pass.
type Dedup interface {
	CheckAndStore(txHash string) bool
}

// lastHashDedup remembers only the single most recent hash. It suppresses
// back-to-back duplicates of the same transaction, not historical repeats:
// an identical hash arriving after any other transaction is processed
// again. NewBoundedSeenDedup widens the window where provider redelivery
// makes that matter.
type lastHashDedup struct {
	mu   sync.Mutex
	last string
}

func NewLastHashDedup() Dedup {
	return &lastHashDedup{}
}

func (d *lastHashDedup) CheckAndStore(txHash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if txHash == d.last {
		return true
	}
	d.last = txHash
	return false
}

// boundedSeenDedup remembers the last capacity distinct hashes, evicting
// oldest first.
type boundedSeenDedup struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]bool
}

func NewBoundedSeenDedup(capacity int) Dedup {
	if capacity < 1 {
		capacity = 1
	}
	return &boundedSeenDedup{
		capacity: capacity,
		seen:     make(map[string]bool, capacity),
	}
}

func (d *boundedSeenDedup) CheckAndStore(txHash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[txHash] {
		return true
	}
	if len(d.order) == d.capacity {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[txHash] = true
	d.order = append(d.order, txHash)
	return false
}
