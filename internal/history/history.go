// Package history keeps the crash points of recently completed rounds.
package history

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCapacity = 20

// Entry is a finished round. Entries are never modified after Record.
type Entry struct {
	ID         string
	Multiplier decimal.Decimal
	Timestamp  time.Time
}

// History is a newest-first log bounded to a fixed capacity.
type History struct {
	entries  []Entry
	capacity int
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (h *History) Capacity() int { return h.capacity }

func (h *History) Len() int { return len(h.entries) }

// Record prepends e, evicting the oldest entry once the log is full.
func (h *History) Record(e Entry) {
	if len(h.entries) < h.capacity {
		h.entries = append(h.entries, Entry{})
	}
	copy(h.entries[1:], h.entries[:len(h.entries)-1])
	h.entries[0] = e
}

// Latest yields up to n entries, most recent first. The sequence reads the
// log when it is iterated, so it can be ranged over again later and will
// reflect rounds recorded in between.
func (h *History) Latest(n int) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, e := range h.entries {
			if i >= n {
				return
			}
			if !yield(e) {
				return
			}
		}
	}
}
