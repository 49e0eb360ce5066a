package history

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func entry(i int) Entry {
	return Entry{
		ID:         fmt.Sprintf("round-%d", i),
		Multiplier: decimal.NewFromInt(int64(i)),
		Timestamp:  time.Unix(int64(i), 0),
	}
}

func ids(seq []Entry) []string {
	out := make([]string, len(seq))
	for i, e := range seq {
		out[i] = e.ID
	}
	return out
}

func TestRecordNewestFirst(t *testing.T) {
	h := New(DefaultCapacity)
	for i := 1; i <= 3; i++ {
		h.Record(entry(i))
	}

	got := ids(slices.Collect(h.Latest(10)))
	want := []string{"round-3", "round-2", "round-1"}
	if !slices.Equal(got, want) {
		t.Errorf("Latest = %v, want %v", got, want)
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	h := New(DefaultCapacity)
	for i := 1; i <= 21; i++ {
		h.Record(entry(i))
		if h.Len() > DefaultCapacity {
			t.Fatalf("history grew to %d entries", h.Len())
		}
	}

	all := slices.Collect(h.Latest(100))
	if len(all) != 20 {
		t.Fatalf("len = %d, want 20", len(all))
	}
	if all[0].ID != "round-21" {
		t.Errorf("newest = %s, want round-21", all[0].ID)
	}
	if all[19].ID != "round-2" {
		t.Errorf("oldest = %s, want round-2 (round-1 evicted)", all[19].ID)
	}
}

func TestLatestIsRestartable(t *testing.T) {
	h := New(5)
	h.Record(entry(1))

	seq := h.Latest(2)
	if got := ids(slices.Collect(seq)); !slices.Equal(got, []string{"round-1"}) {
		t.Fatalf("first pass = %v", got)
	}

	h.Record(entry(2))
	h.Record(entry(3))
	if got := ids(slices.Collect(seq)); !slices.Equal(got, []string{"round-3", "round-2"}) {
		t.Errorf("second pass = %v, want [round-3 round-2]", got)
	}

	// Early break must not disturb later passes.
	for range seq {
		break
	}
	if n := len(slices.Collect(seq)); n != 2 {
		t.Errorf("third pass yielded %d entries, want 2", n)
	}
}

func TestNewDefaultsCapacity(t *testing.T) {
	if c := New(0).Capacity(); c != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", c, DefaultCapacity)
	}
}
