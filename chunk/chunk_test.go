package chunk

import (
	"strings"
	"testing"

	"github.com/doctrans/doctrans/extract"
)

func entriesOfSize(count, valueLen int) []extract.Entry {
	entries := make([]extract.Entry, count)
	for i := range entries {
		entries[i] = extract.Entry{Value: strings.Repeat("x", valueLen)}
	}
	return entries
}

// ---------------------------------------------------------------------------
// Size
// ---------------------------------------------------------------------------

func TestSize_SmallPayloadKeepsStart(t *testing.T) {
	entries := entriesOfSize(100, 10)
	if got := Size(entries, 0); got != 50 {
		t.Errorf("got %d, want 50", got)
	}
}

func TestSize_NeverBelowFloor(t *testing.T) {
	entries := entriesOfSize(100, 100000)
	if got := Size(entries, 0); got != 5 {
		t.Errorf("got %d, want floor 5", got)
	}
}

func TestSize_NonIncreasingWithItemSize(t *testing.T) {
	prev := 51
	for _, valueLen := range []int{10, 500, 1000, 3000, 10000} {
		got := Size(entriesOfSize(100, valueLen), 0)
		if got > prev {
			t.Errorf("size grew from %d to %d at valueLen %d", prev, got, valueLen)
		}
		if got > 50 || got < 5 {
			t.Errorf("size %d outside [5, 50]", got)
		}
		prev = got
	}
}

func TestSize_ShrinkSteps(t *testing.T) {
	// ~1000 bytes per value: 50 and 35 wide samples blow a 30000-byte
	// budget, 24 fits (24 * ~1008 ≈ 24200).
	entries := entriesOfSize(100, 1000)
	if got := Size(entries, 30000); got != 24 {
		t.Errorf("got %d, want 24", got)
	}
}

func TestSize_FewerEntriesThanSample(t *testing.T) {
	entries := entriesOfSize(3, 10)
	if got := Size(entries, 0); got != 50 {
		t.Errorf("got %d, want 50 (sample capped at len)", got)
	}
}

// ---------------------------------------------------------------------------
// Split
// ---------------------------------------------------------------------------

func TestSplit(t *testing.T) {
	entries := entriesOfSize(12, 1)
	chunks := Split(entries, 5)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if len(chunks[0]) != 5 || len(chunks[1]) != 5 || len(chunks[2]) != 2 {
		t.Errorf("chunk lengths: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplit_SizeCoversAll(t *testing.T) {
	entries := entriesOfSize(4, 1)
	chunks := Split(entries, 10)
	if len(chunks) != 1 || len(chunks[0]) != 4 {
		t.Errorf("got %v", chunks)
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := Split(nil, 5); chunks != nil {
		t.Errorf("got %v", chunks)
	}
}
