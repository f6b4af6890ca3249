// Package chunk groups extracted entries into model-call-sized batches.
//
// The batch width is derived from the actual payload rather than a fixed
// constant: a sample of the entries is serialized the same way the prompt
// will serialize them, and the width shrinks until the sample fits the
// byte budget.
package chunk

import (
	"encoding/json"
	"strconv"

	"github.com/doctrans/doctrans/extract"
)

// DefaultMaxBytes is the serialized-sample budget for one model call.
const DefaultMaxBytes = 28000

const (
	startSize = 50
	minSize   = 5
)

// sampleLen measures the serialized length of an index-keyed object over
// the first n entry values, mirroring the prompt payload shape.
func sampleLen(entries []extract.Entry, n int) int {
	if n > len(entries) {
		n = len(entries)
	}
	sample := make(map[string]string, n)
	for i := 0; i < n; i++ {
		sample[strconv.Itoa(i)] = entries[i].Value
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return 0
	}
	return len(data)
}

// Size returns how many entries fit one model call under the byte budget.
// Starts at 50 and shrinks by 30% per step, never below 5. A maxBytes of 0
// selects DefaultMaxBytes.
func Size(entries []extract.Entry, maxBytes int) int {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	n := startSize
	for sampleLen(entries, n) > maxBytes && n > minSize {
		n = n * 7 / 10
		if n < minSize {
			n = minSize
		}
	}
	return n
}

// Split divides entries into consecutive chunks of the given size; the
// final chunk may be shorter.
func Split(entries []extract.Entry, size int) [][]extract.Entry {
	if size <= 0 || size >= len(entries) {
		if len(entries) == 0 {
			return nil
		}
		return [][]extract.Entry{entries}
	}
	var chunks [][]extract.Entry
	for i := 0; i < len(entries); i += size {
		end := i + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[i:end])
	}
	return chunks
}
