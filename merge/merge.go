// Package merge binds translated values back into a clone of the source
// document at the paths recorded during extraction.
//
// The source document is never mutated; everything that was not extracted
// comes back identical. A length mismatch between entries and values is an
// internal contract violation and fails hard.
package merge

import (
	"encoding/json"
	"fmt"

	"github.com/doctrans/doctrans/extract"
	"github.com/doctrans/doctrans/htmltag"
)

// Bind returns a deep copy of original with each entry's translated value
// assigned at its recorded path. Values pair with entries positionally;
// entries with a tag map get their markup restored first.
func Bind(original any, entries []extract.Entry, values []string) (any, error) {
	if len(entries) != len(values) {
		return nil, fmt.Errorf("bind: %d entries but %d translated values", len(entries), len(values))
	}

	clone, err := deepClone(original)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		value := values[i]
		if len(e.Tags) > 0 {
			value = htmltag.Restore(value, e.Tags)
		}
		if e.Path == "" {
			// Root-level scalar document.
			clone = value
			continue
		}
		if err := assign(clone, e.Path, value); err != nil {
			return nil, fmt.Errorf("bind %s: %w", e.Path, err)
		}
	}
	return clone, nil
}

// deepClone copies an arbitrary decoded document via a JSON round-trip.
func deepClone(doc any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	var clone any
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	return clone, nil
}

// assign walks root along the parsed path and sets the final step to value.
func assign(root any, path string, value string) error {
	steps, err := extract.ParsePath(path)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("empty path")
	}

	node := root
	for _, step := range steps[:len(steps)-1] {
		node, err = descend(node, step)
		if err != nil {
			return err
		}
	}

	last := steps[len(steps)-1]
	switch {
	case last.IsIndex:
		arr, ok := node.([]any)
		if !ok {
			return fmt.Errorf("expected array at index step, found %T", node)
		}
		if last.Index < 0 || last.Index >= len(arr) {
			return fmt.Errorf("index %d out of range (len %d)", last.Index, len(arr))
		}
		arr[last.Index] = value
	default:
		obj, ok := node.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object at key %q, found %T", last.Key, node)
		}
		if _, exists := obj[last.Key]; !exists {
			return fmt.Errorf("key %q not present", last.Key)
		}
		obj[last.Key] = value
	}
	return nil
}

func descend(node any, step extract.Step) (any, error) {
	if step.IsIndex {
		arr, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array at index step, found %T", node)
		}
		if step.Index < 0 || step.Index >= len(arr) {
			return nil, fmt.Errorf("index %d out of range (len %d)", step.Index, len(arr))
		}
		return arr[step.Index], nil
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object at key %q, found %T", step.Key, node)
	}
	child, exists := obj[step.Key]
	if !exists {
		return nil, fmt.Errorf("key %q not present", step.Key)
	}
	return child, nil
}
