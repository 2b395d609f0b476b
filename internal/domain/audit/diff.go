package audit

import (
	"encoding/json"
	"reflect"
	"sort"
)

var ignoredFields = map[string]bool{"createdAt": true, "updatedAt": true}

// Diff compares two records field by field after JSON encoding. Either side
// may be nil (create or delete).
func Diff(before, after any) []Change {
	b := flatten(before)
	a := flatten(after)

	keys := make([]string, 0, len(a)+len(b))
	seen := map[string]bool{}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var changes []Change
	for _, k := range keys {
		if ignoredFields[k] {
			continue
		}
		bv, bok := b[k]
		av, aok := a[k]
		if bok && aok && reflect.DeepEqual(bv, av) {
			continue
		}
		changes = append(changes, Change{Field: k, Before: bv, After: av})
	}
	return changes
}

func flatten(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		v = m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"value": string(raw)}
	}
	return out
}
