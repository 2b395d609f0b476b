package shared

import (
	"encoding/json"

	"perfeval/internal/platform/docstore"
)

// Render flattens a record into one response object, placing its extension
// fields next to the declared ones. Declared fields win on collision.
func Render(record docstore.Extensible) map[string]any {
	out := map[string]any{}
	raw, err := json.Marshal(record)
	if err == nil {
		_ = json.Unmarshal(raw, &out)
	}
	for key, value := range record.Extensions() {
		if _, ok := out[key]; ok || docstore.IsDerived(key) {
			continue
		}
		out[key] = value
	}
	return out
}

// RenderAll renders a list of records; nil input renders as an empty list.
func RenderAll[T any, P interface {
	*T
	docstore.Extensible
}](items []T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, Render(P(&items[i])))
	}
	return out
}
