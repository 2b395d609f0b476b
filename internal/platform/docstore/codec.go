package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Extensible records carry an open key/value map next to their typed fields.
// Keys the struct does not declare round-trip through it, except derived
// keys (leading underscore) that stores write for lookups.
type Extensible interface {
	Extensions() map[string]any
	SetExtensions(map[string]any)
}

var knownFieldsCache sync.Map

// Encode converts a typed record into document data. Store-managed fields
// (id, createdAt, updatedAt) are dropped.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if ext, ok := v.(Extensible); ok {
		known := knownFields(v)
		for key, value := range ext.Extensions() {
			if known[key] {
				continue
			}
			data[key] = value
		}
	}
	delete(data, FieldID)
	delete(data, FieldCreatedAt)
	delete(data, FieldUpdatedAt)
	return data, nil
}

// Decode fills out from a document, including its id.
func Decode(doc Document, out any) error {
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data[FieldID] = doc.ID
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if ext, ok := out.(Extensible); ok {
		known := knownFields(out)
		extra := map[string]any{}
		for key, value := range doc.Data {
			if known[key] || IsDerived(key) || key == FieldID || key == FieldCreatedAt || key == FieldUpdatedAt {
				continue
			}
			extra[key] = value
		}
		if len(extra) == 0 {
			extra = nil
		}
		ext.SetExtensions(extra)
	}
	return nil
}

// DecodeAll decodes a slice of documents into a slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := Decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ValidateExtensions checks an extension map at the API boundary: keys must be
// plain identifiers not declared by the record, values must be scalars.
func ValidateExtensions(record any, extra map[string]any) error {
	known := knownFields(record)
	for key, value := range extra {
		if !validField(key) || IsDerived(key) {
			return fmt.Errorf("extension key %q is not a valid identifier", key)
		}
		if known[key] || key == FieldCreatedAt || key == FieldUpdatedAt {
			return fmt.Errorf("extension key %q shadows a declared field", key)
		}
		switch value.(type) {
		case nil, string, bool, float64, float32, int, int64:
		default:
			return fmt.Errorf("extension %q must be a string, number or boolean", key)
		}
	}
	return nil
}

// IsDerived reports whether a key is a store-maintained lookup field such as
// "_nameKey". Derived keys never surface in Extra.
func IsDerived(key string) bool {
	return strings.HasPrefix(key, "_")
}

func knownFields(v any) map[string]bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := knownFieldsCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	fields := map[string]bool{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			fields[name] = true
		}
	}
	knownFieldsCache.Store(t, fields)
	return fields
}
