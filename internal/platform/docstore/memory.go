package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Memory keeps collections in process. It backs tests and DOCSTORE_DRIVER=memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{collections: map[string]map[string]map[string]any{}}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, newError(CodeNotFound, "get", collection, errMissing)
	}
	return Document{ID: id, Data: cloneData(data)}, nil
}

func (m *Memory) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	docs, err := m.matching(q)
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) FindPage(ctx context.Context, q Query) (Page, error) {
	if err := q.validate(); err != nil {
		return Page{}, err
	}
	docs, err := m.matching(q)
	if err != nil {
		return Page{}, err
	}
	return paginate(docs, q.orderField(), q.pageSize()), nil
}

func (m *Memory) matching(q Query) ([]Document, error) {
	var after *cursor
	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, newError(CodeFailedPrecondition, "query", q.Collection, err)
		}
		after = &c
	}
	filters := q.scopedFilters()
	field := q.orderField()

	m.mu.RLock()
	docs := make([]Document, 0, len(m.collections[q.Collection]))
	for id, data := range m.collections[q.Collection] {
		if !matchesAll(id, data, filters) {
			continue
		}
		doc := Document{ID: id, Data: data}
		if after != nil && !afterCursor(orderValue(doc, field), id, *after, q.Desc) {
			continue
		}
		docs = append(docs, Document{ID: id, Data: cloneData(data)})
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		vi, vj := orderValue(docs[i], field), orderValue(docs[j], field)
		if vi == vj {
			if q.Desc {
				return docs[i].ID > docs[j].ID
			}
			return docs[i].ID < docs[j].ID
		}
		if q.Desc {
			return vi > vj
		}
		return vi < vj
	})
	return docs, nil
}

func paginate(docs []Document, field string, size int) Page {
	page := Page{Items: docs}
	if len(docs) > size {
		page.Items = docs[:size]
		page.HasMore = true
		last := page.Items[size-1]
		page.NextCursor = encodeCursor(orderValue(last, field), last.ID)
	}
	return page
}

func (m *Memory) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := NewID()
	if err := m.Batch(ctx, []Mutation{{Kind: MutationCreate, Collection: collection, ID: id, Data: data}}); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return m.Batch(ctx, []Mutation{{Kind: MutationSet, Collection: collection, ID: id, Data: data}})
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return m.Batch(ctx, []Mutation{{Kind: MutationUpdate, Collection: collection, ID: id, Data: patch}})
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	return m.Batch(ctx, []Mutation{{Kind: MutationDelete, Collection: collection, ID: id}})
}

// Batch validates every mutation against a staged copy before publishing it.
func (m *Memory) Batch(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := map[string]map[string]map[string]any{}
	lookup := func(collection, id string) (map[string]any, bool) {
		if data, ok := staged[collection][id]; ok {
			return data, data != nil
		}
		data, ok := m.collections[collection][id]
		return data, ok
	}
	stage := func(collection, id string, data map[string]any) {
		if staged[collection] == nil {
			staged[collection] = map[string]map[string]any{}
		}
		staged[collection][id] = data
	}

	for _, mut := range mutations {
		if mut.Collection == "" {
			return newError(CodeFailedPrecondition, "batch", "", errEmptyCollection)
		}
		id := mut.ID
		if id == "" && mut.Kind == MutationCreate {
			id = NewID()
		}
		switch mut.Kind {
		case MutationCreate:
			if _, exists := lookup(mut.Collection, id); exists {
				return newError(CodeAlreadyExists, "create", mut.Collection, errExists)
			}
			stage(mut.Collection, id, normalizeData(stampCreate(mut.Data, "")))
		case MutationSet:
			createdAt := ""
			if existing, ok := lookup(mut.Collection, id); ok {
				createdAt, _ = existing[FieldCreatedAt].(string)
			}
			stage(mut.Collection, id, normalizeData(stampCreate(mut.Data, createdAt)))
		case MutationUpdate:
			existing, ok := lookup(mut.Collection, id)
			if !ok {
				return newError(CodeNotFound, "update", mut.Collection, errMissing)
			}
			merged := cloneData(existing)
			for k, v := range normalizeData(stampUpdate(mut.Data)) {
				merged[k] = v
			}
			stage(mut.Collection, id, merged)
		case MutationDelete:
			stage(mut.Collection, id, nil)
		default:
			return newError(CodeFailedPrecondition, "batch", mut.Collection, errInvalidFilter)
		}
	}

	for collection, docs := range staged {
		if m.collections[collection] == nil {
			m.collections[collection] = map[string]map[string]any{}
		}
		for id, data := range docs {
			if data == nil {
				delete(m.collections[collection], id)
				continue
			}
			m.collections[collection][id] = data
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

func matchesAll(id string, data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matches(id, data, f) {
			return false
		}
	}
	return true
}

func matches(id string, data map[string]any, f Filter) bool {
	value, present := data[f.Field]
	if f.Field == FieldID {
		value, present = id, true
	}
	switch f.Op {
	case OpEq:
		return present && jsonEqual(value, f.Value)
	case OpIn:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, candidate := range f.Value.([]string) {
			if candidate == s {
				return true
			}
		}
		return false
	case OpArrayContains:
		items, ok := value.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if jsonEqual(item, f.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func jsonEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

// normalizeData round-trips through JSON so stored values have canonical types.
func normalizeData(data map[string]any) map[string]any {
	raw, err := json.Marshal(data)
	if err != nil {
		return cloneData(data)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return cloneData(data)
	}
	return out
}

func cloneData(data map[string]any) map[string]any {
	raw, err := json.Marshal(data)
	if err != nil {
		out := make(map[string]any, len(data))
		for k, v := range data {
			out[k] = v
		}
		return out
	}
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}
