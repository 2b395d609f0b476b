package employees

import "perfeval/internal/platform/textnorm"

// Index resolves employee references the way evaluations carry them:
// exact id, then normalized code, then normalized name. The first employee
// registered under a code or name wins.
type Index struct {
	byID   map[string]Employee
	byCode map[string]Employee
	byName map[string]Employee
}

func NewIndex(list []Employee) *Index {
	idx := &Index{
		byID:   make(map[string]Employee, len(list)),
		byCode: make(map[string]Employee, len(list)),
		byName: make(map[string]Employee, len(list)),
	}
	for _, e := range list {
		idx.byID[e.ID] = e
		if code := textnorm.Code(e.Code); code != "" {
			if _, ok := idx.byCode[code]; !ok {
				idx.byCode[code] = e
			}
		}
		if name := textnorm.Key(e.Name); name != "" {
			if _, ok := idx.byName[name]; !ok {
				idx.byName[name] = e
			}
		}
	}
	return idx
}

// Match reports which step resolved the reference: "id", "code", "name" or "".
func (idx *Index) Match(id, code, name string) (Employee, string) {
	if id != "" {
		if e, ok := idx.byID[id]; ok {
			return e, "id"
		}
	}
	if key := textnorm.Code(code); key != "" {
		if e, ok := idx.byCode[key]; ok {
			return e, "code"
		}
	}
	if key := textnorm.Key(name); key != "" {
		if e, ok := idx.byName[key]; ok {
			return e, "name"
		}
	}
	return Employee{}, ""
}

func (idx *Index) Resolve(id, code, name string) (Employee, bool) {
	e, how := idx.Match(id, code, name)
	return e, how != ""
}
