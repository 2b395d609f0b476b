package analytics

import "sort"

func BySector(r Row) string { return r.Sector }
func ByRole(r Row) string   { return r.Role }
func ByLevel(r Row) string  { return r.Level }

// RollupBy groups rows by field, best mean first. OverallAverage is the plain
// mean of the group means, not weighted by group size.
func RollupBy(rows []Row, field func(Row) string) Rollup {
	index := map[string]int{}
	var names []string
	var accs []*accumulator
	for _, r := range rows {
		name := labelOr(field(r))
		i, ok := index[name]
		if !ok {
			i = len(accs)
			index[name] = i
			names = append(names, name)
			accs = append(accs, &accumulator{})
		}
		accs[i].add(r.Score)
	}

	out := Rollup{Groups: make([]Group, 0, len(accs))}
	var overall accumulator
	for i, acc := range accs {
		out.Groups = append(out.Groups, Group{Name: names[i], Count: acc.count, Average: mean(acc.sum, acc.count)})
		overall.add(acc.mean())
	}
	sort.SliceStable(out.Groups, func(a, b int) bool {
		if out.Groups[a].Average != out.Groups[b].Average {
			return out.Groups[a].Average > out.Groups[b].Average
		}
		return out.Groups[a].Name < out.Groups[b].Name
	})
	out.OverallAverage = mean(overall.sum, overall.count)
	return out
}
