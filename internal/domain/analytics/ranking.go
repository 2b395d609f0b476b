package analytics

import (
	"sort"
	"time"
)

type rankState struct {
	entry   RankEntry
	periods map[string]*accumulator
	dates   map[string]time.Time
}

// Rank builds one entry per resolution key, sorted by mean score descending.
// Ties keep first-seen order. TopPeriods counts the periods in which the
// employee was among the TopPerPeriod best period means.
func Rank(rows []Row, locale string) []RankEntry {
	index := map[string]int{}
	var states []*rankState
	for _, r := range rows {
		i, ok := index[r.Key]
		if !ok {
			i = len(states)
			index[r.Key] = i
			states = append(states, &rankState{
				entry: RankEntry{
					Key:         r.Key,
					EmployeeID:  r.EmployeeID,
					Name:        r.Name,
					Code:        r.Code,
					Sector:      r.Sector,
					Role:        r.Role,
					Level:       r.Level,
					Placeholder: r.Placeholder,
				},
				periods: map[string]*accumulator{},
				dates:   map[string]time.Time{},
			})
		}
		st := states[i]
		st.entry.Sum += r.Score
		st.entry.Count++
		if r.Highlight {
			st.entry.Highlights++
		}
		if !r.HasDate {
			continue
		}
		key := r.PeriodKey()
		acc, ok := st.periods[key]
		if !ok {
			acc = &accumulator{}
			st.periods[key] = acc
			st.dates[key] = r.Date
		}
		acc.add(r.Score)
	}

	type contender struct {
		state   int
		average float64
	}
	byPeriod := map[string][]contender{}
	for i, st := range states {
		keys := sortedKeys(st.periods)
		st.entry.History = make([]Point, 0, len(keys))
		for _, key := range keys {
			avg := st.periods[key].mean()
			st.entry.History = append(st.entry.History, Point{
				Period: key,
				Label:  MonthLabel(st.dates[key], locale),
				Score:  round2(avg),
			})
			byPeriod[key] = append(byPeriod[key], contender{state: i, average: avg})
		}
	}
	for _, key := range sortedKeys(byPeriod) {
		list := byPeriod[key]
		sort.SliceStable(list, func(a, b int) bool { return list[a].average > list[b].average })
		for n, c := range list {
			if n >= TopPerPeriod {
				break
			}
			states[c.state].entry.TopPeriods++
		}
	}

	out := make([]RankEntry, 0, len(states))
	for _, st := range states {
		e := st.entry
		e.Average = mean(e.Sum, e.Count)
		e.Sum = round2(e.Sum)
		out = append(out, e)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Average > out[b].Average })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
