package analytics

import (
	"sort"
	"time"
)

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Periods groups dated rows by month, newest first. Undated rows are left
// out, so the counts add up to the number of dated rows.
func Periods(rows []Row, locale string) []Period {
	groups := map[string]*accumulator{}
	dates := map[string]time.Time{}
	for _, r := range rows {
		if !r.HasDate {
			continue
		}
		key := r.PeriodKey()
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
			dates[key] = r.Date
		}
		acc.add(r.Score)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	out := make([]Period, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		out = append(out, Period{
			Key:     key,
			Label:   MonthLabel(dates[key], locale),
			Count:   acc.count,
			Average: mean(acc.sum, acc.count),
		})
	}
	return out
}
