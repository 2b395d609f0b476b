package analytics

import "sort"

// TopKeys returns the resolution keys of the first n ranking entries.
func TopKeys(ranking []RankEntry, n int) []string {
	if n <= 0 {
		n = DefaultSeriesSize
	}
	if n > len(ranking) {
		n = len(ranking)
	}
	keys := make([]string, 0, n)
	for _, e := range ranking[:n] {
		keys = append(keys, e.Key)
	}
	return keys
}

// Cumulative builds a running-sum line per key over the union of their
// evaluation dates. A date without a new evaluation repeats the previous
// total; before the first evaluation the total is 0.
func Cumulative(rows []Row, keys []string) Series {
	selected := make(map[string]int, len(keys))
	for i, key := range keys {
		selected[key] = i
	}
	names := make([]string, len(keys))
	perDate := make([]map[string]float64, len(keys))
	for i := range perDate {
		perDate[i] = map[string]float64{}
	}
	dateSet := map[string]bool{}
	for _, r := range rows {
		i, ok := selected[r.Key]
		if !ok || !r.HasDate {
			continue
		}
		if names[i] == "" {
			names[i] = r.Name
		}
		date := r.Date.Format(dateLayout)
		dateSet[date] = true
		perDate[i][date] += r.Score
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := Series{Dates: dates, Lines: make([]Line, 0, len(keys))}
	for i, key := range keys {
		line := Line{Key: key, Name: names[i], Values: make([]float64, 0, len(dates))}
		total := 0.0
		for _, d := range dates {
			total += perDate[i][d]
			line.Values = append(line.Values, round2(total))
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
