package evaluations

import (
	"time"

	"github.com/shopspring/decimal"

	"perfeval/internal/platform/textnorm"
)

// ClampScore bounds a score to [0,10]; NaN and infinities become 0.
func ClampScore(v float64) float64 {
	v = finite(v)
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// NormalizeScores cleans criterion names and clamps every value. Entries with
// an empty name are dropped.
func NormalizeScores(in map[string]float64) Scores {
	out := make(Scores, len(in))
	for name, v := range in {
		name = textnorm.Clean(name)
		if name == "" {
			continue
		}
		out[name] = ClampScore(v)
	}
	return out
}

// Average is the arithmetic mean of the scores rounded to two places.
func Average(scores Scores) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range scores {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(scores)))).Round(2).Float64()
	return avg
}

// NormalizeDate parses the accepted input layouts and returns the first day
// of that month as YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	parsed, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	return parsed.Format(dateLayout), nil
}

func ParseDate(raw string) (time.Time, error) {
	raw = textnorm.Clean(raw)
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
