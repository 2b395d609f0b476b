package evaluations

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number decodes numbers, numeric strings ("8,5" included) and anything else
// as 0, so malformed stored values never break a read.
type Number float64

func (n *Number) UnmarshalJSON(raw []byte) error {
	*n = Number(coerce(raw))
	return nil
}

// Scores maps criterion name to score. Values decode leniently like Number.
type Scores map[string]float64

func (s *Scores) UnmarshalJSON(raw []byte) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		*s = Scores{}
		return nil
	}
	out := make(Scores, len(values))
	for k, v := range values {
		out[k] = coerce(v)
	}
	*s = out
	return nil
}

func coerce(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return ParseScore(str)
	}
	return 0
}

// ParseScore reads a decimal that may use a comma separator; bad input is 0.
func ParseScore(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
