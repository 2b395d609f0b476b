package evaluations

import (
	"encoding/json"
	"math"
	"testing"
)

func TestAverageAndClamp(t *testing.T) {
	scores := NormalizeScores(map[string]float64{"Comunicação": 12, "Proatividade": -3, " Ética ": 8.5, "": 4})
	if len(scores) != 3 {
		t.Fatalf("expected blank criterion dropped, got %+v", scores)
	}
	if scores["Comunicação"] != 10 || scores["Proatividade"] != 0 || scores["Ética"] != 8.5 {
		t.Fatalf("unexpected clamp: %+v", scores)
	}
	if got := Average(scores); got != 6.17 {
		t.Fatalf("expected 6.17, got %v", got)
	}
	if got := Average(Scores{"a": 7, "b": 8, "c": 8}); got != 7.67 {
		t.Fatalf("expected 7.67, got %v", got)
	}
	if Average(nil) != 0 {
		t.Fatal("empty scores average must be 0")
	}
	if ClampScore(math.NaN()) != 0 {
		t.Fatal("NaN must clamp to 0")
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2025-03-15":           "2025-03-01",
		"2025-03":              "2025-03-01",
		"15/03/2025":           "2025-03-01",
		"03/2025":              "2025-03-01",
		"2025-03-31T23:00:00Z": "2025-03-01",
	}
	for raw, want := range cases {
		got, err := NormalizeDate(raw)
		if err != nil || got != want {
			t.Fatalf("NormalizeDate(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := NormalizeDate("março"); err != ErrInvalidDate {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestLenientDecoding(t *testing.T) {
	raw := `{"id":"x","employeeName":"Ana","date":"2025-01-01","scores":{"a":"8,5","b":null,"c":"abc","d":9},"average":"7.5"}`
	var e Evaluation
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Scores["a"] != 8.5 || e.Scores["b"] != 0 || e.Scores["c"] != 0 || e.Scores["d"] != 9 {
		t.Fatalf("unexpected scores: %+v", e.Scores)
	}
	if e.Average != 7.5 {
		t.Fatalf("expected average 7.5, got %v", e.Average)
	}

	var bad Evaluation
	if err := json.Unmarshal([]byte(`{"scores":"oops","average":{}}`), &bad); err != nil {
		t.Fatalf("malformed fields must not fail decoding: %v", err)
	}
	if len(bad.Scores) != 0 || bad.Average != 0 {
		t.Fatalf("expected zero values, got %+v", bad)
	}
}
