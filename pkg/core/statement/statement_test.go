package statement

import (
	"errors"
	"testing"
)

func TestParseYearLabel(t *testing.T) {
	cases := []struct {
		label string
		year  int
		ok    bool
	}{
		{"2023", 2023, true},
		{"2023-12-31", 2023, true},
		{" 2021 ", 2021, true},
		{"FY2023", 0, false},
		{"", 0, false},
		{"-12-31", 0, false},
	}
	for _, c := range cases {
		year, ok := ParseYearLabel(c.label)
		if ok != c.ok || year != c.year {
			t.Errorf("ParseYearLabel(%q): got (%d, %v), exp (%d, %v)", c.label, year, ok, c.year, c.ok)
		}
	}
}

func TestLatestYear(t *testing.T) {
	raw := map[string]map[string]interface{}{
		"2021-12-31": {"Revenue": 900.0},
		"2022":       {"Revenue": 950.0},
		"2023-09-30": {"Revenue": 1000.0},
	}
	s, err := NormalizeIncome(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	year, err := s.LatestYear()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year != 2023 {
		t.Errorf("latest year: got %d, exp 2023", year)
	}

	// Years are sorted ascending by parsed year
	want := []string{"2021-12-31", "2022", "2023-09-30"}
	for i, label := range s.Years {
		if label != want[i] {
			t.Errorf("Years[%d]: got %s, exp %s", i, label, want[i])
		}
	}
}

func TestLatestYear_NoParseable(t *testing.T) {
	raw := map[string]map[string]interface{}{
		"FY-latest": {"Revenue": 1000.0},
	}
	s, err := NormalizeIncome(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.LatestYear(); !errors.Is(err, ErrNoParseableYear) {
		t.Errorf("expected ErrNoParseableYear, got %v", err)
	}
}

func TestRowForYear(t *testing.T) {
	raw := map[string]map[string]interface{}{
		"2023-12-31": {"Revenue": 1000.0},
	}
	s, err := NormalizeIncome(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := s.RowForYear(2023)
	if row == nil {
		t.Fatal("RowForYear(2023) should match date-prefixed label")
	}
	if row[Revenue] != 1000 {
		t.Errorf("Revenue: got %v, exp 1000", row[Revenue])
	}
	if s.RowForYear(2020) != nil {
		t.Error("RowForYear(2020) should be nil")
	}
}
