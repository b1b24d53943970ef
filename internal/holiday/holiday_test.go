package holiday

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestSingapore_KnownDates(t *testing.T) {
	cal := Singapore()

	tests := []struct {
		date     time.Time
		expected bool
	}{
		{day(2022, time.January, 1), true},
		{day(2022, time.February, 1), true},
		{day(2022, time.February, 2), true},
		{day(2022, time.April, 15), true},
		{day(2022, time.May, 2), true},
		{day(2022, time.May, 3), true},
		{day(2022, time.May, 16), true},
		{day(2022, time.July, 11), true},
		{day(2022, time.August, 9), true},
		{day(2022, time.October, 24), true},
		{day(2022, time.December, 26), true},
		{day(2022, time.January, 10), false},
		{day(2022, time.August, 8), false},
		{day(2022, time.August, 10), false},
		{day(2023, time.September, 1), true},
		{day(2024, time.February, 12), true},
		{day(2025, time.August, 11), true},
		{day(2026, time.November, 9), true},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(dateLayout), func(t *testing.T) {
			got := cal.Holidays(tt.date.Year()).Contains(tt.date)
			if got != tt.expected {
				t.Errorf("Contains(%s) = %v, expected %v", tt.date.Format(dateLayout), got, tt.expected)
			}
		})
	}
}

func TestSingapore_Years(t *testing.T) {
	cal := Singapore()
	years := cal.Years()
	if len(years) == 0 || years[0] != 2022 {
		t.Fatalf("Years() = %v, expected to start at 2022", years)
	}
	for _, y := range years {
		if !cal.Covers(y) {
			t.Errorf("Covers(%d) = false for a listed year", y)
		}
	}
	if cal.Covers(1990) {
		t.Error("Covers(1990) = true, expected false")
	}
	if cal.Name() != "Singapore" {
		t.Errorf("Name() = %q, expected Singapore", cal.Name())
	}
}

func TestSet_NameAndDates(t *testing.T) {
	set := Singapore().Holidays(2022)
	name, ok := set.Name(day(2022, time.August, 9))
	if !ok || name != "National Day" {
		t.Errorf("Name(2022-08-09) = %q, %v", name, ok)
	}
	dates := set.Dates()
	for i := 1; i < len(dates); i++ {
		if dates[i-1] >= dates[i] {
			t.Fatalf("Dates() not ascending at %d: %v", i, dates)
		}
	}
}

func TestCalendar_FallbackWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	cal, err := Load("", log)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	set := cal.Holidays(2031)
	cal.Holidays(2031)

	if !set.Contains(day(2031, time.August, 9)) {
		t.Error("fallback should include National Day")
	}
	if n := strings.Count(buf.String(), "holiday.table_missing_year"); n != 1 {
		t.Errorf("warning logged %d times, expected once:\n%s", n, buf.String())
	}
}

func TestRuleHolidays(t *testing.T) {
	set := RuleHolidays(2022)
	for _, d := range []time.Time{
		day(2022, time.January, 1),
		day(2022, time.April, 15),
		day(2022, time.May, 1),
		day(2022, time.May, 2), // Labour Day fell on a Sunday
		day(2022, time.August, 9),
		day(2022, time.December, 25),
		day(2022, time.December, 26),
	} {
		if !set.Contains(d) {
			t.Errorf("RuleHolidays(2022) missing %s", d.Format(dateLayout))
		}
	}
	if set.Contains(day(2022, time.January, 3)) {
		t.Error("2022-01-01 is a Saturday; no Monday observance expected")
	}
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year     int
		expected time.Time
	}{
		{2000, day(2000, time.April, 23)},
		{2019, day(2019, time.April, 21)},
		{2022, day(2022, time.April, 17)},
		{2024, day(2024, time.March, 31)},
		{2025, day(2025, time.April, 20)},
		{2038, day(2038, time.April, 25)},
	}
	for _, tt := range tests {
		if got := Easter(tt.year); !got.Equal(tt.expected) {
			t.Errorf("Easter(%d) = %s, expected %s", tt.year, got.Format(dateLayout), tt.expected.Format(dateLayout))
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holidays.yaml")
	content := `calendar: Office
holidays:
  - {date: "2030-03-04", name: "Company Day"}
  - date: "2030-03-05"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cal, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cal.Name() != "Office" {
		t.Errorf("Name() = %q, expected Office", cal.Name())
	}
	set := cal.Holidays(2030)
	if name, _ := set.Name(day(2030, time.March, 4)); name != "Company Day" {
		t.Errorf("Name(2030-03-04) = %q", name)
	}
	if name, _ := set.Name(day(2030, time.March, 5)); name != "Holiday" {
		t.Errorf("unnamed entry = %q, expected Holiday", name)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "calendar: [unclosed"},
		{"empty", "calendar: Empty\n"},
		{"bad date", "holidays:\n  - {date: \"09/08/2022\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNone(t *testing.T) {
	if len(None.Holidays(2022)) != 0 {
		t.Error("None should have no holidays")
	}
}
