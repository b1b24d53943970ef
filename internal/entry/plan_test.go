package entry

import (
	"testing"
	"time"
)

func TestPlan_BackToBack(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*3600)
	start := time.Date(2022, time.August, 8, 9, 0, 0, 0, sgt)
	alloc, err := NewAllocation([]Item{{"live", 6}, {"training", 2}}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Plan(start, alloc)
	expected := []Interval{
		{"live", start, start.Add(6 * time.Hour)},
		{"training", start.Add(6 * time.Hour), start.Add(8 * time.Hour)},
	}

	if len(got) != len(expected) {
		t.Fatalf("Plan() returned %d intervals, expected %d", len(got), len(expected))
	}
	for i := range expected {
		if got[i].Task != expected[i].Task || !got[i].Start.Equal(expected[i].Start) || !got[i].End.Equal(expected[i].End) {
			t.Errorf("interval %d = %+v, expected %+v", i, got[i], expected[i])
		}
	}
	if got[0].Duration() != 6*time.Hour {
		t.Errorf("Duration() = %v, expected 6h", got[0].Duration())
	}
}

func TestPlan_NoGapsOrOverlaps(t *testing.T) {
	start := time.Date(2022, time.January, 10, 8, 30, 0, 0, time.UTC)
	alloc, err := NewAllocation([]Item{{"a", 1}, {"b", 3}, {"c", 2}, {"d", 2}}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Plan(start, alloc)
	if !got[0].Start.Equal(start) {
		t.Errorf("first interval starts at %v, expected %v", got[0].Start, start)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Start.Equal(got[i-1].End) {
			t.Errorf("interval %d starts at %v, previous ended at %v", i, got[i].Start, got[i-1].End)
		}
	}
	if last := got[len(got)-1].End; !last.Equal(start.Add(8 * time.Hour)) {
		t.Errorf("last interval ends at %v, expected start+8h", last)
	}
}

func TestPlan_IsPure(t *testing.T) {
	start := time.Date(2022, time.January, 10, 9, 0, 0, 0, time.UTC)
	alloc, _ := Single("live", 8)
	a := Plan(start, alloc)
	b := Plan(start, alloc)
	if !a[0].Start.Equal(b[0].Start) || !a[0].End.Equal(b[0].End) {
		t.Error("Plan() is not deterministic")
	}
}

func TestPlan_EmptyAllocation(t *testing.T) {
	if got := Plan(time.Now(), Allocation{}); len(got) != 0 {
		t.Errorf("Plan() on empty allocation = %v", got)
	}
}
