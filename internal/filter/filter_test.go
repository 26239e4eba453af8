package filter

import (
	"testing"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

func TestCountActive_PerCategory(t *testing.T) {
	min := 15
	f := models.NewSearchFilters()
	f.Tags = []string{"a"}
	f.DurationMin = &min

	// tags category + duration category, not per-value.
	if got := CountActive(f); got != 2 {
		t.Errorf("CountActive: got %d, want 2", got)
	}
}

func TestCountActive_RangesCountOnce(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	min, max := 15, 60

	f := models.NewSearchFilters()
	f.DateStart = &start
	f.DateEnd = &end
	f.DurationMin = &min
	f.DurationMax = &max
	if got := CountActive(f); got != 2 {
		t.Errorf("both bounds set: got %d, want 2", got)
	}

	f.DateEnd = nil
	f.DurationMax = nil
	if got := CountActive(f); got != 2 {
		t.Errorf("one bound set: got %d, want 2", got)
	}
}

func TestCountActive_Empty(t *testing.T) {
	if got := CountActive(models.NewSearchFilters()); got != 0 {
		t.Errorf("empty filters: got %d, want 0", got)
	}
}

func TestDurationPresets(t *testing.T) {
	short := Merge(models.NewSearchFilters(), DurationPreset(PresetShort))
	if short.DurationMin != nil {
		t.Errorf("short: min should be unset, got %d", *short.DurationMin)
	}
	if short.DurationMax == nil || *short.DurationMax != 15 {
		t.Errorf("short: max should be 15, got %v", short.DurationMax)
	}

	medium := Merge(short, DurationPreset(PresetMedium))
	if medium.DurationMin == nil || *medium.DurationMin != 15 {
		t.Errorf("medium: min should be 15, got %v", medium.DurationMin)
	}
	if medium.DurationMax == nil || *medium.DurationMax != 60 {
		t.Errorf("medium: max should be 60, got %v", medium.DurationMax)
	}

	long := Merge(medium, DurationPreset(PresetLong))
	if long.DurationMin == nil || *long.DurationMin != 60 {
		t.Errorf("long: min should be 60, got %v", long.DurationMin)
	}
	if long.DurationMax != nil {
		t.Errorf("long: max should be unset, got %d", *long.DurationMax)
	}
}

func TestMerge_DoesNotMutateCurrent(t *testing.T) {
	current := models.NewSearchFilters()
	current.Tags = []string{"retro"}

	next := Merge(current, WithTags([]string{"planning", "standup"}), WithParticipants([]string{"ana"}))

	if len(current.Tags) != 1 || current.Tags[0] != "retro" {
		t.Errorf("current mutated: %v", current.Tags)
	}
	if len(current.Participants) != 0 {
		t.Errorf("current participants mutated: %v", current.Participants)
	}
	if len(next.Tags) != 2 || len(next.Participants) != 1 {
		t.Errorf("merge result wrong: tags=%v participants=%v", next.Tags, next.Participants)
	}
}

func TestMerge_CopiesSliceStorage(t *testing.T) {
	src := []string{"ana"}
	next := Merge(models.NewSearchFilters(), WithParticipants(src))
	src[0] = "bob"
	if next.Participants[0] != "ana" {
		t.Error("merged filters share backing storage with caller slice")
	}
}

func TestClearAll_FreshValueEachCall(t *testing.T) {
	a := ClearAll()
	b := ClearAll()
	a.Tags = append(a.Tags, "x")
	if len(b.Tags) != 0 {
		t.Error("ClearAll must not share state between calls")
	}
	if CountActive(b) != 0 {
		t.Error("ClearAll result must be all-empty")
	}
}
