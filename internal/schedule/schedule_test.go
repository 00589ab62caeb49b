package schedule

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func catalog(t *testing.T, varieties ...garden.Variety) *garden.Catalog {
	t.Helper()
	for i := range varieties {
		if varieties[i].Level == "" {
			varieties[i].Level = garden.Beginner
		}
	}
	c, err := garden.NewCatalog([]garden.Group{{
		Name:    "Test",
		Seasons: []garden.Season{{Name: "Spring", Varieties: varieties}},
	}}, nil)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return c
}

func TestBuildEarlyGirl(t *testing.T) {
	c := catalog(t, garden.Variety{
		Name:      "Early Girl",
		Tasks:     []string{"Start seeds indoors mid-January"},
		Recurring: []string{"Fertilize every 14 days"},
	})

	events := Build(c, date(2024, 1, 1), time.Time{})
	if len(events) != 7 {
		t.Fatalf("Expected 7 events, got %d", len(events))
	}

	first := events[0]
	if first.Title != "Early Girl – Start seeds indoors mid-January" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if !first.Start.Equal(date(2024, 1, 1)) {
		t.Errorf("One-off task at %v, want 2024-01-01", first.Start)
	}
	if first.Description != "Gardening Task: Start seeds indoors mid-January for Early Girl" {
		t.Errorf("Unexpected description %q", first.Description)
	}

	// Recurring care starts at the offset reached after the variety's tasks
	base := date(2024, 1, 3)
	for i, ev := range events[1:] {
		if ev.Title != "Early Girl – Fertilize every 14 days" {
			t.Errorf("Occurrence %d: unexpected title %q", i, ev.Title)
		}
		if ev.Description != "Ongoing Task: Fertilize every 14 days for Early Girl" {
			t.Errorf("Occurrence %d: unexpected description %q", i, ev.Description)
		}
		want := base.AddDate(0, 0, 14*i)
		if !ev.Start.Equal(want) {
			t.Errorf("Occurrence %d at %v, want %v", i, ev.Start, want)
		}
		if ev.Kind != KindRecurring {
			t.Errorf("Occurrence %d: kind %s", i, ev.Kind)
		}
	}
	if last := events[6].Start; !last.Equal(date(2024, 3, 13)) {
		t.Errorf("Last occurrence at %v, want 2024-03-13", last)
	}
}

func TestBuildTaskOffsets(t *testing.T) {
	c := catalog(t,
		garden.Variety{Name: "A", Tasks: []string{"a1", "a2"}},
		garden.Variety{Name: "B", Tasks: []string{"b1"}},
		garden.Variety{Name: "C", Tasks: []string{"c1", "c2", "c3"}},
	)
	start := date(2025, 5, 30)

	events := Build(c, start, time.Time{})
	if len(events) != 6 {
		t.Fatalf("Expected 6 events, got %d", len(events))
	}
	for i, ev := range events {
		want := start.AddDate(0, 0, 2*i)
		if !ev.Start.Equal(want) {
			t.Errorf("Task %d (%s) at %v, want %v", i, ev.Title, ev.Start, want)
		}
		if ev.Start.Before(start) {
			t.Errorf("Task %d starts before the start date", i)
		}
	}
}

func TestBuildFrostOverride(t *testing.T) {
	c := catalog(t, garden.Variety{
		Name: "Celebrity",
		Tasks: []string{
			"Start seeds indoors",
			"Transplant after last FROST",
			"Stake plants",
		},
	})
	start := date(2025, 1, 10)
	frost := date(2025, 3, 15)

	events := Build(c, start, frost)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	if !events[1].Start.Equal(date(2025, 3, 16)) {
		t.Errorf("Frost task at %v, want 2025-03-16", events[1].Start)
	}
	if !strings.HasSuffix(events[1].Description, FrostNote) {
		t.Errorf("Frost task description missing note: %q", events[1].Description)
	}
	if !events[1].AfterFrost {
		t.Error("Frost task should be flagged")
	}

	// The override does not disturb the running offset
	if !events[2].Start.Equal(start.AddDate(0, 0, 4)) {
		t.Errorf("Task after frost task at %v, want %v", events[2].Start, start.AddDate(0, 0, 4))
	}
	if strings.Contains(events[0].Description, FrostNote) || strings.Contains(events[2].Description, FrostNote) {
		t.Error("Only frost tasks get the note")
	}
}

func TestBuildFrostOverrideIgnoresNominalOffset(t *testing.T) {
	c := catalog(t, garden.Variety{
		Name:  "Spinach",
		Tasks: []string{"a", "b", "c", "d", "e", "Sow 6 weeks before last frost"},
	})
	// Frost lies before the nominal date: the task still moves to frost + 1
	events := Build(c, date(2025, 4, 1), date(2025, 3, 1))
	if got := events[5].Start; !got.Equal(date(2025, 3, 2)) {
		t.Errorf("Frost task at %v, want 2025-03-02", got)
	}
}

func TestBuildWithoutFrostDate(t *testing.T) {
	c := catalog(t, garden.Variety{Name: "Kale", Tasks: []string{"x", "Sow 4–6 weeks before frost"}})
	events := Build(c, date(2025, 1, 1), time.Time{})
	if got := events[1].Start; !got.Equal(date(2025, 1, 3)) {
		t.Errorf("Frost task without frost date at %v, want nominal 2025-01-03", got)
	}
	if strings.Contains(events[1].Description, FrostNote) {
		t.Error("No frost note expected without frost date")
	}
}

func TestBuildRecurring(t *testing.T) {
	tests := []struct {
		rule     string
		want     int
		interval int
	}{
		{"Water every 3 days", 6, 3},
		{"Fertilize every 21 days", 6, 21},
		{"Check every 0 days", 6, 0},
		{"Harvest occasionally", 1, 0},
		{"Harvest every 2–3 days", 1, 0},
		{"Check every week", 1, 0},
		{"Water every", 1, 0},
		{"Water every -3 days", 1, 0},
		{"Water Every 3 days", 1, 0},
	}

	start := date(2025, 6, 1)
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			c := catalog(t, garden.Variety{Name: "V", Recurring: []string{tt.rule}})
			events := Build(c, start, time.Time{})
			if len(events) != tt.want {
				t.Fatalf("Expected %d events, got %d", tt.want, len(events))
			}
			for i, ev := range events {
				if ev.Title != "V – "+tt.rule {
					t.Errorf("Unexpected title %q", ev.Title)
				}
				if want := start.AddDate(0, 0, i*tt.interval); !ev.Start.Equal(want) {
					t.Errorf("Occurrence %d at %v, want %v", i, ev.Start, want)
				}
			}
		})
	}
}

func TestBuildRecurringDoesNotAdvanceOffset(t *testing.T) {
	c := catalog(t,
		garden.Variety{Name: "A", Tasks: []string{"a1"}, Recurring: []string{"Water every 5 days", "Feed every 9 days"}},
		garden.Variety{Name: "B", Tasks: []string{"b1"}, Recurring: []string{"Weed sometimes"}},
	)
	start := date(2025, 1, 1)
	events := Build(c, start, time.Time{})

	// a1, 6 + 6 recurring, b1, 1 recurring
	if len(events) != 15 {
		t.Fatalf("Expected 15 events, got %d", len(events))
	}
	if !events[1].Start.Equal(date(2025, 1, 3)) || !events[7].Start.Equal(date(2025, 1, 3)) {
		t.Errorf("Both rules should start at the same offset: %v, %v", events[1].Start, events[7].Start)
	}
	b1 := events[13]
	if b1.Title != "B – b1" || !b1.Start.Equal(date(2025, 1, 3)) {
		t.Errorf("b1 = %s at %v, want 2025-01-03", b1.Title, b1.Start)
	}
	if weed := events[14]; !weed.Start.Equal(date(2025, 1, 5)) {
		t.Errorf("B recurring at %v, want 2025-01-05", weed.Start)
	}
}

func TestBuildDeterministic(t *testing.T) {
	c, err := garden.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	start := date(2025, 2, 1)
	frost := date(2025, 3, 15)

	a := Build(c, start, frost)
	b := Build(c, start, frost)
	if !reflect.DeepEqual(a, b) {
		t.Error("Build should be deterministic")
	}

	// 13 one-off tasks, 5 parseable rules x 6, one unparseable rule
	if len(a) != 44 {
		t.Errorf("Expected 44 events, got %d", len(a))
	}
	if a[0].Title != "Clemson Spineless Okra – Direct sow in July or early August" {
		t.Errorf("Unexpected first event %q", a[0].Title)
	}

	for _, ev := range a {
		if ev.Start.Before(start) && !ev.AfterFrost {
			t.Errorf("Event %q at %v precedes start", ev.Title, ev.Start)
		}
	}
}

func TestParseInterval(t *testing.T) {
	if n, ok := ParseInterval("Water every 3 days"); !ok || n != 3 {
		t.Errorf("ParseInterval = %d, %v", n, ok)
	}
	if n, ok := ParseInterval("every 10"); !ok || n != 10 {
		t.Errorf("ParseInterval = %d, %v", n, ok)
	}
	if n, ok := ParseInterval("Check every 0 days"); !ok || n != 0 {
		t.Errorf("ParseInterval = %d, %v", n, ok)
	}
	if _, ok := ParseInterval("Harvest occasionally"); ok {
		t.Error("Expected failure")
	}
	if _, ok := ParseInterval("Water every -2 days"); ok {
		t.Error("Expected negative interval to be rejected")
	}
}

func TestAdjustStart(t *testing.T) {
	frost := date(2025, 3, 15)

	got, moved := AdjustStart(date(2025, 2, 1), frost)
	if !moved || !got.Equal(date(2025, 3, 16)) {
		t.Errorf("AdjustStart before frost = %v, %v", got, moved)
	}

	got, moved = AdjustStart(date(2025, 4, 1), frost)
	if moved || !got.Equal(date(2025, 4, 1)) {
		t.Errorf("AdjustStart after frost = %v, %v", got, moved)
	}

	got, moved = AdjustStart(date(2025, 4, 1), time.Time{})
	if moved || !got.Equal(date(2025, 4, 1)) {
		t.Errorf("AdjustStart without frost = %v, %v", got, moved)
	}
}

type fixedEstimator struct {
	date  time.Time
	calls int
}

func (f *fixedEstimator) Estimate(ctx context.Context, zip string) time.Time {
	f.calls++
	return f.date
}

func TestPlannerBuild(t *testing.T) {
	c := catalog(t, garden.Variety{Name: "T", Tasks: []string{"Plant after frost", "Mulch"}})
	est := &fixedEstimator{date: date(2025, 3, 15)}
	p := NewPlanner(c, est)

	plan := p.Build(context.Background(), Request{Start: date(2025, 1, 1)})
	if est.calls != 0 {
		t.Error("Estimator should not be consulted without a ZIP")
	}
	if !plan.Frost.IsZero() || !plan.Events[0].Start.Equal(date(2025, 1, 1)) {
		t.Errorf("Unexpected plan without ZIP: %+v", plan)
	}

	plan = p.Build(context.Background(), Request{Start: date(2025, 1, 1), ZIP: "77001"})
	if !plan.Events[0].Start.Equal(date(2025, 3, 16)) {
		t.Errorf("Frost task at %v", plan.Events[0].Start)
	}
	if plan.StartAdjusted {
		t.Error("Start should not move without AdjustForFrost")
	}

	plan = p.Build(context.Background(), Request{Start: date(2025, 1, 1), ZIP: "77001", AdjustForFrost: true})
	if !plan.StartAdjusted || !plan.Start.Equal(date(2025, 3, 16)) {
		t.Errorf("Expected adjusted start, got %+v", plan)
	}
	if !plan.Events[1].Start.Equal(date(2025, 3, 18)) {
		t.Errorf("Mulch at %v, want 2025-03-18", plan.Events[1].Start)
	}
}
