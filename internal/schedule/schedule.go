// Package schedule expands the variety guide into dated care events.
package schedule

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

const (
	// TaskSpacingDays separates consecutive one-off tasks
	TaskSpacingDays = 2
	// Occurrences is the number of events a recurring rule expands to
	Occurrences = 6

	// FrostNote is appended to tasks moved past the last frost
	FrostNote = "\nScheduled after estimated last frost."
)

// Kind tells one-off tasks from recurring care
type Kind string

const (
	KindTask      Kind = "task"
	KindRecurring Kind = "recurring"
)

// Event is a single calendar entry
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	Description string    `json:"description"`
	Variety     string    `json:"variety"`
	Kind        Kind      `json:"kind"`
	AfterFrost  bool      `json:"after_frost,omitempty"`
}

// Build expands every variety's tasks and recurring rules into events.
//
// One-off tasks are spaced TaskSpacingDays apart from start in catalog order.
// Tasks mentioning frost are pinned to the day after frost when frost is
// non-zero. Recurring rules start at the current offset and do not advance it.
func Build(c *garden.Catalog, start, frost time.Time) []Event {
	start = garden.Day(start)
	var afterFrost time.Time
	if !frost.IsZero() {
		afterFrost = garden.Day(frost).AddDate(0, 0, 1)
	}

	events := []Event{}
	offset := 0

	c.Walk(func(v garden.Variety) {
		for _, task := range v.Tasks {
			ev := Event{
				Title:       title(v.Name, task),
				Start:       start.AddDate(0, 0, offset),
				Description: "Gardening Task: " + task + " for " + v.Name,
				Variety:     v.Name,
				Kind:        KindTask,
			}
			if !afterFrost.IsZero() && strings.Contains(strings.ToLower(task), "frost") {
				ev.Start = afterFrost
				ev.Description += FrostNote
				ev.AfterFrost = true
			}
			events = append(events, ev)
			offset += TaskSpacingDays
		}

		for _, rule := range v.Recurring {
			base := start.AddDate(0, 0, offset)
			ev := Event{
				Title:       title(v.Name, rule),
				Start:       base,
				Description: "Ongoing Task: " + rule + " for " + v.Name,
				Variety:     v.Name,
				Kind:        KindRecurring,
			}

			interval, ok := ParseInterval(rule)
			if !ok {
				events = append(events, ev)
				continue
			}
			for i := 0; i < Occurrences; i++ {
				occ := ev
				occ.Start = base.AddDate(0, 0, i*interval)
				events = append(events, occ)
			}
		}
	})

	return events
}

// ParseInterval extracts N from "... every N ..." in a recurring rule.
// Negative intervals are rejected so no occurrence precedes the start.
func ParseInterval(rule string) (int, bool) {
	_, rest, found := strings.Cut(rule, "every ")
	if !found {
		return 0, false
	}
	token, _, _ := strings.Cut(rest, " ")
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func title(variety, text string) string {
	return variety + " – " + text
}

// AdjustStart moves a start date that falls before the estimated last frost
// to the day after it. The second result reports whether it moved.
func AdjustStart(start, frost time.Time) (time.Time, bool) {
	start = garden.Day(start)
	if frost.IsZero() {
		return start, false
	}
	frost = garden.Day(frost)
	if frost.After(start) {
		return frost.AddDate(0, 0, 1), true
	}
	return start, false
}

// Estimator supplies a last frost date for a ZIP code
type Estimator interface {
	Estimate(ctx context.Context, zip string) time.Time
}

// Request is a calendar request from the planner page
type Request struct {
	Start time.Time
	// ZIP is optional; without it frost handling is skipped
	ZIP string
	// AdjustForFrost moves Start past the estimated last frost
	AdjustForFrost bool
}

// Plan is a built calendar
type Plan struct {
	Start         time.Time `json:"start"`
	Frost         time.Time `json:"frost,omitzero"`
	StartAdjusted bool      `json:"start_adjusted"`
	Events        []Event   `json:"events"`
}

// Planner builds plans from the catalog and a frost estimator
type Planner struct {
	catalog   *garden.Catalog
	estimator Estimator
}

// NewPlanner creates a Planner
func NewPlanner(c *garden.Catalog, e Estimator) *Planner {
	return &Planner{catalog: c, estimator: e}
}

// Build resolves the frost date for req and expands the catalog
func (p *Planner) Build(ctx context.Context, req Request) Plan {
	plan := Plan{Start: garden.Day(req.Start)}
	if req.ZIP != "" && p.estimator != nil {
		plan.Frost = p.estimator.Estimate(ctx, req.ZIP)
	}
	if req.AdjustForFrost {
		plan.Start, plan.StartAdjusted = AdjustStart(plan.Start, plan.Frost)
	}
	plan.Events = Build(p.catalog, plan.Start, plan.Frost)
	return plan
}
