package garden

import (
	"time"
)

const (
	groupColdTolerant = "Cold-Tolerant"
	groupWarmSeason   = "Warm-Season"
	seasonEarly       = "Early"
	seasonLateSummer  = "Late Summer"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Highlight is one block of the monthly variety view
type Highlight struct {
	Group     string    `json:"group"`
	Season    string    `json:"season"`
	Label     string    `json:"label"`
	Varieties []Variety `json:"varieties"`
}

// SeasonForMonth maps a month to the planting season label used by the catalog
func SeasonForMonth(m time.Month) string {
	switch m {
	case time.December, time.January, time.February, time.March:
		return "Spring"
	case time.April, time.May, time.June, time.July:
		return "Summer"
	default:
		return "Fall"
	}
}

// Highlights returns the varieties worth planting around now.
// Cold-tolerant varieties are offered while the last frost is still ahead,
// late-summer warm-season varieties from July on.
func Highlights(c *Catalog, now, frost time.Time, f VarietyFilter) []Highlight {
	season := SeasonForMonth(now.Month())
	today := Day(now)
	preFrost := !frost.IsZero() && Day(frost).After(today)

	out := []Highlight{}
	add := func(g Group, s Season, label string) {
		var vs []Variety
		for _, v := range s.Varieties {
			if f.Match(v) {
				vs = append(vs, v)
			}
		}
		if len(vs) == 0 {
			return
		}
		out = append(out, Highlight{Group: g.Name, Season: s.Name, Label: label, Varieties: vs})
	}

	// The group filter does not apply to the monthly view
	f.Group = ""

	for _, g := range c.Groups() {
		if g.Name == groupColdTolerant && preFrost {
			if s, ok := g.Season(seasonEarly); ok {
				add(g, s, "Cold-Tolerant Options (Pre-Frost)")
			}
			continue
		}
		if s, ok := g.Season(season); ok {
			add(g, s, g.Name)
			continue
		}
		if g.Name == groupWarmSeason && now.Month() >= time.July {
			if s, ok := g.Season(seasonLateSummer); ok {
				add(g, s, "Warm-Season Options (Late Summer)")
			}
		}
	}
	return out
}

// Day truncates t to its calendar date at midnight UTC
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
