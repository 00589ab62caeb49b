package garden

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the experience level a variety is suited for
type Level string

const (
	Beginner     Level = "Beginner"
	Intermediate Level = "Intermediate"
	Advanced     Level = "Advanced"
)

// Levels lists the experience levels in display order
var Levels = []Level{Beginner, Intermediate, Advanced}

var (
	ErrUnknownVariety = errors.New("unknown variety")
	ErrInvalidLevel   = errors.New("invalid experience level")
)

// ParseLevel parses an experience level, ignoring case
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Variety is a single crop variety with its care instructions
type Variety struct {
	Name       string   `yaml:"name" json:"name"`
	Group      string   `yaml:"-" json:"group"`
	Season     string   `yaml:"-" json:"season"`
	Level      Level    `yaml:"level" json:"level"`
	Organic    bool     `yaml:"organic" json:"organic"`
	Link       string   `yaml:"link" json:"link"`
	Image      string   `yaml:"image" json:"image"`
	Spacing    string   `yaml:"spacing" json:"spacing,omitempty"`
	Companions []string `yaml:"companions" json:"companions,omitempty"`
	Tasks      []string `yaml:"tasks" json:"tasks"`
	Recurring  []string `yaml:"recurring" json:"recurring"`
}

// Season groups the varieties planted in one season label of a crop group
type Season struct {
	Name      string    `yaml:"name" json:"name"`
	Varieties []Variety `yaml:"varieties" json:"varieties"`
}

// Group is a crop group such as "Tomatoes"
type Group struct {
	Name    string   `yaml:"name" json:"name"`
	Seasons []Season `yaml:"seasons" json:"seasons"`
}

// Season returns the named season of the group
func (g Group) Season(name string) (Season, bool) {
	for _, s := range g.Seasons {
		if s.Name == name {
			return s, true
		}
	}
	return Season{}, false
}

// VarietyFilter narrows the variety table. Zero value matches everything.
type VarietyFilter struct {
	Level       Level
	OrganicOnly bool
	Group       string
}

// Match reports whether v passes the filter
func (f VarietyFilter) Match(v Variety) bool {
	if f.Level != "" && v.Level != f.Level {
		return false
	}
	if f.OrganicOnly && !v.Organic {
		return false
	}
	if f.Group != "" && v.Group != f.Group {
		return false
	}
	return true
}
