package garden

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// NoSpacing is shown when a variety has no spacing guidance
const NoSpacing = "Spacing info not available"

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogFile is the on-disk layout of catalog.yaml
type catalogFile struct {
	Zones  map[string]string `yaml:"zones"`
	Groups []Group           `yaml:"groups"`
}

// Catalog is the read-only variety guide plus the ZIP to hardiness zone table.
// Groups, seasons and varieties keep their declared order.
type Catalog struct {
	groups []Group
	zones  map[string]string
	index  map[string]*Variety
}

// NewCatalog validates groups and builds the name index.
// Group and Season fields of every variety are filled from its position.
func NewCatalog(groups []Group, zones map[string]string) (*Catalog, error) {
	c := &Catalog{
		groups: make([]Group, len(groups)),
		zones:  make(map[string]string, len(zones)),
		index:  make(map[string]*Variety),
	}
	for zip, zone := range zones {
		c.zones[strings.TrimSpace(zip)] = zone
	}

	for gi, g := range groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("group %d: empty name", gi)
		}
		ng := Group{Name: g.Name, Seasons: make([]Season, len(g.Seasons))}
		for si, s := range g.Seasons {
			if strings.TrimSpace(s.Name) == "" {
				return nil, fmt.Errorf("group %s: season %d: empty name", g.Name, si)
			}
			ns := Season{Name: s.Name, Varieties: make([]Variety, len(s.Varieties))}
			for vi, v := range s.Varieties {
				if strings.TrimSpace(v.Name) == "" {
					return nil, fmt.Errorf("group %s, season %s: variety %d: empty name", g.Name, s.Name, vi)
				}
				level, err := ParseLevel(string(v.Level))
				if err != nil {
					return nil, fmt.Errorf("variety %s: %w", v.Name, err)
				}
				v.Level = level
				v.Group = g.Name
				v.Season = s.Name
				v.Tasks = append([]string(nil), v.Tasks...)
				v.Recurring = append([]string(nil), v.Recurring...)
				v.Companions = append([]string(nil), v.Companions...)
				ns.Varieties[vi] = v
			}
			ng.Seasons[si] = ns
		}
		c.groups[gi] = ng
	}

	// Index after all slices are final so the pointers stay valid
	for gi := range c.groups {
		for si := range c.groups[gi].Seasons {
			for vi := range c.groups[gi].Seasons[si].Varieties {
				v := &c.groups[gi].Seasons[si].Varieties[vi]
				if _, dup := c.index[v.Name]; dup {
					return nil, fmt.Errorf("duplicate variety name %q", v.Name)
				}
				c.index[v.Name] = v
			}
		}
	}

	return c, nil
}

// ParseCatalog parses a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Groups, f.Zones)
}

// LoadCatalogFile reads a catalog from path
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// Groups returns the crop groups in catalog order. Callers must not modify them.
func (c *Catalog) Groups() []Group {
	return c.groups
}

// GroupNames returns the crop group names in catalog order
func (c *Catalog) GroupNames() []string {
	names := make([]string, 0, len(c.groups))
	for _, g := range c.groups {
		names = append(names, g.Name)
	}
	return names
}

// Walk calls fn for every variety in group, season, variety order
func (c *Catalog) Walk(fn func(v Variety)) {
	for _, g := range c.groups {
		for _, s := range g.Seasons {
			for _, v := range s.Varieties {
				fn(v)
			}
		}
	}
}

// Lookup returns the variety with the given name
func (c *Catalog) Lookup(name string) (Variety, bool) {
	v, ok := c.index[name]
	if !ok {
		return Variety{}, false
	}
	return *v, true
}

// Names returns all variety names in catalog order
func (c *Catalog) Names() []string {
	var names []string
	c.Walk(func(v Variety) {
		names = append(names, v.Name)
	})
	return names
}

// Filter returns the varieties matching f in catalog order
func (c *Catalog) Filter(f VarietyFilter) []Variety {
	out := []Variety{}
	c.Walk(func(v Variety) {
		if f.Match(v) {
			out = append(out, v)
		}
	})
	return out
}

// Containers returns the varieties suited for container gardening
func (c *Catalog) Containers() []Variety {
	return c.Filter(VarietyFilter{Level: Beginner})
}

// Spacing returns the recommended spacing for a variety
func (c *Catalog) Spacing(name string) string {
	if v, ok := c.index[name]; ok && v.Spacing != "" {
		return v.Spacing
	}
	return NoSpacing
}

// Zone returns the USDA hardiness zone for a ZIP code
func (c *Catalog) Zone(zip string) (string, bool) {
	zone, ok := c.zones[strings.TrimSpace(zip)]
	return zone, ok
}

// Zones returns a copy of the ZIP to zone table
func (c *Catalog) Zones() map[string]string {
	out := make(map[string]string, len(c.zones))
	for k, v := range c.zones {
		out[k] = v
	}
	return out
}
