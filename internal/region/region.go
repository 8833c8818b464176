package region

import (
	"errors"
	"fmt"
	"sort"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"
)

// ErrUnknownRegion is returned when a region ID is not in the catalog.
// An unknown region is a configuration defect, not user input to tolerate.
var ErrUnknownRegion = errors.New("unknown server region")

//go:embed regions.yaml
var regionsYAML []byte

// Region describes one game server cluster. Reset times are local civil
// times in the region's zone; actual instants shift with DST.
type Region struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	TZ              string `yaml:"tz"`
	DailyResetHour  int    `yaml:"daily_reset_hour"`
	DailyResetMin   int    `yaml:"daily_reset_min"`
	WeeklyResetDay  int    `yaml:"weekly_reset_day"` // ISO weekday: 1 = Monday .. 7 = Sunday
	WeeklyResetHour int    `yaml:"weekly_reset_hour"`
	WeeklyResetMin  int    `yaml:"weekly_reset_min"`

	loc *time.Location
}

// Location returns the region's cached IANA location.
func (r Region) Location() *time.Location { return r.loc }

// Catalog is the process-wide, read-only set of known regions.
type Catalog struct {
	regions map[string]Region
}

// Load builds the catalog from the embedded YAML. Zone names are resolved
// eagerly so a broken entry fails at startup, not at first lookup.
func Load() (*Catalog, error) {
	return parse(regionsYAML)
}

func parse(data []byte) (*Catalog, error) {
	var doc struct {
		Regions []Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if len(doc.Regions) == 0 {
		return nil, errors.New("region catalog is empty")
	}

	out := make(map[string]Region, len(doc.Regions))
	for _, r := range doc.Regions {
		loc, err := time.LoadLocation(r.TZ)
		if err != nil {
			return nil, fmt.Errorf("region %q: load tz %q: %w", r.ID, r.TZ, err)
		}
		if r.WeeklyResetDay < 1 || r.WeeklyResetDay > 7 {
			return nil, fmt.Errorf("region %q: weekly reset day %d out of range 1..7", r.ID, r.WeeklyResetDay)
		}
		r.loc = loc
		out[r.ID] = r
	}
	return &Catalog{regions: out}, nil
}

// Get returns the region for id or ErrUnknownRegion.
func (c *Catalog) Get(id string) (Region, error) {
	r, ok := c.regions[id]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	return r, nil
}

// IDs returns all region IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.regions))
	for id := range c.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
