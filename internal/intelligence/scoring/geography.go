package scoring

import (
	"strings"

	"github.com/turtacn/SymbioLink/internal/config"
	"github.com/turtacn/SymbioLink/internal/intelligence/terms"
)

type region struct {
	name   string
	bloc   string
	places []string // padded canonical forms
}

// Geography scores the proximity of two free-text locations.
type Geography struct {
	cfg     config.GeographyConfig
	regions []region
	blocs   map[string]float64
}

// NewGeography precomputes the canonical place table.
func NewGeography(cfg config.GeographyConfig) *Geography {
	g := &Geography{cfg: cfg, blocs: make(map[string]float64, len(cfg.BlocBonuses))}
	for _, b := range cfg.BlocBonuses {
		g.blocs[strings.ToLower(b.Label)] = b.Weight
	}
	for _, r := range cfg.Regions {
		rg := region{name: r.Name, bloc: strings.ToLower(r.Bloc)}
		for _, p := range r.Places {
			if c := terms.Canonical(p); c != "" {
				rg.places = append(rg.places, pad(c))
			}
		}
		g.regions = append(g.regions, rg)
	}
	return g
}

func pad(s string) string { return " " + s + " " }

// Region returns the first configured region whose place names occur in loc
// as whole words, and its bloc.
func (g *Geography) Region(loc string) (name, bloc string, ok bool) {
	c := terms.Canonical(loc)
	if c == "" {
		return "", "", false
	}
	return g.regionOf(pad(c))
}

func (g *Geography) regionOf(padded string) (string, string, bool) {
	for _, r := range g.regions {
		for _, p := range r.places {
			if strings.Contains(padded, p) {
				return r.name, r.bloc, true
			}
		}
	}
	return "", "", false
}

// Bonus is symmetric in its arguments.
func (g *Geography) Bonus(a, b string) float64 {
	ca, cb := terms.Canonical(a), terms.Canonical(b)
	if ca == "" || cb == "" {
		return 0
	}
	if ca == cb {
		return g.cfg.SameCityBonus
	}

	ra, ba, okA := g.regionOf(pad(ca))
	rb, bb, okB := g.regionOf(pad(cb))
	if !okA || !okB {
		return g.cfg.DefaultBonus
	}
	if ra == rb {
		return g.cfg.SameRegionBonus
	}
	if ba == bb && ba != "" {
		if w, ok := g.blocs[ba]; ok {
			return w
		}
	}
	return g.cfg.DefaultBonus
}

// Bloc returns the bloc of loc, or "".
func (g *Geography) Bloc(loc string) string {
	_, bloc, _ := g.Region(loc)
	return bloc
}
