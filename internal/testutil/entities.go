package testutil

import "github.com/turtacn/SymbioLink/internal/domain/symbiosis"

// AluminumPair returns a producer of aluminum offcuts and a consumer of
// aluminum, both in the UAE and in the same industry.
func AluminumPair() (symbiosis.Entity, symbiosis.Entity) {
	a := symbiosis.Entity{
		ID:       "A",
		Name:     "Gulf Extrusions",
		Industry: "Manufacturing",
		Location: "Dubai",
		Products: []string{"aluminum offcuts"},
	}
	b := symbiosis.Entity{
		ID:        "B",
		Name:      "Emirates Castings",
		Industry:  "Manufacturing",
		Location:  "Abu Dhabi",
		Materials: []string{"aluminum"},
	}
	return a, b
}

// LinearChain returns three co-located entities where A feeds B and B feeds
// C, but A cannot feed C directly.
func LinearChain() []symbiosis.Entity {
	return []symbiosis.Entity{
		{ID: "A", Name: "Steelworks", Location: "Dubai", Products: []string{"steel"}},
		{ID: "B", Name: "Foundry", Location: "Dubai", Materials: []string{"iron"}, Products: []string{"wood waste"}},
		{ID: "C", Name: "Digester", Location: "Dubai", Materials: []string{"biogas"}},
	}
}

// CircularChain returns three entities whose exchanges close a loop.
func CircularChain() []symbiosis.Entity {
	return []symbiosis.Entity{
		{ID: "P", Location: "Doha", Products: []string{"steel"}, Materials: []string{"biomass"}},
		{ID: "Q", Location: "Doha", Materials: []string{"iron"}, Products: []string{"wastewater"}},
		{ID: "R", Location: "Doha", Materials: []string{"sewage"}, Products: []string{"wood waste"}},
	}
}

// SampleEntities returns a mixed industrial park across the Gulf and Europe,
// including entities with no outputs, no inputs and no location.
func SampleEntities() []symbiosis.Entity {
	return []symbiosis.Entity{
		{
			ID: "gulf-steel", Name: "Gulf Steel", Industry: "Manufacturing", Location: "Dubai",
			Products:     []string{"Steel Products"},
			WasteOutputs: []string{"steel slag", "metal shavings"},
			Materials:    []string{"iron", "scrap metal"},
			Volume:       symbiosis.Volume{Amount: 120000, Unit: "tons", Description: "120000 tons of steel slag"},
		},
		{
			ID: "emirates-cement", Name: "Emirates Cement", Industry: "Construction", Location: "Abu Dhabi",
			Products:     []string{"cement"},
			WasteOutputs: []string{"concrete"},
			Materials:    []string{"steel slag", "gypsum", "sand"},
			Volume:       symbiosis.Volume{Amount: 40000, Unit: "tons"},
		},
		{
			ID: "riyadh-petro", Name: "Riyadh Petrochemicals", Industry: "Petrochemicals", Location: "Riyadh",
			Products:     []string{"ethylene", "propylene"},
			WasteOutputs: []string{"plastic waste", "waste heat"},
			Materials:    []string{"natural gas", "naphtha"},
			Volume:       symbiosis.Volume{Amount: 90000, Unit: "tons", Description: "90000 tons of plastic waste"},
		},
		{
			ID: "doha-plastics", Name: "Doha Plastics", Industry: "Plastics", Location: "Doha",
			Products:     []string{"plastic films"},
			WasteOutputs: []string{"plastic scraps"},
			Materials:    []string{"polyethylene", "polypropylene", "plastic waste"},
		},
		{
			ID: "muscat-foods", Name: "Muscat Foods", Industry: "Food Processing", Location: "Muscat",
			Products:     []string{"packaged foods"},
			WasteOutputs: []string{"food waste", "organic matter"},
			Materials:    []string{"agricultural produce", "cardboard"},
		},
		{
			ID: "sharjah-biogas", Name: "Sharjah Biogas", Industry: "Energy", Location: "Sharjah",
			Products:     []string{"biogas", "electricity"},
			WasteOutputs: []string{"digestate"},
			Materials:    []string{"food waste", "biomass", "wood waste"},
		},
		{
			ID: "kuwait-power", Name: "Kuwait Power", Industry: "Power Generation", Location: "Kuwait City",
			Products:     []string{"electricity", "steam"},
			WasteOutputs: []string{"waste heat", "cooling water"},
			Materials:    []string{"natural gas", "biogas"},
			Volume:       symbiosis.Volume{Amount: 250000, Unit: "MWh"},
		},
		{
			ID: "manama-water", Name: "Manama Water", Industry: "Water Treatment", Location: "Manama",
			Products:     []string{"treated water"},
			WasteOutputs: []string{"sludge"},
			Materials:    []string{"wastewater", "cooling water"},
		},
		{
			ID: "berlin-recycling", Name: "Berlin Recycling", Industry: "Recycling", Location: "Berlin",
			Products:     []string{"aluminum ingots"},
			WasteOutputs: []string{"plastic waste"},
			Materials:    []string{"aluminum", "copper", "electronic waste"},
		},
		{
			ID: "jeddah-textiles", Name: "Jeddah Textiles", Industry: "Textiles", Location: "Jeddah",
			Products:     []string{"fabric"},
			WasteOutputs: []string{"textile waste"},
			Materials:    []string{"cotton", "polyester"},
		},
		{
			ID: "sink-only", Name: "Landfill Operator", Industry: "Waste Management",
			Materials: []string{"construction waste", "textile waste", "plastic waste"},
		},
		{ID: "blank", Name: "Dormant Holding"},
	}
}
