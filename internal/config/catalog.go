package config

// Bloc names used by the geography and importance tables.
const (
	BlocGulf   = "gulf"
	BlocEurope = "europe"
)

// DefaultCategories returns the built-in material catalog. Order matters: a
// term listed under several categories resolves to the first one.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{
			Name: "petrochemicals",
			Members: []string{"crude oil", "natural gas", "petroleum", "petrochemicals", "hydrocarbons",
				"oil refinery waste", "gas condensate", "naphtha", "benzene", "ethylene", "propylene",
				"diesel", "gasoline", "fuel oil", "lubricants", "bitumen", "asphalt"},
			ProcessingMethods: []string{"refining", "cracking", "distillation", "separation", "fractionation", "hydroprocessing"},
			EndUses:           []string{"fuel", "plastics", "chemicals", "transportation", "heating"},
			BaseScore:         0.95,
		},
		{
			Name: "metals",
			Members: []string{"aluminum", "aluminium", "steel", "copper", "titanium", "nickel", "zinc", "lead",
				"precious metals", "rare earth metals", "metal alloys", "scrap metal", "metal shavings",
				"iron", "brass", "bronze", "stainless steel", "carbon steel", "steel slag"},
			ProcessingMethods: []string{"smelting", "alloying", "casting", "forging", "machining", "welding"},
			EndUses:           []string{"construction", "automotive", "aerospace", "infrastructure", "manufacturing"},
			BaseScore:         0.92,
		},
		{
			Name: "plastics",
			Members: []string{"polyethylene", "polypropylene", "pvc", "pet", "hdpe", "ldpe", "abs", "polystyrene",
				"plastic waste", "polymer waste", "packaging materials", "plastic films", "bottles", "containers", "bags"},
			ProcessingMethods: []string{"injection molding", "extrusion", "blow molding", "recycling", "shredding", "melting", "granulation"},
			EndUses:           []string{"packaging", "consumer goods", "medical devices"},
			BaseScore:         0.88,
		},
		{
			Name: "organic",
			Members: []string{"food waste", "agricultural waste", "biomass", "organic matter", "food scraps",
				"crop residues", "animal waste", "palm oil waste", "date palm waste", "wood waste",
				"paper waste", "cardboard", "garden waste"},
			ProcessingMethods: []string{"composting", "anaerobic digestion", "fermentation", "biogas production", "pyrolysis", "gasification"},
			EndUses:           []string{"fertilizer", "biogas", "biofuel", "soil amendment"},
			BaseScore:         0.85,
		},
		{
			Name: "construction",
			Members: []string{"concrete", "cement", "sand", "gravel", "limestone", "gypsum", "construction waste",
				"demolition debris", "building materials", "bricks", "tiles", "glass", "insulation", "drywall"},
			ProcessingMethods: []string{"crushing", "screening", "mixing", "curing", "sorting"},
			EndUses:           []string{"road building", "landscaping", "aggregates"},
			BaseScore:         0.82,
		},
		{
			Name: "water",
			Members: []string{"wastewater", "industrial water", "cooling water", "process water", "brine",
				"desalination waste", "produced water", "sewage", "greywater", "stormwater", "contaminated water"},
			ProcessingMethods: []string{"treatment", "filtration", "reverse osmosis", "desalination", "purification", "disinfection"},
			EndUses:           []string{"irrigation", "industrial use", "potable water", "cleaning"},
			BaseScore:         0.90,
		},
		{
			Name: "energy",
			Members: []string{"waste heat", "steam", "hot water", "thermal energy", "exhaust gases", "flue gases",
				"electricity", "solar energy", "wind energy"},
			ProcessingMethods: []string{"heat recovery", "cogeneration", "heat exchange", "power generation", "energy conversion"},
			EndUses:           []string{"energy", "heat", "process heat", "cooling"},
			BaseScore:         0.87,
		},
		{
			Name: "chemicals",
			Members: []string{"solvents", "acids", "bases", "catalysts", "chemical waste", "process chemicals",
				"cleaning agents", "pharmaceuticals", "laboratory chemicals", "industrial chemicals"},
			ProcessingMethods: []string{"purification", "neutralization", "extraction"},
			EndUses:           []string{"processing", "research", "production"},
			BaseScore:         0.83,
		},
		{
			Name:              "textiles",
			Members:           []string{"cotton", "polyester", "wool", "fabric", "textile waste", "clothing", "fibers", "yarn", "thread"},
			ProcessingMethods: []string{"spinning", "weaving", "dyeing", "cutting"},
			EndUses:           []string{"upholstery", "industrial textiles"},
			BaseScore:         0.78,
		},
		{
			Name: "electronics",
			Members: []string{"circuit boards", "electronic components", "batteries", "cables", "semiconductors",
				"processors", "memory", "displays", "e-waste", "electronic waste"},
			ProcessingMethods: []string{"assembly", "testing", "refurbishment", "dismantling"},
			EndUses:           []string{"electronics", "computers", "telecommunications", "automotive electronics"},
			BaseScore:         0.85,
		},
	}
}

// DefaultSynergyPairs returns the category pairs that get the cross-category bonus.
func DefaultSynergyPairs() []CategoryPair {
	return []CategoryPair{
		{A: "petrochemicals", B: "plastics"},
		{A: "metals", B: "construction"},
		{A: "organic", B: "energy"},
	}
}

// DefaultRegions returns the place table used for regional proximity. Each
// region lists its cities followed by country names and common aliases.
func DefaultRegions() []RegionConfig {
	return []RegionConfig{
		{Name: "UAE", Bloc: BlocGulf, Places: []string{"Dubai", "Abu Dhabi", "Sharjah", "Ajman", "Fujairah",
			"Ras Al Khaimah", "Umm Al Quwain", "United Arab Emirates", "UAE"}},
		{Name: "Saudi Arabia", Bloc: BlocGulf, Places: []string{"Riyadh", "Jeddah", "Dammam", "Mecca", "Medina",
			"Khobar", "Jubail", "Yanbu", "Saudi Arabia", "KSA"}},
		{Name: "Qatar", Bloc: BlocGulf, Places: []string{"Doha", "Al Rayyan", "Al Wakrah", "Al Khor", "Qatar"}},
		{Name: "Kuwait", Bloc: BlocGulf, Places: []string{"Kuwait City", "Hawalli", "Ahmadi", "Jahra", "Kuwait"}},
		{Name: "Bahrain", Bloc: BlocGulf, Places: []string{"Manama", "Riffa", "Muharraq", "Hamad Town", "Bahrain"}},
		{Name: "Oman", Bloc: BlocGulf, Places: []string{"Muscat", "Salalah", "Nizwa", "Sur", "Sohar", "Oman"}},
		{Name: "Western Europe", Bloc: BlocEurope, Places: []string{"London", "Paris", "Berlin", "Rome", "Madrid",
			"Amsterdam", "Vienna", "Brussels", "United Kingdom", "France", "Germany", "Italy", "Spain",
			"Netherlands", "Austria", "Belgium"}},
		{Name: "Northern Europe", Bloc: BlocEurope, Places: []string{"Stockholm", "Oslo", "Helsinki", "Copenhagen",
			"Sweden", "Norway", "Finland", "Denmark"}},
		{Name: "Eastern Europe", Bloc: BlocEurope, Places: []string{"Warsaw", "Prague", "Budapest", "Bucharest",
			"Sofia", "Zagreb", "Ljubljana", "Poland", "Czech Republic", "Hungary", "Romania", "Bulgaria",
			"Croatia", "Slovenia"}},
		{Name: "Southern Europe", Bloc: BlocEurope, Places: []string{"Athens", "Lisbon", "Greece", "Portugal"}},
		{Name: "Other Europe", Bloc: BlocEurope, Places: []string{"Dublin", "Luxembourg City", "Vilnius", "Tallinn",
			"Brno", "Ireland", "Luxembourg", "Lithuania", "Estonia"}},
	}
}

// DefaultSynergyRules returns the directed industry synergy table.
func DefaultSynergyRules() []SynergyRule {
	return []SynergyRule{
		{Source: "Oil & Gas", Targets: []WeightedLabel{
			{"Petrochemicals", 0.95}, {"Power Generation", 0.90}, {"Manufacturing", 0.80},
			{"Refining", 0.98}, {"Chemical", 0.85}, {"Energy", 0.92}, {"Transportation", 0.75}}},
		{Source: "Petrochemicals", Targets: []WeightedLabel{
			{"Plastics", 0.95}, {"Chemicals", 0.90}, {"Manufacturing", 0.85}, {"Oil & Gas", 0.95},
			{"Polymers", 0.92}, {"Refining", 0.88}, {"Automotive", 0.80}}},
		{Source: "Manufacturing", Targets: []WeightedLabel{
			{"Recycling", 0.90}, {"Logistics", 0.80}, {"Construction", 0.75}, {"Automotive", 0.85},
			{"Electronics", 0.82}, {"Textiles", 0.78}, {"Metals", 0.88}}},
		{Source: "Power Generation", Targets: []WeightedLabel{
			{"Water Treatment", 0.85}, {"Manufacturing", 0.80}, {"Desalination", 0.90},
			{"Energy", 0.95}, {"Utilities", 0.92}, {"Industrial", 0.85}}},
		{Source: "Water Treatment", Targets: []WeightedLabel{
			{"Agriculture", 0.95}, {"Manufacturing", 0.85}, {"Municipal", 0.90},
			{"Desalination", 0.92}, {"Industrial", 0.88}, {"Environmental", 0.85}}},
		{Source: "Construction", Targets: []WeightedLabel{
			{"Cement", 0.98}, {"Steel", 0.95}, {"Aggregates", 0.90}, {"Real Estate", 0.85},
			{"Infrastructure", 0.92}, {"Building Materials", 0.95}}},
		{Source: "Food Processing", Targets: []WeightedLabel{
			{"Agriculture", 0.98}, {"Packaging", 0.90}, {"Waste Management", 0.85},
			{"Retail", 0.80}, {"Logistics", 0.82}, {"Beverages", 0.92}}},
		{Source: "Electronics", Targets: []WeightedLabel{
			{"Metals", 0.90}, {"Plastics", 0.85}, {"Recycling", 0.95}, {"Technology", 0.95},
			{"Semiconductors", 0.98}, {"Telecommunications", 0.90}}},
		{Source: "Textiles", Targets: []WeightedLabel{
			{"Chemicals", 0.85}, {"Water Treatment", 0.80}, {"Recycling", 0.90},
			{"Fashion", 0.95}, {"Cotton", 0.92}, {"Synthetic", 0.88}}},
		{Source: "Automotive", Targets: []WeightedLabel{
			{"Metals", 0.95}, {"Plastics", 0.90}, {"Electronics", 0.85}, {"Manufacturing", 0.85},
			{"Steel", 0.92}, {"Rubber", 0.88}, {"Glass", 0.80}}},
	}
}

// DefaultImportanceBonuses returns the industry boosts applied to a
// producer's importance when sizing its connection cap.
func DefaultImportanceBonuses() []WeightedLabel {
	return []WeightedLabel{
		{"Oil & Gas", 0.4},
		{"Petrochemical", 0.35},
		{"Power Generation", 0.3},
		{"Water", 0.25},
		{"Recycling", 0.3},
		{"Manufacturing", 0.2},
		{"Electronics", 0.25},
		{"Hospital", 0.2},
		{"Supermarket", 0.15},
	}
}
