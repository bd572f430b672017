package symbiosis

import "strings"

// ExchangeKind classifies what physically flows along a connection.
type ExchangeKind string

const (
	ExchangeWaterReuse       ExchangeKind = "water_reuse"
	ExchangeEnergySharing    ExchangeKind = "energy_sharing"
	ExchangeWasteToInput     ExchangeKind = "waste_to_input"
	ExchangeMaterialExchange ExchangeKind = "material_exchange"
)

// ClassifyExchange inspects the material and the producer's waste stream.
func ClassifyExchange(material, wasteType string) ExchangeKind {
	s := strings.ToLower(material + " " + wasteType)
	switch {
	case strings.Contains(s, "water"):
		return ExchangeWaterReuse
	case strings.Contains(s, "heat"), strings.Contains(s, "steam"), strings.Contains(s, "energy"):
		return ExchangeEnergySharing
	case strings.Contains(s, "waste"):
		return ExchangeWasteToInput
	default:
		return ExchangeMaterialExchange
	}
}

var priorityBands = []struct {
	min   float64
	label string
}{
	{0.95, "Perfect Symbiosis"},
	{0.90, "Exceptional Match"},
	{0.85, "Premium Partnership"},
	{0.80, "High Quality Match"},
	{0.75, "Good Opportunity"},
	{0.70, "Viable Option"},
}

// PriorityLabel maps a confidence to its display label.
func PriorityLabel(confidence float64) string {
	for _, b := range priorityBands {
		if confidence >= b.min {
			return b.label
		}
	}
	return "Standard Match"
}

// ConfidenceBand buckets a confidence for statistics.
func ConfidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "excellent"
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.7:
		return "medium"
	case confidence >= 0.6:
		return "good"
	default:
		return "fair"
	}
}

// RegionBand buckets a geographic bonus for statistics.
func RegionBand(geographicBonus float64) string {
	switch {
	case geographicBonus > 0.2:
		return "gulf_region"
	case geographicBonus > 0.1:
		return "same_region"
	default:
		return "cross_region"
	}
}
