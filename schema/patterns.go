package schema

import (
	"regexp"

	"github.com/liamtostring/schegen/models"
)

// ServicePattern maps page text onto a canonical service. Order matters:
// the table is scanned top to bottom and the first match wins, so specific
// phrases sit above the catch-alls of their vertical.
type ServicePattern struct {
	Match       *regexp.Regexp
	Name        string
	Category    string
	ServiceType string
	Business    models.BusinessType
}

func sp(pattern, name, category, serviceType string, bt models.BusinessType) ServicePattern {
	return ServicePattern{
		Match:       regexp.MustCompile(`(?i)` + pattern),
		Name:        name,
		Category:    category,
		ServiceType: serviceType,
		Business:    bt,
	}
}

var servicePatterns = []ServicePattern{
	// HVAC, specific first
	sp(`furnace\s+(repair|service)`, "Furnace Repair", "HVAC", "Heating Repair", models.BusinessHVAC),
	sp(`furnace\s+(install|replace)`, "Furnace Installation", "HVAC", "Heating Installation", models.BusinessHVAC),
	sp(`heat\s+pump`, "Heat Pump Services", "HVAC", "Heat Pump Service", models.BusinessHVAC),
	sp(`(ac|a/c|air\s+condition(ing|er)?)\s+(repair|service)`, "AC Repair", "HVAC", "Air Conditioning Repair", models.BusinessHVAC),
	sp(`(ac|a/c|air\s+condition(ing|er)?)\s+(install|replace)`, "AC Installation", "HVAC", "Air Conditioning Installation", models.BusinessHVAC),
	sp(`(ac|hvac|a/c)\s+(maintenance|tune[-\s]?up)`, "HVAC Maintenance", "HVAC", "HVAC Maintenance", models.BusinessHVAC),
	sp(`duct\s+(cleaning|repair|sealing)`, "Duct Cleaning", "HVAC", "Air Duct Cleaning", models.BusinessHVAC),
	sp(`indoor\s+air\s+quality`, "Indoor Air Quality", "HVAC", "Indoor Air Quality Service", models.BusinessHVAC),
	sp(`heating\s+(repair|service)`, "Heating Repair", "HVAC", "Heating Repair", models.BusinessHVAC),
	sp(`\bhvac\b|heating|cooling|air\s+condition`, "HVAC Services", "HVAC", "HVAC Service", models.BusinessHVAC),

	// Plumbing
	sp(`water\s+heater`, "Water Heater Services", "Plumbing", "Water Heater Repair and Installation", models.BusinessPlumber),
	sp(`drain\s+(cleaning|clearing|unclog)`, "Drain Cleaning", "Plumbing", "Drain Cleaning", models.BusinessPlumber),
	sp(`(sewer|slab)\s+(line\s+)?(leak|repair|replacement)`, "Sewer Line Repair", "Plumbing", "Sewer Repair", models.BusinessPlumber),
	sp(`leak\s+detection`, "Leak Detection", "Plumbing", "Leak Detection", models.BusinessPlumber),
	sp(`plumb`, "Plumbing Services", "Plumbing", "Plumbing Service", models.BusinessPlumber),

	// Electrical
	sp(`(panel|breaker)\s+(upgrade|replacement)`, "Electrical Panel Upgrade", "Electrical", "Panel Upgrade", models.BusinessElectrician),
	sp(`(ev|electric\s+vehicle)\s+charg`, "EV Charger Installation", "Electrical", "EV Charger Installation", models.BusinessElectrician),
	sp(`generator`, "Generator Installation", "Electrical", "Generator Service", models.BusinessElectrician),
	sp(`electric(al|ian)`, "Electrical Services", "Electrical", "Electrical Service", models.BusinessElectrician),

	// Roofing
	sp(`roof\s+(repair|leak)`, "Roof Repair", "Roofing", "Roof Repair", models.BusinessRoofing),
	sp(`roof\s+(replacement|install)`, "Roof Replacement", "Roofing", "Roof Replacement", models.BusinessRoofing),
	sp(`gutter`, "Gutter Services", "Roofing", "Gutter Installation and Repair", models.BusinessRoofing),
	sp(`roof`, "Roofing Services", "Roofing", "Roofing Service", models.BusinessRoofing),

	// General
	sp(`remodel|renovation`, "Remodeling", "Construction", "Home Remodeling", models.BusinessGeneralContractor),
}

// MatchService returns the first pattern matching text.
func MatchService(text string) (ServicePattern, bool) {
	for _, p := range servicePatterns {
		if p.Match.MatchString(text) {
			return p, true
		}
	}
	return ServicePattern{}, false
}

// offerCatalogs lists common sub-services per vertical.
var offerCatalogs = map[string][]string{
	"HVAC":       {"AC Repair", "AC Installation", "Furnace Repair", "Heating Installation", "HVAC Maintenance", "Duct Cleaning"},
	"Plumbing":   {"Drain Cleaning", "Water Heater Repair", "Leak Detection", "Sewer Line Repair", "Fixture Installation"},
	"Electrical": {"Panel Upgrades", "Lighting Installation", "Wiring and Rewiring", "Generator Installation", "EV Charger Installation"},
	"Roofing":    {"Roof Repair", "Roof Replacement", "Roof Inspection", "Gutter Installation", "Storm Damage Repair"},
}

var verticalOfBusiness = map[models.BusinessType]string{
	models.BusinessHVAC:        "HVAC",
	models.BusinessPlumber:     "Plumbing",
	models.BusinessElectrician: "Electrical",
	models.BusinessRoofing:     "Roofing",
}
