package models

import "strings"

// BusinessType is the schema.org type used for the organization's business entity.
type BusinessType string

const (
	BusinessLocal               BusinessType = "LocalBusiness"
	BusinessHVAC                BusinessType = "HVACBusiness"
	BusinessPlumber             BusinessType = "Plumber"
	BusinessElectrician         BusinessType = "Electrician"
	BusinessRoofing             BusinessType = "RoofingContractor"
	BusinessGeneralContractor   BusinessType = "GeneralContractor"
	BusinessHomeAndConstruction BusinessType = "HomeAndConstructionBusiness"
	BusinessProfessionalService BusinessType = "ProfessionalService"
	BusinessAutoRepair          BusinessType = "AutoRepair"
	BusinessDentist             BusinessType = "Dentist"
	BusinessLegalService        BusinessType = "LegalService"
	BusinessOrganization        BusinessType = "Organization"
)

var businessTypes = []BusinessType{
	BusinessLocal,
	BusinessHVAC,
	BusinessPlumber,
	BusinessElectrician,
	BusinessRoofing,
	BusinessGeneralContractor,
	BusinessHomeAndConstruction,
	BusinessProfessionalService,
	BusinessAutoRepair,
	BusinessDentist,
	BusinessLegalService,
	BusinessOrganization,
}

// BusinessTypes returns every supported business type in declaration order.
func BusinessTypes() []BusinessType {
	out := make([]BusinessType, len(businessTypes))
	copy(out, businessTypes)
	return out
}

// ParseBusinessType matches s case-insensitively against the supported types.
func ParseBusinessType(s string) (BusinessType, bool) {
	s = strings.TrimSpace(s)
	for _, bt := range businessTypes {
		if strings.EqualFold(string(bt), s) {
			return bt, true
		}
	}
	return "", false
}

// IsLocalBusiness reports whether bt belongs to the LocalBusiness family.
// Organization is a business type but not a LocalBusiness.
func (bt BusinessType) IsLocalBusiness() bool {
	if bt == BusinessOrganization {
		return false
	}
	_, ok := ParseBusinessType(string(bt))
	return ok
}
