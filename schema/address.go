package schema

import (
	"strings"

	"github.com/liamtostring/schegen/locale"
	"github.com/liamtostring/schegen/models"
)

// ResolveAddress picks the business address: the options override, then
// the organization's address, then one synthesised from the service areas.
// Whatever is picked has its missing parts filled by FillAddress.
func ResolveAddress(page models.PageData, org models.OrgInfo, opts models.Options, areas []string) *PostalAddress {
	var base models.PostalAddress
	switch {
	case opts.Address != nil && !opts.Address.IsEmpty():
		base = *opts.Address
	case !org.Address.IsEmpty():
		base = org.Address
	}
	addr := NewPostalAddress(base)
	FillAddress(addr, areas, page.Title+" "+page.Content)
	return addr
}

// FillAddress sets the locality, country and region when they are blank.
// Populated fields are never overwritten. After it returns the address
// always has a street or a locality.
func FillAddress(addr *PostalAddress, areas []string, text string) {
	if addr == nil {
		return
	}
	if addr.Type == "" {
		addr.Type = "PostalAddress"
	}
	if addr.AddressLocality == "" {
		switch {
		case len(areas) > 0 && strings.TrimSpace(areas[0]) != "":
			addr.AddressLocality = strings.TrimSpace(areas[0])
		default:
			if city, ok := locale.InferCityFromText(text); ok {
				addr.AddressLocality = city
			} else if addr.StreetAddress == "" {
				addr.AddressLocality = locale.DefaultCity
			}
		}
	}

	m := addr.Model()
	if addr.AddressCountry == "" {
		addr.AddressCountry = locale.InferCountry(&m, areas)
	}
	if addr.AddressRegion == "" {
		country := locale.NormalizeCountry(addr.AddressCountry)
		if country == "" {
			country = addr.AddressCountry
		}
		addr.AddressRegion = locale.InferRegion(&m, areas, country)
	}
}

// SynthesizeAddress builds an address from service areas alone.
func SynthesizeAddress(areas []string) *PostalAddress {
	addr := &PostalAddress{Type: "PostalAddress"}
	FillAddress(addr, areas, "")
	return addr
}
