package schema

import (
	"strings"

	"github.com/liamtostring/schegen/locale"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

// BuildLocalBusiness builds the page's business entity. Organization is
// used as-is when the caller asks for it; everything else is a LocalBusiness
// subtype with an address and areaServed.
func BuildLocalBusiness(page models.PageData, org models.OrgInfo, opts models.Options) *Business {
	pattern, matched := detectService(page)
	bt := resolveBusinessType(org, opts, pattern, matched)
	areas := ServiceAreas(page, opts)
	addr := ResolveAddress(page, org, opts, areas)

	b := &Business{
		Node:      Node{Type: string(bt), ID: pageID(page.URL, fragBusiness)},
		Name:      org.Name,
		URL:       siteURL(org, page),
		Telephone: phone(page, org, opts),
		Logo:      Link(org.Logo),
		Image:     Link(org.Logo),
		Address:   addr,
		SameAs:    sameAs(org, opts),
	}
	if b.Name == "" {
		b.Name = hostName(page.URL)
	}

	served := areas
	if len(served) == 0 && addr.AddressLocality != "" {
		served = []string{addr.AddressLocality}
	}
	b.AreaServed = NewAreas(served)

	vertical := verticalOfBusiness[bt]
	if vertical == "" && matched {
		vertical = pattern.Category
	}
	b.HasOfferCatalog = offerCatalog(vertical, b.Name)
	return b
}

// BuildPlace builds the Place a location page targets. The place's
// address is the targeted city, falling back to the business address.
func BuildPlace(page models.PageData, org models.OrgInfo, opts models.Options) *Place {
	areas := ServiceAreas(page, opts)
	city := targetCity(page, areas)

	var addr *PostalAddress
	if city != "" {
		addr = &PostalAddress{Type: "PostalAddress", AddressLocality: city}
		if region, country, ok := locale.RegionOf(city); ok {
			addr.AddressRegion = region
			addr.AddressCountry = country
		}
		FillAddress(addr, areas, "")
	} else {
		addr = ResolveAddress(page, org, opts, areas)
		city = addr.AddressLocality
	}

	name := city
	if addr.AddressRegion != "" && name != "" {
		name += ", " + addr.AddressRegion
	}
	if name == "" {
		name = cleanTitle(page.Title)
	}

	served := areas
	if len(served) == 0 && addr.AddressLocality != "" {
		served = []string{addr.AddressLocality}
	}
	return &Place{
		Node:        Node{Type: "Place", ID: pageID(page.URL, fragPlace)},
		Name:        name,
		Description: describe(page),
		URL:         utils.NormalizeURL(page.URL),
		Address:     addr,
		AreaServed:  NewAreas(served),
	}
}

// targetCity finds the city a location page is about: URL slug first,
// then the title, then the first service area.
func targetCity(page models.PageData, areas []string) string {
	if city, ok := locale.InferCityFromText(locale.SlugText(strings.Join(utils.PathSegments(page.URL), "/"))); ok {
		return city
	}
	if city, ok := locale.InferCityFromText(page.Title); ok {
		return city
	}
	if len(areas) > 0 {
		return areas[0]
	}
	return ""
}

func offerCatalog(vertical, businessName string) *OfferCatalog {
	services := offerCatalogs[vertical]
	if len(services) == 0 {
		return nil
	}
	name := vertical + " Services"
	if businessName != "" {
		name = businessName + " " + name
	}
	cat := &OfferCatalog{Type: "OfferCatalog", Name: name}
	for _, s := range services {
		cat.ItemListElement = append(cat.ItemListElement, Offer{
			Type:        "Offer",
			ItemOffered: &OfferedService{Type: "Service", Name: s},
		})
	}
	return cat
}

func hostName(rawURL string) string {
	origin := utils.Origin(rawURL)
	if origin == "" {
		return ""
	}
	host := origin[strings.Index(origin, "://")+3:]
	return strings.TrimPrefix(host, "www.")
}
