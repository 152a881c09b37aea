package schema

import (
	"strings"

	"github.com/liamtostring/schegen/locale"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

const (
	availabilityInStock = "https://schema.org/InStock"
	platformDesktop     = "https://schema.org/DesktopWebPlatform"
	platformMobile      = "https://schema.org/MobileWebPlatform"
)

// ServiceAreas resolves areaServed: the options list, then the scraped
// service areas, then every known city named in the title or content.
func ServiceAreas(page models.PageData, opts models.Options) []string {
	if areas := opts.Areas(); len(areas) > 0 {
		return areas
	}
	if areas := cleanList(page.ServiceAreas); len(areas) > 0 {
		return areas
	}
	return locale.FindCities(page.Title + " " + page.Content)
}

// detectService matches the service table against the title, then the URL
// slug, then the headings and the content.
func detectService(page models.PageData) (ServicePattern, bool) {
	candidates := []string{
		page.Title,
		locale.SlugText(strings.Join(utils.PathSegments(page.URL), "/")),
		headingsText(page.Headings),
		page.Content,
	}
	for _, text := range candidates {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if p, ok := MatchService(text); ok {
			return p, true
		}
	}
	return ServicePattern{}, false
}

// BuildService builds the Service entity with a nested provider that always
// carries an address.
func BuildService(page models.PageData, org models.OrgInfo, opts models.Options) *Service {
	areas := ServiceAreas(page, opts)
	pattern, matched := detectService(page)

	var name string
	svc := &Service{
		Node:        Node{Type: "Service", ID: pageID(page.URL, fragService)},
		Description: describe(page),
		URL:         utils.NormalizeURL(page.URL),
		AreaServed:  NewAreas(areas),
	}
	if matched {
		name = pattern.Name
		svc.ServiceType = pattern.ServiceType
		svc.Category = pattern.Category
	}
	if name == "" {
		name = cleanTitle(page.Title)
	}
	if name == "" {
		name = utils.Titleize(utils.Slug(page.URL))
	}
	svc.Name = name
	if svc.ServiceType == "" {
		svc.ServiceType = name
	}

	bt := resolveBusinessType(org, opts, pattern, matched)
	provider := &Business{
		Node:      Node{Type: string(bt)},
		Name:      org.Name,
		URL:       siteURL(org, page),
		Telephone: phone(page, org, opts),
		Logo:      Link(org.Logo),
		Address:   ResolveAddress(page, org, opts, areas),
		SameAs:    sameAs(org, opts),
	}
	svc.Provider = provider

	svc.Offers = &Offer{
		Type:          "Offer",
		URL:           svc.URL,
		PriceCurrency: currencyFor(provider.Address.AddressCountry),
		Availability:  availabilityInStock,
		ItemOffered:   &OfferedService{Type: "Service", Name: name},
	}
	svc.PotentialAction = &Action{
		Type: "ReserveAction",
		Name: "Request " + name,
		Target: &EntryPoint{
			Type:           "EntryPoint",
			URLTemplate:    svc.URL,
			ActionPlatform: []string{platformDesktop, platformMobile},
		},
	}
	svc.MainEntityOfPage = RefTo(pageID(page.URL, fragWebPage))
	return svc
}

func resolveBusinessType(org models.OrgInfo, opts models.Options, p ServicePattern, matched bool) models.BusinessType {
	switch {
	case opts.BusinessType != "":
		return opts.BusinessType
	case org.BusinessType != "":
		return org.BusinessType
	case matched && p.Business != "":
		return p.Business
	}
	return models.BusinessLocal
}

func phone(page models.PageData, org models.OrgInfo, opts models.Options) string {
	for _, p := range []string{opts.Phone, org.Phone, page.Phone} {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}

func sameAs(org models.OrgInfo, opts models.Options) []string {
	if list := cleanList(opts.SameAs); len(list) > 0 {
		return list
	}
	return cleanList(org.SameAs)
}

func siteURL(org models.OrgInfo, page models.PageData) string {
	if u := strings.TrimSpace(org.URL); u != "" {
		return u
	}
	if origin := utils.Origin(page.URL); origin != "" {
		return origin + "/"
	}
	return ""
}

func currencyFor(country string) string {
	if locale.NormalizeCountry(country) == "CA" {
		return "CAD"
	}
	return "USD"
}
