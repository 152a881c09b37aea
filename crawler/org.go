package crawler

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/liamtostring/schegen/cache"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

var socialHosts = []string{
	"facebook.com", "instagram.com", "linkedin.com", "twitter.com", "x.com",
	"youtube.com", "yelp.com", "tiktok.com", "pinterest.com", "nextdoor.com",
}

// OrgDetector derives organization info from a site's home page.
type OrgDetector struct {
	fetcher *Fetcher
	cache   cache.Cache[models.OrgInfo]
}

// NewOrgDetector caches results per origin when c is non-nil.
func NewOrgDetector(f *Fetcher, c cache.Cache[models.OrgInfo]) *OrgDetector {
	return &OrgDetector{fetcher: f, cache: c}
}

// Detect fetches the origin of pageURL and reads its organization info.
func (d *OrgDetector) Detect(ctx context.Context, pageURL string) (models.OrgInfo, error) {
	origin := utils.Origin(pageURL)
	if origin == "" {
		return models.OrgInfo{}, models.WithTarget(pageURL, models.ErrInvalidInput)
	}
	if d.cache != nil {
		if org, ok := d.cache.Get(origin); ok {
			return org, nil
		}
	}

	page, err := d.fetcher.Fetch(ctx, origin+"/")
	if err != nil {
		return models.OrgInfo{}, err
	}
	org, err := DetectOrg(origin+"/", page.Body)
	if err != nil {
		return models.OrgInfo{}, err
	}
	if d.cache != nil {
		d.cache.Set(origin, org)
	}
	return org, nil
}

// DetectOrg reads organization info from home page HTML. JSON-LD
// Organization or LocalBusiness nodes win; meta tags and links fill gaps.
// Name and URL are always set.
func DetectOrg(siteURL string, body []byte) (models.OrgInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.OrgInfo{}, models.WithTarget(siteURL, err)
	}
	org := models.OrgInfo{URL: utils.Origin(siteURL) + "/"}

	for _, n := range jsonLDNodes(doc) {
		bt, ok := businessTypeOf(n)
		if !ok {
			continue
		}
		if org.Name == "" {
			org.Name = ldString(n, "name")
		}
		if org.BusinessType == "" {
			org.BusinessType = bt
		}
		if org.Logo == "" {
			org.Logo = resolveLink(siteURL, ldURL(n, "logo"))
		}
		if org.Phone == "" {
			org.Phone = ldString(n, "telephone")
		}
		if org.Address.IsEmpty() {
			org.Address = ldAddress(n["address"])
		}
		for _, s := range ldStrings(n["sameAs"]) {
			org.SameAs = appendUnique(org.SameAs, s)
		}
	}

	if org.Name == "" {
		org.Name = firstAttr(doc, "content", `meta[property="og:site_name"]`, `meta[name="application-name"]`)
	}
	if org.Name == "" {
		org.Name = siteName(collapse(doc.Find("title").First().Text()))
	}
	if org.Name == "" {
		org.Name = strings.TrimPrefix(strings.TrimPrefix(org.URL, "https://"), "http://")
		org.Name = strings.TrimPrefix(strings.TrimSuffix(org.Name, "/"), "www.")
	}
	if org.Logo == "" {
		logo := firstAttr(doc, "src", ".custom-logo", "img.logo", ".logo img", "header img")
		if logo == "" {
			logo = firstAttr(doc, "href", `link[rel="apple-touch-icon"]`, `link[rel="icon"]`)
		}
		org.Logo = resolveLink(siteURL, logo)
	}
	if org.Phone == "" {
		org.Phone = phone(doc)
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if isSocial(href) {
			org.SameAs = appendUnique(org.SameAs, href)
		}
	})
	return org, nil
}

func businessTypeOf(n map[string]any) (models.BusinessType, bool) {
	for _, typ := range ldTypes(n) {
		if bt, ok := models.ParseBusinessType(typ); ok {
			return bt, true
		}
		if strings.HasSuffix(typ, "Business") || strings.HasSuffix(typ, "Contractor") {
			return models.BusinessLocal, true
		}
	}
	return "", false
}

func ldAddress(v any) models.PostalAddress {
	switch t := v.(type) {
	case string:
		return models.PostalAddress{StreetAddress: strings.TrimSpace(t)}
	case []any:
		if len(t) > 0 {
			return ldAddress(t[0])
		}
	case map[string]any:
		return models.PostalAddress{
			StreetAddress:   ldString(t, "streetAddress"),
			AddressLocality: ldString(t, "addressLocality"),
			AddressRegion:   ldString(t, "addressRegion"),
			PostalCode:      ldString(t, "postalCode"),
			AddressCountry:  ldString(t, "addressCountry"),
		}
	}
	return models.PostalAddress{}
}

// siteName keeps the part of a title after the last separator, which is
// where WordPress themes put the site name.
func siteName(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " — ", " :: "} {
		if i := strings.LastIndex(title, sep); i >= 0 {
			return strings.TrimSpace(title[i+len(sep):])
		}
	}
	return title
}

func isSocial(href string) bool {
	host := strings.ToLower(strings.TrimPrefix(utils.Origin(href), "https://"))
	host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "www.")
	for _, s := range socialHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
