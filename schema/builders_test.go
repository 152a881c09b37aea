package schema

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/models"
)

func TestBuildFAQ(t *testing.T) {
	page := models.PageData{
		URL: "https://example.com/faq/",
		FAQs: []models.FAQ{
			{Question: "", Answer: "x"},
			{Question: "Q?", Answer: "A."},
		},
	}
	faq := BuildFAQ(page, models.OrgInfo{}, models.Options{})
	require.NotNil(t, faq)
	require.Len(t, faq.MainEntity, 1)
	assert.Equal(t, "Q?", faq.MainEntity[0].Name)
	assert.Equal(t, "A.", faq.MainEntity[0].AcceptedAnswer.Text)

	page.FAQs = []models.FAQ{}
	assert.Nil(t, BuildFAQ(page, models.OrgInfo{}, models.Options{}))
}

func TestBuildFAQ_TrimsAndCaps(t *testing.T) {
	page := models.PageData{URL: "https://example.com/"}
	page.FAQs = append(page.FAQs, models.FAQ{Question: "  ", Answer: "blank question"})
	for i := 0; i < 15; i++ {
		page.FAQs = append(page.FAQs, models.FAQ{Question: " Why? ", Answer: " Because. "})
	}
	faq := BuildFAQ(page, models.OrgInfo{}, models.Options{})
	require.NotNil(t, faq)
	assert.Len(t, faq.MainEntity, MaxFAQQuestions)
	assert.Equal(t, "Why?", faq.MainEntity[0].Name)
	assert.Equal(t, "Because.", faq.MainEntity[0].AcceptedAnswer.Text)
}

func TestBuildService_AreasFromOptions(t *testing.T) {
	page := models.PageData{URL: "https://example.com/services/ac-repair/", Title: "AC Repair"}
	svc := BuildService(page, testOrg(), models.Options{AreaServed: "Houston, Dallas"})

	require.NotNil(t, svc.Provider)
	require.NotNil(t, svc.Provider.Address)
	assert.Equal(t, "US", svc.Provider.Address.AddressCountry)
	assert.Equal(t, "TX", svc.Provider.Address.AddressRegion)
	assert.Equal(t, "Houston", svc.Provider.Address.AddressLocality)
	assert.Equal(t, []string{"Houston", "Dallas"}, svc.AreaServed.Names())
	assert.Empty(t, svc.Provider.ID)
}

func TestBuildService_AreaSources(t *testing.T) {
	page := models.PageData{
		URL:          "https://example.com/services/plumbing/",
		Title:        "Plumbing",
		Content:      "Serving Frisco and Plano.",
		ServiceAreas: []string{" Katy ", ""},
	}
	svc := BuildService(page, testOrg(), models.Options{})
	assert.Equal(t, []string{"Katy"}, svc.AreaServed.Names())

	page.ServiceAreas = nil
	svc = BuildService(page, testOrg(), models.Options{})
	assert.Equal(t, []string{"Plano", "Frisco"}, svc.AreaServed.Names(), "table order")
}

func TestBuildService_PatternOrder(t *testing.T) {
	tests := []struct {
		title    string
		name     string
		business models.BusinessType
	}{
		{"Furnace Repair Experts", "Furnace Repair", models.BusinessHVAC},
		{"HVAC Company", "HVAC Services", models.BusinessHVAC},
		{"Water Heater Installation", "Water Heater Services", models.BusinessPlumber},
		{"Roof Repair After Storms", "Roof Repair", models.BusinessRoofing},
		{"Licensed Electricians", "Electrical Services", models.BusinessElectrician},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			svc := BuildService(models.PageData{URL: "https://example.com/x/", Title: tt.title}, models.OrgInfo{Name: "X"}, models.Options{})
			assert.Equal(t, tt.name, svc.Name)
			assert.Equal(t, string(tt.business), svc.Provider.Type)
		})
	}
}

func TestBuildService_RespectsExplicitAddress(t *testing.T) {
	org := testOrg()
	org.Address = models.PostalAddress{StreetAddress: "1 Main St", AddressRegion: "Ontario"}
	svc := BuildService(models.PageData{URL: "https://example.com/", Title: "Plumbing"}, org, models.Options{AreaServed: "Toronto"})

	addr := svc.Provider.Address
	assert.Equal(t, "1 Main St", addr.StreetAddress)
	assert.Equal(t, "Ontario", addr.AddressRegion, "explicit fields are never overwritten")
	assert.Equal(t, "Toronto", addr.AddressLocality)
	assert.Equal(t, "CA", addr.AddressCountry)
	assert.Equal(t, "CAD", svc.Offers.PriceCurrency)
}

func TestBuildService_OptionOverridesWin(t *testing.T) {
	org := testOrg()
	org.Phone = "111"
	org.BusinessType = models.BusinessHVAC
	org.SameAs = []string{"https://facebook.com/org"}
	opts := models.Options{
		Phone:        "222",
		BusinessType: models.BusinessPlumber,
		SameAs:       []string{"https://x.com/opt"},
		Address:      &models.PostalAddress{AddressLocality: "Katy"},
	}
	svc := BuildService(models.PageData{URL: "https://example.com/", Title: "Drain Cleaning"}, org, opts)
	assert.Equal(t, "222", svc.Provider.Telephone)
	assert.Equal(t, "Plumber", svc.Provider.Type)
	assert.Equal(t, []string{"https://x.com/opt"}, svc.Provider.SameAs)
	assert.Equal(t, "Katy", svc.Provider.Address.AddressLocality)
}

func TestBuildLocalBusiness(t *testing.T) {
	page := models.PageData{URL: "https://example.com/services/ac-repair/", Title: "AC Repair"}
	b := BuildLocalBusiness(page, testOrg(), models.Options{})
	assert.Equal(t, "HVACBusiness", b.Type)
	assert.Equal(t, KindBusiness, b.Kind())
	assert.Equal(t, "https://example.com/services/ac-repair/#business", b.ID)
	assert.Equal(t, []string{"Houston"}, b.AreaServed.Names(), "falls back to the address locality")
	require.NotNil(t, b.HasOfferCatalog)
	assert.NotEmpty(t, b.HasOfferCatalog.ItemListElement)

	org := testOrg()
	org.BusinessType = models.BusinessOrganization
	b = BuildLocalBusiness(page, org, models.Options{})
	assert.Equal(t, KindOrganization, b.Kind())
}

func TestBuildArticle(t *testing.T) {
	long := strings.Repeat("word ", 40)
	page := models.PageData{
		URL:           "https://example.com/blog/post/",
		Title:         long,
		DatePublished: "2024-01-02",
		Categories:    []string{"Tips"},
		Tags:          []string{"ac", "summer"},
		FeaturedImage: "https://example.com/a.jpg",
	}
	a := BuildArticle(page, testOrg(), models.Options{})
	assert.Equal(t, MaxHeadline, utf8.RuneCountInString(a.Headline), a.Headline)
	assert.True(t, strings.HasSuffix(a.Headline, "..."))
	assert.Equal(t, "2024-01-02", a.DateModified)
	assert.Equal(t, "Organization", a.Author.Type)
	assert.Equal(t, "Cool Air Co", a.Author.Name)
	assert.Equal(t, "Tips", a.ArticleSection)
	assert.Equal(t, "ac, summer", a.Keywords)
	assert.Equal(t, "https://example.com/blog/post/#primaryimage", a.Image.ID)
	assert.Equal(t, "https://example.com/#organization", a.Publisher.ID)
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "Short", Headline(" Short "))
	exact := strings.Repeat("a", MaxHeadline)
	assert.Equal(t, exact, Headline(exact))
	cut := Headline(strings.Repeat("é", MaxHeadline+5))
	assert.Equal(t, MaxHeadline, utf8.RuneCountInString(cut))
}

func TestBuildBreadcrumbs(t *testing.T) {
	page := models.PageData{
		URL: "https://example.com/services/ac-repair/",
		Breadcrumbs: []models.Crumb{
			{Name: "Home", URL: "/"},
			{Name: "Services", URL: "/services/"},
			{Name: "AC Repair"},
		},
	}
	list := BuildBreadcrumbs(page, models.OrgInfo{}, models.Options{})
	require.NotNil(t, list)
	require.Len(t, list.ItemListElement, 3)
	assert.Equal(t, Link("https://example.com/"), list.ItemListElement[0].Item)
	assert.Equal(t, Link("https://example.com/services/ac-repair/"), list.ItemListElement[2].Item)
	assert.Equal(t, 3, list.ItemListElement[2].Position)

	assert.Nil(t, BuildBreadcrumbs(models.PageData{URL: "https://example.com/"}, models.OrgInfo{}, models.Options{}))
	assert.Nil(t, BuildBreadcrumbs(models.PageData{URL: "https://example.com/a/", Breadcrumbs: []models.Crumb{{Name: "Only"}}}, models.OrgInfo{}, models.Options{}))
}

func TestBuildImage(t *testing.T) {
	assert.Nil(t, BuildImage(models.PageData{URL: "https://example.com/"}, models.OrgInfo{}, models.Options{}))
}
