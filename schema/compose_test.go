package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamtostring/schegen/models"
)

func testOrg() models.OrgInfo {
	return models.OrgInfo{Name: "Cool Air Co", URL: "https://example.com/"}
}

func locationPage() models.PageData {
	return models.PageData{
		URL:           "https://example.com/ac-repair-houston",
		Title:         "AC Repair in Houston, TX | Cool Air Co",
		Description:   "Fast AC repair across Houston.",
		Content:       "We repair air conditioners across Houston, Katy and Sugar Land.",
		FeaturedImage: "/wp-content/uploads/ac.jpg",
		FAQs: []models.FAQ{
			{Question: "How fast?", Answer: "Same day."},
		},
		WordPress: models.WordPressInfo{PostType: models.PostTypePage},
	}
}

func TestCompose_LocationBundle(t *testing.T) {
	g, rep := Compose(models.PageLocation, locationPage(), testOrg(), models.Options{})
	require.NotNil(t, g)

	var kinds []Kind
	for _, e := range g.Entities {
		kinds = append(kinds, e.Kind())
	}
	assert.Equal(t, []Kind{KindService, KindBusiness, KindPlace, KindFAQ, KindBreadcrumb, KindImage, KindWebPage}, kinds)
	assert.True(t, rep.Valid(), "%v", rep.Errors())

	web := g.Entities[len(g.Entities)-1].(*WebPage)
	assert.Equal(t, "https://example.com/ac-repair-houston#webpage", web.ID)
	assert.Equal(t, "https://example.com/ac-repair-houston#service", web.About.ID)
	assert.Equal(t, "https://example.com/ac-repair-houston#primaryimage", web.PrimaryImageOfPage.ID)
	assert.Equal(t, "https://example.com/#website", web.IsPartOf.ID)

	img := g.Entities[5].(*ImageObject)
	assert.Equal(t, "https://example.com/wp-content/uploads/ac.jpg", img.URL)

	place := g.Entities[2].(*Place)
	assert.Equal(t, "Houston, TX", place.Name)
	assert.Equal(t, "US", place.Address.AddressCountry)
}

func TestCompose_ServiceAndArticle(t *testing.T) {
	page := locationPage()
	page.FeaturedImage = ""
	page.FAQs = nil

	g, _ := Compose(models.PageService, page, testOrg(), models.Options{})
	require.Len(t, g.Entities, 4)
	assert.Equal(t, KindService, g.Entities[0].Kind())
	assert.Equal(t, KindBusiness, g.Entities[1].Kind())
	assert.Equal(t, KindBreadcrumb, g.Entities[2].Kind())

	page.Author = "Jane"
	page.DatePublished = "2024-05-01"
	g, rep := Compose(models.PageArticle, page, testOrg(), models.Options{})
	assert.Equal(t, KindArticle, g.Entities[0].Kind())
	assert.True(t, rep.Valid(), "%v", rep.Errors())
	web := g.Entities[len(g.Entities)-1].(*WebPage)
	assert.Nil(t, web.About)
	assert.Nil(t, web.PrimaryImageOfPage)
}

func TestCompose_Idempotent(t *testing.T) {
	opts := models.Options{AreaServed: "Houston, Katy", Phone: "713-555-0100"}
	g1, _ := Compose(models.PageLocation, locationPage(), testOrg(), opts)
	g2, _ := Compose(models.PageLocation, locationPage(), testOrg(), opts)

	b1, err := json.Marshal(g1)
	require.NoError(t, err)
	b2, err := json.Marshal(g2)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestCompose_PureReferences(t *testing.T) {
	for _, pt := range []models.PageType{models.PageArticle, models.PageService, models.PageLocation} {
		g, _ := Compose(pt, locationPage(), testOrg(), models.Options{})
		data, err := json.Marshal(g)
		require.NoError(t, err)

		var doc struct {
			Graph []map[string]any `json:"@graph"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		for _, entity := range doc.Graph {
			for key, v := range entity {
				m, ok := v.(map[string]any)
				if !ok {
					continue
				}
				if _, hasID := m["@id"]; hasID {
					assert.Len(t, m, 1, "%s.%s is not a pure reference", entity["@type"], key)
				}
			}
		}
	}
}

func TestCompose_AddressInvariant(t *testing.T) {
	pages := []models.PageData{
		locationPage(),
		{URL: "https://example.com/services/"},
		{URL: "https://example.com/plumbing-toronto", Title: "Plumbing in Toronto"},
	}
	for _, page := range pages {
		for _, pt := range []models.PageType{models.PageService, models.PageLocation} {
			g, _ := Compose(pt, page, models.OrgInfo{Name: "X", URL: "https://example.com"}, models.Options{})
			for _, e := range g.Entities {
				switch ent := e.(type) {
				case *Service:
					require.NotNil(t, ent.Provider)
					assert.True(t, ent.Provider.Address.HasLocation(), page.URL)
				case *Business:
					assert.True(t, ent.Address.HasLocation(), page.URL)
				}
			}
		}
	}
}

func TestCompose_UniqueIdentities(t *testing.T) {
	g, rep := Compose(models.PageLocation, locationPage(), testOrg(), models.Options{})
	seen := map[string]bool{}
	for _, e := range g.Entities {
		if id := e.Identity(); id != "" {
			assert.False(t, seen[id], id)
			seen[id] = true
		}
	}
	for _, issue := range rep.Issues {
		assert.NotEqual(t, "@id", issue.Field)
	}
}

func TestCompose_BreadcrumbFallsBackToURL(t *testing.T) {
	page := locationPage()
	page.URL = "https://example.com/services/ac-repair/"
	page.Breadcrumbs = []models.Crumb{{Name: "Home", URL: "/"}}

	g, _ := Compose(models.PageService, page, testOrg(), models.Options{})
	e, ok := g.FirstOfKind(KindBreadcrumb)
	require.True(t, ok)
	list := e.(*BreadcrumbList)
	require.Len(t, list.ItemListElement, 3)
	assert.Equal(t, "Services", list.ItemListElement[1].Name)
	assert.Equal(t, Link("https://example.com/services/"), list.ItemListElement[1].Item)
	assert.Equal(t, "Ac Repair", list.ItemListElement[2].Name)
}

func TestGraph_JSONShape(t *testing.T) {
	g, _ := Compose(models.PageArticle, models.PageData{URL: "https://example.com/blog/post/", Title: "Post"}, testOrg(), models.Options{})
	data, err := g.JSON()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"@context": "https://schema.org"`))
	assert.True(t, strings.Contains(string(data), `"@graph"`))
}
