package schema

import "github.com/liamtostring/schegen/models"

// Compose builds the graph for a page type. Location pages get service,
// business and place; service pages get service and business; articles get
// the article. FAQ, breadcrumb, image and the terminating WebPage follow.
// Output is a pure function of the inputs.
func Compose(pageType models.PageType, page models.PageData, org models.OrgInfo, opts models.Options) (*Graph, Report) {
	g := &Graph{}

	var main Entity
	switch pageType {
	case models.PageLocation:
		svc := BuildService(page, org, opts)
		g.Add(svc)
		g.Add(BuildLocalBusiness(page, org, opts))
		g.Add(BuildPlace(page, org, opts))
		main = svc
	case models.PageService:
		svc := BuildService(page, org, opts)
		g.Add(svc)
		g.Add(BuildLocalBusiness(page, org, opts))
		main = svc
	default:
		article := BuildArticle(page, org, opts)
		g.Add(article)
		main = article
	}

	g.Add(BuildFAQ(page, org, opts))

	crumbs := BuildBreadcrumbs(page, org, opts)
	if crumbs == nil {
		crumbs = URLBreadcrumbs(page.URL)
	}
	g.Add(crumbs)

	image := BuildImage(page, org, opts)
	g.Add(image)

	web := BuildWebPage(page, org, opts)
	if main != nil && main.Kind() == KindService {
		web.About = RefTo(main.Identity())
	}
	if image != nil {
		web.PrimaryImageOfPage = RefTo(image.ID)
	}
	if crumbs != nil {
		web.Breadcrumb = RefTo(crumbs.ID)
	}
	g.Add(web)

	return g, Validate(g)
}
