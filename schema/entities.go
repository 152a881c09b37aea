package schema

import "github.com/liamtostring/schegen/models"

type Service struct {
	Node
	Name             string    `json:"name,omitempty"`
	Description      string    `json:"description,omitempty"`
	ServiceType      string    `json:"serviceType,omitempty"`
	Category         string    `json:"category,omitempty"`
	URL              string    `json:"url,omitempty"`
	Provider         *Business `json:"provider,omitempty"`
	AreaServed       Areas     `json:"areaServed,omitempty"`
	Offers           *Offer    `json:"offers,omitempty"`
	PotentialAction  *Action   `json:"potentialAction,omitempty"`
	MainEntityOfPage *Ref      `json:"mainEntityOfPage,omitempty"`
}

func (*Service) Kind() Kind { return KindService }

// Business is a LocalBusiness subtype or a plain Organization.
type Business struct {
	Node
	Name            string         `json:"name,omitempty"`
	Description     string         `json:"description,omitempty"`
	URL             string         `json:"url,omitempty"`
	Telephone       string         `json:"telephone,omitempty"`
	Logo            Link           `json:"logo,omitempty"`
	Image           Link           `json:"image,omitempty"`
	PriceRange      string         `json:"priceRange,omitempty"`
	Address         *PostalAddress `json:"address,omitempty"`
	AreaServed      Areas          `json:"areaServed,omitempty"`
	SameAs          []string       `json:"sameAs,omitempty"`
	HasOfferCatalog *OfferCatalog  `json:"hasOfferCatalog,omitempty"`
}

func (b *Business) Kind() Kind {
	if b.Type == string(models.BusinessOrganization) {
		return KindOrganization
	}
	return KindBusiness
}

type Article struct {
	Node
	Headline         string  `json:"headline,omitempty"`
	Description      string  `json:"description,omitempty"`
	Image            *Ref    `json:"image,omitempty"`
	Author           *Author `json:"author,omitempty"`
	Publisher        *Ref    `json:"publisher,omitempty"`
	DatePublished    string  `json:"datePublished,omitempty"`
	DateModified     string  `json:"dateModified,omitempty"`
	ArticleSection   string  `json:"articleSection,omitempty"`
	Keywords         string  `json:"keywords,omitempty"`
	MainEntityOfPage *Ref    `json:"mainEntityOfPage,omitempty"`
	IsPartOf         *Ref    `json:"isPartOf,omitempty"`
}

func (*Article) Kind() Kind { return KindArticle }

type FAQPage struct {
	Node
	MainEntity []Question `json:"mainEntity"`
}

func (*FAQPage) Kind() Kind { return KindFAQ }

type BreadcrumbList struct {
	Node
	ItemListElement []ListItem `json:"itemListElement"`
}

func (*BreadcrumbList) Kind() Kind { return KindBreadcrumb }

type Place struct {
	Node
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Address     *PostalAddress `json:"address,omitempty"`
	AreaServed  Areas          `json:"areaServed,omitempty"`
}

func (*Place) Kind() Kind { return KindPlace }

type WebPage struct {
	Node
	URL                string `json:"url,omitempty"`
	Name               string `json:"name,omitempty"`
	Description        string `json:"description,omitempty"`
	IsPartOf           *Ref   `json:"isPartOf,omitempty"`
	About              *Ref   `json:"about,omitempty"`
	PrimaryImageOfPage *Ref   `json:"primaryImageOfPage,omitempty"`
	Breadcrumb         *Ref   `json:"breadcrumb,omitempty"`
	DatePublished      string `json:"datePublished,omitempty"`
	DateModified       string `json:"dateModified,omitempty"`
	InLanguage         string `json:"inLanguage,omitempty"`
}

func (*WebPage) Kind() Kind { return KindWebPage }

type ImageObject struct {
	Node
	URL        string `json:"url,omitempty"`
	ContentURL string `json:"contentUrl,omitempty"`
	Caption    string `json:"caption,omitempty"`
}

func (*ImageObject) Kind() Kind { return KindImage }

type WebSite struct {
	Node
	URL       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`
	Publisher *Ref   `json:"publisher,omitempty"`
}

func (*WebSite) Kind() Kind { return KindWebSite }
