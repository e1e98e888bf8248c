package checks

import "strings"

// SEOReport is the seo check's output: the handful of on-page signals worth
// surfacing in a lightweight scan.
type SEOReport struct {
	HasTitle           bool
	TitleLength        int
	HasMetaDescription bool
	HeadingCount       int
	HasH1              bool
	HasSitemapLink     bool
}

// AnalyzeSEO derives SEO signals from a prior content fetch.
func AnalyzeSEO(content PageContent) SEOReport {
	_, hasDescription := content.MetaTags["description"]

	return SEOReport{
		HasTitle:           content.Title != "",
		TitleLength:        len(content.Title),
		HasMetaDescription: hasDescription,
		HeadingCount:       len(content.Headings),
		HasH1:              content.H1Count > 0,
		HasSitemapLink:     strings.Contains(strings.ToLower(content.BodyText), "sitemap"),
	}
}
