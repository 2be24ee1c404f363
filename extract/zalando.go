package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// zalandoExtractor handles the listing style: the next page comes from a
// rel=next link in the markup, so a failed page ends pagination.
type zalandoExtractor struct {
	*siteExtractor
}

func (z *zalandoExtractor) NextPage(doc *goquery.Document, base *url.URL, _ int) string {
	if doc == nil {
		return ""
	}
	selector := z.profile.Selectors.NextPage
	if selector == "" {
		return ""
	}
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	return absoluteURL(base, href)
}
