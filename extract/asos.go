package extract

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// asosExtractor handles the grid-with-infinite-scroll style: listing pages
// paginate with a query parameter, so the next page URL is derivable even
// when the current page failed to render.
type asosExtractor struct {
	*siteExtractor
}

func (a *asosExtractor) NextPage(_ *goquery.Document, base *url.URL, page int) string {
	if base == nil {
		return ""
	}
	param := a.profile.PageParam
	if param == "" {
		param = "page"
	}
	next := *base
	q := next.Query()
	q.Set(param, strconv.Itoa(page+1))
	next.RawQuery = q.Encode()
	return next.String()
}
