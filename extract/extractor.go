// Package extract turns raw page markup into the canonical product schema.
// One Extractor variant exists per supported site; all of them are driven by
// the selector profile configured for that site.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AsmaZgo/fashionWebScrapping/config"
	"github.com/AsmaZgo/fashionWebScrapping/models"
)

// Extractor is the per-site capability set: find product links on a listing
// page, derive the next listing page, and build a product record from a
// detail page.
type Extractor interface {
	Site() string
	Links(doc *goquery.Document, base *url.URL) []string
	// NextPage returns the URL of the following listing page, or "" when no
	// further page can be derived. doc may be nil when the current page
	// failed to fetch; query-parameter sites can still advance.
	NextPage(doc *goquery.Document, base *url.URL, page int) string
	Product(doc *goquery.Document, pageURL string) (*models.ProductRecord, error)
}

// MissingFieldError reports that a mandatory field could not be located.
// Records carrying this error are logged and skipped, never persisted.
type MissingFieldError struct {
	Field string
	URL   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("extract: missing required field %q at %s", e.Field, e.URL)
}

// IsMissingField reports whether err is a MissingFieldError.
func IsMissingField(err error) bool {
	var mfe *MissingFieldError
	return errors.As(err, &mfe)
}

// New builds the extractor variant for the given site profile.
func New(profile config.SiteProfile) (Extractor, error) {
	base, err := newSiteExtractor(profile)
	if err != nil {
		return nil, err
	}
	switch profile.Name {
	case "asos":
		return &asosExtractor{siteExtractor: base}, nil
	case "zalando":
		return &zalandoExtractor{siteExtractor: base}, nil
	}
	return nil, fmt.Errorf("extract: no extractor variant for site %q", profile.Name)
}

// siteExtractor implements the selector-driven extraction shared by all
// variants.
type siteExtractor struct {
	profile    config.SiteProfile
	idPatterns []*regexp.Regexp
}

func newSiteExtractor(profile config.SiteProfile) (*siteExtractor, error) {
	patterns := make([]*regexp.Regexp, 0, len(profile.IDPatterns))
	for _, raw := range profile.IDPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("extract: bad id pattern %q for site %q: %w", raw, profile.Name, err)
		}
		patterns = append(patterns, re)
	}
	return &siteExtractor{profile: profile, idPatterns: patterns}, nil
}

func (s *siteExtractor) Site() string {
	return s.profile.Name
}

// Links collects product detail links from a listing page. An empty result is
// the crawl's natural end-of-listing signal, not an error.
func (s *siteExtractor) Links(doc *goquery.Document, base *url.URL) []string {
	if doc == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(s.profile.Selectors.ProductLink).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if s.profile.LinkPattern != "" && !strings.Contains(href, s.profile.LinkPattern) {
			return
		}
		abs := absoluteURL(base, href)
		if abs == "" {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

// Product builds a canonical record from a detail page. Name, price, and a
// derivable product id are mandatory; everything else is best effort.
func (s *siteExtractor) Product(doc *goquery.Document, pageURL string) (*models.ProductRecord, error) {
	if doc == nil {
		return nil, &MissingFieldError{Field: "document", URL: pageURL}
	}
	sel := s.profile.Selectors

	name := cleanText(doc.Find(sel.Name).First().Text())
	if name == "" {
		return nil, &MissingFieldError{Field: "name", URL: pageURL}
	}

	priceText := cleanText(doc.Find(sel.Price).First().Text())
	price, currency, err := ParsePrice(priceText)
	if err != nil {
		return nil, &MissingFieldError{Field: "price", URL: pageURL}
	}
	if currency == "" {
		currency = s.profile.Currency
	}

	id := s.productID(pageURL, doc)
	if id == "" {
		return nil, &MissingFieldError{Field: "product_id", URL: pageURL}
	}

	record := &models.ProductRecord{
		ProductID: id,
		Source:    models.Source{Website: s.profile.Name, URL: pageURL},
		Info: models.ProductInfo{
			Name:        name,
			Brand:       cleanText(doc.Find(sel.Brand).First().Text()),
			Price:       price,
			Currency:    currency,
			Description: cleanText(doc.Find(sel.Description).First().Text()),
			Sizes:       models.StringSlice(collectTexts(doc, sel.Sizes)),
			Colors:      models.StringSlice(collectTexts(doc, sel.Colors)),
			Materials:   models.StringSlice(collectTexts(doc, sel.Materials)),
			Images:      models.StringSlice(collectImages(doc, sel.Images)),
		},
		Reviews: s.reviews(doc),
	}
	return record, nil
}

// productID derives the id from URL patterns, falling back to a data-product-id
// marker in the page.
func (s *siteExtractor) productID(pageURL string, doc *goquery.Document) string {
	for _, re := range s.idPatterns {
		if m := re.FindStringSubmatch(pageURL); len(m) > 1 {
			return m[1]
		}
	}
	if id, ok := doc.Find("[data-product-id]").First().Attr("data-product-id"); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

// reviews extracts the review list, dropping entries whose rating falls
// outside the site's declared scale.
func (s *siteExtractor) reviews(doc *goquery.Document) []models.Review {
	sel := s.profile.Selectors
	if sel.Review == "" {
		return nil
	}

	var reviews []models.Review
	doc.Find(sel.Review).Each(func(_ int, card *goquery.Selection) {
		rating, ok := parseRating(card.Find(sel.ReviewRating).First().Text())
		if !ok || rating < 0 || rating > s.profile.RatingScale {
			return
		}
		review := models.Review{
			UserID:  cleanText(card.Find(sel.ReviewUser).First().Text()),
			Rating:  rating,
			Title:   cleanText(card.Find(sel.ReviewTitle).First().Text()),
			Comment: cleanText(card.Find(sel.ReviewText).First().Text()),
			Date:    cleanText(card.Find(sel.ReviewDate).First().Text()),
		}
		if sel.ReviewVerified != "" {
			review.Verified = card.Find(sel.ReviewVerified).Length() > 0
		}
		if review.Comment == "" && review.Title == "" {
			return
		}
		reviews = append(reviews, review)
	})
	return reviews
}

func collectTexts(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := cleanText(sel.Text())
		if text == "" || strings.EqualFold(text, "please select") {
			return
		}
		out = append(out, text)
	})
	return out
}

func collectImages(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src != "" {
			out = append(out, src)
		}
	})
	return out
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

var spaceRe = regexp.MustCompile(`\s+`)

func cleanText(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
