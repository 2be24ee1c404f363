package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes one supported site: which fetcher it needs, how its
// pages paginate, and the selectors its extractor uses. Profiles ship with
// built-in defaults and can be overridden from a YAML file.
type SiteProfile struct {
	Name         string    `yaml:"name"`
	Fetcher      string    `yaml:"fetcher"` // http or browser
	RatingScale  float64   `yaml:"rating_scale"`
	Currency     string    `yaml:"currency"` // fallback when markup shows no symbol
	PageParam    string    `yaml:"page_param,omitempty"` // set for query-parameter pagination
	LinkPattern  string    `yaml:"link_pattern"`         // substring product hrefs must contain
	IDPatterns   []string  `yaml:"id_patterns"`          // regexes deriving product_id from URL
	ScrollPasses int       `yaml:"scroll_passes,omitempty"`
	Selectors    Selectors `yaml:"selectors"`
}

// Selectors holds the CSS selectors for one site's markup.
type Selectors struct {
	ProductLink string `yaml:"product_link"`
	NextPage    string `yaml:"next_page,omitempty"`

	Name        string `yaml:"name"`
	Brand       string `yaml:"brand,omitempty"`
	Price       string `yaml:"price"`
	Description string `yaml:"description,omitempty"`
	Sizes       string `yaml:"sizes,omitempty"`
	Colors      string `yaml:"colors,omitempty"`
	Materials   string `yaml:"materials,omitempty"`
	Images      string `yaml:"images,omitempty"`

	Review         string `yaml:"review,omitempty"`
	ReviewUser     string `yaml:"review_user,omitempty"`
	ReviewRating   string `yaml:"review_rating,omitempty"`
	ReviewTitle    string `yaml:"review_title,omitempty"`
	ReviewText     string `yaml:"review_text,omitempty"`
	ReviewDate     string `yaml:"review_date,omitempty"`
	ReviewVerified string `yaml:"review_verified,omitempty"`
}

// DefaultSiteProfiles returns the built-in profiles keyed by site identifier.
func DefaultSiteProfiles() map[string]SiteProfile {
	return map[string]SiteProfile{
		"asos": {
			Name:         "asos",
			Fetcher:      "browser",
			RatingScale:  5,
			Currency:     "GBP",
			PageParam:    "page",
			LinkPattern:  "/prd/",
			IDPatterns:   []string{`/prd/(\d+)`, `/product/(\d+)`},
			ScrollPasses: 3,
			Selectors: Selectors{
				ProductLink: `a[href*="/prd/"]`,
				Name:        "h1",
				Brand:       `a[href*="/brand/"]`,
				Price:       `span[data-testid="current-price"]`,
				Description: `div[data-testid="productDescription"]`,
				Sizes:       `select[data-testid="sizeSelect"] option`,
				Colors:      `span[data-testid="productColour"]`,
				Materials:   `div[data-testid="productDetails"] li`,
				Images:      `div[data-testid="gallery"] img`,

				Review:         `div[data-testid="review"]`,
				ReviewUser:     `span[data-testid="review-author"]`,
				ReviewRating:   `div[data-testid="review-rating"]`,
				ReviewTitle:    `h4[data-testid="review-title"]`,
				ReviewText:     `p[data-testid="review-text"]`,
				ReviewDate:     `span[data-testid="review-date"]`,
				ReviewVerified: `span[data-testid="review-verified"]`,
			},
		},
		"zalando": {
			Name:        "zalando",
			Fetcher:     "http",
			RatingScale: 5,
			Currency:    "EUR",
			LinkPattern: ".html",
			IDPatterns:  []string{`([a-z0-9]{9}-[a-z0-9]{3})\.html`, `/product/(\d+)`},
			Selectors: Selectors{
				ProductLink: `article.catalog-item a.product-link`,
				NextPage:    `a[rel="next"]`,
				Name:        `h1.product-name`,
				Brand:       `h3.product-brand`,
				Price:       `p.product-price span.price`,
				Description: `div.product-description`,
				Sizes:       `ul.size-list li`,
				Colors:      `ul.colour-list li`,
				Materials:   `dl.material-info dd`,
				Images:      `div.product-media img`,

				Review:       `div.review-card`,
				ReviewUser:   `span.review-user`,
				ReviewRating: `span.review-stars`,
				ReviewTitle:  `span.review-title`,
				ReviewText:   `p.review-body`,
				ReviewDate:   `time.review-date`,
			},
		},
	}
}

// LoadSiteProfiles merges profiles from a YAML file over the built-in
// defaults. An empty path returns the defaults unchanged.
func LoadSiteProfiles(path string) (map[string]SiteProfile, error) {
	profiles := DefaultSiteProfiles()
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site profiles: %w", err)
	}

	var overrides map[string]SiteProfile
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse site profiles: %w", err)
	}

	for key, profile := range overrides {
		if profile.Name == "" {
			profile.Name = key
		}
		profiles[key] = profile
	}
	return profiles, nil
}

// SiteProfileFor looks up a profile and validates the essentials.
func SiteProfileFor(site string, profiles map[string]SiteProfile) (SiteProfile, error) {
	profile, ok := profiles[site]
	if !ok {
		return SiteProfile{}, fmt.Errorf("unsupported site %q", site)
	}
	if profile.Selectors.ProductLink == "" {
		return SiteProfile{}, fmt.Errorf("site %q profile missing product link selector", site)
	}
	if profile.Selectors.Name == "" || profile.Selectors.Price == "" {
		return SiteProfile{}, fmt.Errorf("site %q profile missing name/price selectors", site)
	}
	if profile.RatingScale <= 0 {
		profile.RatingScale = 5
	}
	if profile.Fetcher == "" {
		profile.Fetcher = "http"
	}
	return profile, nil
}
