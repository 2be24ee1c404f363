package extract

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in       string
		value    float64
		currency string
	}{
		{in: "£12.99", value: 12.99, currency: "GBP"},
		{in: "€45,00", value: 45, currency: "EUR"},
		{in: "$1,299.00", value: 1299, currency: "USD"},
		{in: "1.299,00 €", value: 1299, currency: "EUR"},
		{in: "Now £85.00", value: 85, currency: "GBP"},
		{in: "129,99 zł", value: 129.99, currency: "PLN"},
		{in: "349 kr", value: 349, currency: "SEK"},
		{in: "1,299", value: 1299, currency: ""},
		{in: "1.299", value: 1299, currency: ""},
		{in: "12,5", value: 12.5, currency: ""},
		{in: "19.95", value: 19.95, currency: ""},
		{in: "GBP 25.00", value: 25, currency: "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			value, currency, err := ParsePrice(tt.in)
			if err != nil {
				t.Fatalf("ParsePrice(%q): %v", tt.in, err)
			}
			if value != tt.value {
				t.Fatalf("value = %v, want %v", value, tt.value)
			}
			if currency != tt.currency {
				t.Fatalf("currency = %q, want %q", currency, tt.currency)
			}
		})
	}
}

func TestParsePriceErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "Sold out", "£"} {
		if _, _, err := ParsePrice(in); err == nil {
			t.Fatalf("ParsePrice(%q) should fail", in)
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		ok    bool
	}{
		{in: "4.5", value: 4.5, ok: true},
		{in: "4,5 von 5", value: 4.5, ok: true},
		{in: "Rated 4 out of 5 stars", value: 4, ok: true},
		{in: "no stars yet", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		value, ok := parseRating(tt.in)
		if ok != tt.ok || value != tt.value {
			t.Fatalf("parseRating(%q) = %v, %v; want %v, %v", tt.in, value, ok, tt.value, tt.ok)
		}
	}
}
