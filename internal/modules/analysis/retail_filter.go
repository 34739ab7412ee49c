package analysis

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// RetailFilter decides which search results look like places to buy clothes.
// Matching is case-insensitive. Blocked terms, store domains and retail
// keywords match as substrings; garment terms and brand names match whole
// words only, with an optional plural "s".
type RetailFilter struct {
	// Blocked terms reject a result when found in its link or title.
	Blocked []string `yaml:"blocked"`
	// StoreDomains and RetailKeywords accept a result when found in its link or title.
	StoreDomains   []string `yaml:"store_domains"`
	RetailKeywords []string `yaml:"retail_keywords"`
	// GarmentTerms accept a result when found in its title.
	GarmentTerms []string `yaml:"garment_terms"`
	// SustainableBrands are tried in order when guessing a result's brand.
	SustainableBrands []string `yaml:"sustainable_brands"`
}

func DefaultRetailFilter() *RetailFilter {
	return &RetailFilter{
		Blocked: []string{
			"reddit.com", "facebook.com", "twitter.com", "instagram.com",
			"pinterest.com", "youtube.com", "tiktok.com",
			"wikipedia.org", "wiki", "blog", "forum",
			"news", "article", "review-site", "comparison",
		},
		StoreDomains: []string{
			"patagonia.com", "tentree.com", "everlane.com", "reformation.com",
			"outerknown.com", "allbirds.com", "girlfriend.com", "wearpact.com",
			"kotn.com", "thought", "peopletree.co", "organicbasics.com",
			"armedangels.com", "nudiejeans.com", "veja-store.com",
			"etsy.com", "fairindigo.com", "alternativeapparel.com",
		},
		RetailKeywords: []string{
			"shop", "store", "buy", "clothing", "apparel", "fashion",
			"wear", "garment", "outfit", "dress", "shirt", "pants",
			"product", "item", "collection",
		},
		GarmentTerms: []string{
			"shirt", "t-shirt", "tee", "top", "blouse", "sweater", "hoodie",
			"jacket", "coat", "pants", "jeans", "shorts", "skirt", "dress",
			"shoes", "sneakers", "boots", "socks", "underwear", "bra",
			"hat", "cap", "scarf", "gloves", "belt", "bag",
		},
		SustainableBrands: []string{
			"patagonia", "tentree", "everlane", "reformation", "outerknown",
			"allbirds", "girlfriend collective", "pact", "kotn", "thought",
			"people tree", "organic basics", "armedangels", "nudie jeans",
			"veja", "etsy", "fair indigo", "alternative apparel",
		},
	}
}

// LoadRetailFilter reads a YAML override. Lists missing from the file keep
// their defaults; an empty path returns the defaults.
func LoadRetailFilter(path string) (*RetailFilter, error) {
	f := DefaultRetailFilter()
	path = strings.TrimSpace(path)
	if path == "" {
		return f, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retail filter: %w", err)
	}
	var override RetailFilter
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse retail filter %s: %w", path, err)
	}
	if len(override.Blocked) > 0 {
		f.Blocked = override.Blocked
	}
	if len(override.StoreDomains) > 0 {
		f.StoreDomains = override.StoreDomains
	}
	if len(override.RetailKeywords) > 0 {
		f.RetailKeywords = override.RetailKeywords
	}
	if len(override.GarmentTerms) > 0 {
		f.GarmentTerms = override.GarmentTerms
	}
	if len(override.SustainableBrands) > 0 {
		f.SustainableBrands = override.SustainableBrands
	}
	return f, nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// containsWord reports whether term occurs in s between word boundaries, so
// "pact" does not match "impact" and "top" does not match "stop".
func containsWord(s, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(term)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		if end < len(s) && s[end] == 's' {
			end++
		}
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		from = start + 1
	}
	return false
}

func containsAnyWord(s string, terms []string) bool {
	for _, t := range terms {
		if containsWord(s, t) {
			return true
		}
	}
	return false
}

// Accept reports whether a result should be offered as a purchasable alternative.
func (f *RetailFilter) Accept(link, title string) bool {
	l, t := strings.ToLower(link), strings.ToLower(title)
	if containsAny(l, f.Blocked) || containsAny(t, f.Blocked) {
		return false
	}
	if containsAny(l, f.StoreDomains) || containsAny(t, f.StoreDomains) {
		return true
	}
	if containsAny(l, f.RetailKeywords) || containsAny(t, f.RetailKeywords) {
		return true
	}
	return containsAnyWord(t, f.GarmentTerms)
}

// GuessBrand picks a known sustainable brand mentioned in title or link,
// else the link's domain, else a generic label.
func (f *RetailFilter) GuessBrand(title, link string) string {
	text := strings.ToLower(title + " " + link)
	for _, b := range f.SustainableBrands {
		if containsWord(text, b) {
			return titleCase(strings.ToLower(strings.TrimSpace(b)))
		}
	}
	if u, err := url.Parse(strings.TrimSpace(link)); err == nil && u.Hostname() != "" {
		host := strings.ToLower(u.Hostname())
		host = strings.TrimPrefix(host, "www.")
		host = strings.NewReplacer(".com", "", ".org", "").Replace(host)
		if host != "" {
			return titleCase(host)
		}
	}
	return "Sustainable Brand"
}

// titleCase upper-cases every letter that follows a non-letter.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
