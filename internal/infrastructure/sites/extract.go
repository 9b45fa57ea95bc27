package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/source"
)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// dateLayouts covers the formats the configured sites emit in their
// time[datetime] attributes and visible bylines.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02 Jan 2006 15:04",
}

// fetchDocument downloads a page through the shared polite client and parses
// it into a goquery document.
func fetchDocument(ctx context.Context, client *fetch.Client, pageURL string) (*goquery.Document, error) {
	body, err := client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// cleanText collapses runs of whitespace and trims the result.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

// firstText returns the cleaned text of the first selector that matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if text := cleanText(sel.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// absoluteURL resolves href against the site base when it is relative.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// paragraphText joins the cleaned text of all paragraphs under the first
// matching content selector, after stripping script/ad/aside noise.
func paragraphText(doc *goquery.Document, contentSelectors ...string) string {
	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			content = sel
			break
		}
	}
	if content == nil {
		return ""
	}

	content.Find("script, style, aside, figure, .ad, .advertisement, .related, .related-posts, .social-share").Remove()

	var parts []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// publishedAt reads the first matching date element, preferring its datetime
// attribute over visible text. Returns nil when nothing parses.
func publishedAt(doc *goquery.Document, selectors ...string) *time.Time {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		raw, ok := sel.Attr("datetime")
		if !ok {
			raw = sel.Text()
		}
		if ts := parseDate(raw); ts != nil {
			return ts
		}
	}
	return nil
}

func parseDate(raw string) *time.Time {
	raw = cleanText(raw)
	raw = strings.TrimPrefix(raw, "Updated:")
	raw = strings.TrimPrefix(raw, "Published:")
	raw = cleanText(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

// linkTitle extracts a heading-or-text title for a listing link, falling
// back to the title attribute.
func linkTitle(link *goquery.Selection) string {
	if heading := link.Find("h1, h2, h3, h4, .title, .headline").First(); heading.Length() > 0 {
		if text := cleanText(heading.Text()); text != "" {
			return text
		}
	}
	if text := cleanText(link.Text()); text != "" {
		return text
	}
	if attr, ok := link.Attr("title"); ok {
		return cleanText(attr)
	}
	return ""
}

// listingRules parameterizes the common card-listing walk: which selectors
// find article links, which URL fragments mark a link as an article, and
// which mark it as navigation noise.
type listingRules struct {
	selectors   []string
	mustContain []string
	skip        []string
}

// collectCandidates walks the listing document with the given rules,
// deduplicating by absolute URL and dropping links without a title.
func collectCandidates(doc *goquery.Document, base string, rules listingRules) []source.Candidate {
	seen := map[string]struct{}{}
	var candidates []source.Candidate

	for _, selector := range rules.selectors {
		doc.Find(selector).Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			href = absoluteURL(base, href)

			if len(rules.mustContain) > 0 {
				ok := false
				for _, fragment := range rules.mustContain {
					if strings.Contains(href, fragment) {
						ok = true
						break
					}
				}
				if !ok {
					return
				}
			}
			for _, fragment := range rules.skip {
				if strings.Contains(href, fragment) {
					return
				}
			}
			if _, ok := seen[href]; ok {
				return
			}
			seen[href] = struct{}{}

			title := linkTitle(link)
			if title == "" {
				return
			}
			candidates = append(candidates, source.Candidate{URL: href, Title: title})
		})
	}

	return candidates
}
