package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCharsPerPage caps extracted text so a single runaway page cannot
// flood the index.
const maxCharsPerPage = 50_000

// maxTitleLen caps stored page titles.
const maxTitleLen = 120

// assetExtRe matches URLs that point at static assets rather than pages.
var assetExtRe = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|svg|webp|css|js|map|ico|pdf|zip|rar|mp4|mp3|woff2?|ttf|eot)$`)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
	nonDigitRe   = regexp.MustCompile(`[^\d]`)
)

// NormalizeURL canonicalizes a URL by dropping its fragment.
// Returns "" for unparseable input.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// SameOrigin reports whether two URLs share scheme and host.
func SameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}

// IsProbablyHTMLURL reports whether a URL looks like a page rather than
// a static asset.
func IsProbablyHTMLURL(u string) bool {
	return !assetExtRe.MatchString(u)
}

// SeedCommonPages returns the well-known paths worth probing even when
// the homepage never links to them.
func SeedCommonPages(startURL string) []string {
	u, err := url.Parse(startURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	origin := u.Scheme + "://" + u.Host

	paths := []string{"/about", "/pricing", "/blog", "/blogs", "/contact", "/careers", "/jobs", "/terms", "/privacy"}
	seeded := make([]string, 0, len(paths))
	for _, p := range paths {
		seeded = append(seeded, origin+p)
	}
	return seeded
}

// ExtractTitle returns the page title, truncated for storage.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return title
}

// ExtractLinks returns the unique same-origin page links of a document,
// resolved against baseURL. Asset URLs and non-HTTP schemes are dropped.
func ExtractLinks(baseURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := NormalizeURL(base.ResolveReference(ref).String())
		if abs == "" {
			return
		}
		if !SameOrigin(abs, baseURL) {
			return
		}
		if !IsProbablyHTMLURL(abs) {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	return links
}

// extractPrices pulls price figures out of MUI pricing cards, where the
// dollar amount and cents live in separate typography nodes and plain
// text extraction would garble them.
func extractPrices(doc *goquery.Document) []string {
	var prices []string

	doc.Find(".MuiBox-root").Each(func(_ int, box *goquery.Selection) {
		main := box.Find(".MuiTypography-h2").First()
		cents := main.Find(".MuiTypography-h3").First()
		if main.Length() == 0 || cents.Length() == 0 {
			return
		}

		// The dollar figure is the h2's own text with child nodes removed.
		dollars := nonDigitRe.ReplaceAllString(main.Clone().Children().Remove().End().Text(), "")
		centsText := nonDigitRe.ReplaceAllString(cents.Text(), "")
		if dollars == "" || centsText == "" {
			return
		}

		prices = append(prices, fmt.Sprintf("$%s.%s", dollars, centsText))
	})

	return prices
}

// ExtractReadableText returns the readable text of a page: boilerplate
// elements removed, whitespace collapsed, and any detected prices
// prepended so they survive chunking near the top of the document.
func ExtractReadableText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	prices := extractPrices(doc)

	doc.Find("script,style,noscript,svg,canvas,iframe,form,nav,footer,header").Remove()

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	text := root.Text()
	text = strings.ReplaceAll(text, "\r", "")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if len(prices) > 0 {
		text = "Pricing found on page:\n" + strings.Join(prices, ", ") + "\n\n" + text
	}

	if len(text) > maxCharsPerPage {
		text = text[:maxCharsPerPage]
	}
	return text
}
