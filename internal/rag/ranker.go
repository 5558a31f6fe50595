package rag

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sitebotics/sitebot/internal/models"
)

// rankSnippetLen is how much chunk content the ranker inspects.
const rankSnippetLen = 400

// normalizePath returns the lowercased path of a URL without its
// trailing slash. Unparseable input maps to "/".
func normalizePath(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "/"
	}
	p := parsed.Path
	if p == "" {
		p = "/"
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return strings.ToLower(p)
}

// isHomepage reports whether a URL points at the site root.
func isHomepage(u string) bool {
	p := normalizePath(u)
	return p == "/" || p == ""
}

// PickBestURL selects the candidate URL most likely to answer a
// navigation request. Candidates are deduplicated by URL, scored by
// hint and token matches, and the ranking is stable so equal scores
// keep retrieval order.
// Returns "" when no candidate has a URL.
func PickBestURL(message string, candidates []models.RetrievedChunk) string {
	hint := ExtractPageHint(message)
	q := strings.ToLower(message)

	// dedupe by URL, keeping the best-similarity occurrence first
	seen := make(map[string]struct{})
	var uniq []models.RetrievedChunk
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		uniq = append(uniq, c)
	}
	if len(uniq) == 0 {
		return ""
	}

	scores := make([]float64, len(uniq))
	for i, c := range uniq {
		urlLower := strings.ToLower(c.URL)
		path := normalizePath(c.URL)
		title := strings.ToLower(c.Title)
		snippet := c.Content
		if len(snippet) > rankSnippetLen {
			snippet = snippet[:rankSnippetLen]
		}
		snippet = strings.ToLower(snippet)

		var score float64

		if hint != "" {
			if strings.Contains(path, "/"+hint) {
				score += 100
			}
			if strings.Contains(urlLower, hint) {
				score += 40
			}
			if strings.Contains(title, hint) {
				score += 25
			}
			if strings.Contains(snippet, hint) {
				score += 10
			}

			if (hint == "plans" || hint == "price") && strings.Contains(path, "/pricing") {
				score += 80
			}
			if (hint == "blogs" || hint == "blog") &&
				(strings.Contains(path, "/blog") || strings.Contains(path, "/blogs")) {
				score += 80
			}
		}

		for _, token := range strings.Fields(q) {
			if len(token) < 4 {
				continue
			}
			if strings.Contains(urlLower, token) {
				score += 3
			}
			if strings.Contains(title, token) {
				score += 2
			}
			if strings.Contains(snippet, token) {
				score += 1
			}
		}

		if hint != "" && isHomepage(c.URL) {
			score -= 25
		}

		lengthPenalty := float64(len(urlLower)) / 80
		if lengthPenalty > 2 {
			lengthPenalty = 2
		}
		score -= lengthPenalty

		scores[i] = score
	}

	order := make([]int, len(uniq))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	return uniq[order[0]].URL
}
