// Package rag implements the retrieval and grounding engine: query
// intent classification, vector retrieval, URL ranking, and the
// source-grounded answering policy shared by every chat surface.
package rag

import (
	"regexp"
	"strings"
)

// urlWordRe matches "url" or "link" as whole words.
var urlWordRe = regexp.MustCompile(`\b(url|link)\b`)

// pageHints is the navigation vocabulary, in priority order. The first
// hint found in the message wins, so "pricing" beats "price".
var pageHints = []string{
	"about",
	"pricing",
	"price",
	"plans",
	"blog",
	"blogs",
	"resources",
	"insights",
	"contact",
	"support",
	"help",
	"faq",
	"terms",
	"privacy",
	"refund",
	"returns",
	"careers",
	"jobs",
	"join",
	"login",
	"signup",
	"features",
	"documentation",
	"docs",
}

// IsURLRequest reports whether a message asks for a page address rather
// than an answer.
func IsURLRequest(message string) bool {
	m := strings.ToLower(message)
	if urlWordRe.MatchString(m) {
		return true
	}
	if strings.Contains(m, "page") &&
		(strings.Contains(m, "give") || strings.Contains(m, "send") || strings.Contains(m, "need")) {
		return true
	}
	return strings.Contains(m, "where can i find")
}

// ExtractPageHint returns the first navigation hint present in the
// message, or "" if none.
func ExtractPageHint(message string) string {
	m := strings.ToLower(message)
	for _, h := range pageHints {
		if strings.Contains(m, h) {
			return h
		}
	}
	return ""
}
