package crawler

import (
	"strings"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com/a?b=c#frag", "https://example.com/a?b=c"},
		{"not a url", ""},
		{"/relative/only", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"https://example.com/a", "https://example.com/b", true},
		{"https://example.com/a", "https://other.com/a", false},
		{"https://example.com/a", "http://example.com/a", false},
		{"https://example.com", "https://sub.example.com", false},
		{"://bad", "https://example.com", false},
	}
	for _, tt := range tests {
		if got := SameOrigin(tt.a, tt.b); got != tt.want {
			t.Errorf("SameOrigin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsProbablyHTMLURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/pricing", true},
		{"https://example.com/logo.png", false},
		{"https://example.com/style.CSS", false},
		{"https://example.com/font.woff2", false},
		{"https://example.com/doc.pdf", false},
		{"https://example.com/app.js", false},
		{"https://example.com/jsx-tutorial", true},
	}
	for _, tt := range tests {
		if got := IsProbablyHTMLURL(tt.in); got != tt.want {
			t.Errorf("IsProbablyHTMLURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeedCommonPages(t *testing.T) {
	seeded := SeedCommonPages("https://example.com/landing?x=1")
	if len(seeded) != 9 {
		t.Fatalf("Expected 9 seeded pages, got %d", len(seeded))
	}
	if seeded[0] != "https://example.com/about" {
		t.Errorf("First seed = %q, want /about on origin", seeded[0])
	}
	for _, s := range seeded {
		if !strings.HasPrefix(s, "https://example.com/") {
			t.Errorf("Seed %q not on origin", s)
		}
	}

	if got := SeedCommonPages("garbage"); got != nil {
		t.Errorf("Expected nil seeds for bad URL, got %v", got)
	}
}

func TestExtractTitle(t *testing.T) {
	html := `<html><head><title>  Acme Widgets — Home  </title></head><body></body></html>`
	if got := ExtractTitle(html); got != "Acme Widgets — Home" {
		t.Errorf("ExtractTitle = %q", got)
	}

	long := `<html><head><title>` + strings.Repeat("t", 300) + `</title></head></html>`
	if got := ExtractTitle(long); len(got) != 120 {
		t.Errorf("Long title length = %d, want 120", len(got))
	}

	if got := ExtractTitle("<html><body>no title</body></html>"); got != "" {
		t.Errorf("Missing title should yield empty, got %q", got)
	}
}

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
		<a href="/pricing">Pricing</a>
		<a href="/pricing">Pricing again</a>
		<a href="https://example.com/about#team">About</a>
		<a href="https://other.com/external">External</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="tel:+123">Call</a>
		<a href="javascript:void(0)">JS</a>
		<a href="/logo.png">Logo</a>
		<a href="contact">Relative</a>
		<a href="">Empty</a>
	</body></html>`

	links := ExtractLinks("https://example.com/", html)

	want := []string{
		"https://example.com/pricing",
		"https://example.com/about",
		"https://example.com/contact",
	}
	if len(links) != len(want) {
		t.Fatalf("Got %d links %v, want %d", len(links), links, len(want))
	}
	for i, w := range want {
		if links[i] != w {
			t.Errorf("links[%d] = %q, want %q", i, links[i], w)
		}
	}
}

func TestExtractReadableText(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body>
		<nav>Nav menu</nav>
		<header>Site header</header>
		<main>
			<h1>Welcome</h1>
			<p>We   build    widgets.</p>
			<script>console.log("hidden")</script>
		</main>
		<footer>Footer stuff</footer>
	</body></html>`

	text := ExtractReadableText(html)

	if strings.Contains(text, "Nav menu") || strings.Contains(text, "Footer stuff") || strings.Contains(text, "Site header") {
		t.Errorf("Boilerplate should be removed, got %q", text)
	}
	if strings.Contains(text, "hidden") || strings.Contains(text, "color:red") {
		t.Errorf("Script/style content should be removed, got %q", text)
	}
	if !strings.Contains(text, "Welcome") || !strings.Contains(text, "We build widgets.") {
		t.Errorf("Main content missing or whitespace not collapsed, got %q", text)
	}
}

func TestExtractReadableTextFallsBackToBody(t *testing.T) {
	html := `<html><body><p>Plain body content here</p></body></html>`
	text := ExtractReadableText(html)
	if !strings.Contains(text, "Plain body content here") {
		t.Errorf("Body fallback failed, got %q", text)
	}

	article := `<html><body><article><p>Article text</p></article><p>outside</p></body></html>`
	text = ExtractReadableText(article)
	if !strings.Contains(text, "Article text") || strings.Contains(text, "outside") {
		t.Errorf("Article should be preferred over body, got %q", text)
	}
}

func TestExtractReadableTextPrices(t *testing.T) {
	html := `<html><body><main>
		<div class="MuiBox-root">
			<h2 class="MuiTypography-h2">$29<span class="MuiTypography-h3">99</span></h2>
		</div>
		<div class="MuiBox-root">
			<h2 class="MuiTypography-h2">$9<span class="MuiTypography-h3">50</span></h2>
		</div>
		<div class="MuiBox-root">
			<h2 class="MuiTypography-h2">No cents here</h2>
		</div>
		<p>Choose the plan that fits.</p>
	</main></body></html>`

	text := ExtractReadableText(html)

	if !strings.HasPrefix(text, "Pricing found on page:\n$29.99, $9.50\n\n") {
		t.Errorf("Prices should be prepended, got %q", text[:min(len(text), 80)])
	}
	if !strings.Contains(text, "Choose the plan that fits.") {
		t.Error("Page text should follow the price block")
	}
}

func TestExtractReadableTextCapsLength(t *testing.T) {
	html := `<html><body><main>` + strings.Repeat("<p>word</p>", 20000) + `</main></body></html>`
	text := ExtractReadableText(html)
	if len(text) > maxCharsPerPage {
		t.Errorf("Text length = %d, want <= %d", len(text), maxCharsPerPage)
	}
}
