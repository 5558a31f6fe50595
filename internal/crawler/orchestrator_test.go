package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// fakeStore is an in-memory Store for orchestrator and poller tests.
type fakeStore struct {
	mu sync.Mutex

	queued      []*models.Source
	botStatuses map[string][]models.BotStatus
	botLive     map[string]bool

	completed   []string
	failed      map[string]string
	progress    [][2]int
	chunks      []models.DocumentChunkInput
	cleared     []string
	staleSweeps []time.Duration

	chunkErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		botStatuses: make(map[string][]models.BotStatus),
		botLive:     make(map[string]bool),
		failed:      make(map[string]string),
	}
}

func (s *fakeStore) QueryClaimNextQueuedSource(ctx context.Context) (*models.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queued) == 0 {
		return nil, nil
	}
	src := s.queued[0]
	s.queued = s.queued[1:]
	src.Status = models.SourceStatusCrawling
	return src, nil
}

func (s *fakeStore) QueryRequeueStaleSources(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleSweeps = append(s.staleSweeps, olderThan)
	return 0, nil
}

func (s *fakeStore) QueryMarkSourceComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeStore) QueryMarkSourceError(ctx context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = message
	return nil
}

func (s *fakeStore) QueryUpdateSourceProgress(ctx context.Context, id string, total, crawled int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, [2]int{total, crawled})
	return nil
}

func (s *fakeStore) QuerySetBotStatus(ctx context.Context, id string, status models.BotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botStatuses[id] = append(s.botStatuses[id], status)
	return nil
}

func (s *fakeStore) QuerySetBotLive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botLive[id] = true
	s.botStatuses[id] = append(s.botStatuses[id], models.BotStatusLive)
	return nil
}

func (s *fakeStore) QueryDeleteChunksForSource(ctx context.Context, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, sourceID)
	return 0, nil
}

func (s *fakeStore) QueryCreateDocumentChunk(ctx context.Context, input models.DocumentChunkInput) (*models.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunkErr != nil {
		return nil, s.chunkErr
	}
	s.chunks = append(s.chunks, input)
	return &models.DocumentChunk{}, nil
}

// fakeFetcher serves pages from a map; unknown URLs fail.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: HTTP 404", url)
	}
	return html, nil
}

// fakeEmbedder returns a fixed-size vector.
type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return make([]float32, 8), nil
}

func testSource(id, botID, startURL string) *models.Source {
	return &models.Source{
		ID:       surrealmodels.RecordID{Table: "source", ID: id},
		Bot:      surrealmodels.RecordID{Table: "bot", ID: botID},
		StartURL: startURL,
		Status:   models.SourceStatusCrawling,
	}
}

// page builds an HTML page with enough text to pass the length floor.
func page(title, body string) string {
	filler := ""
	for len(body)+len(filler) < 300 {
		filler += " More detail about what we offer and how it works."
	}
	return fmt.Sprintf("<html><head><title>%s</title></head><body><main><p>%s%s</p></main></body></html>", title, body, filler)
}

func TestRunJobHappyPath(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/": page("Home", `Welcome. <a href="/pricing">Pricing</a>`),
		"https://example.com/pricing": page("Pricing", "Plans start at $9."),
	}}
	// /pricing is linked AND seeded; everything else seeded 404s
	embedder := &fakeEmbedder{}

	o := NewOrchestrator(store, fetcher, embedder, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://example.com/")

	if err := o.RunJob(context.Background(), src); err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}

	// Bot went training then live
	statuses := store.botStatuses["b1"]
	if len(statuses) < 2 || statuses[0] != models.BotStatusTraining || statuses[len(statuses)-1] != models.BotStatusLive {
		t.Errorf("Bot status sequence = %v", statuses)
	}
	if len(store.completed) != 1 || store.completed[0] != "s1" {
		t.Errorf("Source not completed: %v", store.completed)
	}
	if len(store.failed) != 0 {
		t.Errorf("Unexpected failures: %v", store.failed)
	}

	// Chunks were written for both reachable pages
	urls := map[string]bool{}
	for _, c := range store.chunks {
		urls[c.URL] = true
		if c.BotID != "b1" || c.SourceID != "s1" {
			t.Errorf("Chunk has wrong owner: %+v", c)
		}
	}
	if !urls["https://example.com/"] || !urls["https://example.com/pricing"] {
		t.Errorf("Expected chunks for home and pricing, got %v", urls)
	}

	// Previous chunks were cleared before indexing
	if len(store.cleared) != 1 || store.cleared[0] != "s1" {
		t.Errorf("Expected chunk clear for s1, got %v", store.cleared)
	}

	// Homepage fetched once, served from cache for the frontier walk
	home := 0
	for _, u := range fetcher.fetched {
		if u == "https://example.com/" {
			home++
		}
	}
	if home != 1 {
		t.Errorf("Homepage fetched %d times, want 1", home)
	}

	// Progress was reported
	if len(store.progress) == 0 {
		t.Error("Expected progress updates")
	}
	last := store.progress[len(store.progress)-1]
	if last[1] != last[0] {
		t.Errorf("Final progress = %d/%d, want complete", last[1], last[0])
	}
}

func TestRunJobHomepageFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{pages: map[string]string{}}
	o := NewOrchestrator(store, fetcher, &fakeEmbedder{}, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://down.example.com/")

	if err := o.RunJob(context.Background(), src); err == nil {
		t.Fatal("Expected error when homepage fetch fails")
	}

	if _, ok := store.failed["s1"]; !ok {
		t.Error("Source should be marked error")
	}
	statuses := store.botStatuses["b1"]
	if len(statuses) == 0 || statuses[len(statuses)-1] != models.BotStatusError {
		t.Errorf("Bot should end in error, got %v", statuses)
	}
	if len(store.completed) != 0 {
		t.Error("Source must not be completed on failure")
	}
}

func TestRunJobSkipsBrokenPages(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/": page("Home", `<a href="/broken">x</a> <a href="/good">y</a>`),
		"https://example.com/good": page("Good", "Useful content."),
	}}
	o := NewOrchestrator(store, fetcher, &fakeEmbedder{}, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://example.com/")

	if err := o.RunJob(context.Background(), src); err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}

	// Broken page skipped, job still completes
	if len(store.completed) != 1 {
		t.Error("Job should complete despite broken pages")
	}
	for _, c := range store.chunks {
		if c.URL == "https://example.com/broken" {
			t.Error("Broken page should not be indexed")
		}
	}
}

func TestRunJobSkipsThinPages(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/": page("Home", `<a href="/thin">thin</a>`),
		"https://example.com/thin": "<html><head><title>Thin</title></head><body><main><p>short</p></main></body></html>",
	}}
	o := NewOrchestrator(store, fetcher, &fakeEmbedder{}, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://example.com/")

	if err := o.RunJob(context.Background(), src); err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}
	for _, c := range store.chunks {
		if c.URL == "https://example.com/thin" {
			t.Error("Thin page should not be indexed")
		}
	}
}

func TestRunJobPersistFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.chunkErr = errors.New("insert rejected")
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/": page("Home", "Welcome to our site."),
	}}
	o := NewOrchestrator(store, fetcher, &fakeEmbedder{}, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://example.com/")

	if err := o.RunJob(context.Background(), src); err == nil {
		t.Fatal("Expected error when chunk persistence fails")
	}
	if _, ok := store.failed["s1"]; !ok {
		t.Error("Source should be marked error on persist failure")
	}
}

func TestRunJobEmbedFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/": page("Home", "Welcome to our site."),
	}}
	o := NewOrchestrator(store, fetcher, &fakeEmbedder{err: errors.New("provider down")}, nil, nil, 25, 200)
	src := testSource("s1", "b1", "https://example.com/")

	if err := o.RunJob(context.Background(), src); err == nil {
		t.Fatal("Expected error when embedding fails")
	}
	if _, ok := store.failed["s1"]; !ok {
		t.Error("Source should be marked error on embed failure")
	}
}

func TestBuildFrontierCapsAndDedupes(t *testing.T) {
	store := newFakeStore()
	var links string
	for i := 0; i < 40; i++ {
		links += fmt.Sprintf(`<a href="/page%d">p</a>`, i)
	}
	o := NewOrchestrator(store, &fakeFetcher{}, &fakeEmbedder{}, nil, nil, 10, 200)

	frontier := o.buildFrontier("https://example.com/", page("Home", links))
	if len(frontier) != 10 {
		t.Fatalf("Frontier length = %d, want capped at 10", len(frontier))
	}
	if frontier[0] != "https://example.com/" {
		t.Errorf("Frontier should start with homepage, got %q", frontier[0])
	}
	seen := map[string]bool{}
	for _, u := range frontier {
		if seen[u] {
			t.Errorf("Duplicate frontier entry %q", u)
		}
		seen[u] = true
	}
}

func TestBuildFrontierIncludesSeeds(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(store, &fakeFetcher{}, &fakeEmbedder{}, nil, nil, 25, 200)

	frontier := o.buildFrontier("https://example.com/", page("Home", "no links here"))

	want := map[string]bool{
		"https://example.com/pricing": false,
		"https://example.com/about":   false,
		"https://example.com/blog":    false,
	}
	for _, u := range frontier {
		if _, ok := want[u]; ok {
			want[u] = true
		}
	}
	for u, found := range want {
		if !found {
			t.Errorf("Seeded page %q missing from frontier", u)
		}
	}
}
