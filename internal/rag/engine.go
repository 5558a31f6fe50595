package rag

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sitebotics/sitebot/internal/llm"
	"github.com/sitebotics/sitebot/internal/metrics"
	"github.com/sitebotics/sitebot/internal/models"
)

const (
	// retrieveForURL widens retrieval for navigation requests so the
	// ranker has more URLs to choose from.
	retrieveForURL = 20
	// retrieveForAnswer is the retrieval count for grounded answers.
	retrieveForAnswer = 8

	// maxSources caps the citations attached to a reply.
	maxSources = 5
	// sourceSnippetLen is the citation preview length.
	sourceSnippetLen = 220
)

const refusalAnswer = "I can only answer using information from this website’s content, and I couldn’t find anything relevant to your question yet.\n\nTry asking about a specific page/topic from the site."

const noURLAnswer = "I couldn’t find a matching page URL in the content I’ve indexed yet. Try re-crawling or ask using a page name from the site."

var hardBreakRe = regexp.MustCompile(`[ \t]+\n`)

// stripHardBreaks removes markdown two-space hard line breaks, which
// render badly in chat bubbles.
func stripHardBreaks(md string) string {
	return hardBreakRe.ReplaceAllString(md, "\n")
}

// Searcher runs vector search over a bot's chunks.
type Searcher interface {
	QueryMatchChunks(ctx context.Context, botID string, embedding []float32, limit int) ([]models.RetrievedChunk, error)
}

// Embedder turns the user's message into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates the grounded answer text.
type Completer interface {
	Reply(ctx context.Context, systemPrompt, contextBlock string, history []llm.ChatTurn) (string, error)
}

// Source is a citation attached to a reply.
type Source struct {
	URL        string  `json:"url"`
	Title      string  `json:"title,omitempty"`
	Similarity float64 `json:"similarity"`
	Snippet    string  `json:"snippet,omitempty"`
}

// Reply is the engine's answer plus its citations.
type Reply struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Engine answers questions using only a bot's indexed website content.
// Every chat surface funnels through here, so refusal behavior, URL
// shortcuts, and grounding stay identical across channels.
type Engine struct {
	searcher  Searcher
	embedder  Embedder
	completer Completer
	metrics   *metrics.Collector
	logger    *slog.Logger

	minSimilarity    float64
	maxContextChunks int
}

// NewEngine creates a grounding engine. collector may be nil.
func NewEngine(searcher Searcher, embedder Embedder, completer Completer, collector *metrics.Collector, logger *slog.Logger, minSimilarity float64, maxContextChunks int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		searcher:         searcher,
		embedder:         embedder,
		completer:        completer,
		metrics:          collector,
		logger:           logger,
		minSimilarity:    minSimilarity,
		maxContextChunks: maxContextChunks,
	}
}

// systemPrompt is the persona and answering policy for a bot.
func systemPrompt(botName string) string {
	return fmt.Sprintf(`You are %s, an assistant that answers ONLY using the provided sources.
Rules:
- If the answer is not supported by the sources, say: "I don’t have that information in the website content I’m trained on."
- NEVER say you "don't have access to websites" or "can't browse".
- Keep answers concise: max 120 words OR max 5 bullet points.
- When relevant, include 1–3 source URLs from the sources.
- Do not paste large chunks of text. Summarize.
- Always format the answer in MARKDOWN.
- Do not mention the word 'CONTEXT' or 'sources'.
When answering pricing questions:
- List plans briefly
- Show price once per plan
- Do NOT repeat features excessively
- Prefer a short summary + pricing page URL
`, botName)
}

// buildContext renders the retrieved chunks as numbered sources.
func buildContext(top []models.RetrievedChunk) string {
	parts := make([]string, 0, len(top))
	for i, c := range top {
		title := strings.TrimSpace(c.Title)
		header := fmt.Sprintf("Source %d: %s", i+1, c.URL)
		if title != "" {
			header = fmt.Sprintf("Source %d: %s (%s)", i+1, title, c.URL)
		}
		parts = append(parts, header+"\n"+c.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// citations builds the reply's source list from the top chunks.
func citations(top []models.RetrievedChunk, withSnippets bool) []Source {
	n := len(top)
	if n > maxSources {
		n = maxSources
	}
	sources := make([]Source, 0, n)
	for _, c := range top[:n] {
		s := Source{URL: c.URL, Title: c.Title, Similarity: c.Similarity}
		if withSnippets {
			snippet := c.Content
			if len(snippet) > sourceSnippetLen {
				snippet = snippet[:sourceSnippetLen]
			}
			s.Snippet = snippet
		}
		sources = append(sources, s)
	}
	return sources
}

// Answer produces a grounded reply to the user's message. history holds
// the conversation turns ending with the current user message.
func (e *Engine) Answer(ctx context.Context, botID, botName, message string, history []llm.ChatTurn) (*Reply, error) {
	queryEmbedding, err := e.embedder.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	wantsURL := IsURLRequest(message)

	limit := retrieveForAnswer
	if wantsURL {
		limit = retrieveForURL
	}

	searchStart := time.Now()
	candidates, err := e.searcher.QueryMatchChunks(ctx, botID, queryEmbedding, limit)
	if err != nil {
		return nil, fmt.Errorf("match chunks: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordTiming(metrics.OpDBSearch, time.Since(searchStart))
	}

	top := candidates
	if len(top) > e.maxContextChunks {
		top = top[:e.maxContextChunks]
	}

	// Strict domain-only behavior: refuse below the relevance floor.
	if len(top) == 0 || top[0].Similarity < e.minSimilarity {
		e.logger.Debug("refusing off-domain query", "bot", botID, "candidates", len(candidates))
		return &Reply{
			Answer:  stripHardBreaks(refusalAnswer),
			Sources: []Source{},
		}, nil
	}

	// Navigation requests bypass the model: rank the candidate URLs and
	// hand back the best one directly.
	if wantsURL {
		answer := noURLAnswer
		if url := PickBestURL(message, candidates); url != "" {
			answer = "Here is the most relevant page:\n" + url
		}
		return &Reply{
			Answer:  stripHardBreaks(answer),
			Sources: citations(top, false),
		}, nil
	}

	contextBlock := buildContext(top)
	if contextBlock == "" {
		contextBlock = "No context found."
	}

	llmStart := time.Now()
	answer, err := e.completer.Reply(ctx, systemPrompt(botName), "CONTEXT:\n"+contextBlock, history)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordTiming(metrics.OpLLMGenerate, time.Since(llmStart))
	}
	if answer == "" {
		answer = "Sorry, I could not generate a response."
	}

	return &Reply{
		Answer:  stripHardBreaks(answer),
		Sources: citations(top, true),
	}, nil
}
