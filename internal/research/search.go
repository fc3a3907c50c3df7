// Package research provides best-effort web research for the branded
// flow. Results are raw text passed into later prompts verbatim; failures
// degrade to an empty summary rather than blocking the workflow.
package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Searcher produces a free-text research summary for a query.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// GoogleSearcher queries a Google Programmable Search Engine.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

func NewGoogleSearcher(ctx context.Context, apiKey, cseID string) (*GoogleSearcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleSearcher{svc: svc, cx: cseID}, nil
}

// Search returns the top results as "title: snippet (link)" lines. Any
// failure is logged and collapsed to an empty summary; downstream prompts
// handle the absence of research.
func (g *GoogleSearcher) Search(ctx context.Context, query string) string {
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(5).Context(ctx).Do()
	if err != nil {
		log.Printf("research: search failed (query=%q): %v", query, err)
		return ""
	}
	var b strings.Builder
	for _, item := range resp.Items {
		fmt.Fprintf(&b, "%s: %s (%s)\n", item.Title, item.Snippet, item.Link)
	}
	return strings.TrimSpace(b.String())
}

// NopSearcher returns an empty summary for every query. Used when no
// search engine is configured and in tests.
type NopSearcher struct{}

func (NopSearcher) Search(ctx context.Context, query string) string { return "" }
