package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/keyword"
	"github.com/ritik9294/catalog-assistant-v3/internal/prompts"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// stepFetchKeywords pulls ranked keyword candidates for the product
// name. A genuinely empty suggestion set is not a failure: selection
// then falls through to an AI-generated keyword.
func (e *Engine) stepFetchKeywords(ctx context.Context, s *session.Context) (session.Step, error) {
	query := s.SelectedProduct
	if s.IsBrandedFlow && s.BrandName != "" {
		query = s.BrandName + " " + s.SelectedProduct
	}
	sugs, err := e.Keywords.Search(ctx, query)
	if errors.Is(err, keyword.ErrNoSuggestions) {
		s.APIKeywords = nil
		return session.StepSelectBestKeyword, nil
	}
	if err != nil {
		return session.StepGetAPIKeywords, fmt.Errorf("keyword suggestions unavailable: %v", err)
	}
	records := make([]session.KeywordRecord, len(sugs))
	for i, sg := range sugs {
		records[i] = session.KeywordRecord{
			ID:           sg.ID,
			Name:         sg.Name,
			CategoryID:   sg.CategoryID,
			CategoryName: sg.CategoryName,
		}
	}
	s.APIKeywords = records
	return session.StepSelectBestKeyword, nil
}

// stepSelectKeyword has the model pick the best candidate name from the
// fetched suggestions. An exact name match binds the suggestion's
// category; anything else is treated as an AI-generated keyword the
// user must confirm first.
func (e *Engine) stepSelectKeyword(ctx context.Context, s *session.Context) (session.Step, error) {
	s.AIKeywordChoice = ""
	names := make([]string, len(s.APIKeywords))
	for i, rec := range s.APIKeywords {
		names[i] = rec.Name
	}

	raw, usage, err := e.Vision.AnalyzeJSON(ctx, prompts.KeywordSelection(names), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		return session.StepSelectBestKeyword, fmt.Errorf("keyword selection failed: %v", err)
	}
	var out struct {
		Selected string `json:"selected_keyword_name"`
	}
	if err := jsonutil.UnmarshalModel(raw, &out); err != nil || strings.TrimSpace(out.Selected) == "" {
		return session.StepSelectBestKeyword, fmt.Errorf("could not read the keyword selection")
	}
	chosen := strings.TrimSpace(out.Selected)

	for i := range s.APIKeywords {
		if strings.EqualFold(s.APIKeywords[i].Name, chosen) {
			s.SelectedKeyword = &s.APIKeywords[i]
			return session.StepGetDBSpecs, nil
		}
	}
	// Not in the candidate list: park for explicit user confirmation.
	s.AIKeywordChoice = chosen
	return session.StepSelectBestKeyword, nil
}
