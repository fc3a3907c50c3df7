package workflow

import (
	"context"
	"fmt"

	"github.com/ritik9294/catalog-assistant-v3/internal/prompts"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// stepSpecAnalysis fetches the category's spec template, then has the
// model fill the visible attributes and phrase questions for the rest.
// AI-generated keywords carry the sentinel category id, which the spec
// store short-circuits to an empty template; the model then proposes a
// template of its own.
func (e *Engine) stepSpecAnalysis(ctx context.Context, s *session.Context) (session.Step, error) {
	categoryID := session.AIGeneratedCategoryID
	if s.SelectedKeyword != nil {
		categoryID = s.SelectedKeyword.CategoryID
	}
	specs, err := e.Specs.Lookup(ctx, categoryID)
	if err != nil {
		return session.StepGetDBSpecs, fmt.Errorf("specification template unavailable: %v", err)
	}
	s.DBSpecOptions = specs
	if s.IsBrandedFlow {
		// Branded items get their specifications from model-number
		// validation or SKU questions, not from image analysis.
		return session.StepPromptForModelNumber, nil
	}

	raw, usage, err := e.Vision.AnalyzeJSON(ctx,
		prompts.ComprehensiveAnalysis(s.SelectedProduct, specs), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		return session.StepGetDBSpecs, fmt.Errorf("specification analysis failed: %v", err)
	}
	var out struct {
		FilledSpecs    []session.SpecPair `json:"filled_specs"`
		QuestionsToAsk []string           `json:"questions_to_ask"`
	}
	if err := jsonutil.UnmarshalModel(raw, &out); err != nil {
		return session.StepGetDBSpecs, fmt.Errorf("could not read the specification analysis")
	}

	s.AIFilledSpecs = out.FilledSpecs
	s.CriticalQuestions = out.QuestionsToAsk
	s.CriticalAttribute = ""
	for _, sp := range out.FilledSpecs {
		appendSpec(s, sp.Attribute, sp.Value)
	}
	if len(out.QuestionsToAsk) > 0 {
		return session.StepAskUser, nil
	}
	return session.StepAskCustomizationYesNo, nil
}
