package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/ritik9294/catalog-assistant-v3/internal/prompts"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// stepValidateModel researches the user-supplied model number and asks
// the model to validate it against the results. A number that cannot be
// verified is cleared; the user may try another or continue without.
func (e *Engine) stepValidateModel(ctx context.Context, s *session.Context) (session.Step, error) {
	model := s.UserModelNumber
	query := fmt.Sprintf("%s %s model %s", s.BrandName, s.SelectedProduct, model)
	summary := e.Research.Search(ctx, query)

	raw, usage, err := e.Vision.AnalyzeJSON(ctx,
		prompts.ModelValidation(s.BrandName, s.SelectedProduct, model, summary), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		s.UserModelNumber = ""
		return session.StepPromptForModelNumber,
			fmt.Errorf("model lookup failed; try again or continue without a model number")
	}
	var out struct {
		ModelFound     bool               `json:"model_found"`
		Specifications []session.SpecPair `json:"specifications"`
	}
	if err := jsonutil.UnmarshalModel(raw, &out); err != nil {
		s.UserModelNumber = ""
		return session.StepPromptForModelNumber,
			fmt.Errorf("model lookup failed; try again or continue without a model number")
	}
	if !out.ModelFound {
		s.UserModelNumber = ""
		return session.StepPromptForModelNumber,
			fmt.Errorf("model %q could not be verified for %s; try another or continue without one", model, s.BrandName)
	}

	appendSpec(s, "Model Number", model)
	for _, sp := range out.Specifications {
		appendSpec(s, sp.Attribute, sp.Value)
	}
	return session.StepAskCustomizationYesNo, nil
}

// stepSKUQuestions researches the branded product and generates
// multiple-choice questions pinning down the exact SKU. Question
// generation is best effort: any failure just skips the questioning.
func (e *Engine) stepSKUQuestions(ctx context.Context, s *session.Context) (session.Step, error) {
	summary := e.Research.Search(ctx, fmt.Sprintf("%s %s specifications", s.BrandName, s.SelectedProduct))

	raw, usage, err := e.Vision.AnalyzeJSON(ctx,
		prompts.SKUQuestionGeneration(s.BrandName, s.SelectedProduct, summary), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		log.Printf("workflow: SKU question generation failed for %s %s: %v", s.BrandName, s.SelectedProduct, err)
		return session.StepAskCustomizationYesNo, nil
	}
	var out struct {
		Questions []session.SKUQuestion `json:"questions"`
	}
	if err := jsonutil.UnmarshalModel(raw, &out); err != nil {
		log.Printf("workflow: unreadable SKU questions for %s %s: %v", s.BrandName, s.SelectedProduct, err)
		return session.StepAskCustomizationYesNo, nil
	}
	if len(out.Questions) == 0 {
		return session.StepAskCustomizationYesNo, nil
	}
	s.SKUQuestions = out.Questions
	return session.StepCollectBrandedSKUAnswer, nil
}
