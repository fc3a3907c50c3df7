// Package workflow implements the catalog-creation state machine: a
// closed set of steps, user events that move between the waiting ones,
// and service steps the engine runs on its own until the session needs
// input again.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/imageutil"
	"github.com/ritik9294/catalog-assistant-v3/internal/keyword"
	"github.com/ritik9294/catalog-assistant-v3/internal/llm"
	"github.com/ritik9294/catalog-assistant-v3/internal/research"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
)

// KeywordSearcher yields ranked keyword candidates for a product name.
type KeywordSearcher interface {
	Search(ctx context.Context, query string) ([]keyword.Suggestion, error)
}

// SpecLookup resolves a category id to its template attribute names.
type SpecLookup interface {
	Lookup(ctx context.Context, categoryID string) ([]string, error)
}

// DefaultMaxRetries is the manual retry allowance per retryable step.
const DefaultMaxRetries = 3

// Engine drives sessions through the workflow. It holds no per-session
// state and is safe to share across sessions.
type Engine struct {
	Vision   llm.VisionClient
	Keywords KeywordSearcher
	Specs    SpecLookup
	Research research.Searcher

	MaxRetries int
}

func New(vision llm.VisionClient, keywords KeywordSearcher, specs SpecLookup, res research.Searcher) *Engine {
	if res == nil {
		res = research.NopSearcher{}
	}
	return &Engine{
		Vision:     vision,
		Keywords:   keywords,
		Specs:      specs,
		Research:   res,
		MaxRetries: DefaultMaxRetries,
	}
}

// Advance applies one user event to the session, then runs service
// steps until the workflow needs input again. A returned error means
// the event was rejected and the session was not changed; service-step
// failures are not errors here, they land in the session's LastError
// with the step parked on a retryable state.
func (e *Engine) Advance(ctx context.Context, s *session.Context, ev Event) error {
	next, err := e.apply(s, ev)
	if err != nil {
		return err
	}
	s.LastError = ""
	if next != s.Step {
		if !CanTransition(s.Step, next) {
			return fmt.Errorf("workflow: illegal transition %s -> %s", s.Step, next)
		}
		s.Step = next
	}
	return e.run(ctx, s)
}

// run executes service steps until a handler parks the session (same
// step returned) or the step has no handler, meaning it waits for the
// user.
func (e *Engine) run(ctx context.Context, s *session.Context) error {
	for i := 0; i <= len(session.All); i++ {
		h := e.serviceHandler(s.Step)
		if h == nil {
			return nil
		}
		next, err := h(ctx, s)
		if next != s.Step && !CanTransition(s.Step, next) {
			return fmt.Errorf("workflow: illegal transition %s -> %s", s.Step, next)
		}
		if err != nil {
			s.LastError = err.Error()
			s.Step = next
			return nil
		}
		if next == s.Step {
			return nil
		}
		s.Step = next
	}
	return fmt.Errorf("workflow: step loop did not settle at %s", s.Step)
}

func (e *Engine) serviceHandler(st session.Step) func(context.Context, *session.Context) (session.Step, error) {
	switch st {
	case session.StepIdentifyProducts:
		return e.stepIdentify
	case session.StepExtractSelectedProduct:
		return e.stepExtract
	case session.StepQualityCheck:
		return e.stepQuality
	case session.StepPerformEnhancement:
		return e.stepEnhance
	case session.StepGetAPIKeywords:
		return e.stepFetchKeywords
	case session.StepSelectBestKeyword:
		return e.stepSelectKeyword
	case session.StepGetDBSpecs:
		return e.stepSpecAnalysis
	case session.StepValidateModelNumber:
		return e.stepValidateModel
	case session.StepAskBrandedSKUQuestions:
		return e.stepSKUQuestions
	case session.StepGenerateListing:
		return e.stepGenerateListing
	}
	return nil
}

// retryableSteps carry a manual retry budget; all other waiting states
// have no retry at all.
var retryableSteps = map[session.Step]bool{
	session.StepQualityCheck:      true,
	session.StepGetAPIKeywords:    true,
	session.StepSelectBestKeyword: true,
	session.StepGetDBSpecs:        true,
	session.StepGenerateListing:   true,
}

// apply validates the event against the current step and mutates the
// session accordingly. It returns the step to move to; service steps
// reached this way are executed by run afterwards.
func (e *Engine) apply(s *session.Context, ev Event) (session.Step, error) {
	switch ev := ev.(type) {
	case Reset:
		s.Reset()
		return session.StepInitial, nil

	case UploadImage:
		switch s.Step {
		case session.StepInitial, session.StepProductNotFoundFail,
			session.StepProductNotListedFail, session.StepQualityFail:
		default:
			return s.Step, ErrUnexpectedEvent
		}
		mime := strings.ToLower(strings.TrimSpace(ev.MIME))
		if mime == "" {
			mime = imageutil.DefaultMIME
		}
		if !imageutil.AllowedMIME(mime) {
			return s.Step, fmt.Errorf("%w: unsupported image type %q", ErrBadInput, mime)
		}
		if len(ev.Data) == 0 {
			return s.Step, fmt.Errorf("%w: empty image", ErrBadInput)
		}
		s.Reset()
		s.ImageBytes = ev.Data
		s.ImageMIME = mime
		s.OriginalImageBytes = ev.Data
		s.OriginalImageMIME = mime
		return session.StepIdentifyProducts, nil

	case SelectProduct:
		if s.Step != session.StepConfirmProduct {
			return s.Step, ErrUnexpectedEvent
		}
		if ev.Index < 0 || ev.Index >= len(s.IdentifiedProducts) {
			return s.Step, fmt.Errorf("%w: product index %d out of range", ErrBadInput, ev.Index)
		}
		s.BeginExtraction(s.IdentifiedProducts[ev.Index])
		return session.StepExtractSelectedProduct, nil

	case CreateAll:
		if s.Step != session.StepConfirmProduct || len(s.IdentifiedProducts) < 2 {
			return s.Step, ErrUnexpectedEvent
		}
		s.CreateAllFlow = true
		s.ProductsToProcess = s.IdentifiedProducts
		s.ProcessingIndex = 0
		s.BeginExtraction(s.ProductsToProcess[0])
		return session.StepExtractSelectedProduct, nil

	case ProductsNotListed:
		if s.Step != session.StepConfirmProduct {
			return s.Step, ErrUnexpectedEvent
		}
		return session.StepProductNotListedFail, nil

	case EnhancementChoice:
		if s.Step != session.StepOfferEnhancement {
			return s.Step, ErrUnexpectedEvent
		}
		if ev.Accept {
			return session.StepPerformEnhancement, nil
		}
		// Declined: the user wants to start over with a better photo.
		s.Reset()
		return session.StepInitial, nil

	case UseEnhancedImage:
		if s.Step != session.StepConfirmEnhancement || len(s.EnhancedImageBytes) == 0 {
			return s.Step, ErrUnexpectedEvent
		}
		s.ImageBytes = s.EnhancedImageBytes
		s.ImageMIME = imageutil.DefaultMIME
		s.EnhancedImageBytes = nil
		return afterImageConfirmed(s), nil

	case RotateImage:
		switch s.Step {
		case session.StepConfirmEnhancement:
			if len(s.EnhancedImageBytes) == 0 {
				return s.Step, ErrUnexpectedEvent
			}
			rotated, err := imageutil.Rotate90(s.EnhancedImageBytes)
			if err != nil {
				return s.Step, fmt.Errorf("%w: rotate: %v", ErrBadInput, err)
			}
			s.EnhancedImageBytes = rotated
			return s.Step, nil
		case session.StepConfirmSourceImage:
			rotated, err := imageutil.Rotate90(s.ImageBytes)
			if err != nil {
				return s.Step, fmt.Errorf("%w: rotate: %v", ErrBadInput, err)
			}
			s.ImageBytes = rotated
			s.ImageMIME = imageutil.DefaultMIME
			return s.Step, nil
		}
		return s.Step, ErrUnexpectedEvent

	case ProceedWithOriginal:
		// Only meaningful while parked on a failed extraction: keep the
		// unmodified source photo and continue.
		if s.Step != session.StepExtractSelectedProduct {
			return s.Step, ErrUnexpectedEvent
		}
		return session.StepQualityCheck, nil

	case ProceedWithImage:
		if s.Step != session.StepConfirmSourceImage {
			return s.Step, ErrUnexpectedEvent
		}
		return afterImageConfirmed(s), nil

	case Retry:
		if !retryableSteps[s.Step] {
			return s.Step, ErrUnexpectedEvent
		}
		if s.RetryCount(s.Step) >= e.MaxRetries {
			return s.Step, fmt.Errorf("%w: %s", ErrRetryBudget, s.Step)
		}
		s.AddRetry(s.Step)
		return s.Step, nil

	case ConfirmGeneratedKeyword:
		if s.Step != session.StepSelectBestKeyword || s.AIKeywordChoice == "" {
			return s.Step, ErrUnexpectedEvent
		}
		if !ev.Accept {
			if s.RetryCount(s.Step) >= e.MaxRetries {
				return s.Step, fmt.Errorf("%w: %s", ErrRetryBudget, s.Step)
			}
			s.AIKeywordChoice = ""
			s.AddRetry(s.Step)
			return s.Step, nil
		}
		kw := session.GeneratedKeyword(s.AIKeywordChoice)
		s.SelectedKeyword = &kw
		s.AIKeywordChoice = ""
		return session.StepGetDBSpecs, nil

	case AnswerQuestions:
		if s.Step != session.StepAskUser {
			return s.Step, ErrUnexpectedEvent
		}
		if len(ev.Answers) != len(s.CriticalQuestions) {
			return s.Step, fmt.Errorf("%w: expected %d answers, got %d",
				ErrBadInput, len(s.CriticalQuestions), len(ev.Answers))
		}
		for _, a := range ev.Answers {
			if strings.TrimSpace(a) == "" {
				return s.Step, fmt.Errorf("%w: every question needs an answer", ErrBadInput)
			}
		}
		for i, q := range s.CriticalQuestions {
			appendSpec(s, attributeName(q), strings.TrimSpace(ev.Answers[i]))
		}
		return session.StepAskCustomizationYesNo, nil

	case ModelNumberChoice:
		if s.Step != session.StepPromptForModelNumber {
			return s.Step, ErrUnexpectedEvent
		}
		if ev.Have {
			return session.StepCollectModelNumber, nil
		}
		return session.StepAskBrandedSKUQuestions, nil

	case SubmitModelNumber:
		if s.Step != session.StepCollectModelNumber {
			return s.Step, ErrUnexpectedEvent
		}
		model := strings.TrimSpace(ev.Model)
		if model == "" {
			return s.Step, fmt.Errorf("%w: empty model number", ErrBadInput)
		}
		s.UserModelNumber = model
		return session.StepValidateModelNumber, nil

	case SubmitSKUAnswers:
		if s.Step != session.StepCollectBrandedSKUAnswer {
			return s.Step, ErrUnexpectedEvent
		}
		if len(ev.Answers) != len(s.SKUQuestions) {
			return s.Step, fmt.Errorf("%w: expected %d answers, got %d",
				ErrBadInput, len(s.SKUQuestions), len(ev.Answers))
		}
		for _, a := range ev.Answers {
			choice := strings.TrimSpace(a.Choice)
			if choice == "" ||
				(strings.EqualFold(choice, "Other") && strings.TrimSpace(a.OtherValue) == "") {
				return s.Step, fmt.Errorf(
					"%w: every specification needs an answer, including any \"Other\" fields",
					ErrBadInput)
			}
		}
		for i, q := range s.SKUQuestions {
			val := strings.TrimSpace(ev.Answers[i].Choice)
			if strings.EqualFold(val, "Other") {
				val = strings.TrimSpace(ev.Answers[i].OtherValue)
			}
			appendSpec(s, q.SpecName, val)
		}
		return session.StepAskCustomizationYesNo, nil

	case CustomizationChoice:
		if s.Step != session.StepAskCustomizationYesNo {
			return s.Step, ErrUnexpectedEvent
		}
		if ev.Customizable {
			return session.StepAskCustomizationDetails, nil
		}
		return session.StepGenerateListing, nil

	case SubmitCustomization:
		if s.Step != session.StepAskCustomizationDetails {
			return s.Step, ErrUnexpectedEvent
		}
		details := strings.TrimSpace(ev.Details)
		if details == "" {
			return s.Step, fmt.Errorf("%w: empty customization details", ErrBadInput)
		}
		s.CustomizationDetails = details
		return session.StepGenerateListing, nil

	case NextProduct:
		if s.Step != session.StepConfirmSingleProduct {
			return s.Step, ErrUnexpectedEvent
		}
		if !s.BatchRemaining() {
			return session.StepDisplayAllResults, nil
		}
		s.ProcessingIndex++
		return e.startBatchItem(s), nil

	case RecreateLast:
		if s.Step != session.StepConfirmSingleProduct || len(s.AllFinalListings) == 0 {
			return s.Step, ErrUnexpectedEvent
		}
		// Drop the rejected result and redo the same batch item.
		s.AllFinalListings = s.AllFinalListings[:len(s.AllFinalListings)-1]
		return e.startBatchItem(s), nil

	case UpdateListing:
		switch s.Step {
		case session.StepDisplayResults, session.StepConfirmSingleProduct:
		default:
			return s.Step, ErrUnexpectedEvent
		}
		if s.FinalListing == nil {
			return s.Step, ErrUnexpectedEvent
		}
		if strings.TrimSpace(ev.Listing.ProductName) == "" {
			return s.Step, fmt.Errorf("%w: listing needs a product name", ErrBadInput)
		}
		edited := ev.Listing
		s.FinalListing = &edited
		if s.CreateAllFlow && len(s.AllFinalListings) > 0 {
			s.AllFinalListings[len(s.AllFinalListings)-1].Listing = edited
		}
		return s.Step, nil
	}
	return s.Step, ErrUnexpectedEvent
}

// startBatchItem resets product-scoped state and begins the batch item
// at the current processing index. Every batch item re-extracts its
// product from the restored original photo.
func (e *Engine) startBatchItem(s *session.Context) session.Step {
	resetProductScope(s)
	item, ok := s.CurrentBatchItem()
	if !ok {
		return session.StepDisplayAllResults
	}
	s.BeginExtraction(item)
	return session.StepExtractSelectedProduct
}

// resetProductScope clears everything tied to the product being
// processed while leaving the batch bookkeeping, the source image, and
// the ledger alone.
func resetProductScope(s *session.Context) {
	s.EnhancedImageBytes = nil
	s.QualityIssues = nil
	s.APIKeywords = nil
	s.AIKeywordChoice = ""
	s.SelectedKeyword = nil
	s.DBSpecOptions = nil
	s.AIFilledSpecs = nil
	s.CriticalQuestions = nil
	s.SKUQuestions = nil
	s.UserModelNumber = ""
	s.CriticalAttribute = ""
	s.CustomizationDetails = ""
	s.FinalListing = nil
	s.FinalImages = nil
	s.LastError = ""
	s.Retries = make(map[session.Step]int)
}

// attributeName shortens a generated question like
// "What is the Capacity? (e.g. 1L)" to the attribute it asks about.
func attributeName(question string) string {
	name := strings.TrimPrefix(question, "What is the ")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "?"))
	if name == "" {
		return question
	}
	return name
}

// appendSpec grows the consolidated specification string.
func appendSpec(s *session.Context, attr, val string) {
	entry := attr + ": " + val
	if s.CriticalAttribute == "" {
		s.CriticalAttribute = entry
		return
	}
	s.CriticalAttribute += ", " + entry
}

// afterImageConfirmed routes the workflow fork: branded products go to
// model-number handling, everything else to keyword research.
func afterImageConfirmed(s *session.Context) session.Step {
	if s.IsBrandedFlow {
		return session.StepPromptForModelNumber
	}
	return session.StepGetAPIKeywords
}

// workingImage wraps the session's current image for a model call.
func workingImage(s *session.Context) *llm.ImageInput {
	mime := s.ImageMIME
	if mime == "" {
		mime = imageutil.DefaultMIME
	}
	return &llm.ImageInput{MIMEType: mime, Data: s.ImageBytes}
}
