package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/ritik9294/catalog-assistant-v3/internal/session"
)

// Event is one user action applied to a session. Events only enter the
// engine through Advance; service steps run on their own.
type Event interface{ isEvent() }

// UploadImage starts (or restarts) a workflow run with a new photo.
// Valid at the initial step and at the failure pages that ask for a
// different image.
type UploadImage struct {
	Data []byte
	MIME string
}

// Reset abandons the current run and returns to the initial step. The
// usage ledger survives. Valid from any step.
type Reset struct{}

// SelectProduct picks one identified product by index.
type SelectProduct struct {
	Index int `json:"index"`
}

// CreateAll starts batch mode over every identified product.
type CreateAll struct{}

// ProductsNotListed reports that none of the identified products is the
// user's item.
type ProductsNotListed struct{}

// EnhancementChoice accepts or declines the offered image enhancement.
// Declining abandons the run so a better photo can be uploaded.
type EnhancementChoice struct {
	Accept bool `json:"accept"`
}

// UseEnhancedImage adopts the enhanced image as the working image.
type UseEnhancedImage struct{}

// RotateImage rotates the image under review 90 degrees clockwise: the
// pending enhanced image on the enhancement screen, the working image on
// the source-confirmation screen. Generated images occasionally come
// back sideways.
type RotateImage struct{}

// ProceedWithOriginal continues with the unmodified source photo after
// a failed extraction.
type ProceedWithOriginal struct{}

// ProceedWithImage confirms the current working image as the reference
// for all subsequent generation steps.
type ProceedWithImage struct{}

// Retry re-runs the service step that just failed.
type Retry struct{}

// ConfirmGeneratedKeyword accepts or rejects an AI-invented keyword.
type ConfirmGeneratedKeyword struct {
	Accept bool `json:"accept"`
}

// AnswerQuestions supplies one answer per open critical question, in
// order. Every question must be answered; a blank answer re-prompts
// the form.
type AnswerQuestions struct {
	Answers []string `json:"answers"`
}

// ModelNumberChoice states whether the user knows the model number.
type ModelNumberChoice struct {
	Have bool `json:"have"`
}

// SubmitModelNumber supplies the model number to validate.
type SubmitModelNumber struct {
	Model string `json:"model"`
}

// SKUAnswer is one answer to a branded SKU question: either a picked
// option or free text when the user chose "Other".
type SKUAnswer struct {
	Choice     string `json:"choice"`
	OtherValue string `json:"other_value,omitempty"`
}

// SubmitSKUAnswers supplies one SKUAnswer per pending SKU question.
// Every question needs a choice, and "Other" needs the manual value.
type SubmitSKUAnswers struct {
	Answers []SKUAnswer `json:"answers"`
}

// CustomizationChoice states whether the seller offers customization.
type CustomizationChoice struct {
	Customizable bool `json:"customizable"`
}

// SubmitCustomization supplies the customization description.
type SubmitCustomization struct {
	Details string `json:"details"`
}

// NextProduct continues batch processing with the next item, or moves
// to the combined results screen when none remain.
type NextProduct struct{}

// RecreateLast discards the batch listing just produced and reprocesses
// the same product from the original photo.
type RecreateLast struct{}

// UpdateListing replaces the displayed listing with a user-edited copy.
type UpdateListing struct {
	Listing session.FinalListing `json:"listing"`
}

func (UploadImage) isEvent()             {}
func (Reset) isEvent()                   {}
func (SelectProduct) isEvent()           {}
func (CreateAll) isEvent()               {}
func (ProductsNotListed) isEvent()       {}
func (EnhancementChoice) isEvent()       {}
func (UseEnhancedImage) isEvent()        {}
func (RotateImage) isEvent()             {}
func (ProceedWithOriginal) isEvent()     {}
func (ProceedWithImage) isEvent()        {}
func (Retry) isEvent()                   {}
func (ConfirmGeneratedKeyword) isEvent() {}
func (AnswerQuestions) isEvent()         {}
func (ModelNumberChoice) isEvent()       {}
func (SubmitModelNumber) isEvent()       {}
func (SubmitSKUAnswers) isEvent()        {}
func (CustomizationChoice) isEvent()     {}
func (SubmitCustomization) isEvent()     {}
func (NextProduct) isEvent()             {}
func (RecreateLast) isEvent()            {}
func (UpdateListing) isEvent()           {}

// ParseEvent decodes a wire event by kind. Image uploads travel as
// multipart form data, not JSON, so "upload_image" is not accepted here.
func ParseEvent(kind string, payload json.RawMessage) (Event, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	decode := func(v Event) (Event, error) {
		if err := json.Unmarshal(payload, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
		}
		return v, nil
	}
	switch kind {
	case "reset":
		return Reset{}, nil
	case "select_product":
		ev, err := decode(&SelectProduct{})
		if err != nil {
			return nil, err
		}
		return *ev.(*SelectProduct), nil
	case "create_all":
		return CreateAll{}, nil
	case "products_not_listed":
		return ProductsNotListed{}, nil
	case "enhancement_choice":
		ev, err := decode(&EnhancementChoice{})
		if err != nil {
			return nil, err
		}
		return *ev.(*EnhancementChoice), nil
	case "use_enhanced_image":
		return UseEnhancedImage{}, nil
	case "rotate_image":
		return RotateImage{}, nil
	case "proceed_with_original":
		return ProceedWithOriginal{}, nil
	case "proceed_with_image":
		return ProceedWithImage{}, nil
	case "retry":
		return Retry{}, nil
	case "confirm_generated_keyword":
		ev, err := decode(&ConfirmGeneratedKeyword{})
		if err != nil {
			return nil, err
		}
		return *ev.(*ConfirmGeneratedKeyword), nil
	case "answer_questions":
		ev, err := decode(&AnswerQuestions{})
		if err != nil {
			return nil, err
		}
		return *ev.(*AnswerQuestions), nil
	case "model_number_choice":
		ev, err := decode(&ModelNumberChoice{})
		if err != nil {
			return nil, err
		}
		return *ev.(*ModelNumberChoice), nil
	case "submit_model_number":
		ev, err := decode(&SubmitModelNumber{})
		if err != nil {
			return nil, err
		}
		return *ev.(*SubmitModelNumber), nil
	case "submit_sku_answers":
		ev, err := decode(&SubmitSKUAnswers{})
		if err != nil {
			return nil, err
		}
		return *ev.(*SubmitSKUAnswers), nil
	case "customization_choice":
		ev, err := decode(&CustomizationChoice{})
		if err != nil {
			return nil, err
		}
		return *ev.(*CustomizationChoice), nil
	case "submit_customization":
		ev, err := decode(&SubmitCustomization{})
		if err != nil {
			return nil, err
		}
		return *ev.(*SubmitCustomization), nil
	case "next_product":
		return NextProduct{}, nil
	case "recreate_last":
		return RecreateLast{}, nil
	case "update_listing":
		ev, err := decode(&UpdateListing{})
		if err != nil {
			return nil, err
		}
		return *ev.(*UpdateListing), nil
	}
	return nil, fmt.Errorf("%w: unknown event kind %q", ErrBadInput, kind)
}
