// Package listing renders session state into a UI-facing view model and
// cleans up user-edited listings before they re-enter a session.
package listing

import (
	"fmt"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/session"
)

// Action is one event the UI may send at the current step. Kind matches
// the wire event kinds accepted by the gateway.
type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// BatchProgress reports position inside a batch run.
type BatchProgress struct {
	Index     int  `json:"index"`
	Total     int  `json:"total"`
	Remaining bool `json:"remaining"`
}

// View is the complete render state for one session at one step. It is
// plain data; the gateway serializes it as-is.
type View struct {
	SessionID string       `json:"session_id"`
	Step      session.Step `json:"step"`
	Prompt    string       `json:"prompt"`
	Error     string       `json:"error,omitempty"`
	Actions   []Action     `json:"actions"`

	Products         []session.ProductRecord `json:"products,omitempty"`
	SelectedProduct  string                  `json:"selected_product,omitempty"`
	QualityIssues    []string                `json:"quality_issues,omitempty"`
	GeneratedKeyword string                  `json:"generated_keyword,omitempty"`
	Questions        []string                `json:"questions,omitempty"`
	FilledSpecs      []session.SpecPair      `json:"filled_specs,omitempty"`
	SKUQuestions     []session.SKUQuestion   `json:"sku_questions,omitempty"`

	Listing     *session.FinalListing  `json:"listing,omitempty"`
	AllListings []session.FinalListing `json:"all_listings,omitempty"`
	ImageCount  int                    `json:"image_count"`

	HasEnhancedImage bool           `json:"has_enhanced_image"`
	Batch            *BatchProgress `json:"batch,omitempty"`

	Usage session.UsageSnapshot `json:"usage"`
}

// Render builds the view for the session's current step. It reads the
// session and never mutates it.
func Render(s *session.Context) View {
	v := View{
		SessionID:       s.ID,
		Step:            s.Step,
		Error:           s.LastError,
		SelectedProduct: s.SelectedProduct,
		ImageCount:      len(s.FinalImages),
		Usage:           s.Usage.Snapshot(),
	}
	if s.CreateAllFlow {
		v.Batch = &BatchProgress{
			Index:     s.ProcessingIndex,
			Total:     len(s.ProductsToProcess),
			Remaining: s.BatchRemaining(),
		}
	}

	switch s.Step {
	case session.StepInitial:
		v.Prompt = "Upload or capture a photo of your product to begin."

	case session.StepProductNotFoundFail:
		v.Prompt = "No clear product could be identified in the photo. Upload a different image."
		v.Actions = []Action{{Kind: "reset", Label: "Start Over"}}

	case session.StepConfirmProduct:
		v.Prompt = "Multiple items were detected. Select the product you wish to process."
		v.Products = s.IdentifiedProducts
		v.Actions = []Action{
			{Kind: "select_product", Label: "Process Selected Product"},
			{Kind: "create_all", Label: "Create Catalogs for All"},
			{Kind: "products_not_listed", Label: "My Product Is Not Listed"},
		}

	case session.StepProductNotListedFail:
		v.Prompt = "Sorry, we could not match your product. Try a clearer photo."
		v.Actions = []Action{{Kind: "reset", Label: "Start Over"}}

	case session.StepExtractSelectedProduct:
		if s.LastError == "" {
			v.Prompt = "Working..."
			break
		}
		v.Prompt = "The product could not be isolated from the photo."
		v.Actions = []Action{
			{Kind: "proceed_with_original", Label: "Proceed with Original Image"},
			{Kind: "reset", Label: "Start Over"},
		}

	case session.StepQualityFail:
		v.Prompt = "The image did not pass the quality check. Upload a different image."
		v.QualityIssues = s.QualityIssues
		v.Actions = []Action{{Kind: "reset", Label: "Start Over"}}

	case session.StepOfferEnhancement:
		v.Prompt = "The photo has quality issues. Enhance it with AI?"
		v.QualityIssues = s.QualityIssues
		v.Actions = []Action{{Kind: "enhancement_choice", Label: "Enhance / Upload New"}}

	case session.StepConfirmEnhancement:
		v.Prompt = "Review the enhanced image."
		v.HasEnhancedImage = len(s.EnhancedImageBytes) > 0
		v.Actions = []Action{
			{Kind: "use_enhanced_image", Label: "Use Enhanced Image"},
			{Kind: "rotate_image", Label: "Rotate 90°"},
			{Kind: "reset", Label: "Start Over"},
		}

	case session.StepConfirmSourceImage:
		v.Prompt = "Confirm the product image. It is the reference for every generation step that follows."
		v.Actions = []Action{
			{Kind: "proceed_with_image", Label: "Proceed with this Image"},
			{Kind: "rotate_image", Label: "Rotate 90°"},
			{Kind: "reset", Label: "Upload New"},
		}

	case session.StepQualityCheck, session.StepGetAPIKeywords, session.StepGetDBSpecs, session.StepGenerateListing:
		if s.LastError == "" {
			v.Prompt = "Working..."
			break
		}
		v.Prompt = "A service step did not complete."
		v.Actions = []Action{
			{Kind: "retry", Label: "Retry"},
			{Kind: "reset", Label: "Start Over"},
		}

	case session.StepSelectBestKeyword:
		if s.AIKeywordChoice != "" {
			v.Prompt = fmt.Sprintf("No listed keyword matched. Use the suggested keyword %q?", s.AIKeywordChoice)
			v.GeneratedKeyword = s.AIKeywordChoice
			v.Actions = []Action{{Kind: "confirm_generated_keyword", Label: "Accept / Reject"}}
			break
		}
		v.Prompt = "Keyword selection did not complete."
		v.Actions = []Action{
			{Kind: "retry", Label: "Retry"},
			{Kind: "reset", Label: "Start Over"},
		}

	case session.StepAskUser:
		v.Prompt = "A few details could not be read from the photo."
		v.Questions = s.CriticalQuestions
		v.FilledSpecs = s.AIFilledSpecs
		v.Actions = []Action{{Kind: "answer_questions", Label: "Submit Answers"}}

	case session.StepPromptForModelNumber:
		v.Prompt = fmt.Sprintf("Do you know the %s model number?", s.BrandName)
		v.Actions = []Action{{Kind: "model_number_choice", Label: "Yes / No"}}

	case session.StepCollectModelNumber:
		v.Prompt = "Enter the model number."
		v.Actions = []Action{{Kind: "submit_model_number", Label: "Submit"}}

	case session.StepAskBrandedSKUQuestions:
		v.Prompt = "Looking up the exact product variant."

	case session.StepCollectBrandedSKUAnswer:
		v.Prompt = "Answer a few questions to pin down the exact variant."
		v.SKUQuestions = s.SKUQuestions
		v.Actions = []Action{{Kind: "submit_sku_answers", Label: "Submit Answers"}}

	case session.StepAskCustomizationYesNo:
		v.Prompt = "Do you offer customization for this product?"
		v.Actions = []Action{{Kind: "customization_choice", Label: "Yes / No"}}

	case session.StepAskCustomizationDetails:
		v.Prompt = "Describe the customization you offer."
		v.Actions = []Action{{Kind: "submit_customization", Label: "Submit"}}

	case session.StepConfirmSingleProduct:
		v.Prompt = fmt.Sprintf("Listing for %q is ready. What's next?", s.SelectedProduct)
		v.Listing = s.FinalListing
		v.Actions = []Action{{Kind: "update_listing", Label: "Save Edits"}}
		label := "Proceed with Next Product"
		if !s.BatchRemaining() {
			label = "Finish and View All Products"
		}
		v.Actions = append(v.Actions,
			Action{Kind: "next_product", Label: label},
			Action{Kind: "recreate_last", Label: "Recreate This Product"},
		)

	case session.StepDisplayResults:
		v.Prompt = "Your listing is ready."
		v.Listing = s.FinalListing
		v.Actions = []Action{
			{Kind: "update_listing", Label: "Save Edits"},
			{Kind: "reset", Label: "Start a New Session"},
		}

	case session.StepDisplayAllResults:
		v.Prompt = "All listings are ready."
		for _, r := range s.AllFinalListings {
			v.AllListings = append(v.AllListings, r.Listing)
		}
		v.Actions = []Action{{Kind: "reset", Label: "Start a New Session"}}

	default:
		// Service steps in flight have nothing to ask.
		v.Prompt = "Working..."
	}
	return v
}

// Sanitize normalizes a user-edited listing: trims text, drops empty
// specification and pricing rows, and removes duplicate attributes and
// units, keeping the first occurrence.
func Sanitize(l session.FinalListing) session.FinalListing {
	out := session.FinalListing{
		ProductName:    strings.TrimSpace(l.ProductName),
		PrimaryKeyword: strings.TrimSpace(l.PrimaryKeyword),
		Description:    strings.TrimSpace(l.Description),
	}

	seenAttr := map[string]bool{}
	for _, sp := range l.Specifications {
		attr := strings.TrimSpace(sp.Attribute)
		val := strings.TrimSpace(sp.Value)
		key := strings.ToLower(attr)
		if attr == "" || val == "" || seenAttr[key] {
			continue
		}
		seenAttr[key] = true
		out.Specifications = append(out.Specifications, session.SpecPair{Attribute: attr, Value: val})
	}

	seenUnit := map[string]bool{}
	for _, pp := range l.Pricing {
		unit := strings.TrimSpace(pp.Unit)
		pr := strings.TrimSpace(pp.PriceRange)
		key := strings.ToLower(unit)
		if unit == "" || pr == "" || seenUnit[key] {
			continue
		}
		seenUnit[key] = true
		out.Pricing = append(out.Pricing, session.PricePoint{Unit: unit, PriceRange: pr})
	}
	return out
}
