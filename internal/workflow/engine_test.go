package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritik9294/catalog-assistant-v3/internal/keyword"
	"github.com/ritik9294/catalog-assistant-v3/internal/llm"
	"github.com/ritik9294/catalog-assistant-v3/internal/research"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeKeywords struct {
	sugs  []keyword.Suggestion
	errs  []error
	calls int
}

func (f *fakeKeywords) Search(ctx context.Context, query string) ([]keyword.Suggestion, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.sugs, nil
}

type fakeSpecs struct {
	specs    []string
	err      error
	lastsCat []string
}

func (f *fakeSpecs) Lookup(ctx context.Context, categoryID string) ([]string, error) {
	f.lastsCat = append(f.lastsCat, categoryID)
	if f.err != nil {
		return nil, f.err
	}
	if categoryID == session.AIGeneratedCategoryID {
		return []string{}, nil
	}
	return f.specs, nil
}

const (
	cleanQuality = `{"human_present":false,"watermark_present":false,"background_cluttered":false,"is_blurry":false,"is_screenshot":false}`
	bottleList   = `[{"product_name":"Water Bottle","is_branded":false,"brand_name":null}]`
	noQuestions  = `{"filled_specs":[{"attribute":"Material","value":"Steel"}],"questions_to_ask":[]}`
	bottleJSON   = `{"product_name":"Stainless Steel Water Bottle 1L","specifications":[{"attribute":"Material","value":"Steel"}],"primary_keyword":"Water Bottle","description":"A durable bottle.","pricing":[{"unit":"Piece","price_range":"Rs 150-200"}]}`
)

func twoImages() llm.FakeImages {
	return llm.FakeImages{
		Images: []llm.GeneratedImage{
			{MIMEType: "image/png", Data: []byte("img-a")},
			{MIMEType: "image/png", Data: []byte("img-b")},
		},
		Usage: llm.Usage{InputTokens: 10, OutputTokens: 40},
	}
}

func newTestEngine(fake *llm.FakeClient, kw *fakeKeywords, sp *fakeSpecs) *Engine {
	return New(fake, kw, sp, research.NopSearcher{})
}

func advance(t *testing.T, e *Engine, s *session.Context, ev Event) {
	t.Helper()
	if err := e.Advance(context.Background(), s, ev); err != nil {
		t.Fatalf("advance at %s: %v", s.Step, err)
	}
}

func TestNonBrandedHappyPath(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: bottleList, Usage: llm.Usage{InputTokens: 100, OutputTokens: 20}},
			{JSON: cleanQuality, Usage: llm.Usage{InputTokens: 50, OutputTokens: 10}},
			{JSON: `{"selected_keyword_name":"Water Bottle"}`},
			{JSON: noQuestions},
			{JSON: bottleJSON},
		},
		Imagery: []llm.FakeImages{twoImages()},
	}
	kw := &fakeKeywords{sugs: []keyword.Suggestion{
		{ID: "11", Name: "Water Bottle", CategoryID: "77", CategoryName: "Bottles"},
		{ID: "12", Name: "Flask", CategoryID: "78", CategoryName: "Flasks"},
	}}
	sp := &fakeSpecs{specs: []string{"Material", "Capacity"}}
	e := newTestEngine(fake, kw, sp)
	s := session.New("s1")

	// A lone product skips the selection screen; the clean quality check
	// parks on source-image confirmation.
	advance(t, e, s, UploadImage{Data: pngBytes(t, 500, 500), MIME: "image/png"})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.Equal(t, "Water Bottle", s.SelectedProduct)
	require.Empty(t, s.QualityIssues)

	advance(t, e, s, ProceedWithImage{})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.NotNil(t, s.SelectedKeyword)
	require.Equal(t, "77", s.SelectedKeyword.CategoryID)
	require.Equal(t, []string{"77"}, sp.lastsCat)
	require.Equal(t, "Material: Steel", s.CriticalAttribute)

	advance(t, e, s, CustomizationChoice{Customizable: false})
	require.Equal(t, session.StepDisplayResults, s.Step)
	require.NotNil(t, s.FinalListing)
	require.Equal(t, "Stainless Steel Water Bottle 1L", s.FinalListing.ProductName)
	// Confirmed source image plus the two generated catalog images.
	require.Len(t, s.FinalImages, 3)

	snap := s.Usage.Snapshot()
	require.Greater(t, snap.TextInputTokens, int64(0))
	require.Equal(t, int64(2), snap.ImagesGenerated)
	require.Greater(t, snap.EstimatedCostUSD, 0.0)
}

func TestBrandedModelNumberFlow(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: `[{"product_name":"Angle Grinder","is_branded":true,"brand_name":"Bosch"}]`},
			{JSON: cleanQuality},
			{JSON: `{"model_found":true,"specifications":[{"attribute":"Power","value":"720 W"}]}`},
			{JSON: `{"product_name":"Bosch GWS 700 Angle Grinder","specifications":[],"primary_keyword":"Angle Grinder","description":"A grinder.","pricing":[]}`},
		},
		Imagery: []llm.FakeImages{twoImages()},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s2")

	advance(t, e, s, UploadImage{Data: pngBytes(t, 600, 600), MIME: "image/png"})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.True(t, s.IsBrandedFlow)

	// Branded items skip keyword research and go straight to the model
	// number once the image is confirmed.
	advance(t, e, s, ProceedWithImage{})
	require.Equal(t, session.StepPromptForModelNumber, s.Step)

	advance(t, e, s, ModelNumberChoice{Have: true})
	require.Equal(t, session.StepCollectModelNumber, s.Step)

	advance(t, e, s, SubmitModelNumber{Model: "GWS 700"})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Contains(t, s.CriticalAttribute, "Model Number: GWS 700")
	require.Contains(t, s.CriticalAttribute, "Power: 720 W")

	advance(t, e, s, CustomizationChoice{Customizable: true})
	require.Equal(t, session.StepAskCustomizationDetails, s.Step)

	advance(t, e, s, SubmitCustomization{Details: "Laser engraving on body"})
	require.Equal(t, session.StepDisplayResults, s.Step)
	require.Equal(t, "Laser engraving on body", s.CustomizationDetails)
}

func TestModelNumberNotVerified(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: `{"model_found":false,"specifications":[]}`},
		},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s3")
	s.Step = session.StepCollectModelNumber
	s.SelectedProduct = "Angle Grinder"
	s.IsBrandedFlow = true
	s.BrandName = "Bosch"
	s.ImageBytes = pngBytes(t, 500, 500)
	s.ImageMIME = "image/png"

	advance(t, e, s, SubmitModelNumber{Model: "XYZ-1"})
	require.Equal(t, session.StepPromptForModelNumber, s.Step)
	require.Empty(t, s.UserModelNumber)
	require.Contains(t, s.LastError, "could not be verified")
}

func TestBrandedSKUQuestions(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: `{"questions":[
				{"spec_name":"Wattage","description":"What is the wattage?","options":["500 W","720 W","850 W","1200 W"]},
				{"spec_name":"Model","description":"Which model is it?","options":["GWS 600","GWS 700","GWS 800","GWS 900"]}
			]}`},
			{JSON: `{"product_name":"Bosch Grinder","specifications":[],"primary_keyword":"Angle Grinder","description":"A grinder.","pricing":[]}`},
		},
		Imagery: []llm.FakeImages{twoImages()},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s4")
	s.Step = session.StepPromptForModelNumber
	s.SelectedProduct = "Angle Grinder"
	s.IsBrandedFlow = true
	s.BrandName = "Bosch"
	s.ImageBytes = pngBytes(t, 500, 500)
	s.ImageMIME = "image/png"

	advance(t, e, s, ModelNumberChoice{Have: false})
	require.Equal(t, session.StepCollectBrandedSKUAnswer, s.Step)
	require.Len(t, s.SKUQuestions, 2)

	advance(t, e, s, SubmitSKUAnswers{Answers: []SKUAnswer{
		{Choice: "720 W"},
		{Choice: "Other", OtherValue: "GWS 750"},
	}})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Contains(t, s.CriticalAttribute, "Wattage: 720 W")
	require.Contains(t, s.CriticalAttribute, "Model: GWS 750")
}

func TestBlankCriticalAnswersReprompt(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s4b")
	s.Step = session.StepAskUser
	s.CriticalQuestions = []string{
		"What is the Capacity? (e.g. 1L)",
		"What is the Material?",
	}
	s.CriticalAttribute = "Color: Blue"

	// A blank answer re-prompts in place without touching the session.
	err := e.Advance(context.Background(), s, AnswerQuestions{Answers: []string{"  ", "Steel"}})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, session.StepAskUser, s.Step)
	require.Equal(t, "Color: Blue", s.CriticalAttribute)

	// Answers are recorded under the attribute the question asks about,
	// not the question text itself.
	advance(t, e, s, AnswerQuestions{Answers: []string{"1L", "Steel"}})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Equal(t, "Color: Blue, Capacity: 1L, Material: Steel", s.CriticalAttribute)
}

func TestIncompleteSKUAnswersReprompt(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s4c")
	s.Step = session.StepCollectBrandedSKUAnswer
	s.SKUQuestions = []session.SKUQuestion{
		{SpecName: "Wattage", Options: []string{"500 W", "720 W"}},
		{SpecName: "Model", Options: []string{"GWS 600", "GWS 700"}},
	}

	// "Other" chosen with no value typed in.
	err := e.Advance(context.Background(), s, SubmitSKUAnswers{Answers: []SKUAnswer{
		{Choice: "720 W"},
		{Choice: "Other", OtherValue: "   "},
	}})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, session.StepCollectBrandedSKUAnswer, s.Step)
	require.Empty(t, s.CriticalAttribute)

	// A question left without any choice at all.
	err = e.Advance(context.Background(), s, SubmitSKUAnswers{Answers: []SKUAnswer{
		{Choice: ""},
		{Choice: "GWS 700"},
	}})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, session.StepCollectBrandedSKUAnswer, s.Step)

	advance(t, e, s, SubmitSKUAnswers{Answers: []SKUAnswer{
		{Choice: "720 W"},
		{Choice: "Other", OtherValue: "GWS 750"},
	}})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Contains(t, s.CriticalAttribute, "Wattage: 720 W")
	require.Contains(t, s.CriticalAttribute, "Model: GWS 750")
}

func TestSKUGenerationFailureSkipsQuestions(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{Err: errors.New("model offline")},
		},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s5")
	s.Step = session.StepPromptForModelNumber
	s.IsBrandedFlow = true
	s.BrandName = "Bosch"
	s.SelectedProduct = "Angle Grinder"
	s.ImageBytes = pngBytes(t, 500, 500)

	advance(t, e, s, ModelNumberChoice{Have: false})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Empty(t, s.SKUQuestions)
}

func TestBatchFlow(t *testing.T) {
	extractImg := func() llm.FakeImages {
		return llm.FakeImages{Images: []llm.GeneratedImage{
			{MIMEType: "image/png", Data: pngBytes(t, 500, 500)},
		}}
	}
	perItemResults := func(name string) []llm.FakeResult {
		return []llm.FakeResult{
			{JSON: cleanQuality},
			{JSON: `{"selected_keyword_name":"` + name + `"}`},
			{JSON: noQuestions},
			{JSON: `{"product_name":"` + name + `","specifications":[],"primary_keyword":"` + name + `","description":"A product.","pricing":[]}`},
		}
	}
	fake := &llm.FakeClient{
		Results: append([]llm.FakeResult{
			{JSON: `[{"product_name":"Water Bottle","is_branded":false},{"product_name":"Lunch Box","is_branded":false}]`},
		}, append(perItemResults("Water Bottle"), perItemResults("Lunch Box")...)...),
		Imagery: []llm.FakeImages{extractImg(), twoImages(), extractImg(), twoImages()},
	}
	kw := &fakeKeywords{sugs: []keyword.Suggestion{
		{ID: "1", Name: "Water Bottle", CategoryID: "70", CategoryName: "Bottles"},
		{ID: "2", Name: "Lunch Box", CategoryID: "71", CategoryName: "Boxes"},
	}}
	e := newTestEngine(fake, kw, &fakeSpecs{specs: []string{"Material"}})
	s := session.New("s6")

	original := pngBytes(t, 700, 700)
	advance(t, e, s, UploadImage{Data: original, MIME: "image/png"})
	require.Equal(t, session.StepConfirmProduct, s.Step)
	require.Len(t, s.IdentifiedProducts, 2)

	// First item: extraction, clean quality check, confirmation, specs.
	advance(t, e, s, CreateAll{})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.True(t, s.CreateAllFlow)
	require.Equal(t, "Water Bottle", s.SelectedProduct)

	advance(t, e, s, ProceedWithImage{})
	advance(t, e, s, CustomizationChoice{Customizable: false})
	require.Equal(t, session.StepConfirmSingleProduct, s.Step)
	require.Len(t, s.AllFinalListings, 1)

	// Second and last item ends on the combined results screen.
	advance(t, e, s, NextProduct{})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.Equal(t, "Lunch Box", s.SelectedProduct)

	advance(t, e, s, ProceedWithImage{})
	advance(t, e, s, CustomizationChoice{Customizable: false})
	require.Equal(t, session.StepDisplayAllResults, s.Step)
	require.Len(t, s.AllFinalListings, 2)
	require.Equal(t, "Water Bottle", s.AllFinalListings[0].Listing.ProductName)
	require.Equal(t, "Lunch Box", s.AllFinalListings[1].Listing.ProductName)
}

func TestRecreateLastBatchItem(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: cleanQuality},
			{JSON: `{"selected_keyword_name":"Lunch Box"}`},
			{JSON: noQuestions},
			{JSON: `{"product_name":"Lunch Box v2","specifications":[],"primary_keyword":"Lunch Box","description":"A box.","pricing":[]}`},
		},
		Imagery: []llm.FakeImages{
			{Images: []llm.GeneratedImage{{MIMEType: "image/png", Data: pngBytes(t, 500, 500)}}},
			twoImages(),
		},
	}
	kw := &fakeKeywords{sugs: []keyword.Suggestion{
		{ID: "2", Name: "Lunch Box", CategoryID: "71", CategoryName: "Boxes"},
	}}
	e := newTestEngine(fake, kw, &fakeSpecs{})
	s := session.New("s7")
	s.Step = session.StepConfirmSingleProduct
	s.CreateAllFlow = true
	s.OriginalImageBytes = pngBytes(t, 700, 700)
	s.OriginalImageMIME = "image/png"
	s.ProductsToProcess = []session.ProductRecord{
		{ProductName: "Lunch Box"},
		{ProductName: "Water Bottle"},
	}
	s.ProcessingIndex = 0
	s.FinalListing = &session.FinalListing{ProductName: "Lunch Box v1"}
	s.AllFinalListings = []session.ListingResult{
		{Listing: session.FinalListing{ProductName: "Lunch Box v1"}},
	}

	// Recreating discards the stored result and reruns the same item from
	// the restored original photo.
	advance(t, e, s, RecreateLast{})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.Equal(t, "Lunch Box", s.SelectedProduct)

	advance(t, e, s, ProceedWithImage{})
	advance(t, e, s, CustomizationChoice{Customizable: false})
	require.Equal(t, session.StepConfirmSingleProduct, s.Step)
	require.Len(t, s.AllFinalListings, 1)
	require.Equal(t, "Lunch Box v2", s.AllFinalListings[0].Listing.ProductName)
}

func TestQualityIssuesEnhancementFlow(t *testing.T) {
	enhanced := pngBytes(t, 600, 600)
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: bottleList},
			{JSON: `{"human_present":false,"watermark_present":true,"background_cluttered":false,"is_blurry":false,"is_screenshot":false}`},
		},
		Imagery: []llm.FakeImages{
			{Images: []llm.GeneratedImage{{MIMEType: "image/png", Data: enhanced}}},
		},
	}
	kw := &fakeKeywords{errs: []error{keyword.ErrUnavailable}}
	e := newTestEngine(fake, kw, &fakeSpecs{})
	s := session.New("s8")

	advance(t, e, s, UploadImage{Data: pngBytes(t, 500, 500), MIME: "image/png"})
	require.Equal(t, session.StepOfferEnhancement, s.Step)
	require.Equal(t, []string{"watermark_present"}, s.QualityIssues)

	advance(t, e, s, EnhancementChoice{Accept: true})
	require.Equal(t, session.StepConfirmEnhancement, s.Step)
	require.NotEmpty(t, s.EnhancedImageBytes)

	before := s.EnhancedImageBytes
	advance(t, e, s, RotateImage{})
	require.Equal(t, session.StepConfirmEnhancement, s.Step)
	require.NotEqual(t, before, s.EnhancedImageBytes)

	// Accepting the enhanced image runs into an unavailable keyword
	// service: the session parks on the step with the error exposed.
	advance(t, e, s, UseEnhancedImage{})
	require.Equal(t, session.StepGetAPIKeywords, s.Step)
	require.Empty(t, s.EnhancedImageBytes)
	require.Contains(t, s.LastError, "keyword suggestions unavailable")

	// The retry succeeds once the service recovers.
	kw.sugs = []keyword.Suggestion{{ID: "1", Name: "Water Bottle", CategoryID: "70"}}
	fake.Results = []llm.FakeResult{{JSON: `{"selected_keyword_name":"Water Bottle"}`}, {JSON: noQuestions}}
	advance(t, e, s, Retry{})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.Empty(t, s.LastError)
}

func TestLowResolutionDetectedLocally(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: bottleList},
		},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s9")
	s.Usage.Record(session.UsageText, 500, 100)

	advance(t, e, s, UploadImage{Data: pngBytes(t, 200, 200), MIME: "image/png"})
	require.Equal(t, session.StepOfferEnhancement, s.Step)
	require.Equal(t, []string{"low_resolution"}, s.QualityIssues)
	// The dimension check alone decided; no quality model call was spent.
	require.Len(t, fake.AnalyzeCalls, 1)

	// Declining the offer abandons the run but keeps the ledger.
	advance(t, e, s, EnhancementChoice{Accept: false})
	require.Equal(t, session.StepInitial, s.Step)
	require.Empty(t, s.SelectedProduct)
	require.Empty(t, s.QualityIssues)
	require.GreaterOrEqual(t, s.Usage.Snapshot().TextInputTokens, int64(500))
}

func TestUnfixableFlawFailsQuality(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: bottleList},
			{JSON: `{"human_present":false,"watermark_present":false,"background_cluttered":false,"is_blurry":false,"is_screenshot":false,"product_damaged":true}`},
		},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s9b")

	advance(t, e, s, UploadImage{Data: pngBytes(t, 500, 500), MIME: "image/png"})
	require.Equal(t, session.StepQualityFail, s.Step)
	require.Equal(t, []string{"product_damaged"}, s.QualityIssues)
	require.Contains(t, s.LastError, "product_damaged")
}

func TestRetryBudgetExhausted(t *testing.T) {
	kw := &fakeKeywords{errs: []error{
		keyword.ErrUnavailable, keyword.ErrUnavailable,
		keyword.ErrUnavailable, keyword.ErrUnavailable,
	}}
	e := newTestEngine(&llm.FakeClient{}, kw, &fakeSpecs{})
	s := session.New("s10")
	s.Step = session.StepGetAPIKeywords
	s.SelectedProduct = "Water Bottle"
	s.ImageBytes = pngBytes(t, 500, 500)

	require.NoError(t, e.Advance(context.Background(), s, Retry{}))
	require.NoError(t, e.Advance(context.Background(), s, Retry{}))
	require.NoError(t, e.Advance(context.Background(), s, Retry{}))
	err := e.Advance(context.Background(), s, Retry{})
	require.ErrorIs(t, err, ErrRetryBudget)
	require.Equal(t, session.StepGetAPIKeywords, s.Step)
	require.Equal(t, 3, kw.calls)
}

func TestGeneratedKeywordNeedsConfirmation(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: `{"selected_keyword_name":"Insulated Sports Bottle"}`},
			{JSON: noQuestions},
		},
	}
	sp := &fakeSpecs{}
	e := newTestEngine(fake, &fakeKeywords{errs: []error{keyword.ErrNoSuggestions}}, sp)
	s := session.New("s11")
	s.Step = session.StepConfirmSourceImage
	s.SelectedProduct = "Water Bottle"
	s.ImageBytes = pngBytes(t, 500, 500)

	// With no API suggestions the model invents a keyword, which parks
	// the session until the user confirms it.
	advance(t, e, s, ProceedWithImage{})
	require.Equal(t, session.StepSelectBestKeyword, s.Step)
	require.Equal(t, "Insulated Sports Bottle", s.AIKeywordChoice)
	require.Nil(t, s.SelectedKeyword)

	advance(t, e, s, ConfirmGeneratedKeyword{Accept: true})
	require.Equal(t, session.StepAskCustomizationYesNo, s.Step)
	require.NotNil(t, s.SelectedKeyword)
	require.Equal(t, session.AIGeneratedCategoryID, s.SelectedKeyword.CategoryID)
	require.Equal(t, "AI Generated Category", s.SelectedKeyword.CategoryName)
	// The sentinel category never reaches a real template lookup result.
	require.Equal(t, []string{session.AIGeneratedCategoryID}, sp.lastsCat)
}

func TestCatalogImagesDegradeToSource(t *testing.T) {
	source := pngBytes(t, 500, 500)
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{{JSON: bottleJSON}},
		Imagery: []llm.FakeImages{
			{Images: []llm.GeneratedImage{{MIMEType: "image/png", Data: []byte("only-one")}}},
		},
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s12")
	s.Step = session.StepAskCustomizationYesNo
	s.SelectedProduct = "Water Bottle"
	s.ImageBytes = source
	s.ImageMIME = "image/png"

	advance(t, e, s, CustomizationChoice{Customizable: false})
	require.Equal(t, session.StepDisplayResults, s.Step)
	require.Len(t, s.FinalImages, 1)
	require.Equal(t, source, s.FinalImages[0])
}

func TestUpdateListingReplacesResult(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s13")
	s.Step = session.StepDisplayResults
	s.FinalListing = &session.FinalListing{ProductName: "Old Name"}

	advance(t, e, s, UpdateListing{Listing: session.FinalListing{
		ProductName: "New Name",
		Description: "Edited.",
	}})
	require.Equal(t, session.StepDisplayResults, s.Step)
	require.Equal(t, "New Name", s.FinalListing.ProductName)

	err := e.Advance(context.Background(), s, UpdateListing{})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, "New Name", s.FinalListing.ProductName)
}

func TestUnexpectedEventLeavesSessionUntouched(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s14")

	err := e.Advance(context.Background(), s, CustomizationChoice{Customizable: true})
	require.ErrorIs(t, err, ErrUnexpectedEvent)
	require.Equal(t, session.StepInitial, s.Step)
	require.Empty(t, s.LastError)
}

func TestResetPreservesUsageLedger(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s15")
	s.Step = session.StepDisplayResults
	s.SelectedProduct = "Water Bottle"
	s.Usage.Record(session.UsageText, 1000, 200)
	s.Usage.RecordImagesGenerated(2)

	advance(t, e, s, Reset{})
	require.Equal(t, session.StepInitial, s.Step)
	require.Empty(t, s.SelectedProduct)

	snap := s.Usage.Snapshot()
	require.Equal(t, int64(1000), snap.TextInputTokens)
	require.Equal(t, int64(2), snap.ImagesGenerated)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	e := newTestEngine(&llm.FakeClient{}, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s16")

	err := e.Advance(context.Background(), s, UploadImage{Data: []byte("x"), MIME: "image/gif"})
	require.ErrorIs(t, err, ErrBadInput)
	require.Equal(t, session.StepInitial, s.Step)
}

func TestSelectionStartsExtraction(t *testing.T) {
	fake := &llm.FakeClient{
		Results: []llm.FakeResult{
			{JSON: `[{"product_name":"Water Bottle","is_branded":false},{"product_name":"Lunch Box","is_branded":false}]`},
			{JSON: cleanQuality},
		},
		// No imagery queued: the extraction call fails.
	}
	e := newTestEngine(fake, &fakeKeywords{}, &fakeSpecs{})
	s := session.New("s17")

	advance(t, e, s, UploadImage{Data: pngBytes(t, 500, 500), MIME: "image/png"})
	require.Equal(t, session.StepConfirmProduct, s.Step)

	// Picking one of several products triggers extraction, which fails
	// and parks for the user's decision.
	advance(t, e, s, SelectProduct{Index: 1})
	require.Equal(t, session.StepExtractSelectedProduct, s.Step)
	require.Equal(t, "Lunch Box", s.SelectedProduct)
	require.Contains(t, s.LastError, "Lunch Box")

	advance(t, e, s, ProceedWithOriginal{})
	require.Equal(t, session.StepConfirmSourceImage, s.Step)
	require.Empty(t, s.LastError)
}

func TestTransitionTableIsClosed(t *testing.T) {
	for from, tos := range Successors {
		if !session.Valid(from) {
			t.Fatalf("unknown source step %q", from)
		}
		for _, to := range tos {
			if !session.Valid(to) {
				t.Fatalf("unknown target step %q from %q", to, from)
			}
		}
	}
	// Every step except the entry point must be reachable.
	reachable := map[session.Step]bool{session.StepInitial: true}
	for _, tos := range Successors {
		for _, to := range tos {
			reachable[to] = true
		}
	}
	for _, st := range session.All {
		if !reachable[st] {
			t.Fatalf("step %q unreachable", st)
		}
	}
}

func TestParseEventRoundTrip(t *testing.T) {
	ev, err := ParseEvent("submit_sku_answers", []byte(`{"answers":[{"choice":"Other","other_value":"GWS 750"}]}`))
	require.NoError(t, err)
	sub, ok := ev.(SubmitSKUAnswers)
	require.True(t, ok)
	require.Equal(t, "GWS 750", sub.Answers[0].OtherValue)

	_, err = ParseEvent("no_such_event", nil)
	require.ErrorIs(t, err, ErrBadInput)
	if !strings.Contains(err.Error(), "no_such_event") {
		t.Fatalf("error should name the unknown kind: %v", err)
	}
}
