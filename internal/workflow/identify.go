package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/imageutil"
	"github.com/ritik9294/catalog-assistant-v3/internal/prompts"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// stepIdentify detects every distinct product in the uploaded photo.
func (e *Engine) stepIdentify(ctx context.Context, s *session.Context) (session.Step, error) {
	raw, usage, err := e.Vision.AnalyzeJSON(ctx, prompts.IdentifyProducts, workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		return session.StepProductNotFoundFail, fmt.Errorf("could not analyze the photo: %v", err)
	}
	var products []session.ProductRecord
	if err := jsonutil.UnmarshalModel(raw, &products); err != nil {
		return session.StepProductNotFoundFail, fmt.Errorf("could not read the product analysis: %v", err)
	}
	if len(products) == 0 {
		return session.StepProductNotFoundFail, errors.New("no clear product is visible in the photo")
	}
	s.IdentifiedProducts = products
	if len(products) == 1 {
		// Sole subject of the photo: nothing to pick, nothing to isolate.
		s.BeginExtraction(products[0])
		return session.StepQualityCheck, nil
	}
	return session.StepConfirmProduct, nil
}

// stepExtract isolates the selected product from a multi-product photo.
// On failure the session parks here and the user decides: continue with
// the unmodified source image, or start over.
func (e *Engine) stepExtract(ctx context.Context, s *session.Context) (session.Step, error) {
	imgs, usage, err := e.Vision.GenerateImages(ctx, prompts.Extraction(s.SelectedProduct), workingImage(s))
	s.Usage.Record(session.UsageImage, usage.InputTokens, usage.OutputTokens)
	if err != nil || len(imgs) == 0 {
		log.Printf("workflow: extraction failed for %q: %v", s.SelectedProduct, err)
		return session.StepExtractSelectedProduct,
			fmt.Errorf("could not isolate %q; continue with the original photo or start over", s.SelectedProduct)
	}
	s.Usage.RecordImagesGenerated(len(imgs))
	s.ImageBytes = imgs[0].Data
	s.ImageMIME = imageutil.DefaultMIME
	if imgs[0].MIMEType != "" {
		s.ImageMIME = imgs[0].MIMEType
	}
	return session.StepQualityCheck, nil
}

// inspectionFlags are the flaws the model is asked about, in reporting
// order. All of them are enhanceable; low_resolution is detected locally
// and is enhanceable too. Any other flaw the model reports is fatal.
var inspectionFlags = []string{
	"human_present",
	"watermark_present",
	"background_cluttered",
	"is_blurry",
	"is_screenshot",
}

func enhanceable(issue string) bool {
	if issue == "low_resolution" {
		return true
	}
	for _, f := range inspectionFlags {
		if f == issue {
			return true
		}
	}
	return false
}

// stepQuality inspects the working image. A low-resolution image goes
// straight to the enhancement offer without spending a model call; for
// everything else the model reports a set of boolean flaw flags.
func (e *Engine) stepQuality(ctx context.Context, s *session.Context) (session.Step, error) {
	w, h, err := imageutil.Dimensions(s.ImageBytes)
	if err != nil {
		return session.StepQualityFail, fmt.Errorf("the image could not be decoded: %v", err)
	}
	if imageutil.LowResolution(w, h) {
		s.QualityIssues = []string{"low_resolution"}
		return session.StepOfferEnhancement, nil
	}

	raw, usage, err := e.Vision.AnalyzeJSON(ctx,
		prompts.QualityCheck(s.SelectedProduct, s.BrandName), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		return session.StepQualityCheck, fmt.Errorf("quality inspection failed: %v", err)
	}
	var flags map[string]bool
	if err := jsonutil.UnmarshalModel(raw, &flags); err != nil {
		return session.StepQualityFail, fmt.Errorf("could not read the quality report: %v", err)
	}
	issues := []string{}
	for _, key := range inspectionFlags {
		if flags[key] {
			issues = append(issues, key)
			delete(flags, key)
		}
	}
	extra := make([]string, 0, len(flags))
	for key, set := range flags {
		if set {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	issues = append(issues, extra...)

	s.QualityIssues = issues
	if len(issues) == 0 {
		return session.StepConfirmSourceImage, nil
	}
	for _, issue := range issues {
		if enhanceable(issue) {
			return session.StepOfferEnhancement, nil
		}
	}
	return session.StepQualityFail,
		fmt.Errorf("the image has issues that cannot be fixed: %s", strings.Join(issues, ", "))
}

// stepEnhance regenerates the image with the detected flaws repaired.
func (e *Engine) stepEnhance(ctx context.Context, s *session.Context) (session.Step, error) {
	imgs, usage, err := e.Vision.GenerateImages(ctx, prompts.Enhancement(s.QualityIssues), workingImage(s))
	s.Usage.Record(session.UsageImage, usage.InputTokens, usage.OutputTokens)
	if err != nil || len(imgs) == 0 {
		return session.StepQualityFail, fmt.Errorf("enhancement failed; upload a different photo")
	}
	s.Usage.RecordImagesGenerated(len(imgs))
	s.EnhancedImageBytes = imgs[0].Data
	return session.StepConfirmEnhancement, nil
}
