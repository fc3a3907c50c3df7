package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/prompts"
	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// catalogImageCount is the number of generated catalog images a listing
// ships with. Anything else from the model degrades to the confirmed
// source image alone.
const catalogImageCount = 2

// stepGenerateListing assembles the final listing from the consolidated
// data and generates the catalog images. The listing call is retryable;
// image generation is best effort.
func (e *Engine) stepGenerateListing(ctx context.Context, s *session.Context) (session.Step, error) {
	raw, usage, err := e.Vision.AnalyzeJSON(ctx, prompts.FinalListing(s), workingImage(s))
	s.Usage.Record(session.UsageText, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		return session.StepGenerateListing, fmt.Errorf("listing generation failed: %v", err)
	}
	var listing session.FinalListing
	if err := jsonutil.UnmarshalModel(raw, &listing); err != nil {
		return session.StepGenerateListing, fmt.Errorf("could not read the generated listing")
	}
	if strings.TrimSpace(listing.ProductName) == "" {
		return session.StepGenerateListing, fmt.Errorf("generated listing was incomplete")
	}

	images := [][]byte{s.ImageBytes}
	imgs, iu, ierr := e.Vision.GenerateImages(ctx,
		prompts.AdvancedImages(listing.ProductName, listing.Specifications), workingImage(s))
	s.Usage.Record(session.UsageImage, iu.InputTokens, iu.OutputTokens)
	if ierr != nil || len(imgs) != catalogImageCount {
		log.Printf("workflow: catalog images degraded for %q (got %d, err=%v), shipping source image only",
			listing.ProductName, len(imgs), ierr)
	} else {
		s.Usage.RecordImagesGenerated(len(imgs))
		for _, img := range imgs {
			images = append(images, img.Data)
		}
	}

	s.FinalListing = &listing
	s.FinalImages = images
	if s.CreateAllFlow {
		s.AllFinalListings = append(s.AllFinalListings, session.ListingResult{
			Listing:  listing,
			Images:   images,
			MIMEType: s.ImageMIME,
		})
		if s.BatchRemaining() {
			return session.StepConfirmSingleProduct, nil
		}
		return session.StepDisplayAllResults, nil
	}
	return session.StepDisplayResults, nil
}
