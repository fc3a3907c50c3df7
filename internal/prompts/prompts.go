// Package prompts holds the instruction text sent to the vision and
// image models. Wording is configuration, not logic: every builder only
// interpolates workflow state into a fixed template.
package prompts

import (
	"fmt"
	"strings"

	"github.com/ritik9294/catalog-assistant-v3/internal/session"
	"github.com/ritik9294/catalog-assistant-v3/internal/util/jsonutil"
)

// IdentifyProducts asks for every distinct primary product in the photo.
const IdentifyProducts = `Analyze the provided image carefully and identify all distinct, primary products clearly visible. There should not be any duplicates or variations of the same product. If multiple units of the same product are present, treat them as a single product and return one entry.

For each product, determine whether a recognizable brand is clearly visible.

CRITICAL RULES FOR BRAND IDENTIFICATION:
1. High confidence only: identify a brand only when the name or logo belongs to a well-known, publicly recognized commercial brand.
2. No ambiguity: never treat generic text (e.g. "Made in China", "Heavy Duty", "12V") or unclear logos as a brand.
3. Default to non-branded when not highly confident.

Return the result as a JSON array of objects, each with exactly three keys:
1. "product_name": a generic name for the product (e.g. "Car Battery", "Floor Lamp").
2. "is_branded": a boolean, per the rules above.
3. "brand_name": the identified brand name, or null if non-branded.

If only one product is clearly the main subject, return a single-item array.
If no clear product is visible, return an empty array.
Provide only the JSON response.`

// QualityCheck asks the model to flag the five inspectable defects.
func QualityCheck(productName, brandName string) string {
	brand := "N/A"
	if brandName != "" {
		brand = brandName
	}
	return fmt.Sprintf(`You are an image quality inspector. Analyze the provided image against these criteria and respond with a JSON object.

Product name: %s
Product brand: %s

1. human_present: Is a human hand or body part clearly visible? (true/false)
2. watermark_present: Is a logo or watermark visible that is not part of the product or brand named above? (true/false)
3. background_cluttered: Is the background irrelevant or distracting? (true/false)
4. is_blurry: Is the image low quality or blurry? (true/false)
5. is_screenshot: Does the image appear to be a screenshot with UI elements? (true/false)

Analyze the image and provide only the JSON response.`, productName, brand)
}

// Extraction isolates one selected product from a composite photo.
func Extraction(productName string) string {
	return fmt.Sprintf(`You are an expert digital imaging specialist isolating a single product from a composite image for a high-end B2B catalog.

The image contains multiple items; the selected main subject is: "%s".

1. Identify and isolate the "%s" within the provided image.
2. Regenerate a new image containing ONLY the selected product.
3. Place the isolated product on a clean, solid light gray (#f0f0f0) or pure white (#ffffff) background.
4. Preserve the product's appearance, color, lighting, texture, and orientation exactly.
5. Remove all other products, text, logos, and background clutter.
6. The output must be a high-resolution, photorealistic image.

The final output should be only the regenerated image file.`, productName, productName)
}

// flawInstructions maps each quality issue to its repair instruction.
var flawInstructions = map[string]string{
	"human_present":        "A human hand or body part is visible. Remove it completely and intelligently reconstruct any obscured areas of both the product and the background so the result is seamless and photorealistic.",
	"is_blurry":            "The image is blurry; regenerate it with sharp focus and clear details.",
	"watermark_present":    "A watermark or logo is present; remove it completely, intelligently filling in the area.",
	"background_cluttered": "The background is cluttered; replace it with a clean, solid light gray (#f0f0f0) background.",
	"low_resolution":       "The image resolution is low; regenerate it as a high-resolution image with sharp, clear details.",
	"is_screenshot":        "The image appears to be a screenshot; regenerate it as a photorealistic image of the actual product.",
}

// Enhancement builds the repair prompt for the detected quality issues.
func Enhancement(issues []string) string {
	var instructions []string
	for _, issue := range issues {
		if ins, ok := flawInstructions[issue]; ok {
			instructions = append(instructions, ins)
		}
	}
	return fmt.Sprintf(`You are a professional product photographer and digital retoucher for a high-end B2B e-commerce platform.

Regenerate the provided product image to meet strict catalog standards. The original image has the following quality issues: %s

Critical rules:
1. Fix the specified flaws precisely.
2. Maintain product integrity: do NOT change the product's design, color, shape, texture, or orientation.
3. Maintain content integrity: the output must include the exact content of the image except any watermark or human hand.
4. Ensure the final image is free of any watermarks, logos, or branding elements.
5. Use a clean, solid light gray (#f0f0f0) or pure white (#ffffff) background with no stray shadows or props.
6. The result must be a high-resolution, photorealistic image, not a drawing or illustration.

The final output should be only the regenerated image file.`, strings.Join(instructions, " "))
}

// KeywordSelection asks the model to pick the best candidate name, or to
// invent a better one only when nothing in the list fits.
func KeywordSelection(names []string) string {
	return fmt.Sprintf(`You are a B2B SEO and product categorization expert. Select the most relevant product keyword for the item shown in the image.

CONTEXT:
- You are given an image of a product.
- Suggested keyword names from an API: %s

TASK:
1. Examine the product in the image.
2. Review the suggested names.
3. Choose the SINGLE most accurate, commercially relevant keyword name from the list. Repeat the chosen name verbatim.
4. Fallback: only if NONE of the suggestions fit, generate a new, more accurate B2B-specific keyword yourself.

OUTPUT (JSON only): {"selected_keyword_name": "..."}
Provide only the final JSON response.`, fmt.Sprintf("%q", names))
}

// ComprehensiveAnalysis selects the purchase-critical attributes,
// partitions them by image visibility, and returns fills plus questions.
func ComprehensiveAnalysis(productName string, dbSpecs []string) string {
	return fmt.Sprintf(`You are an expert B2B product cataloger. Analyze a product image, select the most critical specifications from a candidate list, and fill them out.

CONTEXT:
- The image shows a '%s'.
- Candidate specification attributes from our database: %s
- If the candidate list is empty, propose a sensible from-scratch template for this product type instead.

TASK:
Part 1 - Prioritize: from the candidate list select the 6 to 7 attributes most critical to a B2B purchasing decision for a '%s'. Skip minor or redundant attributes. Exclude brand, model number, and price, which are resolved separately.
Part 2 - Partition: for each selected attribute, examine the image. Attributes whose value you can determine with high confidence are "visible"; the rest are "missing".
Part 3 - Output JSON with two keys:
- "filled_specs": list of {"attribute": ..., "value": ...} for the visible specs.
- "questions_to_ask": list of concise question strings for the missing specs, phrased like "What is the Capacity (in Liters) of the bottle?".

Provide only the final JSON response.`, productName, fmt.Sprintf("%q", dbSpecs), productName)
}

// SKUQuestionGeneration produces multiple-choice questions that pin down
// the exact branded SKU.
func SKUQuestionGeneration(brandName, productName, researchSummary string) string {
	return fmt.Sprintf(`You are an expert product specialist for the brand "%s". Identify the exact product SKU shown in the provided image.

CONTEXT:
- Product type: %s
- Raw web search results: %s
- A user-provided image of the product.

1. Infer all specifications you can determine visually from the image.
2. Compare the visual features with the web search results.
3. For each spec that remains ambiguous, formulate a question with 4 plausible multiple-choice options realistic for %s products. One question may ask for the model number if it is a key differentiator.

Return a JSON object with a single key "questions": a list of objects with keys "spec_name" (short attribute name), "description" (the full question), and "options" (a list of 4 strings). If no questions are needed, return {"questions": []}.

Provide only the JSON response.`, brandName, productName, researchSummary, brandName)
}

// ModelValidation checks a user-supplied model number against research.
func ModelValidation(brandName, productName, modelNumber, researchSummary string) string {
	return fmt.Sprintf(`You are an expert product data analyst. Validate a specific product model against web research and extract its specifications.

Inputs:
- Brand: "%s"
- Product type: "%s"
- User-provided model number: "%s"
- Raw web search results: %s

Task:
1. Validate critically: if the results concern a different brand, a different product type, or are ambiguous, consider the model "not found". Do not guess.
2. If found, extract 3-8 key specifications from the reliable source. If not found, return no specifications.

Return a JSON object with exactly two keys:
1. "model_found": boolean.
2. "specifications": list of {"attribute": ..., "value": ...} objects, empty when not found.

Provide only the final JSON response.`, brandName, productName, modelNumber, researchSummary)
}

// FinalListing assembles the terminal listing generation prompt.
func FinalListing(s *session.Context) string {
	customization := ""
	if s.CustomizationDetails != "" {
		customization = fmt.Sprintf(`
IMPORTANT CUSTOMIZATION NOTE: the seller provides customization for this product. You MUST incorporate the following details:
- In "specifications", add an attribute exactly like {"attribute": "Customisable / Value Addition", "value": %q} after correcting any spelling or grammar mistakes.
- At the very end of "description", append exactly: "This product can also be customized or upgraded: %s." (again with spelling corrected).`,
			s.CustomizationDetails, s.CustomizationDetails)
	}
	brand := ""
	if s.IsBrandedFlow && s.BrandName != "" {
		brand = "- Brand: " + s.BrandName
	}
	keywordJSON := "null"
	if s.SelectedKeyword != nil {
		if b, err := jsonutil.MarshalNoEscape(s.SelectedKeyword); err == nil {
			keywordJSON = string(b)
		}
	}
	return fmt.Sprintf(`You are an expert B2B product cataloger. Assemble a final product listing from the structured data provided and generate a market-appropriate price table.

- Confirmed product: %s %s
- Consolidated specification: %s%s

Generate a single JSON object with exactly these keys: "product_name", "specifications", "primary_keyword", "description", "pricing".

Strict rules:
1. product_name: a precise B2B-friendly name including 2-3 key specs inferred from the image and the data above (e.g. material, type, size).
2. specifications: use the consolidated specification as the base; correct spelling and grammar; drop not-applicable or irrelevant rows. Format as a list of {"attribute": ..., "value": ...} objects with no repeated attribute names.
3. primary_keyword: %s
4. description: a 100-120 word SEO-friendly description starting with 'A' or 'The'. Do not repeat the product name in the body. Highlight benefits, durability, and applications.
5. pricing: think of 3-5 common B2B units of sale for this product (e.g. "Piece", "Set of 4", "Dozen", "Kg", "Meter"); for each unit estimate a B2B market price range in Indian Rupees. Bulk units should reflect a discount over the single-piece rate. Format as a list of {"unit": ..., "price_range": ...} objects with no repeated units.

Provide only the final JSON object.`, s.SelectedProduct, brand, s.CriticalAttribute, customization, keywordJSON)
}

// AdvancedImages requests the two A+ catalog images for the finished
// listing.
func AdvancedImages(productName string, specs []session.SpecPair) string {
	var lines []string
	for _, sp := range specs {
		lines = append(lines, fmt.Sprintf("- %s: %s", sp.Attribute, sp.Value))
	}
	return fmt.Sprintf(`You are an AI cataloguing assistant for B2B products.

Input:
Product name: %s
Reference product image uploaded by the user (main product image).
Key specification attributes:
%s

Task: generate exactly 2 professional B2B catalog images.

1) Spec highlight image (A+ content style): a high-resolution catalog image of the full product, highlighting the 1-2 most visually significant specifications with zoom-ins or callouts. White or clean background, realistic lighting, product fully visible and centered. No logos, unrelated text, humans, or body parts.

2) Second image: choose the most suitable presentation for this product from: close-up/macro feature, exploded/component view, lifestyle or contextual setting, multi-angle view, or spec-focused infographic. Keep B2B styling, realistic lighting, and clean backgrounds. No humans or body parts.

Both images must be consistent with the reference image, the product name, and the key specifications. Output exactly 2 image files.`, productName, strings.Join(lines, "\n"))
}
