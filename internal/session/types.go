package session

// ProductRecord is one product detected in the uploaded photo.
type ProductRecord struct {
	ProductName string `json:"product_name"`
	IsBranded   bool   `json:"is_branded"`
	BrandName   string `json:"brand_name,omitempty"`
}

// KeywordRecord is one ranked candidate from the keyword-suggestion API.
// CategoryID is the spec-template lookup key; "0" marks an AI-generated
// keyword with no real category behind it.
type KeywordRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CategoryID   string `json:"psv_node_id"`
	CategoryName string `json:"psv_node_name"`
}

// AIGeneratedCategoryID is the sentinel category id meaning "no real
// lookup key"; spec lookups short-circuit on it.
const AIGeneratedCategoryID = "0"

// GeneratedKeyword builds the fallback record used when the model invents
// a keyword instead of picking one from the candidate list.
func GeneratedKeyword(name string) KeywordRecord {
	return KeywordRecord{
		ID:           "0",
		Name:         name,
		CategoryID:   AIGeneratedCategoryID,
		CategoryName: "AI Generated Category",
	}
}

// SpecPair is a single attribute/value specification row.
type SpecPair struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// PricePoint is one unit-of-sale row in the pricing table.
type PricePoint struct {
	Unit       string `json:"unit"`
	PriceRange string `json:"price_range"`
}

// SKUQuestion is a multiple-choice question generated for the branded
// flow. An answer may instead be free text ("other").
type SKUQuestion struct {
	SpecName    string   `json:"spec_name"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

// FinalListing is the terminal artifact of one product's run.
type FinalListing struct {
	ProductName    string       `json:"product_name"`
	Specifications []SpecPair   `json:"specifications"`
	PrimaryKeyword string       `json:"primary_keyword"`
	Description    string       `json:"description"`
	Pricing        []PricePoint `json:"pricing"`
}

// ListingResult bundles a finished listing with its output images. The
// first image is always the confirmed source image; generated catalog
// images follow.
type ListingResult struct {
	Listing  FinalListing `json:"listing"`
	Images   [][]byte     `json:"-"`
	MIMEType string       `json:"mime_type"`
}
