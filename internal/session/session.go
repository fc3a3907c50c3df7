package session

// Context is the mutable aggregate threaded through every workflow step.
// One instance per interactive session; the engine mutates it in place and
// never shares it across sessions.
type Context struct {
	ID   string
	Step Step

	// Working image. Replaced wholesale by extraction, enhancement or
	// rotation; never patched in place.
	ImageBytes []byte
	ImageMIME  string

	// Immutable backup of the first upload, restored at the start of each
	// batch item.
	OriginalImageBytes []byte
	OriginalImageMIME  string

	// Enhancement output awaiting user acceptance.
	EnhancedImageBytes []byte

	IdentifiedProducts []ProductRecord
	SelectedProduct    string
	IsBrandedFlow      bool
	BrandName          string

	QualityIssues []string

	APIKeywords []KeywordRecord
	// Pending AI-generated keyword awaiting explicit user confirmation.
	AIKeywordChoice string
	SelectedKeyword *KeywordRecord

	DBSpecOptions     []string
	AIFilledSpecs     []SpecPair
	CriticalQuestions []string
	SKUQuestions      []SKUQuestion
	UserModelNumber   string

	// CriticalAttribute is the consolidated "attribute: value, ..." string
	// that AI-filled specs, user answers, and web-validated specs all
	// converge into before final listing generation.
	CriticalAttribute    string
	CustomizationDetails string

	// Batch-mode bookkeeping.
	CreateAllFlow     bool
	ProductsToProcess []ProductRecord
	ProcessingIndex   int
	AllFinalListings  []ListingResult

	FinalListing *FinalListing
	FinalImages  [][]byte

	// LastError carries the user-facing message for retry/failure
	// affordances on the current step.
	LastError string

	// Manual retry budget spent per step.
	Retries map[Step]int

	Usage *UsageStats
}

// New returns a fresh session context at the initial step.
func New(id string) *Context {
	return &Context{
		ID:      id,
		Step:    StepInitial,
		Retries: make(map[Step]int),
		Usage:   NewUsageStats(),
	}
}

// Reset clears every field except the usage ledger and the session id, and
// returns the step to initial. Callable from any step.
func (s *Context) Reset() {
	usage := s.Usage
	id := s.ID
	*s = Context{
		ID:      id,
		Step:    StepInitial,
		Retries: make(map[Step]int),
		Usage:   usage,
	}
	if s.Usage == nil {
		s.Usage = NewUsageStats()
	}
}

// BeginExtraction prepares the context for isolating one product. In batch
// mode the working image is restored from the pristine original first, so
// every batch item starts from the same multi-product source photo.
func (s *Context) BeginExtraction(rec ProductRecord) {
	if s.CreateAllFlow {
		s.ImageBytes = s.OriginalImageBytes
		s.ImageMIME = s.OriginalImageMIME
	}
	s.SelectedProduct = rec.ProductName
	s.IsBrandedFlow = rec.IsBranded
	s.BrandName = rec.BrandName
}

// CurrentBatchItem returns the product under processing in batch mode.
func (s *Context) CurrentBatchItem() (ProductRecord, bool) {
	if !s.CreateAllFlow || s.ProcessingIndex >= len(s.ProductsToProcess) {
		return ProductRecord{}, false
	}
	return s.ProductsToProcess[s.ProcessingIndex], true
}

// BatchRemaining reports whether more batch items follow the current one.
func (s *Context) BatchRemaining() bool {
	return s.CreateAllFlow && s.ProcessingIndex+1 < len(s.ProductsToProcess)
}

// RetryCount returns the manual retries already spent on step.
func (s *Context) RetryCount(step Step) int {
	if s.Retries == nil {
		return 0
	}
	return s.Retries[step]
}

// AddRetry records one spent manual retry on step.
func (s *Context) AddRetry(step Step) {
	if s.Retries == nil {
		s.Retries = make(map[Step]int)
	}
	s.Retries[step]++
}
