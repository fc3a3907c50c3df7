package session

import "sync"

// Pricing per million tokens, USD. Advisory cost estimation only.
const (
	textInputRate   = 0.3
	textOutputRate  = 2.5
	imageInputRate  = 0.3
	imageOutputRate = 30.0
)

// UsageKind selects which counter pair a Record call targets.
type UsageKind int

const (
	UsageText UsageKind = iota
	UsageImage
)

// UsageStats is the session usage ledger: five monotonic counters
// accumulated by every model call. It survives a workflow Reset and is
// only zeroed on explicit user request.
type UsageStats struct {
	mu sync.Mutex

	textInputTokens   int64
	textOutputTokens  int64
	imageInputTokens  int64
	imageOutputTokens int64
	imagesGenerated   int64
}

// UsageSnapshot is an immutable copy of the ledger for rendering.
type UsageSnapshot struct {
	TextInputTokens   int64   `json:"text_input_tokens"`
	TextOutputTokens  int64   `json:"text_output_tokens"`
	ImageInputTokens  int64   `json:"image_input_tokens"`
	ImageOutputTokens int64   `json:"image_output_tokens"`
	ImagesGenerated   int64   `json:"images_generated"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
}

// NewUsageStats returns a zeroed ledger.
func NewUsageStats() *UsageStats { return &UsageStats{} }

// Record adds one call's reported token usage. Negative values are
// clamped to zero; a missing usage field from a service response is
// recorded as zero, never treated as an error.
func (u *UsageStats) Record(kind UsageKind, inputTokens, outputTokens int64) {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	switch kind {
	case UsageImage:
		u.imageInputTokens += inputTokens
		u.imageOutputTokens += outputTokens
	default:
		u.textInputTokens += inputTokens
		u.textOutputTokens += outputTokens
	}
}

// RecordImagesGenerated adds n successfully decoded output images.
func (u *UsageStats) RecordImagesGenerated(n int) {
	if n <= 0 {
		return
	}
	u.mu.Lock()
	u.imagesGenerated += int64(n)
	u.mu.Unlock()
}

// Zero resets every counter. Exposed to the user as "Reset Cost Tracker";
// a workflow Reset never calls this.
func (u *UsageStats) Zero() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.textInputTokens = 0
	u.textOutputTokens = 0
	u.imageInputTokens = 0
	u.imageOutputTokens = 0
	u.imagesGenerated = 0
}

// Snapshot copies the counters and computes the cost estimate.
func (u *UsageStats) Snapshot() UsageSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	cost := (float64(u.textInputTokens)*textInputRate +
		float64(u.textOutputTokens)*textOutputRate +
		float64(u.imageInputTokens)*imageInputRate +
		float64(u.imageOutputTokens)*imageOutputRate) / 1e6
	return UsageSnapshot{
		TextInputTokens:   u.textInputTokens,
		TextOutputTokens:  u.textOutputTokens,
		ImageInputTokens:  u.imageInputTokens,
		ImageOutputTokens: u.imageOutputTokens,
		ImagesGenerated:   u.imagesGenerated,
		EstimatedCostUSD:  cost,
	}
}
