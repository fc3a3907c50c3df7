package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidJSON is returned when the model produced no usable text
	// candidate for a JSON request.
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
	// ErrNoImages is returned when an image-synthesis call produced no
	// decodable image parts.
	ErrNoImages = errors.New("llm: no images in model response")
)

// Usage is the token usage reported by one model call. Zero values mean
// the provider omitted the field; callers record them as-is.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// ImageInput is a raster image attached to a model request.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// GeneratedImage is one image returned by an image-synthesis call.
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}

// VisionClient is the narrow contract the workflow engine calls. The
// engine never sees transport details; AnalyzeJSON returns the raw model
// text (expected to parse as JSON, possibly fence-wrapped) and
// GenerateImages returns the ordered list of output images.
type VisionClient interface {
	Name() string
	AnalyzeJSON(ctx context.Context, prompt string, image *ImageInput) (json.RawMessage, Usage, error)
	GenerateImages(ctx context.Context, prompt string, image *ImageInput) ([]GeneratedImage, Usage, error)
	Close() error
}
