package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeResult scripts one AnalyzeJSON response.
type FakeResult struct {
	JSON  string
	Usage Usage
	Err   error
}

// FakeImages scripts one GenerateImages response.
type FakeImages struct {
	Images []GeneratedImage
	Usage  Usage
	Err    error
}

// FakeClient replays scripted responses in call order. Used by workflow
// tests to drive the engine without a live model.
type FakeClient struct {
	mu      sync.Mutex
	Results []FakeResult
	Imagery []FakeImages

	AnalyzeCalls  []string
	GenerateCalls []string
}

var _ VisionClient = (*FakeClient)(nil)

func (f *FakeClient) Name() string { return "FakeVision" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) AnalyzeJSON(ctx context.Context, prompt string, image *ImageInput) (json.RawMessage, Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AnalyzeCalls = append(f.AnalyzeCalls, prompt)
	if len(f.Results) == 0 {
		return nil, Usage{}, ErrInvalidJSON
	}
	r := f.Results[0]
	f.Results = f.Results[1:]
	if r.Err != nil {
		return nil, r.Usage, r.Err
	}
	return json.RawMessage(r.JSON), r.Usage, nil
}

func (f *FakeClient) GenerateImages(ctx context.Context, prompt string, image *ImageInput) ([]GeneratedImage, Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls = append(f.GenerateCalls, prompt)
	if len(f.Imagery) == 0 {
		return nil, Usage{}, ErrNoImages
	}
	r := f.Imagery[0]
	f.Imagery = f.Imagery[1:]
	if r.Err != nil {
		return nil, r.Usage, r.Err
	}
	return r.Images, r.Usage, nil
}
