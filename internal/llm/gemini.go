package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client. The
// text model handles vision analysis (JSON output); the image model
// handles extraction, enhancement, and catalog image synthesis.
type GeminiClient struct {
	cli        *genai.Client
	textModel  string
	imageModel string
	rl         *rpsLimiter
}

// GeminiConfig selects the models and optional request throttling.
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	RPS        float64
	Burst      int
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	textModel := cfg.TextModel
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image-preview"
	}
	return &GeminiClient{
		cli:        cli,
		textModel:  textModel,
		imageModel: imageModel,
		rl:         newRPSLimiter(cfg.RPS, cfg.Burst),
	}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.textModel }

func (g *GeminiClient) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

// AnalyzeJSON sends the prompt plus an optional inline image and requests
// application/json output. The raw model text is returned; callers decode
// it through jsonutil so a markdown fence wrapper is tolerated.
func (g *GeminiClient) AnalyzeJSON(ctx context.Context, prompt string, image *ImageInput) (json.RawMessage, Usage, error) {
	contents := []*genai.Content{{Parts: buildParts(prompt, image)}}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := g.rl.Acquire(ctx); err != nil {
			return nil, Usage{}, err
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.textModel, contents,
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				Temperature:      genai.Ptr[float32](0.3),
			},
		)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrInvalidJSON
		} else {
			return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), usageFrom(resp), nil
		}
		log.Printf("llm: analyze attempt %d failed: %v", attempt+1, lastErr)
		time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
	}
	return nil, Usage{}, lastErr
}

// GenerateImages sends the prompt plus the reference image to the image
// model and collects every inline image part from the response, in order.
func (g *GeminiClient) GenerateImages(ctx context.Context, prompt string, image *ImageInput) ([]GeneratedImage, Usage, error) {
	contents := []*genai.Content{{Parts: buildParts(prompt, image)}}

	if err := g.rl.Acquire(ctx); err != nil {
		return nil, Usage{}, err
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.imageModel, contents,
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			Temperature:        genai.Ptr[float32](0.5),
		},
	)
	if err != nil {
		return nil, Usage{}, err
	}
	usage := usageFrom(resp)

	var out []GeneratedImage
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			out = append(out, GeneratedImage{MIMEType: mime, Data: p.InlineData.Data})
		}
	}
	if len(out) == 0 {
		return nil, usage, ErrNoImages
	}
	return out, usage, nil
}

func buildParts(prompt string, image *ImageInput) []*genai.Part {
	parts := []*genai.Part{{Text: prompt}}
	if image != nil && len(image.Data) > 0 {
		mime := image.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mime, Data: image.Data},
		})
	}
	return parts
}

func usageFrom(resp *genai.GenerateContentResponse) Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
	}
}
