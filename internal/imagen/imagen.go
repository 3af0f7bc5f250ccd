// Package imagen wraps the Gemini image-generation API.
//
// The request configuration is fixed for the lifetime of the process:
// one model, a fixed image count, square aspect ratio, JPEG output.
// Responses and failures are normalized into an Outcome so callers
// never see provider errors; the underlying detail is logged only.
package imagen

import (
	"context"

	"google.golang.org/genai"

	"github.com/imagechat/imagechat/internal/logging"
)

// User-facing messages. These are the only strings shown to the user
// for a failed or empty generation; provider detail stays in the logs.
const (
	// MsgGenerationFailed is shown for any transport or provider failure.
	MsgGenerationFailed = "Sorry, the images could not be loaded. Please try again."

	// MsgNoImages is shown when the provider returns zero usable images.
	MsgNoImages = "No images were generated for this prompt. Try a different prompt."
)

// OutcomeKind discriminates the result of a generation attempt.
type OutcomeKind int

const (
	// OutcomeImages means at least one image was produced.
	OutcomeImages OutcomeKind = iota
	// OutcomeEmpty means the request succeeded but produced no images,
	// for example when every image was withheld by the safety filter.
	OutcomeEmpty
	// OutcomeError means the request failed.
	OutcomeError
)

// Result is a single generated image.
type Result struct {
	// Bytes is the raw JPEG data.
	Bytes []byte

	// MIMEType is the image encoding, normally "image/jpeg".
	MIMEType string

	// AltText is the prompt that produced the image, used as the
	// accessible description wherever the image is displayed.
	AltText string
}

// Outcome is the normalized result of one generation attempt.
type Outcome struct {
	Kind OutcomeKind

	// Images holds the results in provider order. Only set for
	// OutcomeImages.
	Images []Result

	// UserMessage is the text shown in the AI bubble for OutcomeEmpty
	// and OutcomeError. Empty for OutcomeImages.
	UserMessage string
}

// imagesAPI is the slice of the genai client used by the service.
// It exists so tests can substitute a fake provider.
type imagesAPI interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Service performs image-generation requests with a fixed configuration.
// A single attempt is made per call: no retries, no application-level
// timeout beyond the transport default.
type Service struct {
	api    imagesAPI
	model  string
	images int32
	log    *logging.Logger
}

// NewService creates a Service backed by the Gemini API.
// If apiKey is empty no client is created; every Generate call then
// returns the generic error outcome, which matches how the original
// page behaves when the credential is missing.
func NewService(ctx context.Context, apiKey, model string, images int, logger *logging.Logger) (*Service, error) {
	s := &Service{
		model:  model,
		images: int32(images),
		log:    logger,
	}

	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; image requests will fail")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	s.api = client.Models

	return s, nil
}

// Generate requests images for the given prompt and normalizes the
// response. The prompt must already be trimmed and non-empty; the
// caller guards that.
func (s *Service) Generate(ctx context.Context, prompt string) Outcome {
	if s.api == nil {
		s.log.Error("image request rejected: no API key configured")
		return Outcome{Kind: OutcomeError, UserMessage: MsgGenerationFailed}
	}

	cfg := &genai.GenerateImagesConfig{
		NumberOfImages:   s.images,
		AspectRatio:      "1:1",
		PersonGeneration: genai.PersonGenerationAllowAdult,
		OutputMIMEType:   "image/jpeg",
		IncludeRAIReason: true,
	}

	resp, err := s.api.GenerateImages(ctx, s.model, prompt, cfg)
	if err != nil {
		s.log.Error("image request failed: %v", err)
		return Outcome{Kind: OutcomeError, UserMessage: MsgGenerationFailed}
	}
	if resp == nil {
		s.log.Error("image request returned a nil response")
		return Outcome{Kind: OutcomeError, UserMessage: MsgGenerationFailed}
	}

	results := make([]Result, 0, len(resp.GeneratedImages))
	for i, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			// Entries without bytes are dropped without a user-facing
			// partial-failure indicator; the reason is kept for
			// diagnostics.
			reason := ""
			if img != nil {
				reason = img.RAIFilteredReason
			}
			s.log.Debug("dropping image %d without bytes (rai reason: %q)", i, reason)
			continue
		}

		mimeType := img.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}

		results = append(results, Result{
			Bytes:    img.Image.ImageBytes,
			MIMEType: mimeType,
			AltText:  prompt,
		})
	}

	if len(results) == 0 {
		s.log.Info("generation produced no images for prompt (%d entries in response)", len(resp.GeneratedImages))
		return Outcome{Kind: OutcomeEmpty, UserMessage: MsgNoImages}
	}

	s.log.Info("generated %d of %d requested images", len(results), s.images)
	return Outcome{Kind: OutcomeImages, Images: results}
}
