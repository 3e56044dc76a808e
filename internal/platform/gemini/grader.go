package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/redpen-app/redpen-api/internal/config"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/grading"
	"google.golang.org/genai"
)

// Retry defaults applied when the configuration holds invalid values.
const (
	defaultMaxRetries        = 2
	defaultRetryDelaySeconds = 2
)

// GeminiGrader implements grading.Grader and grading.TextRecognizer using
// Google's Gemini API. It is stateless beyond the client handle and safe
// for concurrent use; credentials are injected at construction and never
// held in process-wide state.
type GeminiGrader struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
}

// NewGeminiGrader creates a GeminiGrader with the provided configuration.
// Returns grading.ErrInvalidConfig if required settings are missing.
func NewGeminiGrader(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGrader, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", grading.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", grading.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", grading.ErrInvalidConfig, err)
	}

	return &GeminiGrader{
		logger: logger.With("component", "gemini_grader"),
		config: cfg,
		client: client,
	}, nil
}

// Model returns the identifier of the configured grading model.
func (g *GeminiGrader) Model() string {
	return g.config.ModelName
}

// Grade sends the essay and rubric snapshot to the grading model and
// returns the raw response text. The call is bounded by the configured
// timeout; transient transport failures are retried at most MaxRetries
// times with exponential backoff and jitter. The response is returned
// unparsed: turning it into a GradingResult is the normalizer's job.
func (g *GeminiGrader) Grade(
	ctx context.Context,
	essayText string,
	rubric *domain.Rubric,
	customPrompt string,
) (string, error) {
	if essayText == "" {
		return "", grading.ErrEmptyEssayText
	}

	userPrompt, err := buildUserPrompt(essayText, rubric)
	if err != nil {
		return "", err
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(g.config.Temperature)),
		MaxOutputTokens:   int32(g.config.MaxOutputTokens),
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(customPrompt), genai.RoleUser),
	}

	g.logger.InfoContext(ctx, "grading essay",
		"model", g.config.ModelName,
		"essay_length", len(essayText),
		"has_rubric", rubric != nil,
		"has_custom_prompt", customPrompt != "")

	start := time.Now()
	text, err := g.callWithRetry(ctx, g.config.ModelName, genai.Text(userPrompt), genConfig)
	if err != nil {
		g.logger.ErrorContext(ctx, "grading call failed",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	g.logger.InfoContext(ctx, "grading call succeeded",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"response_length", len(text))
	return text, nil
}

// RecognizeText extracts plain text from the image at the given URL using
// the configured vision model. Same timeout and retry contract as Grade.
func (g *GeminiGrader) RecognizeText(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", grading.ErrEmptyImageURL
	}

	model := g.config.OCRModelName
	if model == "" {
		model = g.config.ModelName
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(imageURL, imageMIMEType(imageURL)),
			genai.NewPartFromText(ocrPrompt),
		}, genai.RoleUser),
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.config.MaxOutputTokens),
	}

	g.logger.InfoContext(ctx, "recognizing text from image", "model", model)

	start := time.Now()
	text, err := g.callWithRetry(ctx, model, contents, genConfig)
	if err != nil {
		g.logger.ErrorContext(ctx, "OCR call failed",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	g.logger.InfoContext(ctx, "OCR call succeeded",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"text_length", len(text))
	return text, nil
}

// Generation settings for prompt optimization. Optimization wants creative
// rewrites, so the temperature is fixed rather than taken from the grading
// configuration.
const (
	optimizeTemperature     = 0.7
	optimizeMaxOutputTokens = 2000
)

// OptimizePrompt asks the model to rewrite a rubric's custom grading prompt
// and returns the raw response text. Same timeout and retry contract as
// Grade; normalizing the response is grading.ParsePromptOptimization's job.
func (g *GeminiGrader) OptimizePrompt(
	ctx context.Context,
	rubricName string,
	dimensions []domain.RubricDimension,
	customPrompt string,
) (string, error) {
	userPrompt, err := buildOptimizePrompt(rubricName, dimensions, customPrompt)
	if err != nil {
		return "", err
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(optimizeTemperature)),
		MaxOutputTokens:   optimizeMaxOutputTokens,
		SystemInstruction: genai.NewContentFromText(optimizeSystemPrompt, genai.RoleUser),
	}

	g.logger.InfoContext(ctx, "optimizing rubric prompt",
		"model", g.config.ModelName,
		"rubric_name", rubricName,
		"dimension_count", len(dimensions))

	start := time.Now()
	text, err := g.callWithRetry(ctx, g.config.ModelName, genai.Text(userPrompt), genConfig)
	if err != nil {
		g.logger.ErrorContext(ctx, "prompt optimization call failed",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	g.logger.InfoContext(ctx, "prompt optimization call succeeded",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"response_length", len(text))
	return text, nil
}

// callWithRetry invokes the model with the configured timeout and retries
// transient failures with exponential backoff and jitter. Permanent errors
// (safety blocks, structurally empty responses) return immediately.
func (g *GeminiGrader) callWithRetry(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries, using default",
			"configured", g.config.MaxRetries, "default", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}

	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = defaultRetryDelaySeconds
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		text, err := g.callOnce(ctx, model, contents, genConfig)
		if err == nil {
			return text, nil
		}

		g.logger.WarnContext(ctx, "model call failed",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"error", err)

		// Permanent errors are never retried.
		if errors.Is(err, grading.ErrContentBlocked) || errors.Is(err, grading.ErrInvalidResponse) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				grading.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", grading.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single bounded model invocation.
func (g *GeminiGrader) callOnce(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	timeout := time.Duration(g.config.TimeoutSeconds) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", grading.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", grading.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", grading.ErrInvalidResponse)
	}

	return resp.Text(), nil
}

// imageMIMEType guesses the MIME type of an image reference from its
// extension, defaulting to JPEG.
func imageMIMEType(url string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(url), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(url), ".webp"):
		return "image/webp"
	case strings.HasSuffix(strings.ToLower(url), ".heic"):
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

// Interface conformance checks
var (
	_ grading.Grader          = (*GeminiGrader)(nil)
	_ grading.TextRecognizer  = (*GeminiGrader)(nil)
	_ grading.PromptOptimizer = (*GeminiGrader)(nil)
)
