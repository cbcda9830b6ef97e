package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Kalyan1210/Resume-Analyzer/internal/config"
	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
	"github.com/Kalyan1210/Resume-Analyzer/internal/matching"
)

const (
	embedTextLimit        = 10000
	defaultRequestTimeout = 90 * time.Second
)

// GeminiService is the alternate model backend. It also produces the job
// description embeddings used for similar-analyses lookup.
type GeminiService struct {
	client     *genai.Client
	cfg        *config.GeminiConfig
	maxRetries int
	logger     *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, maxRetries int, log *zap.Logger) (*GeminiService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.New(errs.KindCredential, "GEMINI_API_KEY is not set")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiService{
		client:     client,
		cfg:        cfg,
		maxRetries: maxRetries,
		logger:     log.With(zap.String("provider", "gemini"), zap.String("model", cfg.Model)),
	}, nil
}

func (s *GeminiService) Model() string {
	return s.cfg.Model
}

// Query generates a completion for the prompt with the same retry semantics
// as the OpenRouter client. Each attempt runs under its own deadline so a
// hung upstream cannot stall the caller.
func (s *GeminiService) Query(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errs.New(errs.KindInvalidInput, "prompt is empty")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(temperature)),
		SystemInstruction: genai.NewContentFromText(matching.SystemPrompt, genai.RoleUser),
	}

	attempts := s.maxRetries + 1
	timeouts := 0
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(0, attempt)
			s.logger.Debug("retrying generate content",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			sleep(delay)
		}

		if err := ctx.Err(); err != nil {
			return "", cancellationError(err)
		}

		text, err := s.generateAttempt(ctx, prompt, genConfig)
		if err == nil {
			return text, nil
		}
		lastErr = err

		switch errs.KindOf(err) {
		case errs.KindUpstreamTimeout:
			timeouts++
		case errs.KindUpstreamUnavailable:
			// retryable, keep going
		default:
			return "", err
		}

		s.logger.Warn("generate content attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	if timeouts == attempts {
		return "", errs.Wrap(errs.KindUpstreamTimeout,
			fmt.Sprintf("all %d attempts timed out", attempts), lastErr)
	}
	return "", errs.Wrap(errs.KindUpstreamUnavailable,
		fmt.Sprintf("giving up after %d attempts", attempts), lastErr)
}

func (s *GeminiService) generateAttempt(ctx context.Context, prompt string, genConfig *genai.GenerateContentConfig) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	resp, err := s.client.Models.GenerateContent(attemptCtx, s.cfg.Model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errs.New(errs.KindUpstreamUnavailable, "gemini returned an empty response")
	}
	return text, nil
}

// Embed returns an embedding vector for the text, truncating overly long
// input. Used best-effort: callers treat failures as a missing embedding.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.New(errs.KindInvalidInput, "text for embedding is empty")
	}
	text = truncateForEmbedding(text)

	attemptCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := s.client.Models.EmbedContent(attemptCtx, s.cfg.EmbedModel, contents, nil)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errs.New(errs.KindUpstreamUnavailable, "gemini returned an empty embedding")
	}

	return resp.Embeddings[0].Values, nil
}

func (s *GeminiService) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return s.cfg.RequestTimeout
}

// truncateForEmbedding caps the embedding input on a rune boundary so a
// multi-byte character is never split.
func truncateForEmbedding(text string) string {
	runes := []rune(text)
	if len(runes) > embedTextLimit {
		return string(runes[:embedTextLimit])
	}
	return text
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return errs.Wrap(errs.KindCredential, "gemini rejected the api key", err)
		case apiErr.Code == 429 || apiErr.Code >= 500:
			return errs.Wrap(errs.KindUpstreamUnavailable,
				fmt.Sprintf("gemini returned status %d", apiErr.Code), err)
		default:
			return errs.Wrap(errs.KindInternal,
				fmt.Sprintf("gemini returned status %d", apiErr.Code), err)
		}
	}

	return classifyTransportError(err)
}
