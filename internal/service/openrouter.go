package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Kalyan1210/Resume-Analyzer/internal/config"
	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
	"github.com/Kalyan1210/Resume-Analyzer/internal/logger"
	"github.com/Kalyan1210/Resume-Analyzer/internal/matching"
)

const (
	completionsPath = "/chat/completions"

	// Matches the original tool's generation settings.
	temperature = 0.2
	maxTokens   = 900
)

// OpenRouterService talks to the OpenRouter chat-completions API. Transient
// upstream failures (network errors, 5xx, 429) are retried with exponential
// backoff and jitter; credential problems and other client errors fail
// immediately.
type OpenRouterService struct {
	client *resty.Client
	cfg    *config.OpenRouterConfig
	logger *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, app *config.AppConfig, log *zap.Logger) (*OpenRouterService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.New(errs.KindCredential, "OPENROUTER_API_KEY is not set")
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	// Optional attribution headers for the OpenRouter dashboard.
	if app.BaseURL != "" {
		client.SetHeader("HTTP-Referer", app.BaseURL)
	}
	if app.Title != "" {
		client.SetHeader("X-Title", app.Title)
	}

	return &OpenRouterService{
		client: client,
		cfg:    cfg,
		logger: log.With(zap.String("provider", "openrouter"), zap.String("model", cfg.Model)),
	}, nil
}

func (s *OpenRouterService) Model() string {
	return s.cfg.Model
}

// Query sends the prompt and returns the completion text. It either returns
// a non-empty response or a kind-tagged error; exhausting the retry budget
// surfaces upstream_unavailable, or upstream_timeout when every attempt
// timed out.
func (s *OpenRouterService) Query(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errs.New(errs.KindInvalidInput, "prompt is empty")
	}

	payload := map[string]any{
		"model": s.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": matching.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	attempts := s.cfg.MaxRetries + 1
	timeouts := 0
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(s.cfg.BackoffBase, attempt)
			s.logger.Debug("retrying completion request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", delay),
			)
			sleep(delay)
		}

		if err := ctx.Err(); err != nil {
			return "", cancellationError(err)
		}

		content, err := s.attempt(ctx, payload)
		if err == nil {
			return content, nil
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

		s.logger.Warn("completion attempt failed",
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

func (s *OpenRouterService) attempt(ctx context.Context, payload map[string]any) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(completionsPath)
	if err != nil {
		return "", classifyTransportError(err)
	}

	body := resp.Body()

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		// extract content below
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "", errs.New(errs.KindCredential,
			fmt.Sprintf("openrouter rejected the api key (status %d)", code))
	case code == http.StatusTooManyRequests || code >= 500:
		return "", errs.New(errs.KindUpstreamUnavailable,
			fmt.Sprintf("openrouter returned status %d", code))
	default:
		return "", errs.New(errs.KindInternal,
			fmt.Sprintf("openrouter returned status %d: %s", code, logger.TruncateForLog(string(body), 200)))
	}

	content := gjson.GetBytes(body, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", errs.New(errs.KindUpstreamUnavailable, "completion response has no content")
	}

	s.logger.Debug("completion received",
		zap.Int("response_length", len(content)),
		zap.String("response_preview", logger.TruncateForLog(content, 200)),
	)

	return content, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return cancellationError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.KindUpstreamTimeout, "request deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.KindUpstreamTimeout, "request timed out", err)
	}

	return errs.Wrap(errs.KindUpstreamUnavailable, "request failed", err)
}

func cancellationError(err error) error {
	return errs.Wrap(errs.KindCancelled, "request cancelled by caller", err)
}
