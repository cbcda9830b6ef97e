package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Kalyan1210/Resume-Analyzer/internal/config"
	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
)

func newTestGeminiService(t *testing.T, baseURL string, maxRetries int, timeout time.Duration) *GeminiService {
	t.Helper()

	cfg := &config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		EmbedModel:     "gemini-embedding-001",
		BaseURL:        baseURL,
		RequestTimeout: timeout,
	}

	svc, err := NewGeminiService(context.Background(), cfg, maxRetries, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func geminiCompletionBody(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func geminiErrorBody(code int, status string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":"upstream says no","status":%q}}`, code, status)
}

func TestGeminiQueryRetriesTransientFailuresThenSucceeds(t *testing.T) {
	stubSleep(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, geminiErrorBody(http.StatusServiceUnavailable, "UNAVAILABLE"))
			return
		}
		fmt.Fprint(w, geminiCompletionBody("third time lucky"))
	}))
	defer srv.Close()

	svc := newTestGeminiService(t, srv.URL, 3, time.Second)

	out, err := svc.Query(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("retry budget should absorb transient failures: %v", err)
	}
	if out != "third time lucky" {
		t.Fatalf("unexpected output: %q", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGeminiQueryCredentialFailureIsNotRetried(t *testing.T) {
	stubSleep(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, geminiErrorBody(http.StatusUnauthorized, "UNAUTHENTICATED"))
	}))
	defer srv.Close()

	svc := newTestGeminiService(t, srv.URL, 5, time.Second)

	_, err := svc.Query(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected credential error")
	}
	if !errs.IsKind(err, errs.KindCredential) {
		t.Fatalf("expected credential kind, got %s", errs.KindOf(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls.Load())
	}
}

func TestGeminiQueryEmptyCompletionIsRetried(t *testing.T) {
	stubSleep(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	svc := newTestGeminiService(t, srv.URL, 1, time.Second)

	_, err := svc.Query(context.Background(), "prompt")
	if err == nil {
		t.Fatal("empty completion must surface an error")
	}
	if !errs.IsKind(err, errs.KindUpstreamUnavailable) {
		t.Fatalf("expected upstream_unavailable, got %s", errs.KindOf(err))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGeminiQueryDeadlineBoundsHungUpstream(t *testing.T) {
	stubSleep(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(10 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	svc := newTestGeminiService(t, srv.URL, 1, 30*time.Millisecond)

	start := time.Now()
	_, err := svc.Query(context.Background(), "prompt")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errs.IsKind(err, errs.KindUpstreamTimeout) {
		t.Fatalf("expected upstream_timeout, got %s", errs.KindOf(err))
	}
	if elapsed > 3*time.Second {
		t.Fatalf("query must not block on a hung upstream, took %v", elapsed)
	}
}

func TestGeminiQueryRejectsEmptyPrompt(t *testing.T) {
	svc := newTestGeminiService(t, "http://unused.test", 0, time.Second)

	_, err := svc.Query(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %s", errs.KindOf(err))
	}
}

func TestGeminiEmbedDeadlineBoundsHungUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(10 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	svc := newTestGeminiService(t, srv.URL, 0, 30*time.Millisecond)

	start := time.Now()
	_, err := svc.Embed(context.Background(), "job description text")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errs.IsKind(err, errs.KindUpstreamTimeout) {
		t.Fatalf("expected upstream_timeout, got %s", errs.KindOf(err))
	}
	if elapsed > 3*time.Second {
		t.Fatalf("embed must not block on a hung upstream, took %v", elapsed)
	}
}

func TestNewGeminiServiceRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiService(context.Background(), &config.GeminiConfig{}, 0, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !errs.IsKind(err, errs.KindCredential) {
		t.Fatalf("expected credential kind, got %s", errs.KindOf(err))
	}
}

func TestClassifyGeminiError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"unauthorized", genai.APIError{Code: 401, Status: "UNAUTHENTICATED"}, errs.KindCredential},
		{"forbidden", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, errs.KindCredential},
		{"rate limited", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, errs.KindUpstreamUnavailable},
		{"server error", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, errs.KindUpstreamUnavailable},
		{"not found", genai.APIError{Code: 404, Status: "NOT_FOUND"}, errs.KindInternal},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 500, Status: "INTERNAL"}), errs.KindUpstreamUnavailable},
		{"cancelled", fmt.Errorf("call: %w", context.Canceled), errs.KindCancelled},
		{"deadline exceeded", fmt.Errorf("call: %w", context.DeadlineExceeded), errs.KindUpstreamTimeout},
		{"plain transport error", errors.New("connection refused"), errs.KindUpstreamUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyGeminiError(tc.err)
			if !errs.IsKind(got, tc.want) {
				t.Fatalf("expected %s, got %s (%v)", tc.want, errs.KindOf(got), got)
			}
		})
	}
}

func TestTruncateForEmbeddingKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", embedTextLimit+5)

	got := truncateForEmbedding(long)

	if utf8.RuneCountInString(got) != embedTextLimit {
		t.Fatalf("expected %d runes, got %d", embedTextLimit, utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation must not split a multi-byte character")
	}

	short := "short text"
	if truncateForEmbedding(short) != short {
		t.Fatal("short input must pass through unchanged")
	}
}
