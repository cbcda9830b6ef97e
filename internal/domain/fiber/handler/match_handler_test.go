package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
	"github.com/Kalyan1210/Resume-Analyzer/internal/model"
	"github.com/Kalyan1210/Resume-Analyzer/internal/usecase"
)

type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Query(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) Model() string { return "stub-model" }

type stubExtractor struct{}

func (stubExtractor) ExtractText(data []byte, _ string) (string, error) {
	return string(data), nil
}

type memRepo struct {
	byID map[string]*model.Analysis
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]*model.Analysis)}
}

func (r *memRepo) Create(a *model.Analysis) error {
	a.ID = uuid.New()
	r.byID[a.ID.String()] = a
	return nil
}

func (r *memRepo) FindByID(id string) (*model.Analysis, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *memRepo) List(_, _ int) ([]model.Analysis, int64, error) {
	out := make([]model.Analysis, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) SearchSimilar(_ pgvector.Vector, _ string, _ int) ([]model.Analysis, error) {
	return nil, nil
}

func newTestApp(client *stubClient) (*fiber.App, *memRepo) {
	repo := newMemRepo()
	uc := usecase.NewMatchUsecase(repo, client, stubExtractor{}, nil, "openrouter", zap.NewNop())

	app := fiber.New()
	NewMatchHandler(uc).RegisterRoutes(app)
	return app, repo
}

func matchRequest(t *testing.T, resume, jobDescription string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("resume", "resume.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(resume)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if jobDescription != "" {
		if err := writer.WriteField("job_description", jobDescription); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/match", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return decoded
}

func TestMatchEndpoint(t *testing.T) {
	client := &stubClient{response: `{"match_score": 75, "matched_skills": ["Python", "AWS"], "missing_skills": ["Kubernetes"], "suggestions": ["Add a k8s project"]}`}
	app, _ := newTestApp(client)

	resp, err := app.Test(matchRequest(t, "5 years Python, Docker, AWS", "Python engineer with Kubernetes and AWS"), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	if data["overall_score"].(float64) != 75 {
		t.Fatalf("unexpected score: %v", data["overall_score"])
	}
	if len(data["matched_skills"].([]any)) != 2 {
		t.Fatalf("unexpected matched skills: %v", data["matched_skills"])
	}
	if len(data["strong_in"].([]any)) != 2 {
		t.Fatalf("unexpected strong_in: %v", data["strong_in"])
	}
}

func TestMatchEndpointRequiresJobDescription(t *testing.T) {
	app, _ := newTestApp(&stubClient{response: "unused"})

	resp, err := app.Test(matchRequest(t, "resume text", ""), -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["kind"] != string(errs.KindInvalidInput) {
		t.Fatalf("expected invalid_input kind, got %v", body["kind"])
	}
}

func TestMatchEndpointRequiresResumeFile(t *testing.T) {
	app, _ := newTestApp(&stubClient{response: "unused"})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("job_description", "a job")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/match", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMatchEndpointMapsUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", errs.New(errs.KindUpstreamUnavailable, "down"), http.StatusBadGateway},
		{"timeout", errs.New(errs.KindUpstreamTimeout, "slow"), http.StatusGatewayTimeout},
		{"credential", errs.New(errs.KindCredential, "bad key"), http.StatusInternalServerError},
		{"cancelled", errs.New(errs.KindCancelled, "gone"), statusClientClosedRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newTestApp(&stubClient{err: tc.err})

			resp, err := app.Test(matchRequest(t, "resume", "jd"), -1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	app, _ := newTestApp(&stubClient{})

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetAnalysisRoundTrip(t *testing.T) {
	client := &stubClient{response: `{"match_score": 40, "matched_skills": ["Go"], "missing_skills": [], "suggestions": []}`}
	app, repo := newTestApp(client)

	resp, err := app.Test(matchRequest(t, "resume", "jd"), -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("setup match failed: %v status %d", err, resp.StatusCode)
	}

	var id string
	for stored := range repo.byID {
		id = stored
	}

	req := httptest.NewRequest(http.MethodGet, "/analyses/"+id, nil)
	getResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}

	body := decodeBody(t, getResp)
	data := body["data"].(map[string]any)
	if data["overall_score"].(float64) != 40 {
		t.Fatalf("unexpected score: %v", data["overall_score"])
	}
}

func TestListAnalysesPagination(t *testing.T) {
	app, repo := newTestApp(&stubClient{})
	_ = repo.Create(&model.Analysis{MatchedSkills: "[]", MissingSkills: "[]", Suggestions: "[]"})

	req := httptest.NewRequest(http.MethodGet, "/analyses?page=1&page_size=10", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	pagination := body["pagination"].(map[string]any)
	if pagination["total_items"].(float64) != 1 {
		t.Fatalf("unexpected pagination: %v", pagination)
	}
}
