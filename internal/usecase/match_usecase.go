package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
	"github.com/Kalyan1210/Resume-Analyzer/internal/matching"
	"github.com/Kalyan1210/Resume-Analyzer/internal/model"
	"github.com/Kalyan1210/Resume-Analyzer/internal/repository"
	"github.com/Kalyan1210/Resume-Analyzer/internal/service"
)

const (
	similarTopK  = 5
	embedTimeout = 15 * time.Second
)

// Embedder produces an embedding vector for a piece of text. Optional: when
// nil, analyses are stored without embeddings and similarity lookup returns
// nothing for them.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MatchUsecase runs the full pipeline: extract resume text, build the
// prompt, query the model, parse the response, persist the analysis.
type MatchUsecase struct {
	repo      repository.AnalysisRepository
	client    service.ModelClient
	extractor service.TextExtractor
	embedder  Embedder
	provider  string
	logger    *zap.Logger
}

func NewMatchUsecase(
	repo repository.AnalysisRepository,
	client service.ModelClient,
	extractor service.TextExtractor,
	embedder Embedder,
	provider string,
	logger *zap.Logger,
) *MatchUsecase {
	return &MatchUsecase{
		repo:      repo,
		client:    client,
		extractor: extractor,
		embedder:  embedder,
		provider:  provider,
		logger:    logger.With(zap.String("component", "match")),
	}
}

// Match analyzes an uploaded resume against a job description. The flow is
// strictly linear per request and shares no state with other requests. The
// returned analysis always carries a fully populated result: unusable model
// output degrades to a fallback result instead of an error.
func (uc *MatchUsecase) Match(ctx context.Context, resumeFile []byte, filename, jobDescription string) (*model.Analysis, error) {
	resumeText, err := uc.extractor.ExtractText(resumeFile, filename)
	if err != nil {
		return nil, err
	}

	prompt, err := matching.BuildPrompt(resumeText, jobDescription)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := uc.client.Query(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := matching.Parse(raw)

	uc.logger.Info("analysis completed",
		zap.Float64("score", result.OverallScore),
		zap.Int("matched_skills", len(result.MatchedSkills)),
		zap.Int("missing_skills", len(result.MissingSkills)),
		zap.String("parse_mode", string(result.Mode)),
		zap.Duration("duration", time.Since(start)),
	)

	analysis := &model.Analysis{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		Provider:       uc.provider,
		Model:          uc.client.Model(),
		OverallScore:   result.OverallScore,
		MatchedSkills:  encodeList(result.MatchedSkills),
		MissingSkills:  encodeList(result.MissingSkills),
		Suggestions:    encodeList(result.Suggestions),
		ParseMode:      string(result.Mode),
		Embedding:      uc.embedJobDescription(ctx, jobDescription),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := uc.repo.Create(analysis); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "failed to store analysis", err)
	}

	return analysis, nil
}

func (uc *MatchUsecase) GetAnalysis(id string) (*model.Analysis, error) {
	return uc.repo.FindByID(id)
}

func (uc *MatchUsecase) ListAnalyses(page, pageSize int) ([]model.Analysis, int64, error) {
	return uc.repo.List(page, pageSize)
}

// SimilarAnalyses returns past analyses whose job descriptions embed close
// to the given analysis. Analyses stored without an embedding have no
// neighbours.
func (uc *MatchUsecase) SimilarAnalyses(id string) ([]model.Analysis, error) {
	analysis, err := uc.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if analysis.Embedding == nil {
		return []model.Analysis{}, nil
	}

	return uc.repo.SearchSimilar(*analysis.Embedding, id, similarTopK)
}

// embedJobDescription is best-effort: embedding failures never fail the
// match, they just leave the column NULL.
func (uc *MatchUsecase) embedJobDescription(ctx context.Context, jobDescription string) *pgvector.Vector {
	if uc.embedder == nil {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	values, err := uc.embedder.Embed(embedCtx, jobDescription)
	if err != nil {
		uc.logger.Warn("skipping job description embedding", zap.Error(err))
		return nil
	}

	vec := pgvector.NewVector(values)
	return &vec
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	encoded, _ := json.Marshal(list)
	return string(encoded)
}
