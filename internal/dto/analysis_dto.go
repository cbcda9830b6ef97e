package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Kalyan1210/Resume-Analyzer/internal/model"
)

// AnalysisDTO is the wire shape of a match result. StrongIn / ImproveOrAdd
// carry the top three matched and missing skills for the summary line the
// UI renders under the gauge.
type AnalysisDTO struct {
	ID            uuid.UUID `json:"id"`
	OverallScore  float64   `json:"overall_score"`
	MatchedSkills []string  `json:"matched_skills"`
	MissingSkills []string  `json:"missing_skills"`
	Suggestions   []string  `json:"suggestions"`
	ParseMode     string    `json:"parse_mode"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	StrongIn      []string  `json:"strong_in"`
	ImproveOrAdd  []string  `json:"improve_or_add"`
	CreatedAt     time.Time `json:"created_at"`
}

func FromAnalysis(a *model.Analysis) AnalysisDTO {
	matched := decodeList(a.MatchedSkills)
	missing := decodeList(a.MissingSkills)

	return AnalysisDTO{
		ID:            a.ID,
		OverallScore:  a.OverallScore,
		MatchedSkills: matched,
		MissingSkills: missing,
		Suggestions:   decodeList(a.Suggestions),
		ParseMode:     a.ParseMode,
		Provider:      a.Provider,
		Model:         a.Model,
		StrongIn:      topN(matched, 3),
		ImproveOrAdd:  topN(missing, 3),
		CreatedAt:     a.CreatedAt,
	}
}

func FromAnalyses(items []model.Analysis) []AnalysisDTO {
	out := make([]AnalysisDTO, 0, len(items))
	for i := range items {
		out = append(out, FromAnalysis(&items[i]))
	}
	return out
}

func decodeList(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func topN(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return list
}
