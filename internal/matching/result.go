package matching

import "strings"

// ParseMode records which decoding path produced a MatchResult.
type ParseMode string

const (
	ParseStrict   ParseMode = "strict"
	ParseLenient  ParseMode = "lenient"
	ParseFallback ParseMode = "fallback"
)

// FallbackSuggestion is the single suggestion carried by a fallback result.
const FallbackSuggestion = "The analysis could not be parsed from the model output. Please try running the match again."

// MatchResult is the structured outcome of comparing a resume against a job
// description. It is always fully populated: the parser degrades to a
// fallback result instead of returning partial data.
type MatchResult struct {
	OverallScore  float64   `json:"overall_score"`
	MatchedSkills []string  `json:"matched_skills"`
	MissingSkills []string  `json:"missing_skills"`
	Suggestions   []string  `json:"suggestions"`
	Mode          ParseMode `json:"mode"`
}

// newResult normalizes raw extracted fields into a well-formed MatchResult:
// the score is clamped into [0, 100], skills are deduplicated
// case-insensitively, and any skill listed as both matched and missing is
// kept only on the matched side.
func newResult(score float64, matched, missing, suggestions []string, mode ParseMode) MatchResult {
	matched = dedupeSkills(matched, nil)
	missing = dedupeSkills(missing, matched)

	return MatchResult{
		OverallScore:  clampScore(score),
		MatchedSkills: matched,
		MissingSkills: missing,
		Suggestions:   cleanLines(suggestions),
		Mode:          mode,
	}
}

func fallbackResult() MatchResult {
	return MatchResult{
		OverallScore:  0,
		MatchedSkills: []string{},
		MissingSkills: []string{},
		Suggestions:   []string{FallbackSuggestion},
		Mode:          ParseFallback,
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// dedupeSkills trims list markers and whitespace, drops empties and
// case-insensitive duplicates, and excludes anything already present in
// exclude. The first spelling of each skill wins.
func dedupeSkills(skills, exclude []string) []string {
	seen := make(map[string]struct{}, len(exclude))
	for _, s := range exclude {
		seen[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = trimListMarkers(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = trimListMarkers(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func trimListMarkers(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-•*\t"))
}
