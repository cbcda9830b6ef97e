package matching

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// responseSchema is the shape the prompt asks the model to return.
type responseSchema struct {
	MatchScore    *float64 `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Suggestions   []string `json:"suggestions"`
}

// Parse turns raw model output into a MatchResult. It never fails: strict
// schema decoding is attempted first, then a lenient recovery pass over
// whatever JSON or prose the model produced, and finally a fallback result
// so the caller always gets something renderable.
func Parse(raw string) MatchResult {
	cleaned := stripCodeFences(raw)

	if result, ok := parseStrict(cleaned); ok {
		return result
	}
	if result, ok := parseLenientJSON(cleaned); ok {
		return result
	}
	if result, ok := parseProse(cleaned); ok {
		return result
	}
	return fallbackResult()
}

// parseStrict decodes the exact schema requested by the prompt. The score
// must be present as a number; models that quote it or rename keys fall
// through to the lenient path.
func parseStrict(cleaned string) (MatchResult, bool) {
	var schema responseSchema
	if err := json.Unmarshal([]byte(cleaned), &schema); err != nil {
		return MatchResult{}, false
	}
	if schema.MatchScore == nil {
		return MatchResult{}, false
	}

	return newResult(*schema.MatchScore, schema.MatchedSkills, schema.MissingSkills, schema.Suggestions, ParseStrict), true
}

// parseLenientJSON digs a JSON object out of surrounding prose and accepts
// common key variants and string-typed numbers.
func parseLenientJSON(cleaned string) (MatchResult, bool) {
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return MatchResult{}, false
	}

	obj := gjson.Parse(cleaned[start : end+1])
	if !obj.IsObject() {
		return MatchResult{}, false
	}

	score := firstField(obj, "match_score", "overall_score", "score")
	matched := listField(obj, "matched_skills", "matching_skills", "relevant_skills")
	missing := listField(obj, "missing_skills", "skill_gaps")
	suggestions := listField(obj, "suggestions", "recommendations", "improvements")

	if !score.Exists() && matched == nil && missing == nil && suggestions == nil {
		return MatchResult{}, false
	}

	return newResult(score.Float(), matched, missing, suggestions, ParseLenient), true
}

var (
	scoreRe      = regexp.MustCompile(`(?i)(?:match|overall)\s*score[^0-9]{0,20}([0-9]{1,3}(?:\.[0-9]+)?)`)
	matchedSecRe = regexp.MustCompile(`(?i)matched skills[:\s]*([\s\S]*?)(?:\n\s*\n|$)`)
	missingSecRe = regexp.MustCompile(`(?i)missing skills[:\s]*([\s\S]*?)(?:\n\s*\n|$)`)
	suggestSecRe = regexp.MustCompile(`(?i)suggestions(?: to improve the resume)?[:\s]*([\s\S]*?)(?:\n\s*\n|$)`)
)

// parseProse scans free-text answers for the labelled sections the original
// prompt enumerates, plus a numeric score mentioned anywhere near a "score"
// label. A missing score degrades to 0 on this path.
func parseProse(cleaned string) (MatchResult, bool) {
	var score float64
	scoreFound := false
	if m := scoreRe.FindStringSubmatch(cleaned); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			score = v
			scoreFound = true
		}
	}

	matched := sectionItems(matchedSecRe, cleaned)
	missing := sectionItems(missingSecRe, cleaned)
	suggestions := sectionItems(suggestSecRe, cleaned)

	if !scoreFound && len(matched) == 0 && len(missing) == 0 && len(suggestions) == 0 {
		return MatchResult{}, false
	}

	return newResult(score, matched, missing, suggestions, ParseLenient), true
}

func sectionItems(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []string
	for _, line := range strings.Split(m[1], "\n") {
		if line = trimListMarkers(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

func firstField(obj gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := obj.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func listField(obj gjson.Result, keys ...string) []string {
	for _, key := range keys {
		v := obj.Get(key)
		if !v.IsArray() {
			continue
		}
		var out []string
		for _, item := range v.Array() {
			out = append(out, item.String())
		}
		return out
	}
	return nil
}

// stripCodeFences removes a surrounding markdown code block, which models
// emit even when told not to.
func stripCodeFences(raw string) string {
	clean := strings.TrimSpace(raw)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}
