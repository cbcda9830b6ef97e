package matching

import (
	"fmt"
	"strings"

	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
)

// SystemPrompt is sent as the system message on every model call.
const SystemPrompt = "You evaluate resume-to-job-description matches clearly and concisely."

const promptTemplate = `You are an expert in resume matching and screening.

Compare the following resume and job description. Identify the skills the
resume already covers, the skills the job description asks for that the
resume is missing, and concrete suggestions to improve the resume. Assign an
overall match score from 0 to 100.

Return your result as a single JSON object in this exact format:

{
  "match_score": <number 0-100>,
  "matched_skills": [string],
  "missing_skills": [string],
  "suggestions": [string]
}

Base all reasoning only on the provided text. Do not assume experience not
explicitly mentioned. Return only valid JSON. Do not include explanations,
markdown, or text before or after the JSON.

Resume:
%s

Job Description:
%s`

// BuildPrompt assembles the model prompt for a resume / job description
// pair. It is deterministic: identical inputs always produce an identical
// prompt. Empty inputs are rejected before any network call happens.
func BuildPrompt(resume, jobDescription string) (string, error) {
	resume = strings.TrimSpace(resume)
	jobDescription = strings.TrimSpace(jobDescription)

	if resume == "" {
		return "", errs.New(errs.KindInvalidInput, "resume text is empty")
	}
	if jobDescription == "" {
		return "", errs.New(errs.KindInvalidInput, "job description is empty")
	}

	return fmt.Sprintf(promptTemplate, resume, jobDescription), nil
}
