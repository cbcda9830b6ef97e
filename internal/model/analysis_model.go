package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Analysis is a completed resume / job-description match. Skill lists and
// suggestions are stored as JSON arrays; the job description embedding is
// filled in best-effort and stays NULL when the embedding provider is not
// configured.
type Analysis struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeText     string    `gorm:"type:text" json:"resume_text"`
	JobDescription string    `gorm:"type:text" json:"job_description"`
	Provider       string    `gorm:"type:varchar(50)" json:"provider"`
	Model          string    `gorm:"type:varchar(100)" json:"model"`

	OverallScore  float64 `gorm:"type:float" json:"overall_score"`
	MatchedSkills string  `gorm:"type:jsonb" json:"matched_skills"`
	MissingSkills string  `gorm:"type:jsonb" json:"missing_skills"`
	Suggestions   string  `gorm:"type:jsonb" json:"suggestions"`
	ParseMode     string  `gorm:"type:varchar(20)" json:"parse_mode"`

	Embedding *pgvector.Vector `gorm:"type:vector(3072)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Analysis) TableName() string {
	return "analyses"
}
