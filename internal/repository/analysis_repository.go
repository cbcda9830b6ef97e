package repository

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/Kalyan1210/Resume-Analyzer/internal/model"
)

type AnalysisRepository interface {
	Create(analysis *model.Analysis) error
	FindByID(id string) (*model.Analysis, error)
	List(page, pageSize int) ([]model.Analysis, int64, error)
	SearchSimilar(embedding pgvector.Vector, excludeID string, topK int) ([]model.Analysis, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db}
}

func (r *analysisRepository) Create(analysis *model.Analysis) error {
	return r.db.Create(analysis).Error
}

func (r *analysisRepository) FindByID(id string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.First(&analysis, "id = ?", id).Error
	return &analysis, err
}

func (r *analysisRepository) List(page, pageSize int) ([]model.Analysis, int64, error) {
	var total int64
	if err := r.db.Model(&model.Analysis{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Analysis
	err := r.db.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// SearchSimilar orders past analyses by pgvector distance between job
// description embeddings. Rows without an embedding are skipped.
func (r *analysisRepository) SearchSimilar(embedding pgvector.Vector, excludeID string, topK int) ([]model.Analysis, error) {
	var items []model.Analysis

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM analyses
        WHERE embedding IS NOT NULL AND id != ?
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, excludeID, embedding, topK).Scan(&items).Error

	return items, err
}
