package repository

import (
	"github.com/ashwinyue/code-mentor/internal/model"
	"gorm.io/gorm"
)

// PlagiarismRepository 抄袭检测仓库
type PlagiarismRepository struct {
	db *gorm.DB
}

// NewPlagiarismRepository 创建抄袭检测仓库
func NewPlagiarismRepository(db *gorm.DB) *PlagiarismRepository {
	return &PlagiarismRepository{db: db}
}

// CreateBatch 批量写入检测记录
func (r *PlagiarismRepository) CreateBatch(detections []*model.PlagiarismDetection) error {
	if len(detections) == 0 {
		return nil
	}
	return r.db.Create(&detections).Error
}

// ListByAssignment 列出某作业的检测记录
func (r *PlagiarismRepository) ListByAssignment(assignmentID int) ([]*model.PlagiarismDetection, error) {
	var detections []*model.PlagiarismDetection
	err := r.db.Where("assignment_id = ?", assignmentID).
		Order("detection_date DESC, similarity_score DESC").Find(&detections).Error
	return detections, err
}
