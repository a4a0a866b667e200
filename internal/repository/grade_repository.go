package repository

import (
	"github.com/ashwinyue/code-mentor/internal/model"
	"gorm.io/gorm"
)

// GradeRepository 评分仓库
type GradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository 创建评分仓库
func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// CreateWithFeedback 在同一事务中创建 Grade 和 Feedback
// 两者要么都写入，要么都不写入
func (r *GradeRepository) CreateWithFeedback(grade *model.Grade, feedback *model.Feedback) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(grade).Error; err != nil {
			return err
		}
		feedback.GradeID = grade.GradeID
		feedback.SubmissionID = grade.SubmissionID
		return tx.Create(feedback).Error
	})
}

// GetByID 根据 ID 获取评分
func (r *GradeRepository) GetByID(id int) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.Preload("Feedback").Where("grade_id = ?", id).First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

// GetBySubmission 获取某提交的最新评分
func (r *GradeRepository) GetBySubmission(submissionID int64) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.Preload("Feedback").Where("submission_id = ?", submissionID).
		Order("created_at DESC").First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListBySection 列出某班级的评分
func (r *GradeRepository) ListBySection(sectionID string, limit, offset int) ([]*model.Grade, int64, error) {
	var grades []*model.Grade
	var total int64

	query := r.db.Model(&model.Grade{}).
		Joins("JOIN submissions ON submissions.submission_id = grades.submission_id").
		Where("submissions.section_id = ?", sectionID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Feedback").Limit(limit).Offset(offset).
		Order("grades.created_at DESC").Find(&grades).Error
	return grades, total, err
}

// GetFeedbackByGrade 获取评分对应的反馈
func (r *GradeRepository) GetFeedbackByGrade(gradeID int) (*model.Feedback, error) {
	var fb model.Feedback
	err := r.db.Where("grade_id = ?", gradeID).First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}
