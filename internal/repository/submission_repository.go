// Package repository 数据访问层
package repository

import (
	"errors"

	"github.com/ashwinyue/code-mentor/internal/model"
	"gorm.io/gorm"
)

// ErrStatusConflict 状态迁移冲突（已有并发评估占用该提交）
var ErrStatusConflict = errors.New("submission status conflict")

// SubmissionRepository 提交仓库
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交仓库
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create 创建提交
func (r *SubmissionRepository) Create(sub *model.Submission) error {
	return r.db.Create(sub).Error
}

// GetByID 根据 ID 获取提交
func (r *SubmissionRepository) GetByID(id int64) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.Where("submission_id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByAssignment 列出某作业下的提交，可按 ID 子集过滤
func (r *SubmissionRepository) ListByAssignment(assignmentID int, submissionIDs []int64) ([]*model.Submission, error) {
	var subs []*model.Submission
	query := r.db.Where("assignment_id = ?", assignmentID)
	if len(submissionIDs) > 0 {
		query = query.Where("submission_id IN ?", submissionIDs)
	}
	err := query.Order("submission_id").Find(&subs).Error
	return subs, err
}

// List 分页列出提交
func (r *SubmissionRepository) List(sectionID string, limit, offset int) ([]*model.Submission, int64, error) {
	var subs []*model.Submission
	var total int64

	query := r.db.Model(&model.Submission{})
	if sectionID != "" {
		query = query.Where("section_id = ?", sectionID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("created_at DESC").Find(&subs).Error
	return subs, total, err
}

// UpdateStatus 更新提交状态
func (r *SubmissionRepository) UpdateStatus(id int64, status model.SubmissionStatus) error {
	return r.db.Model(&model.Submission{}).Where("submission_id = ?", id).
		Update("status", status).Error
}

// ClaimForEvaluation 以 CAS 方式将提交从 uploaded/failed 迁移到 evaluating
// 已被其他评估占用时返回 ErrStatusConflict
func (r *SubmissionRepository) ClaimForEvaluation(id int64) error {
	res := r.db.Model(&model.Submission{}).
		Where("submission_id = ? AND status IN ?", id,
			[]model.SubmissionStatus{model.SubmissionStatusUploaded, model.SubmissionStatusFailed}).
		Update("status", model.SubmissionStatusEvaluating)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}
