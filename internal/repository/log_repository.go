package repository

import (
	"encoding/json"

	"github.com/ashwinyue/code-mentor/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LogRepository 评估日志仓库（只追加）
type LogRepository struct {
	db *gorm.DB
}

// NewLogRepository 创建评估日志仓库
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append 追加一条评估日志
// details 可为 nil；序列化失败时丢弃 details，不影响日志本身
func (r *LogRepository) Append(submissionID int64, step, status, message string, details map[string]interface{}) error {
	entry := &model.EvaluationLog{
		SubmissionID: submissionID,
		Step:         step,
		Status:       status,
		Message:      message,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	return r.db.Create(entry).Error
}

// ListBySubmission 列出某提交的日志
func (r *LogRepository) ListBySubmission(submissionID int64) ([]*model.EvaluationLog, error) {
	var logs []*model.EvaluationLog
	err := r.db.Where("submission_id = ?", submissionID).
		Order("created_at").Find(&logs).Error
	return logs, err
}
