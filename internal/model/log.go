package model

import (
	"time"

	"gorm.io/datatypes"
)

// 流水线步骤状态
const (
	LogStatusStarted   = "started"
	LogStatusCompleted = "completed"
	LogStatusFailed    = "failed"
)

// EvaluationLog 评估流水线的审计日志
// 只追加，不更新不删除；用于排查失败，不参与控制流
type EvaluationLog struct {
	LogID        int64          `json:"log_id" gorm:"primaryKey;autoIncrement"`
	SubmissionID int64          `json:"submission_id" gorm:"index"`
	Step         string         `json:"step" gorm:"type:varchar(100);not null"`
	Status       string         `json:"status" gorm:"type:varchar(50);not null"`
	Message      string         `json:"message" gorm:"type:text"`
	Details      datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (EvaluationLog) TableName() string {
	return "evaluation_logs"
}
