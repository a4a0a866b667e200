// Package model 提供提交相关的数据模型
package model

import (
	"time"
)

// SubmissionStatus 提交生命周期状态
type SubmissionStatus string

const (
	SubmissionStatusUploaded   SubmissionStatus = "uploaded"   // 已上传，待评估
	SubmissionStatusEvaluating SubmissionStatus = "evaluating" // 评估中
	SubmissionStatusEvaluated  SubmissionStatus = "evaluated"  // 评估完成
	SubmissionStatusFailed     SubmissionStatus = "failed"     // 评估失败，可重新触发
)

// Submission 学生小组的作业提交
// ProjectPath 与 VideoURL 均为对象存储定位符，格式 "bucket/object"
type Submission struct {
	SubmissionID   int64            `json:"submission_id" gorm:"primaryKey;autoIncrement"`
	AssignmentID   int              `json:"assignment_id" gorm:"not null;index"`
	SectionID      string           `json:"section_id" gorm:"type:varchar(20);not null"`
	GroupNumber    int              `json:"group_number" gorm:"not null"`
	SubmittedBy    string           `json:"submitted_by" gorm:"type:varchar(20);not null"`
	SubmissionDate time.Time        `json:"submission_date" gorm:"autoCreateTime"`
	ProjectPath    string           `json:"project_path" gorm:"type:varchar(500)"`
	VideoURL       string           `json:"video_url" gorm:"type:varchar(500)"`
	Status         SubmissionStatus `json:"status" gorm:"type:varchar(50);default:'uploaded'"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`

	Grades []Grade         `json:"grades,omitempty" gorm:"foreignKey:SubmissionID"`
	Logs   []EvaluationLog `json:"logs,omitempty" gorm:"foreignKey:SubmissionID"`
}

// TableName 指定表名
func (Submission) TableName() string {
	return "submissions"
}
