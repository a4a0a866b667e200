// Package model 提供评分相关的数据模型
package model

import (
	"time"
)

// GradeStatus 评分状态
type GradeStatus string

const (
	GradeStatusAutoGraded GradeStatus = "auto_graded" // AI 自动评分完成
	GradeStatusReviewed   GradeStatus = "reviewed"    // 教师已复核
	GradeStatusPublished  GradeStatus = "published"   // 已发布给学生
)

// Grade 一次评估的评分结果
// 四项子分各 0-5 分，AITotalScore 恒等于四项之和
type Grade struct {
	GradeID      int    `json:"grade_id" gorm:"primaryKey;autoIncrement"`
	SubmissionID int64  `json:"submission_id" gorm:"not null;index"`
	StudentID    string `json:"student_id" gorm:"type:varchar(20)"`

	// AI 评分
	AIComprehensionScore  float64 `json:"ai_comprehension_score" gorm:"type:decimal(5,2)"`
	AIDesignScore         float64 `json:"ai_design_score" gorm:"type:decimal(5,2)"`
	AIImplementationScore float64 `json:"ai_implementation_score" gorm:"type:decimal(5,2)"`
	AIFunctionalityScore  float64 `json:"ai_functionality_score" gorm:"type:decimal(5,2)"`
	AITotalScore          float64 `json:"ai_total_score" gorm:"type:decimal(5,2)"`

	// 教师复核分（流水线不写，复核流程使用）
	FinalComprehensionScore  *float64 `json:"final_comprehension_score,omitempty" gorm:"type:decimal(5,2)"`
	FinalDesignScore         *float64 `json:"final_design_score,omitempty" gorm:"type:decimal(5,2)"`
	FinalImplementationScore *float64 `json:"final_implementation_score,omitempty" gorm:"type:decimal(5,2)"`
	FinalFunctionalityScore  *float64 `json:"final_functionality_score,omitempty" gorm:"type:decimal(5,2)"`
	FinalTotalScore          *float64 `json:"final_total_score,omitempty" gorm:"type:decimal(5,2)"`

	Status          GradeStatus `json:"status" gorm:"type:varchar(50);default:'auto_graded'"`
	ReviewedBy      *int        `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time  `json:"reviewed_at,omitempty"`
	InstructorNotes string      `json:"instructor_notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time   `json:"created_at" gorm:"autoCreateTime"`

	Feedback *Feedback `json:"feedback,omitempty" gorm:"foreignKey:GradeID"`
}

// TableName 指定表名
func (Grade) TableName() string {
	return "grades"
}

// Feedback 评分对应的文字反馈
// 与 Grade 一一对应，在同一事务中创建
type Feedback struct {
	FeedbackID   int   `json:"feedback_id" gorm:"primaryKey;autoIncrement"`
	GradeID      int   `json:"grade_id" gorm:"not null;index"`
	SubmissionID int64 `json:"submission_id" gorm:"not null;index"`

	ComprehensionComments  string `json:"comprehension_comments" gorm:"type:text"`
	DesignComments         string `json:"design_comments" gorm:"type:text"`
	ImplementationComments string `json:"implementation_comments" gorm:"type:text"`
	FunctionalityComments  string `json:"functionality_comments" gorm:"type:text"`
	GeneralComments        string `json:"general_comments" gorm:"type:text"`

	GeneratedAt time.Time `json:"generated_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Feedback) TableName() string {
	return "feedback"
}
