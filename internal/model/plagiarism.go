package model

import (
	"time"
)

// DetectionStatus 抄袭检测结论
type DetectionStatus string

const (
	DetectionStatusSuspicious   DetectionStatus = "suspicious"    // 相似度 > 0.95
	DetectionStatusReviewNeeded DetectionStatus = "review_needed" // 达到阈值但 <= 0.95
)

// PlagiarismDetection 一对提交之间的抄袭检测结果
// 仅持久化达到阈值的组对；每次检测运行生成新记录，不去重
type PlagiarismDetection struct {
	DetectionID   int   `json:"detection_id" gorm:"primaryKey;autoIncrement"`
	AssignmentID  int   `json:"assignment_id" gorm:"not null;index"`
	SubmissionID1 int64 `json:"submission_id_1" gorm:"not null"`
	SubmissionID2 int64 `json:"submission_id_2" gorm:"not null"`

	// 百分比（0-100）
	SimilarityScore      float64 `json:"similarity_score" gorm:"not null"`
	SemanticSimilarity   float64 `json:"semantic_similarity"`
	StructuralSimilarity float64 `json:"structural_similarity"`

	Status        DetectionStatus `json:"status" gorm:"type:varchar(50)"`
	DetectionDate time.Time       `json:"detection_date" gorm:"autoCreateTime"`
	ReviewedBy    *int            `json:"reviewed_by,omitempty"`
}

// TableName 指定表名
func (PlagiarismDetection) TableName() string {
	return "plagiarism_detections"
}
