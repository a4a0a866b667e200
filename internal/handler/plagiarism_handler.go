package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// PlagiarismHandler 抄袭检测处理器
type PlagiarismHandler struct {
	svc   *service.Services
	repos *repository.Repositories
}

// NewPlagiarismHandler 创建抄袭检测处理器
func NewPlagiarismHandler(svc *service.Services, repos *repository.Repositories) *PlagiarismHandler {
	return &PlagiarismHandler{svc: svc, repos: repos}
}

// DetectRequest 检测请求
type DetectRequest struct {
	// SubmissionIDs 非空时仅比对该子集
	SubmissionIDs []int64 `json:"submission_ids"`
}

// Detect 对作业执行一轮抄袭检测
// 同步执行，作业规模（几十份提交）下耗时可接受
func (h *PlagiarismHandler) Detect(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid assignment id")
		return
	}
	if _, err := h.repos.Assignment.GetByID(assignmentID); err != nil {
		NotFound(c, "assignment not found")
		return
	}

	var req DetectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Invalid parameters: "+err.Error())
			return
		}
	}

	flagged, err := h.svc.Plagiarism.Detect(c.Request.Context(), assignmentID, req.SubmissionIDs)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"assignment_id": assignmentID,
		"flagged_pairs": len(flagged),
		"detections":    flagged,
	})
}

// List 列出作业的历史检测记录
func (h *PlagiarismHandler) List(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid assignment id")
		return
	}

	detections, err := h.repos.Plagiarism.ListByAssignment(assignmentID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, detections)
}
