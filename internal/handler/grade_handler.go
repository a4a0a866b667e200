package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/repository"
)

// GradeHandler 评分查询处理器
type GradeHandler struct {
	repos *repository.Repositories
}

// NewGradeHandler 创建评分处理器
func NewGradeHandler(repos *repository.Repositories) *GradeHandler {
	return &GradeHandler{repos: repos}
}

// GetBySubmission 查询提交的评分与反馈
func (h *GradeHandler) GetBySubmission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}

	grade, err := h.repos.Grade.GetBySubmission(id)
	if err != nil {
		NotFound(c, "grade not found for submission")
		return
	}
	Success(c, grade)
}

// GetFeedback 查询评分对应的反馈
func (h *GradeHandler) GetFeedback(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid grade id")
		return
	}

	feedback, err := h.repos.Grade.GetFeedbackByGrade(id)
	if err != nil {
		NotFound(c, "feedback not found")
		return
	}
	Success(c, feedback)
}

// ListBySection 按班级分页列出评分
func (h *GradeHandler) ListBySection(c *gin.Context) {
	sectionID := c.Query("section_id")
	if sectionID == "" {
		BadRequest(c, "section_id is required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	grades, total, err := h.repos.Grade.ListBySection(sectionID, pageSize, (page-1)*pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, grades, total, page, pageSize)
}
