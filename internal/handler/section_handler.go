package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/repository"
)

// SectionHandler 班级与学生处理器
type SectionHandler struct {
	repos *repository.Repositories
}

// NewSectionHandler 创建班级处理器
func NewSectionHandler(repos *repository.Repositories) *SectionHandler {
	return &SectionHandler{repos: repos}
}

// CreateSection 创建班级
func (h *SectionHandler) CreateSection(c *gin.Context) {
	var section model.Section
	if err := c.ShouldBindJSON(&section); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}
	if section.SectionID == "" {
		BadRequest(c, "section_id is required")
		return
	}

	if err := h.repos.Section.Create(&section); err != nil {
		Error(c, err)
		return
	}
	Created(c, section)
}

// ListSections 列出班级
func (h *SectionHandler) ListSections(c *gin.Context) {
	sections, err := h.repos.Section.List()
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, sections)
}

// GetSection 查询班级
func (h *SectionHandler) GetSection(c *gin.Context) {
	section, err := h.repos.Section.GetByID(c.Param("id"))
	if err != nil {
		NotFound(c, "section not found")
		return
	}
	Success(c, section)
}

// CreateStudent 在班级下登记学生
func (h *SectionHandler) CreateStudent(c *gin.Context) {
	var student model.Student
	if err := c.ShouldBindJSON(&student); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}
	student.SectionID = c.Param("id")
	if student.StudentID == "" {
		BadRequest(c, "student_id is required")
		return
	}

	if _, err := h.repos.Section.GetByID(student.SectionID); err != nil {
		NotFound(c, "section not found")
		return
	}
	if err := h.repos.Section.CreateStudent(&student); err != nil {
		Error(c, err)
		return
	}
	Created(c, student)
}
