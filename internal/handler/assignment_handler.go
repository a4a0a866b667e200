package handler

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// AssignmentHandler 作业处理器
type AssignmentHandler struct {
	svc   *service.Services
	repos *repository.Repositories
}

// NewAssignmentHandler 创建作业处理器
func NewAssignmentHandler(svc *service.Services, repos *repository.Repositories) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, repos: repos}
}

// CreateAssignment 创建作业
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var assignment model.Assignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}
	if assignment.SectionID == "" {
		BadRequest(c, "section_id is required")
		return
	}

	if err := h.repos.Assignment.Create(&assignment); err != nil {
		Error(c, err)
		return
	}
	Created(c, assignment)
}

// GetAssignment 查询作业
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid assignment id")
		return
	}

	assignment, err := h.repos.Assignment.GetByID(id)
	if err != nil {
		NotFound(c, "assignment not found")
		return
	}
	Success(c, assignment)
}

// ListAssignments 按班级列出作业
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	sectionID := c.Query("section_id")
	if sectionID == "" {
		BadRequest(c, "section_id is required")
		return
	}

	assignments, err := h.repos.Assignment.ListBySection(sectionID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, assignments)
}

// UploadRequirements 上传作业要求文档（PDF/DOCX/TXT/MD）
// 文档归档到对象存储后解析全文，写入作业的 requirements 字段
func (h *AssignmentHandler) UploadRequirements(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid assignment id")
		return
	}
	if _, err := h.repos.Assignment.GetByID(id); err != nil {
		NotFound(c, "assignment not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required: "+err.Error())
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		Error(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		Error(c, err)
		return
	}

	text, err := h.svc.Document.ExtractText(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		BadRequest(c, "failed to parse document: "+err.Error())
		return
	}

	objectName := fmt.Sprintf("assignment_%d/%d_%s", id, time.Now().Unix(), fileHeader.Filename)
	locator, err := h.svc.Store.Put(c.Request.Context(),
		h.svc.Config.Storage.DocumentsBucket, objectName,
		data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		Error(c, err)
		return
	}

	if err := h.repos.Assignment.UpdateRequirements(id, text); err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"assignment_id": id,
		"document_path": locator,
		"characters":    len(text),
	})
}
