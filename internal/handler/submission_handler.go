package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// SubmissionHandler 提交处理器
type SubmissionHandler struct {
	svc   *service.Services
	repos *repository.Repositories
}

// NewSubmissionHandler 创建提交处理器
func NewSubmissionHandler(svc *service.Services, repos *repository.Repositories) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, repos: repos}
}

// CreateSubmission 上传一份小组提交
// multipart 表单：project（zip，必填）、video（可选）、assignment_id、
// section_id、group_number、submitted_by
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	assignmentID, err := strconv.Atoi(c.PostForm("assignment_id"))
	if err != nil {
		BadRequest(c, "assignment_id is required")
		return
	}
	sectionID := c.PostForm("section_id")
	submittedBy := c.PostForm("submitted_by")
	if sectionID == "" || submittedBy == "" {
		BadRequest(c, "section_id and submitted_by are required")
		return
	}
	groupNumber, err := strconv.Atoi(c.PostForm("group_number"))
	if err != nil || groupNumber < 1 {
		BadRequest(c, "group_number must be a positive integer")
		return
	}
	if _, err := h.repos.Assignment.GetByID(assignmentID); err != nil {
		NotFound(c, "assignment not found")
		return
	}

	projectHeader, err := c.FormFile("project")
	if err != nil {
		BadRequest(c, "project archive is required: "+err.Error())
		return
	}

	prefix := fmt.Sprintf("assignment_%d/group_%d/%d", assignmentID, groupNumber, time.Now().Unix())

	projectPath, err := h.storeUpload(c, projectHeader, h.svc.Config.Storage.SubmissionsBucket, prefix)
	if err != nil {
		Error(c, err)
		return
	}

	var videoURL string
	if videoHeader, err := c.FormFile("video"); err == nil {
		videoURL, err = h.storeUpload(c, videoHeader, h.svc.Config.Storage.VideosBucket, prefix)
		if err != nil {
			Error(c, err)
			return
		}
	}

	sub := &model.Submission{
		AssignmentID: assignmentID,
		SectionID:    sectionID,
		GroupNumber:  groupNumber,
		SubmittedBy:  submittedBy,
		ProjectPath:  projectPath,
		VideoURL:     videoURL,
		Status:       model.SubmissionStatusUploaded,
	}
	if err := h.repos.Submission.Create(sub); err != nil {
		Error(c, err)
		return
	}

	Created(c, sub)
}

// GetSubmission 查询提交
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}

	sub, err := h.repos.Submission.GetByID(id)
	if err != nil {
		NotFound(c, "submission not found")
		return
	}
	Success(c, sub)
}

// ListSubmissions 按班级分页列出提交
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	sectionID := c.Query("section_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	subs, total, err := h.repos.Submission.List(sectionID, pageSize, (page-1)*pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPagination(c, subs, total, page, pageSize)
}

// GetSubmissionLogs 查询提交的评估日志
func (h *SubmissionHandler) GetSubmissionLogs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}
	if _, err := h.repos.Submission.GetByID(id); err != nil {
		NotFound(c, "submission not found")
		return
	}

	logs, err := h.repos.Log.ListBySubmission(id)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, logs)
}

// storeUpload 把上传文件写入对象存储并返回定位符
func (h *SubmissionHandler) storeUpload(c *gin.Context, fileHeader *multipart.FileHeader, bucket, prefix string) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("%s/%s", prefix, fileHeader.Filename)
	return h.svc.Store.Put(c.Request.Context(), bucket, objectName, data,
		fileHeader.Header.Get("Content-Type"))
}
