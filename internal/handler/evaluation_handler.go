package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service"
	"github.com/ashwinyue/code-mentor/internal/service/pipeline"
)

// EvaluationHandler 评估触发处理器
type EvaluationHandler struct {
	svc   *service.Services
	repos *repository.Repositories
}

// NewEvaluationHandler 创建评估处理器
func NewEvaluationHandler(svc *service.Services, repos *repository.Repositories) *EvaluationHandler {
	return &EvaluationHandler{svc: svc, repos: repos}
}

// Trigger 触发一次提交评估
// 触发成功立即返回 202，评估在后台执行；
// 结果通过提交状态与评估日志查询
func (h *EvaluationHandler) Trigger(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid submission id")
		return
	}

	if err := h.svc.Pipeline.Evaluate(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrEvaluationInProgress):
			Conflict(c, "evaluation already in progress or completed")
		case errors.Is(err, pipeline.ErrSubmissionNotFound):
			NotFound(c, "submission not found")
		default:
			Error(c, err)
		}
		return
	}

	Accepted(c, gin.H{
		"submission_id": id,
		"status":        "evaluating",
	})
}
