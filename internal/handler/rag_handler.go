package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/service"
)

// RAGHandler 历史评估数据集处理器
type RAGHandler struct {
	svc *service.Services
}

// NewRAGHandler 创建 RAG 处理器
func NewRAGHandler(svc *service.Services) *RAGHandler {
	return &RAGHandler{svc: svc}
}

// Stats 返回历史评估数据集统计
func (h *RAGHandler) Stats(c *gin.Context) {
	Success(c, h.svc.RAG.Stats())
}

// Search 按代码片段检索相似历史评估，便于调试检索效果
func (h *RAGHandler) Search(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	examples := h.svc.RAG.SearchSimilar(c.Request.Context(), req.Code)
	Success(c, gin.H{
		"count":    len(examples),
		"examples": examples,
	})
}
