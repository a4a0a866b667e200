package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/handler"
	"github.com/ashwinyue/code-mentor/internal/middleware"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Auth 认证
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.GET("/me", h.Auth.Me)
		}

		// 需要教师身份的管理面
		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(svc))
		{
			// Section 班级
			sections := authed.Group("/sections")
			{
				sections.POST("", h.Section.CreateSection)
				sections.GET("", h.Section.ListSections)
				sections.GET("/:id", h.Section.GetSection)
				sections.POST("/:id/students", h.Section.CreateStudent)
			}

			// Assignment 作业
			assignments := authed.Group("/assignments")
			{
				assignments.POST("", h.Assignment.CreateAssignment)
				assignments.GET("", h.Assignment.ListAssignments)
				assignments.GET("/:id", h.Assignment.GetAssignment)
				assignments.POST("/:id/requirements", h.Assignment.UploadRequirements)
				assignments.POST("/:id/plagiarism", h.Plagiarism.Detect)
				assignments.GET("/:id/plagiarism", h.Plagiarism.List)
			}

			// Grade 评分
			grades := authed.Group("/grades")
			{
				grades.GET("", h.Grade.ListBySection)
				grades.GET("/:id/feedback", h.Grade.GetFeedback)
			}

			// RAG 历史评估数据集
			rag := authed.Group("/rag")
			{
				rag.GET("/stats", h.RAG.Stats)
				rag.POST("/search", h.RAG.Search)
			}
		}

		// Submission 提交与评估（学生端上传，无需教师令牌）
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", h.Submission.CreateSubmission)
			submissions.GET("/:id", h.Submission.GetSubmission)
			submissions.GET("", h.Submission.ListSubmissions)
			submissions.GET("/:id/logs", h.Submission.GetSubmissionLogs)
			submissions.POST("/:id/evaluate", h.Evaluation.Trigger)
			submissions.GET("/:id/grade", h.Grade.GetBySubmission)
		}
	}

	return r
}
