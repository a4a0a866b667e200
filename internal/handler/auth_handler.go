package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/service"
	"github.com/ashwinyue/code-mentor/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 教师注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	instructor, err := h.svc.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Created(c, instructor)
}

// Login 教师登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}
	if !resp.Success {
		Unauthorized(c, resp.Message)
		return
	}

	Success(c, resp)
}

// Me 返回当前令牌对应的教师
func (h *AuthHandler) Me(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		Unauthorized(c, "Missing or malformed Authorization header")
		return
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	instructor, err := h.svc.Auth.ValidateToken(c.Request.Context(), token)
	if err != nil {
		Unauthorized(c, "Invalid or expired token")
		return
	}

	Success(c, instructor)
}
