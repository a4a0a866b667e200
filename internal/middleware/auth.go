package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/code-mentor/internal/model"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// RequireAuth 要求有效认证的中间件
// 必须提供有效的 JWT token，否则返回 401
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    -1,
				"message": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    -1,
				"message": "Invalid Authorization header format",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		instructor, err := svc.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("instructor", instructor)
		c.Set("instructor_id", instructor.InstructorID)
		c.Next()
	}
}

// GetCurrentInstructor 从上下文获取当前教师
func GetCurrentInstructor(c *gin.Context) (*model.Instructor, bool) {
	value, exists := c.Get("instructor")
	if !exists {
		return nil, false
	}
	instructor, ok := value.(*model.Instructor)
	return instructor, ok
}
