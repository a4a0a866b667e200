// Package auth 提供教师账号的注册、登录与令牌校验
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashwinyue/code-mentor/internal/model"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     string
)

// getJwtSecret 获取 JWT 密钥
// 未配置 JWT_SECRET 时生成随机密钥，重启后旧令牌全部失效
func getJwtSecret() string {
	jwtSecretOnce.Do(func() {
		if envSecret := strings.TrimSpace(os.Getenv("JWT_SECRET")); envSecret != "" {
			jwtSecret = envSecret
			return
		}

		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		jwtSecret = base64.StdEncoding.EncodeToString(randomBytes)
	})

	return jwtSecret
}

// instructorStore 教师账号持久化
type instructorStore interface {
	Create(instructor *model.Instructor) error
	GetByEmail(email string) (*model.Instructor, error)
	GetByID(id int) (*model.Instructor, error)
}

// Service 认证服务
type Service struct {
	instructors instructorStore
	tokenTTL    time.Duration
}

// NewService 创建认证服务
func NewService(instructors instructorStore) *Service {
	return &Service{
		instructors: instructors,
		tokenTTL:    24 * time.Hour,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Instructor *model.Instructor `json:"instructor,omitempty"`
	Token      string            `json:"token,omitempty"`
}

// Register 注册教师账号
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*model.Instructor, error) {
	if existing, _ := s.instructors.GetByEmail(req.Email); existing != nil {
		return nil, errors.New("instructor with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = "instructor"
	}
	instructor := &model.Instructor{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.instructors.Create(instructor); err != nil {
		return nil, fmt.Errorf("failed to create instructor: %w", err)
	}
	return instructor, nil
}

// Login 教师登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	instructor, err := s.instructors.GetByEmail(req.Email)
	if err != nil {
		return &LoginResponse{Success: false, Message: "Invalid email or password"}, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(instructor.PasswordHash), []byte(req.Password)); err != nil {
		return &LoginResponse{Success: false, Message: "Invalid email or password"}, nil
	}

	token, err := s.generateToken(instructor)
	if err != nil {
		return &LoginResponse{Success: false, Message: "Login failed"}, err
	}

	return &LoginResponse{
		Success:    true,
		Message:    "Login successful",
		Instructor: instructor,
		Token:      token,
	}, nil
}

// ValidateToken 校验令牌并返回对应教师
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.Instructor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(getJwtSecret()), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	instructorID, ok := claims["instructor_id"].(float64)
	if !ok {
		return nil, errors.New("invalid instructor ID in token")
	}

	return s.instructors.GetByID(int(instructorID))
}

// generateToken 签发访问令牌
func (s *Service) generateToken(instructor *model.Instructor) (string, error) {
	claims := jwt.MapClaims{
		"instructor_id": instructor.InstructorID,
		"email":         instructor.Email,
		"role":          instructor.Role,
		"exp":           time.Now().Add(s.tokenTTL).Unix(),
		"iat":           time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(getJwtSecret()))
}
