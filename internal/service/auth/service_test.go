package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/ashwinyue/code-mentor/internal/model"
)

type fakeInstructors struct {
	byEmail map[string]*model.Instructor
	byID    map[int]*model.Instructor
	nextID  int
}

func newFakeInstructors() *fakeInstructors {
	return &fakeInstructors{
		byEmail: make(map[string]*model.Instructor),
		byID:    make(map[int]*model.Instructor),
		nextID:  1,
	}
}

func (f *fakeInstructors) Create(instructor *model.Instructor) error {
	instructor.InstructorID = f.nextID
	f.nextID++
	f.byEmail[instructor.Email] = instructor
	f.byID[instructor.InstructorID] = instructor
	return nil
}

func (f *fakeInstructors) GetByEmail(email string) (*model.Instructor, error) {
	instructor, ok := f.byEmail[email]
	if !ok {
		return nil, errors.New("instructor not found")
	}
	return instructor, nil
}

func (f *fakeInstructors) GetByID(id int) (*model.Instructor, error) {
	instructor, ok := f.byID[id]
	if !ok {
		return nil, errors.New("instructor not found")
	}
	return instructor, nil
}

func TestRegisterAndLogin(t *testing.T) {
	s := NewService(newFakeInstructors())
	ctx := context.Background()

	instructor, err := s.Register(ctx, &RegisterRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.edu",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if instructor.InstructorID == 0 {
		t.Error("注册后应分配 ID")
	}
	if instructor.Role != "instructor" {
		t.Errorf("Role = %q, want instructor", instructor.Role)
	}
	if instructor.PasswordHash == "secret123" {
		t.Error("密码不能明文存储")
	}

	resp, err := s.Login(ctx, &LoginRequest{Email: "ada@example.edu", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("Login() = %+v, want success with token", resp)
	}

	got, err := s.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if got.Email != "ada@example.edu" {
		t.Errorf("ValidateToken() email = %q", got.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewService(newFakeInstructors())
	ctx := context.Background()

	req := &RegisterRequest{Name: "Ada", Email: "ada@example.edu", Password: "secret123"}
	if _, err := s.Register(ctx, req); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := s.Register(ctx, req); err == nil {
		t.Error("重复邮箱注册应失败")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := NewService(newFakeInstructors())
	ctx := context.Background()

	if _, err := s.Register(ctx, &RegisterRequest{Name: "Ada", Email: "ada@example.edu", Password: "secret123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	resp, err := s.Login(ctx, &LoginRequest{Email: "ada@example.edu", Password: "wrong-password"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Success {
		t.Error("密码错误时登录应失败")
	}

	resp, err = s.Login(ctx, &LoginRequest{Email: "nobody@example.edu", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Success {
		t.Error("未注册邮箱登录应失败")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := NewService(newFakeInstructors())
	if _, err := s.ValidateToken(context.Background(), "not-a-token"); err == nil {
		t.Error("非法令牌应被拒绝")
	}
}
