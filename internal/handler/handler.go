package handler

import (
	"github.com/ashwinyue/code-mentor/internal/repository"
	"github.com/ashwinyue/code-mentor/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth       *AuthHandler
	Section    *SectionHandler
	Assignment *AssignmentHandler
	Submission *SubmissionHandler
	Evaluation *EvaluationHandler
	Grade      *GradeHandler
	Plagiarism *PlagiarismHandler
	RAG        *RAGHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Auth:       NewAuthHandler(svc),
		Section:    NewSectionHandler(repos),
		Assignment: NewAssignmentHandler(svc, repos),
		Submission: NewSubmissionHandler(svc, repos),
		Evaluation: NewEvaluationHandler(svc, repos),
		Grade:      NewGradeHandler(repos),
		Plagiarism: NewPlagiarismHandler(svc, repos),
		RAG:        NewRAGHandler(svc),
	}
}
