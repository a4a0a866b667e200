package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB         *gorm.DB // 直接访问数据库
	Section    *SectionRepository
	Assignment *AssignmentRepository
	Submission *SubmissionRepository
	Grade      *GradeRepository
	Plagiarism *PlagiarismRepository
	Log        *LogRepository
	Instructor *InstructorRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:         db,
		Section:    NewSectionRepository(db),
		Assignment: NewAssignmentRepository(db),
		Submission: NewSubmissionRepository(db),
		Grade:      NewGradeRepository(db),
		Plagiarism: NewPlagiarismRepository(db),
		Log:        NewLogRepository(db),
		Instructor: NewInstructorRepository(db),
	}
}
