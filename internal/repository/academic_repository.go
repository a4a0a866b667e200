package repository

import (
	"github.com/ashwinyue/code-mentor/internal/model"
	"gorm.io/gorm"
)

// SectionRepository 班级仓库
type SectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository 创建班级仓库
func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create 创建班级
func (r *SectionRepository) Create(section *model.Section) error {
	return r.db.Create(section).Error
}

// GetByID 根据 ID 获取班级
func (r *SectionRepository) GetByID(id string) (*model.Section, error) {
	var section model.Section
	err := r.db.Preload("Students").Where("section_id = ?", id).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// List 列出所有班级
func (r *SectionRepository) List() ([]*model.Section, error) {
	var sections []*model.Section
	err := r.db.Order("section_id").Find(&sections).Error
	return sections, err
}

// CreateStudent 创建学生
func (r *SectionRepository) CreateStudent(student *model.Student) error {
	return r.db.Create(student).Error
}

// GetStudentByID 根据 ID 获取学生
func (r *SectionRepository) GetStudentByID(id string) (*model.Student, error) {
	var student model.Student
	err := r.db.Where("student_id = ?", id).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// CountGroupMembers 统计某班级某小组的成员数
func (r *SectionRepository) CountGroupMembers(sectionID string, groupNumber int) (int64, error) {
	var count int64
	err := r.db.Model(&model.Student{}).
		Where("section_id = ? AND group_number = ?", sectionID, groupNumber).
		Count(&count).Error
	return count, err
}

// AssignmentRepository 作业仓库
type AssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository 创建作业仓库
func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create 创建作业
func (r *AssignmentRepository) Create(assignment *model.Assignment) error {
	return r.db.Create(assignment).Error
}

// GetByID 根据 ID 获取作业
func (r *AssignmentRepository) GetByID(id int) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.Where("assignment_id = ?", id).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListBySection 列出某班级的作业
func (r *AssignmentRepository) ListBySection(sectionID string) ([]*model.Assignment, error) {
	var assignments []*model.Assignment
	query := r.db.Order("due_date")
	if sectionID != "" {
		query = query.Where("section_id = ?", sectionID)
	}
	err := query.Find(&assignments).Error
	return assignments, err
}

// UpdateRequirements 更新作业需求文本
func (r *AssignmentRepository) UpdateRequirements(id int, requirements string) error {
	return r.db.Model(&model.Assignment{}).Where("assignment_id = ?", id).
		Update("requirements", requirements).Error
}

// InstructorRepository 教师仓库
type InstructorRepository struct {
	db *gorm.DB
}

// NewInstructorRepository 创建教师仓库
func NewInstructorRepository(db *gorm.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// Create 创建教师
func (r *InstructorRepository) Create(instructor *model.Instructor) error {
	return r.db.Create(instructor).Error
}

// GetByEmail 根据邮箱获取教师
func (r *InstructorRepository) GetByEmail(email string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.Where("email = ?", email).First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

// GetByID 根据 ID 获取教师
func (r *InstructorRepository) GetByID(id int) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.db.Where("instructor_id = ?", id).First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}
