// Package model 提供课程与作业相关的数据模型
package model

import (
	"time"
)

// Instructor 教师
type Instructor struct {
	InstructorID int    `json:"instructor_id" gorm:"primaryKey;autoIncrement"`
	Name         string `json:"name" gorm:"type:varchar(255);not null"`
	Email        string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role         string `json:"role" gorm:"type:varchar(50)"`
	PasswordHash string `json:"-" gorm:"type:varchar(255)"`

	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:InstructorID"`
}

// TableName 指定表名
func (Instructor) TableName() string {
	return "instructors"
}

// Section 班级
type Section struct {
	SectionID    string `json:"section_id" gorm:"type:varchar(20);primaryKey"`
	SectionCode  string `json:"section_code" gorm:"type:varchar(50);not null"`
	Semester     string `json:"semester" gorm:"type:varchar(20);not null"`
	Year         int    `json:"year" gorm:"not null"`
	InstructorID int    `json:"instructor_id" gorm:"not null"`

	Students    []Student    `json:"students,omitempty" gorm:"foreignKey:SectionID"`
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:SectionID"`
}

// TableName 指定表名
func (Section) TableName() string {
	return "sections"
}

// Student 学生
type Student struct {
	StudentID   string    `json:"student_id" gorm:"type:varchar(20);primaryKey"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName    string    `json:"last_name" gorm:"type:varchar(100);not null"`
	Email       string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	SectionID   string    `json:"section_id" gorm:"type:varchar(20);not null;index"`
	GroupNumber int       `json:"group_number" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Student) TableName() string {
	return "students"
}

// Assignment 作业
type Assignment struct {
	AssignmentID int       `json:"assignment_id" gorm:"primaryKey;autoIncrement"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	DueDate      time.Time `json:"due_date" gorm:"not null"`
	MaxScore     int       `json:"max_score" gorm:"not null"`
	Requirements string    `json:"requirements" gorm:"type:text"`
	SectionID    string    `json:"section_id" gorm:"type:varchar(20);not null;index"`

	Submissions []Submission `json:"submissions,omitempty" gorm:"foreignKey:AssignmentID"`
}

// TableName 指定表名
func (Assignment) TableName() string {
	return "assignments"
}
