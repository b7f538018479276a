package model

import (
	"time"
)

type EnrollmentStatus string

const (
	NotStarted EnrollmentStatus = "not_started"
	Started    EnrollmentStatus = "started"
	Completed  EnrollmentStatus = "completed"
)

// Enrollment 用户与课程的关系实体，表名沿用 user_progress。
// (user_id, course_id) 的唯一索引是并发安全的底线，应用层的
// 存在性检查只是快速路径。
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID             uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"user_id"`
	CourseID           uint             `gorm:"uniqueIndex:idx_user_course;not null" json:"course_id"`
	Status             EnrollmentStatus `gorm:"size:20;default:'started'" json:"status"`
	ProgressPercentage int              `gorm:"default:0" json:"progress_percentage"`
	StartedAt          time.Time        `json:"started_at"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	LastAccessed       time.Time        `json:"last_accessed"`
	Notes              string           `gorm:"type:text" json:"notes,omitempty"`
}

func (Enrollment) TableName() string {
	return "user_progress"
}
