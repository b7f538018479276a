package model

import (
	"time"
)

// 只读查询的投影结构，由 repository 层扫描填充。

// EnrolledCourse 进度页的当前课程行，user_progress 连接 courses/modules
type EnrolledCourse struct {
	CourseID           uint             `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	DurationMinutes    int              `json:"duration_minutes"`
	ModuleName         string           `json:"module_name"`
	ModuleColor        string           `json:"module_color"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercentage int              `json:"progress_percentage"`
	StartedAt          time.Time        `json:"started_at"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	LastAccessed       time.Time        `json:"last_accessed"`
}

// EarnedBadge 徽章行，user_badges 连接 courses/modules
type EarnedBadge struct {
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	EarnedAt    time.Time `json:"earned_at"`
	ModuleName  string    `json:"module_name"`
	ModuleColor string    `json:"module_color"`
}

// CourseWithModule 目录查询行，courses 连接 modules
type CourseWithModule struct {
	Course
	ModuleName        string `json:"module_name"`
	ModuleDisplayName string `json:"module_display_name"`
	ModuleIcon        string `json:"module_icon"`
	ModuleColor       string `json:"module_color"`
}

// AvailableCourse 选课列表行，附带当前用户的选课状态
type AvailableCourse struct {
	ID                 uint             `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Level              CourseLevel      `json:"level"`
	DurationMinutes    int              `json:"duration_minutes"`
	InstructorName     string           `json:"instructor_name"`
	ModuleName         string           `json:"module_name"`
	ModuleDisplayName  string           `json:"module_display_name"`
	ModuleColor        string           `json:"module_color"`
	IsEnrolled         bool             `json:"is_enrolled"`
	EnrollmentStatus   EnrollmentStatus `json:"enrollment_status,omitempty"`
	ProgressPercentage *int             `json:"progress_percentage,omitempty"`
}

// StudentOverview 管理面板的学生列表行
type StudentOverview struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	EnrollmentsCount int    `json:"enrollments_count"`
	AvgProgress      int    `json:"avg_progress"`
}

// ProgressStats 进度总览统计
type ProgressStats struct {
	CoursesStarted   int64 `json:"courses_started"`
	CoursesCompleted int64 `json:"courses_completed"`
	TotalBadges      int64 `json:"total_badges"`
	TotalEnrolled    int64 `json:"total_enrolled"`
	CompletionRate   int   `json:"completion_rate"`
}
