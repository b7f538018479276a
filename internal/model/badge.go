package model

import (
	"time"
)

// Badge 课程完成徽章，每个 (user, course) 至多一枚，只增不改。
// swagger:model Badge
type Badge struct {
	BaseModel
	UserID   uint      `gorm:"uniqueIndex:idx_badge_user_course;not null" json:"user_id"`
	CourseID uint      `gorm:"uniqueIndex:idx_badge_user_course;not null" json:"course_id"`
	EarnedAt time.Time `json:"earned_at"`
}

func (Badge) TableName() string {
	return "user_badges"
}
