package repository

import (
	"music_academy_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Badge{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListByUser 已获徽章，按获得时间倒序
func (r *BadgeRepository) ListByUser(userID uint) ([]model.EarnedBadge, error) {
	var rows []model.EarnedBadge
	err := r.DB.Model(&model.Badge{}).
		Select(`c.id AS course_id,
			c.title AS course_title,
			user_badges.earned_at,
			m.display_name AS module_name,
			m.color AS module_color`).
		Joins("JOIN courses c ON user_badges.course_id = c.id").
		Joins("JOIN modules m ON c.module_id = m.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.earned_at DESC").
		Scan(&rows).Error
	return rows, err
}
