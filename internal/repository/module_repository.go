package repository

import (
	"music_academy_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

// ListWithCourseCount 返回全部模块，course_count 只统计激活课程
func (r *ModuleRepository) ListWithCourseCount() ([]model.ModuleWithCount, error) {
	var rows []model.ModuleWithCount
	err := r.DB.Model(&model.Module{}).
		Select(`modules.*,
			(SELECT COUNT(*) FROM courses WHERE courses.module_id = modules.id AND courses.is_active = ?) AS course_count`, true).
		Order("modules.id").
		Scan(&rows).Error
	return rows, err
}

func (r *ModuleRepository) FindByID(id uint) (*model.Module, error) {
	var m model.Module
	err := r.DB.First(&m, id).Error
	return &m, err
}

func (r *ModuleRepository) FindByName(name string) (*model.Module, error) {
	var m model.Module
	err := r.DB.Where("name = ?", name).First(&m).Error
	return &m, err
}

func (r *ModuleRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Module{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
