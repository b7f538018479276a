package repository

import (
	"strings"

	"music_academy_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// CourseFilter 目录查询过滤条件，零值字段不参与过滤
type CourseFilter struct {
	Module string
	Level  string
	Search string
}

// List 激活课程目录，连接模块展示字段。
// 顺序固定：模块 id → order_in_module → 标题。
func (r *CourseRepository) List(filter CourseFilter) ([]model.CourseWithModule, error) {
	q := r.DB.Model(&model.Course{}).
		Select(`courses.*,
			m.name AS module_name,
			m.display_name AS module_display_name,
			m.icon AS module_icon,
			m.color AS module_color`).
		Joins("JOIN modules m ON courses.module_id = m.id").
		Where("courses.is_active = ?", true)

	if filter.Module != "" {
		q = q.Where("m.name = ?", filter.Module)
	}
	if filter.Level != "" {
		q = q.Where("courses.level = ?", filter.Level)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ?", pattern, pattern)
	}

	var rows []model.CourseWithModule
	err := q.Order("m.id, courses.order_in_module, courses.title").Scan(&rows).Error
	return rows, err
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var c model.Course
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *CourseRepository) FindActiveByID(id uint) (*model.Course, error) {
	var c model.Course
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&c).Error
	return &c, err
}

// FindActiveWithModule 课程详情，含模块展示字段
func (r *CourseRepository) FindActiveWithModule(id uint) (*model.CourseWithModule, error) {
	var row model.CourseWithModule
	err := r.DB.Model(&model.Course{}).
		Select(`courses.*,
			m.name AS module_name,
			m.display_name AS module_display_name,
			m.icon AS module_icon,
			m.color AS module_color`).
		Joins("JOIN modules m ON courses.module_id = m.id").
		Where("courses.id = ? AND courses.is_active = ?", id, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// UpdateFields 部分更新，调用方负责字段白名单
func (r *CourseRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.Course{}).Where("id = ?", id).Updates(fields).Error
}

// MaxOrderInModule 模块内现有课程的最大排序值，无课程时为 0
func (r *CourseRepository) MaxOrderInModule(moduleID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Course{}).
		Where("module_id = ?", moduleID).
		Select("COALESCE(MAX(order_in_module), 0)").
		Scan(&max).Error
	return max, err
}
