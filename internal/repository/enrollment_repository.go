package repository

import (
	"music_academy_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	return &e, err
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) Delete(userID, courseID uint) error {
	return r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{}).Error
}

// Stats 各状态的选课数量，completion_rate 由 service 计算
func (r *EnrollmentRepository) Stats(userID uint) (*model.ProgressStats, error) {
	var stats model.ProgressStats

	err := r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND status = ?", userID, model.Started).
		Count(&stats.CoursesStarted).Error
	if err != nil {
		return nil, err
	}

	err = r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND status = ?", userID, model.Completed).
		Count(&stats.CoursesCompleted).Error
	if err != nil {
		return nil, err
	}

	err = r.DB.Model(&model.Enrollment{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalEnrolled).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// ListByUser 当前课程列表，按最近访问倒序
func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.EnrolledCourse, error) {
	var rows []model.EnrolledCourse
	err := r.DB.Model(&model.Enrollment{}).
		Select(`c.id AS course_id,
			c.title,
			c.description,
			c.duration_minutes,
			m.display_name AS module_name,
			m.color AS module_color,
			user_progress.status,
			user_progress.progress_percentage,
			user_progress.started_at,
			user_progress.completed_at,
			user_progress.last_accessed`).
		Joins("JOIN courses c ON user_progress.course_id = c.id").
		Joins("JOIN modules m ON c.module_id = m.id").
		Where("user_progress.user_id = ?", userID).
		Order("user_progress.last_accessed DESC").
		Scan(&rows).Error
	return rows, err
}

// AvailableCourses 激活课程及当前用户的选课状态，可按模块过滤
func (r *EnrollmentRepository) AvailableCourses(userID uint, module string) ([]model.AvailableCourse, error) {
	q := r.DB.Model(&model.Course{}).
		Select(`courses.id,
			courses.title,
			courses.description,
			courses.level,
			courses.duration_minutes,
			courses.instructor_name,
			m.name AS module_name,
			m.display_name AS module_display_name,
			m.color AS module_color,
			up.id IS NOT NULL AS is_enrolled,
			up.status AS enrollment_status,
			up.progress_percentage`).
		Joins("JOIN modules m ON courses.module_id = m.id").
		Joins("LEFT JOIN user_progress up ON courses.id = up.course_id AND up.user_id = ?", userID).
		Where("courses.is_active = ?", true)

	if module != "" {
		q = q.Where("m.name = ?", module)
	}

	var rows []model.AvailableCourse
	err := q.Order("m.id, courses.order_in_module, courses.title").Scan(&rows).Error
	return rows, err
}
