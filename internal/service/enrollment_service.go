package service

import (
	"errors"
	"math"
	"time"

	"music_academy_backend/internal/model"
	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/util"

	"gorm.io/gorm"
)

// EnrollmentService 选课/进度引擎，状态机和发徽章的唯一权威实现。
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	BadgeRepo      *repository.BadgeRepository
	DB             *gorm.DB
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	badgeRepo *repository.BadgeRepository,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		BadgeRepo:      badgeRepo,
		DB:             db,
	}
}

type EnrollResult struct {
	EnrollmentID uint   `json:"enrollment_id"`
	CourseTitle  string `json:"course_title"`
}

type ProgressUpdate struct {
	ProgressPercentage int                    `json:"progress_percentage"`
	Status             model.EnrollmentStatus `json:"status"`
	BadgeEarned        bool                   `json:"badge_earned"`
}

type ProgressSummary struct {
	Stats          model.ProgressStats    `json:"stats"`
	CurrentCourses []model.EnrolledCourse `json:"current_courses"`
	Badges         []model.EarnedBadge    `json:"badges"`
}

// Enroll 在激活课程上创建选课记录，状态直接进入 started。
// user_progress 上的唯一索引兜底并发重复插入，应用层检查只是快速路径。
func (s *EnrollmentService) Enroll(userID, courseID uint) (*EnrollResult, error) {
	course, err := s.CourseRepo.FindActiveByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	_, err = s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err == nil {
		return nil, util.ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	enrollment := &model.Enrollment{
		UserID:             userID,
		CourseID:           courseID,
		Status:             model.Started,
		ProgressPercentage: 0,
		StartedAt:          now,
		LastAccessed:       now,
	}

	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		// 并发下输掉竞争的一方从唯一索引得到冲突
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyEnrolled
		}
		return nil, err
	}

	return &EnrollResult{
		EnrollmentID: enrollment.ID,
		CourseTitle:  course.Title,
	}, nil
}

// UpdateProgress 更新进度并推导状态。状态推导优先级：
//  1. percentage == 100 且未完成 → completed，记录 completed_at
//  2. percentage > 0 且 not_started → started
//  3. 其余保持不变
//
// 行更新与发徽章在同一事务内，任一失败整体回滚。
func (s *EnrollmentService) UpdateProgress(userID, courseID uint, percentage int, notes string) (*ProgressUpdate, error) {
	if percentage < 0 || percentage > 100 {
		return nil, util.ValidationErrors{"progress_percentage": "must be between 0 and 100"}
	}

	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}

	newStatus := enrollment.Status
	completing := false

	if percentage == 100 && enrollment.Status != model.Completed {
		newStatus = model.Completed
		completing = true
	} else if percentage > 0 && enrollment.Status == model.NotStarted {
		newStatus = model.Started
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"progress_percentage": percentage,
			"status":              newStatus,
			"notes":               notes,
			"last_accessed":       now,
		}
		if completing {
			updates["completed_at"] = now
		}

		if err := tx.Model(&model.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Updates(updates).Error; err != nil {
			return err
		}

		if newStatus != model.Completed {
			return nil
		}

		// completed ⇒ 徽章存在，检查和插入必须与上面的更新同事务
		var count int64
		if err := tx.Model(&model.Badge{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		badge := &model.Badge{UserID: userID, CourseID: courseID, EarnedAt: now}
		if err := tx.Create(badge).Error; err != nil {
			// 两个并发完成请求同时到达时，唯一索引让后者落败，
			// 徽章已存在即视为目标达成
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ProgressUpdate{
		ProgressPercentage: percentage,
		Status:             newStatus,
		BadgeEarned:        completing,
	}, nil
}

// Unenroll 退课。已完成的课程不允许退，徽章不受影响。
func (s *EnrollmentService) Unenroll(userID, courseID uint) (string, error) {
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrNotEnrolled
		}
		return "", err
	}

	if enrollment.Status == model.Completed {
		return "", util.ErrCourseCompleted
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return "", err
	}

	if err := s.EnrollmentRepo.Delete(userID, courseID); err != nil {
		return "", err
	}

	return course.Title, nil
}

// GetProgressSummary 进度总览：统计、当前课程、徽章
func (s *EnrollmentService) GetProgressSummary(userID uint) (*ProgressSummary, error) {
	stats, err := s.EnrollmentRepo.Stats(userID)
	if err != nil {
		return nil, err
	}

	stats.TotalBadges, err = s.BadgeRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	if stats.TotalEnrolled > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CoursesCompleted) / float64(stats.TotalEnrolled) * 100))
	}

	courses, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.BadgeRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	return &ProgressSummary{
		Stats:          *stats,
		CurrentCourses: courses,
		Badges:         badges,
	}, nil
}

// GetAvailableCourses 可选课程列表，带当前用户的选课状态
func (s *EnrollmentService) GetAvailableCourses(userID uint, module string) ([]model.AvailableCourse, error) {
	return s.EnrollmentRepo.AvailableCourses(userID, module)
}
