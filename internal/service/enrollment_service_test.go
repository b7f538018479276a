package service

import (
	"errors"
	"fmt"
	"testing"

	"music_academy_backend/internal/model"
	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/util"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存库。TranslateError 必须开，
// 选课/发徽章的并发兜底依赖 gorm.ErrDuplicatedKey 判定。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Module{},
		&model.Course{},
		&model.Enrollment{},
		&model.Badge{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func newEnrollmentService(t *testing.T) (*EnrollmentService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewEnrollmentService(
		repository.NewEnrollmentRepository(db),
		repository.NewCourseRepository(db),
		repository.NewBadgeRepository(db),
		db,
	), db
}

func seedModule(t *testing.T, db *gorm.DB, name string) *model.Module {
	t.Helper()
	m := &model.Module{Name: name, DisplayName: name, Color: "#336699"}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	return m
}

func seedCourse(t *testing.T, db *gorm.DB, moduleID uint, title string, active bool) *model.Course {
	t.Helper()
	c := &model.Course{
		ModuleID:        moduleID,
		Title:           title,
		Level:           model.Beginner,
		DurationMinutes: 30,
		InstructorName:  "Ada Vance",
		OrderInModule:   1,
		IsActive:        active,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed course %q: %v", title, err)
	}
	return c
}

func TestEnroll(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "piano")
	course := seedCourse(t, db, mod.ID, "Piano Basics", true)
	inactive := seedCourse(t, db, mod.ID, "Retired Course", false)

	res, err := svc.Enroll(7, course.ID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if res.CourseTitle != "Piano Basics" || res.EnrollmentID == 0 {
		t.Fatalf("Enroll: got %+v", res)
	}

	var e model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", 7, course.ID).First(&e).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	if e.Status != model.Started || e.ProgressPercentage != 0 {
		t.Fatalf("new enrollment: status=%s progress=%d", e.Status, e.ProgressPercentage)
	}

	// 重复选课
	if _, err := svc.Enroll(7, course.ID); !errors.Is(err, util.ErrAlreadyEnrolled) {
		t.Fatalf("duplicate enroll: got %v, want ErrAlreadyEnrolled", err)
	}

	// 下架课程和不存在的课程都报 404
	if _, err := svc.Enroll(7, inactive.ID); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("inactive course: got %v, want ErrCourseNotFound", err)
	}
	if _, err := svc.Enroll(7, 9999); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("missing course: got %v, want ErrCourseNotFound", err)
	}
}

func TestEnrollRaceLoserGetsConflict(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "guitar")
	course := seedCourse(t, db, mod.ID, "Guitar Basics", true)

	// 绕过应用层检查直接插入，模拟在检查和插入之间输掉竞争的一方
	if err := db.Create(&model.Enrollment{UserID: 7, CourseID: course.ID, Status: model.Started}).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	err := db.Create(&model.Enrollment{UserID: 7, CourseID: course.ID, Status: model.Started}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("unique index: got %v, want ErrDuplicatedKey", err)
	}

	if _, err := svc.Enroll(7, course.ID); !errors.Is(err, util.ErrAlreadyEnrolled) {
		t.Fatalf("enroll after race: got %v, want ErrAlreadyEnrolled", err)
	}
}

func TestUpdateProgressStatusDerivation(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "violin")
	course := seedCourse(t, db, mod.ID, "Violin Basics", true)

	if _, err := svc.Enroll(7, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// started 状态下的普通更新保持 started
	upd, err := svc.UpdateProgress(7, course.ID, 40, "halfway through scales")
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if upd.Status != model.Started || upd.BadgeEarned {
		t.Fatalf("partial progress: got %+v", upd)
	}

	// not_started + 正进度 → started
	db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", 7, course.ID).
		Update("status", model.NotStarted)
	upd, err = svc.UpdateProgress(7, course.ID, 10, "")
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if upd.Status != model.Started {
		t.Fatalf("not_started with progress: got status %s, want started", upd.Status)
	}

	// not_started + 零进度保持 not_started
	db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", 7, course.ID).
		Update("status", model.NotStarted)
	upd, err = svc.UpdateProgress(7, course.ID, 0, "")
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if upd.Status != model.NotStarted {
		t.Fatalf("zero progress: got status %s, want not_started", upd.Status)
	}
}

func TestUpdateProgressCompletionAwardsBadgeOnce(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "drums")
	course := seedCourse(t, db, mod.ID, "Drum Basics", true)

	if _, err := svc.Enroll(7, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	upd, err := svc.UpdateProgress(7, course.ID, 100, "")
	if err != nil {
		t.Fatalf("UpdateProgress(100): %v", err)
	}
	if upd.Status != model.Completed || !upd.BadgeEarned {
		t.Fatalf("completion: got %+v", upd)
	}

	var e model.Enrollment
	db.Where("user_id = ? AND course_id = ?", 7, course.ID).First(&e)
	if e.CompletedAt == nil {
		t.Fatal("completion: completed_at not set")
	}

	var badges int64
	db.Model(&model.Badge{}).Where("user_id = ? AND course_id = ?", 7, course.ID).Count(&badges)
	if badges != 1 {
		t.Fatalf("completion: got %d badges, want 1", badges)
	}

	// 重复提交 100%：状态不变，徽章不重发，badge_earned 为假
	upd, err = svc.UpdateProgress(7, course.ID, 100, "")
	if err != nil {
		t.Fatalf("repeat UpdateProgress(100): %v", err)
	}
	if upd.BadgeEarned {
		t.Fatal("repeat completion: badge_earned should be false")
	}
	db.Model(&model.Badge{}).Where("user_id = ? AND course_id = ?", 7, course.ID).Count(&badges)
	if badges != 1 {
		t.Fatalf("repeat completion: got %d badges, want 1", badges)
	}

	// 完成后回调进度也不降级状态
	upd, err = svc.UpdateProgress(7, course.ID, 40, "")
	if err != nil {
		t.Fatalf("UpdateProgress after completion: %v", err)
	}
	if upd.Status != model.Completed || upd.BadgeEarned {
		t.Fatalf("lowered progress after completion: got %+v", upd)
	}
}

func TestUpdateProgressValidation(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "flute")
	course := seedCourse(t, db, mod.ID, "Flute Basics", true)

	for _, pct := range []int{-1, 101} {
		_, err := svc.UpdateProgress(7, course.ID, pct, "")
		var verrs util.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("UpdateProgress(%d): got %v, want ValidationErrors", pct, err)
		}
		if verrs["progress_percentage"] == "" {
			t.Fatalf("UpdateProgress(%d): missing field error, got %v", pct, verrs)
		}
	}

	if _, err := svc.UpdateProgress(7, course.ID, 50, ""); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("not enrolled: got %v, want ErrNotEnrolled", err)
	}
}

func TestUnenroll(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "cello")
	course := seedCourse(t, db, mod.ID, "Cello Basics", true)

	if _, err := svc.Unenroll(7, course.ID); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("unenroll without enrollment: got %v, want ErrNotEnrolled", err)
	}

	if _, err := svc.Enroll(7, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	title, err := svc.Unenroll(7, course.ID)
	if err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if title != "Cello Basics" {
		t.Fatalf("Unenroll: got title %q", title)
	}

	// 退课是硬删除，重新选课不应撞唯一索引
	if _, err := svc.Enroll(7, course.ID); err != nil {
		t.Fatalf("re-enroll after unenroll: %v", err)
	}

	// 已完成的课程不允许退
	if _, err := svc.UpdateProgress(7, course.ID, 100, ""); err != nil {
		t.Fatalf("UpdateProgress(100): %v", err)
	}
	if _, err := svc.Unenroll(7, course.ID); !errors.Is(err, util.ErrCourseCompleted) {
		t.Fatalf("unenroll completed: got %v, want ErrCourseCompleted", err)
	}

	// 徽章不受退课尝试影响
	var badges int64
	db.Model(&model.Badge{}).Where("user_id = ?", 7).Count(&badges)
	if badges != 1 {
		t.Fatalf("badges after unenroll attempt: got %d, want 1", badges)
	}
}

func TestGetProgressSummary(t *testing.T) {
	svc, db := newEnrollmentService(t)
	mod := seedModule(t, db, "theory")

	courses := make([]*model.Course, 3)
	for i := range courses {
		courses[i] = seedCourse(t, db, mod.ID, fmt.Sprintf("Theory %d", i+1), true)
	}

	// 空档案：零统计，completion_rate 不除零
	summary, err := svc.GetProgressSummary(7)
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Stats.TotalEnrolled != 0 || summary.Stats.CompletionRate != 0 {
		t.Fatalf("empty summary: got %+v", summary.Stats)
	}

	for _, c := range courses {
		if _, err := svc.Enroll(7, c.ID); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}
	if _, err := svc.UpdateProgress(7, courses[0].ID, 100, ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, err := svc.UpdateProgress(7, courses[1].ID, 60, ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	summary, err = svc.GetProgressSummary(7)
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	s := summary.Stats
	if s.TotalEnrolled != 3 || s.CoursesCompleted != 1 || s.CoursesStarted != 2 || s.TotalBadges != 1 {
		t.Fatalf("stats: got %+v", s)
	}
	// round(1/3*100) = 33
	if s.CompletionRate != 33 {
		t.Fatalf("completion rate: got %d, want 33", s.CompletionRate)
	}
	if len(summary.CurrentCourses) != 3 || len(summary.Badges) != 1 {
		t.Fatalf("lists: %d courses, %d badges", len(summary.CurrentCourses), len(summary.Badges))
	}
	if summary.Badges[0].CourseTitle != "Theory 1" {
		t.Fatalf("badge course: got %q", summary.Badges[0].CourseTitle)
	}

	// 2/3 → round(66.67) = 67
	if _, err := svc.UpdateProgress(7, courses[1].ID, 100, ""); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	summary, err = svc.GetProgressSummary(7)
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Stats.CompletionRate != 67 {
		t.Fatalf("completion rate: got %d, want 67", summary.Stats.CompletionRate)
	}
}

func TestGetAvailableCourses(t *testing.T) {
	svc, db := newEnrollmentService(t)
	piano := seedModule(t, db, "piano")
	guitar := seedModule(t, db, "guitar")
	enrolled := seedCourse(t, db, piano.ID, "Piano Basics", true)
	seedCourse(t, db, guitar.ID, "Guitar Basics", true)
	seedCourse(t, db, piano.ID, "Hidden Course", false)

	if _, err := svc.Enroll(7, enrolled.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	rows, err := svc.GetAvailableCourses(7, "")
	if err != nil {
		t.Fatalf("GetAvailableCourses: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("available courses: got %d rows, want 2 (inactive excluded)", len(rows))
	}
	for _, row := range rows {
		if row.ID == enrolled.ID {
			if !row.IsEnrolled || row.EnrollmentStatus != model.Started {
				t.Fatalf("enrolled row: got %+v", row)
			}
		} else if row.IsEnrolled {
			t.Fatalf("unexpected enrollment flag: %+v", row)
		}
	}

	rows, err = svc.GetAvailableCourses(7, "guitar")
	if err != nil {
		t.Fatalf("GetAvailableCourses(guitar): %v", err)
	}
	if len(rows) != 1 || rows[0].ModuleName != "guitar" {
		t.Fatalf("module filter: got %+v", rows)
	}
}
