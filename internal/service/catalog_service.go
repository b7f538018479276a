package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"music_academy_backend/internal/model"
	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	statsCacheKey = "catalog:stats"
	statsCacheTTL = time.Minute
)

// CatalogService 模块/课程目录的读路径和管理端维护操作。
type CatalogService struct {
	ModuleRepo *repository.ModuleRepository
	CourseRepo *repository.CourseRepository
	Redis      *redis.Client
	DB         *gorm.DB
}

func NewCatalogService(
	moduleRepo *repository.ModuleRepository,
	courseRepo *repository.CourseRepository,
	rdb *redis.Client,
	db *gorm.DB,
) *CatalogService {
	return &CatalogService{
		ModuleRepo: moduleRepo,
		CourseRepo: courseRepo,
		Redis:      rdb,
		DB:         db,
	}
}

func (s *CatalogService) ListModules() ([]model.ModuleWithCount, error) {
	return s.ModuleRepo.ListWithCourseCount()
}

// ModuleGroup 按模块分组的课程目录条目
type ModuleGroup struct {
	Module  ModuleInfo     `json:"module"`
	Courses []model.Course `json:"courses"`
}

type ModuleInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// CourseCatalog 目录查询结果。指定模块过滤时 Flat 有值，
// 否则 Grouped 有值，两者互斥。
type CourseCatalog struct {
	Flat    []model.CourseWithModule
	Grouped map[string]*ModuleGroup
	Total   int
}

func (s *CatalogService) ListCourses(filter repository.CourseFilter) (*CourseCatalog, error) {
	rows, err := s.CourseRepo.List(filter)
	if err != nil {
		return nil, err
	}

	catalog := &CourseCatalog{Total: len(rows)}

	// 按模块过滤时返回平铺列表，否则按模块分组
	if filter.Module != "" {
		catalog.Flat = rows
		return catalog, nil
	}

	catalog.Grouped = make(map[string]*ModuleGroup)
	for _, row := range rows {
		group, ok := catalog.Grouped[row.ModuleName]
		if !ok {
			group = &ModuleGroup{
				Module: ModuleInfo{
					Name:        row.ModuleName,
					DisplayName: row.ModuleDisplayName,
					Icon:        row.ModuleIcon,
					Color:       row.ModuleColor,
				},
			}
			catalog.Grouped[row.ModuleName] = group
		}
		group.Courses = append(group.Courses, row.Course)
	}

	return catalog, nil
}

func (s *CatalogService) GetCourse(id uint) (*model.CourseWithModule, error) {
	row, err := s.CourseRepo.FindActiveWithModule(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return row, nil
}

// StatsOverview 门户总览统计
type StatsOverview struct {
	TotalModules   int64             `json:"total_modules"`
	TotalCourses   int64             `json:"total_courses"`
	TotalUsers     int64             `json:"total_users"`
	TotalCompleted int64             `json:"total_completed"`
	TotalBadges    int64             `json:"total_badges"`
	CoursesByModule []ModuleCourseCount `json:"courses_by_module"`
}

type ModuleCourseCount struct {
	Module string `json:"module"`
	Count  int64  `json:"count"`
	Color  string `json:"color"`
}

// GetStats 总览统计，Redis 短 TTL 缓存，缓存不可用时直接回源
func (s *CatalogService) GetStats(ctx context.Context) (*StatsOverview, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats StatsOverview
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	var stats StatsOverview
	if err := s.DB.Model(&model.Module{}).Count(&stats.TotalModules).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Course{}).Where("is_active = ?", true).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Enrollment{}).Where("status = ?", model.Completed).Count(&stats.TotalCompleted).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Badge{}).Count(&stats.TotalBadges).Error; err != nil {
		return nil, err
	}

	err := s.DB.Model(&model.Module{}).
		Select(`modules.display_name AS module,
			COUNT(c.id) AS count,
			modules.color`).
		Joins("LEFT JOIN courses c ON modules.id = c.module_id AND c.is_active = ?", true).
		Group("modules.id, modules.display_name, modules.color").
		Order("modules.id").
		Scan(&stats.CoursesByModule).Error
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(&stats); err == nil {
			s.Redis.Set(ctx, statsCacheKey, data, statsCacheTTL)
		}
	}

	return &stats, nil
}

// CourseRequest 管理端创建课程
type CourseRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ModuleID        uint   `json:"module_id"`
	Level           string `json:"level"`
	DurationMinutes int    `json:"duration_minutes"`
	InstructorName  string `json:"instructor_name"`
	VideoURL        string `json:"video_url"`
	BadgeImage      string `json:"badge_image"`
}

// CreateCourse 校验失败返回字段级错误表；order_in_module 取模块内最大值+1
func (s *CatalogService) CreateCourse(req CourseRequest) (*model.Course, error) {
	errs := util.ValidationErrors{}

	if len(strings.TrimSpace(req.Title)) < 3 {
		errs["title"] = "title must be at least 3 characters"
	}
	if !model.CourseLevel(req.Level).Valid() {
		errs["level"] = "level must be one of beginner, intermediate, advanced"
	}
	if req.DurationMinutes < 1 {
		errs["duration_minutes"] = "duration_minutes must be at least 1"
	}
	if strings.TrimSpace(req.InstructorName) == "" {
		errs["instructor_name"] = "instructor_name is required"
	}

	if req.ModuleID == 0 {
		errs["module_id"] = "module_id is required"
	} else {
		exists, err := s.ModuleRepo.Exists(req.ModuleID)
		if err != nil {
			return nil, err
		}
		if !exists {
			errs["module_id"] = "module does not exist"
		}
	}

	if errs.Any() {
		return nil, errs
	}

	maxOrder, err := s.CourseRepo.MaxOrderInModule(req.ModuleID)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		ModuleID:        req.ModuleID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Level:           model.CourseLevel(req.Level),
		DurationMinutes: req.DurationMinutes,
		InstructorName:  strings.TrimSpace(req.InstructorName),
		VideoURL:        req.VideoURL,
		BadgeImage:      req.BadgeImage,
		OrderInModule:   maxOrder + 1,
		IsActive:        true,
	}

	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

// CourseUpdateRequest 部分更新，nil 字段不修改，未知字段在绑定时被忽略
type CourseUpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Level           *string `json:"level"`
	DurationMinutes *int    `json:"duration_minutes"`
	InstructorName  *string `json:"instructor_name"`
	VideoURL        *string `json:"video_url"`
	BadgeImage      *string `json:"badge_image"`
	IsActive        *bool   `json:"is_active"`
}

func (s *CatalogService) UpdateCourse(id uint, req CourseUpdateRequest) (*model.Course, error) {
	if _, err := s.CourseRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	errs := util.ValidationErrors{}
	fields := map[string]interface{}{}

	if req.Title != nil {
		if len(strings.TrimSpace(*req.Title)) < 3 {
			errs["title"] = "title must be at least 3 characters"
		} else {
			fields["title"] = strings.TrimSpace(*req.Title)
		}
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Level != nil {
		if !model.CourseLevel(*req.Level).Valid() {
			errs["level"] = "level must be one of beginner, intermediate, advanced"
		} else {
			fields["level"] = *req.Level
		}
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 1 {
			errs["duration_minutes"] = "duration_minutes must be at least 1"
		} else {
			fields["duration_minutes"] = *req.DurationMinutes
		}
	}
	if req.InstructorName != nil {
		if strings.TrimSpace(*req.InstructorName) == "" {
			errs["instructor_name"] = "instructor_name is required"
		} else {
			fields["instructor_name"] = strings.TrimSpace(*req.InstructorName)
		}
	}
	if req.VideoURL != nil {
		fields["video_url"] = *req.VideoURL
	}
	if req.BadgeImage != nil {
		fields["badge_image"] = *req.BadgeImage
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if errs.Any() {
		return nil, errs
	}
	if len(fields) == 0 {
		return nil, util.ValidationErrors{"fields": "at least one field is required"}
	}

	if err := s.CourseRepo.UpdateFields(id, fields); err != nil {
		return nil, err
	}

	return s.CourseRepo.FindByID(id)
}
