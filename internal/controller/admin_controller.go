package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"music_academy_backend/internal/service"
	"music_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController 管理端：课程维护与学生总览
type AdminController struct {
	CatalogService *service.CatalogService
	UserService    *service.UserService
	StorageService *service.StorageService
}

func NewAdminController(
	catalogService *service.CatalogService,
	userService *service.UserService,
	storageService *service.StorageService,
) *AdminController {
	return &AdminController{
		CatalogService: catalogService,
		UserService:    userService,
		StorageService: storageService,
	}
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "字段级校验错误表"
// @Router /api/admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CatalogService.CreateCourse(req)
	if err != nil {
		var verrs util.ValidationErrors
		if errors.As(err, &verrs) {
			util.ValidationFailed(ctx, verrs)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Description 只允许白名单字段，至少携带一个字段
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param body body service.CourseUpdateRequest true "要更新的字段"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{id} [put]
func (c *AdminController) UpdateCourse(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.CourseUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CatalogService.UpdateCourse(uint(id), req)
	if err != nil {
		var verrs util.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			util.ValidationFailed(ctx, verrs)
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx, "course not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// UploadCourseVideo godoc
// @Summary 上传课程视频
// @Description 存入配置的存储后端，并用 ffprobe 探测时长供建课预填
// @Tags 管理
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "视频文件"
// @Success 200 {object} util.Response
// @Router /api/admin/courses/upload-video [post]
func (c *AdminController) UploadCourseVideo(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("video")
	if err != nil {
		util.BadRequest(ctx, "video file is required")
		return
	}

	// 先落临时文件，ffprobe 需要路径
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("course-video-%d%s", time.Now().UnixNano(), filepath.Ext(fileHeader.Filename)))
	if err := ctx.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	info, err := util.GetVideoInfo(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "unreadable video file")
		return
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	filename := fmt.Sprintf("videos/%d-%s", time.Now().Unix(), filepath.Base(fileHeader.Filename))
	url, err := c.StorageService.Upload(ctx.Request.Context(), filename, src, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"video_url":        url,
		"duration_minutes": info.DurationMinutes(),
		"width":            info.Width,
		"height":           info.Height,
	})
}

// ListStudents godoc
// @Summary 学生总览
// @Description 学生及其选课数、平均进度
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/students [get]
func (c *AdminController) ListStudents(ctx *gin.Context) {
	students, err := c.UserService.ListStudents()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, students)
}
