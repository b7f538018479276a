package controller

import (
	"errors"
	"fmt"
	"strconv"

	"music_academy_backend/internal/service"
	"music_academy_backend/internal/util"
	"music_academy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

func courseIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("courseId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return 0, false
	}
	return uint(id), true
}

// Enroll godoc
// @Summary 选课
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response "课程不存在或未激活"
// @Failure 409 {object} util.Response "已选过该课程"
// @Router /api/students/enroll/{courseId} [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	result, err := c.EnrollmentService.Enroll(user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			monitoring.EnrollmentCounter.WithLabelValues("enroll", "not_found").Inc()
			util.NotFound(ctx, "course not found")
		case errors.Is(err, util.ErrAlreadyEnrolled):
			monitoring.EnrollmentCounter.WithLabelValues("enroll", "conflict").Inc()
			util.Conflict(ctx, err.Error())
		default:
			monitoring.EnrollmentCounter.WithLabelValues("enroll", "error").Inc()
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.EnrollmentCounter.WithLabelValues("enroll", "ok").Inc()
	util.CreatedWithMessage(ctx, fmt.Sprintf("enrolled in %q", result.CourseTitle), result)
}

// UpdateProgressRequest 进度更新请求
// swagger:model UpdateProgressRequest
type UpdateProgressRequest struct {
	ProgressPercentage *int   `json:"progress_percentage" binding:"required"`
	Notes              string `json:"notes"`
}

// UpdateProgress godoc
// @Summary 更新课程进度
// @Description 进度到 100 时自动转为已完成并发放徽章
// @Tags 学生
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Param body body UpdateProgressRequest true "进度"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "进度不在 0-100"
// @Failure 404 {object} util.Response "未选该课程"
// @Router /api/students/progress/{courseId} [put]
func (c *EnrollmentController) UpdateProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.EnrollmentService.UpdateProgress(user.UserID, courseID, *req.ProgressPercentage, req.Notes)
	if err != nil {
		var verrs util.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			util.ValidationFailed(ctx, verrs)
		case errors.Is(err, util.ErrNotEnrolled):
			util.NotFound(ctx, "not enrolled in this course")
		default:
			monitoring.EnrollmentCounter.WithLabelValues("update_progress", "error").Inc()
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.EnrollmentCounter.WithLabelValues("update_progress", "ok").Inc()
	message := "progress updated"
	if result.BadgeEarned {
		message = "progress updated, badge earned"
	}
	util.SuccessWithMessage(ctx, message, result)
}

// Unenroll godoc
// @Summary 退课
// @Description 已完成的课程不允许退
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "课程已完成"
// @Failure 404 {object} util.Response "未选该课程"
// @Router /api/students/enroll/{courseId} [delete]
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	title, err := c.EnrollmentService.Unenroll(user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled):
			util.NotFound(ctx, "not enrolled in this course")
		case errors.Is(err, util.ErrCourseCompleted):
			monitoring.EnrollmentCounter.WithLabelValues("unenroll", "conflict").Inc()
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.EnrollmentCounter.WithLabelValues("unenroll", "ok").Inc()
	util.SuccessWithMessage(ctx, fmt.Sprintf("unenrolled from %q", title), nil)
}

// GetProgress godoc
// @Summary 学习进度总览
// @Description 统计、当前课程（按最近访问倒序）、徽章（按获得时间倒序）
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/students/progress [get]
func (c *EnrollmentController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.EnrollmentService.GetProgressSummary(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// GetAvailableCourses godoc
// @Summary 可选课程列表
// @Description 激活课程及当前用户的选课状态，可按模块过滤
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param module query string false "模块名"
// @Success 200 {object} util.Response
// @Router /api/students/available-courses [get]
func (c *EnrollmentController) GetAvailableCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.EnrollmentService.GetAvailableCourses(user.UserID, ctx.Query("module"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}
