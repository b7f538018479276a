package controller

import (
	"errors"
	"strconv"

	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/service"
	"music_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	CatalogService *service.CatalogService
}

func NewCatalogController(catalogService *service.CatalogService) *CatalogController {
	return &CatalogController{CatalogService: catalogService}
}

// ListModules godoc
// @Summary 获取全部音乐模块
// @Description 返回模块列表，附带各模块的激活课程数
// @Tags 目录
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/modules [get]
func (c *CatalogController) ListModules(ctx *gin.Context) {
	modules, err := c.CatalogService.ListModules()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, modules)
}

// ListCourses godoc
// @Summary 课程目录
// @Description 按模块/难度/关键词过滤；指定 module 时返回平铺列表，否则按模块分组
// @Tags 目录
// @Produce json
// @Param module query string false "模块名"
// @Param level query string false "难度" Enums(beginner, intermediate, advanced)
// @Param search query string false "标题或描述关键词"
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	filter := repository.CourseFilter{
		Module: ctx.Query("module"),
		Level:  ctx.Query("level"),
		Search: ctx.Query("search"),
	}

	catalog, err := c.CatalogService.ListCourses(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	var data interface{}
	if filter.Module != "" {
		data = catalog.Flat
	} else {
		data = catalog.Grouped
	}

	util.Success(ctx, gin.H{
		"courses":       data,
		"total_courses": catalog.Total,
		"filters_applied": gin.H{
			"module": filter.Module,
			"level":  filter.Level,
			"search": filter.Search,
		},
	})
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 目录
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.CatalogService.GetCourse(uint(id))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx, "course not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, course)
}

// GetStats godoc
// @Summary 门户总览统计
// @Tags 目录
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/stats [get]
func (c *CatalogController) GetStats(ctx *gin.Context) {
	stats, err := c.CatalogService.GetStats(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
