package controller

import (
	"time"

	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// StatisticsController 处理学习统计相关的API请求
type StatisticsController struct {
	StatisticsService *service.StatisticsService
}

func NewStatisticsController(statisticsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{StatisticsService: statisticsService}
}

// User godoc
// @Summary 用户学习总览
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.UserStatistics} "总览"
// @Router /api/statistics/user [get]
func (c *StatisticsController) User(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.StatisticsService.GetUserStatistics(user.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Subject godoc
// @Summary 学科统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response{data=model.SubjectStatistics} "学科统计"
// @Router /api/statistics/subjects/{id} [get]
func (c *StatisticsController) Subject(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subjectID, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的学科ID")
		return
	}

	stats, err := c.StatisticsService.GetSubjectStatistics(user.UserID, subjectID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Chapters godoc
// @Summary 章节掌握情况
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response{data=[]model.ChapterStatistics} "章节统计"
// @Router /api/statistics/subjects/{id}/chapters [get]
func (c *StatisticsController) Chapters(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subjectID, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的学科ID")
		return
	}

	stats, err := c.StatisticsService.GetChapterStatistics(user.UserID, subjectID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Trend godoc
// @Summary 答题趋势
// @Description 最近N天趋势，没有记录的日期补零
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param days query int false "天数，默认7，最大90"
// @Success 200 {object} util.Response{data=model.StudyTrend} "趋势"
// @Router /api/statistics/trend [get]
func (c *StatisticsController) Trend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	trend, err := c.StatisticsService.GetTrend(user.UserID, queryInt(ctx, "days", 7))
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, trend)
}

// Calendar godoc
// @Summary 学习日历
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份，默认今年"
// @Param month query int false "月份，默认本月"
// @Success 200 {object} util.Response{data=model.StudyCalendar} "日历"
// @Router /api/statistics/calendar [get]
func (c *StatisticsController) Calendar(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	now := time.Now()
	year := queryInt(ctx, "year", now.Year())
	month := queryInt(ctx, "month", int(now.Month()))

	calendar, err := c.StatisticsService.GetCalendar(user.UserID, year, month)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, calendar)
}
