package controller

import (
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// GradingController 判题结果与答题记录查询
type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// Result godoc
// @Summary 查询判题结果
// @Description 按答题记录ID查询判题结果，复核中的记录不返回标准答案
// @Tags 判题
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Success 200 {object} util.Response{data=model.GradingResult} "判题结果"
// @Failure 403 {object} util.Response "无权查看他人记录"
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/grading/records/{id} [get]
func (c *GradingController) Result(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的记录ID")
		return
	}

	result, err := c.GradingService.GetResult(user.UserID, id)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Records godoc
// @Summary 查询答题记录
// @Description 当前用户的答题记录，按时间倒序
// @Tags 判题
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "答题记录列表"
// @Router /api/grading/records [get]
func (c *GradingController) Records(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)
	records, total, err := c.GradingService.ListRecords(user.UserID, page, limit)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: records, Total: total, Page: page, Limit: limit})
}
