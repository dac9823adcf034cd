package controller

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ReviewController 处理AI判题人工复核的API请求，
// 路由层已通过角色中间件限定教师/管理员访问
type ReviewController struct {
	ReviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

// BatchApproveRequest 批量采纳AI评分请求
// swagger:model BatchApproveRequest
type BatchApproveRequest struct {
	RecordIDs []uint `json:"recordIds" binding:"required"`
}

func reviewer(ctx *gin.Context) *util.Claims {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil
	}
	return user
}

// ListPending godoc
// @Summary 待复核队列
// @Description 低置信或判题失败的记录，先进先出
// @Tags 复核
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "待复核列表"
// @Router /api/review/pending [get]
func (c *ReviewController) ListPending(ctx *gin.Context) {
	if reviewer(ctx) == nil {
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)
	records, total, err := c.ReviewService.ListPending(page, limit)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: records, Total: total, Page: page, Limit: limit})
}

// Confirm godoc
// @Summary 复核定稿
// @Description 给出最终得分，写入后不可再修改；重复确认返回首次定稿的结果
// @Tags 复核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "复核记录ID"
// @Param request body model.ConfirmReviewRequest true "最终得分"
// @Success 200 {object} util.Response{data=model.AiGradingRecord} "已定稿记录"
// @Failure 400 {object} util.Response "得分超出范围"
// @Router /api/review/{id}/confirm [post]
func (c *ReviewController) Confirm(ctx *gin.Context) {
	user := reviewer(ctx)
	if user == nil {
		return
	}

	id, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的记录ID")
		return
	}

	var request model.ConfirmReviewRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.ReviewService.Confirm(user.UserID, id, &request)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// BatchApprove godoc
// @Summary 批量采纳AI评分
// @Description 将AI给分直接作为最终得分，已定稿的条目跳过
// @Tags 复核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BatchApproveRequest true "记录ID列表"
// @Success 200 {object} util.Response{data=map[string]int} "采纳数量"
// @Router /api/review/batch-approve [post]
func (c *ReviewController) BatchApprove(ctx *gin.Context) {
	user := reviewer(ctx)
	if user == nil {
		return
	}

	var request BatchApproveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	approved, err := c.ReviewService.BatchApprove(user.UserID, request.RecordIDs)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"approved": approved})
}

// Stats godoc
// @Summary 复核队列概览
// @Tags 复核
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=repository.ReviewStats} "概览"
// @Router /api/review/stats [get]
func (c *ReviewController) Stats(ctx *gin.Context) {
	if reviewer(ctx) == nil {
		return
	}

	stats, err := c.ReviewService.Stats()
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
