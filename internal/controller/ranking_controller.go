package controller

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RankingController 处理排行榜相关的API请求
type RankingController struct {
	RankingService *service.RankingService
}

func NewRankingController(rankingService *service.RankingService) *RankingController {
	return &RankingController{RankingService: rankingService}
}

// Board godoc
// @Summary 排行榜
// @Description 按指标查询榜单，未上榜时仍返回调用者名次
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param metric query string false "榜单指标" Enums(answer_count, accuracy, points, subject) default(answer_count)
// @Param subjectId query int false "学科ID，metric=subject 时必填"
// @Success 200 {object} util.Response{data=model.RankingBoard} "榜单"
// @Router /api/rankings [get]
func (c *RankingController) Board(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	metric := model.RankingMetric(ctx.DefaultQuery("metric", string(model.RankByAnswerCount)))
	board, err := c.RankingService.GetBoard(ctx.Request.Context(), metric, queryUint(ctx, "subjectId"), user.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, board)
}
