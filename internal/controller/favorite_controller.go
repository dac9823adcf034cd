package controller

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// FavoriteController 处理题目收藏相关的API请求
type FavoriteController struct {
	FavoriteService *service.FavoriteService
}

func NewFavoriteController(favoriteService *service.FavoriteService) *FavoriteController {
	return &FavoriteController{FavoriteService: favoriteService}
}

// Add godoc
// @Summary 收藏题目
// @Description 重复收藏只更新分类和备注
// @Tags 收藏
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.FavoriteRequest true "收藏请求"
// @Success 200 {object} util.Response{data=model.Favorite} "收藏条目"
// @Router /api/favorites [post]
func (c *FavoriteController) Add(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request model.FavoriteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	fav, err := c.FavoriteService.Add(user.UserID, &request)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, fav)
}

// Remove godoc
// @Summary 取消收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/favorites/{questionId} [delete]
func (c *FavoriteController) Remove(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionID, ok := paramUint(ctx, "questionId")
	if !ok {
		util.BadRequest(ctx, "无效的题目ID")
		return
	}

	if err := c.FavoriteService.Remove(user.UserID, questionID); err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Check godoc
// @Summary 查询是否已收藏
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response{data=map[string]bool} "收藏状态"
// @Router /api/favorites/{questionId}/check [get]
func (c *FavoriteController) Check(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionID, ok := paramUint(ctx, "questionId")
	if !ok {
		util.BadRequest(ctx, "无效的题目ID")
		return
	}

	favorited, err := c.FavoriteService.Check(user.UserID, questionID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"favorited": favorited})
}

// List godoc
// @Summary 收藏列表
// @Tags 收藏
// @Produce json
// @Security BearerAuth
// @Param category query string false "收藏分类"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "收藏列表"
// @Router /api/favorites [get]
func (c *FavoriteController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)
	views, total, err := c.FavoriteService.List(user.UserID, ctx.Query("category"), page, limit)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}
