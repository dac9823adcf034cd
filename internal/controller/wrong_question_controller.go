package controller

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// WrongQuestionController 处理错题本相关的API请求
type WrongQuestionController struct {
	WrongQuestionService *service.WrongQuestionService
}

func NewWrongQuestionController(wrongQuestionService *service.WrongQuestionService) *WrongQuestionController {
	return &WrongQuestionController{WrongQuestionService: wrongQuestionService}
}

// List godoc
// @Summary 错题列表
// @Description 查询未移除的错题，支持按学科、章节、状态过滤
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Param subjectId query int false "学科ID"
// @Param chapterId query int false "章节ID"
// @Param status query string false "错题状态" Enums(WRONG, REPEATED_WRONG, MASTERED)
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "错题列表"
// @Router /api/wrong-questions [get]
func (c *WrongQuestionController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := repository.WrongFilter{
		SubjectID: queryUint(ctx, "subjectId"),
		ChapterID: queryUint(ctx, "chapterId"),
		Status:    model.WrongStatus(ctx.Query("status")),
	}
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)

	views, total, err := c.WrongQuestionService.List(user.UserID, filter, page, limit)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// MarkMastered godoc
// @Summary 标记已掌握
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/wrong-questions/{questionId}/master [post]
func (c *WrongQuestionController) MarkMastered(ctx *gin.Context) {
	c.mutate(ctx, c.WrongQuestionService.MarkMastered)
}

// Remove godoc
// @Summary 移除错题
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/wrong-questions/{questionId} [delete]
func (c *WrongQuestionController) Remove(ctx *gin.Context) {
	c.mutate(ctx, c.WrongQuestionService.Remove)
}

// Restore godoc
// @Summary 恢复已移除的错题
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/wrong-questions/{questionId}/restore [post]
func (c *WrongQuestionController) Restore(ctx *gin.Context) {
	c.mutate(ctx, c.WrongQuestionService.Restore)
}

func (c *WrongQuestionController) mutate(ctx *gin.Context, op func(userID, questionID uint) error) {
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

	if err := op(user.UserID, questionID); err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Stats godoc
// @Summary 错题本概览
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.WrongQuestionStats} "概览"
// @Router /api/wrong-questions/stats [get]
func (c *WrongQuestionController) Stats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.WrongQuestionService.Stats(user.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
