package controller

import (
	"tiku_backend/internal/model"
	"tiku_backend/internal/service"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// PracticeController 处理刷题会话相关的API请求
type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// StartPracticeResponse 开始刷题响应
// swagger:model StartPracticeResponse
type StartPracticeResponse struct {
	Session   *model.PracticeSession `json:"session"`
	Questions []model.Question       `json:"questions"`
}

// Start godoc
// @Summary 开始刷题
// @Description 按刷题模式创建会话并返回题目序列
// @Tags 刷题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.PracticeRequest true "刷题请求"
// @Success 201 {object} util.Response{data=StartPracticeResponse} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "没有符合条件的题目"
// @Router /api/practice/start [post]
func (c *PracticeController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request model.PracticeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, questions, err := c.PracticeService.Start(ctx.Request.Context(), user.UserID, &request)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Created(ctx, StartPracticeResponse{Session: session, Questions: questions})
}

// Submit godoc
// @Summary 提交答案
// @Description 提交当前题目的答案并返回判题结果，主观题可能进入人工复核
// @Tags 刷题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param request body model.SubmitAnswerRequest true "作答内容"
// @Success 200 {object} util.Response{data=model.GradingResult} "判题结果"
// @Failure 409 {object} util.Response "题目不在当前答题位置"
// @Failure 410 {object} util.Response "会话已超时"
// @Router /api/practice/sessions/{id}/answers [post]
func (c *PracticeController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request model.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PracticeService.SubmitAnswer(ctx.Request.Context(), user.UserID, ctx.Param("id"), &request)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// SubmitBatch godoc
// @Summary 批量提交答案
// @Description 考试收卷：按序提交多题答案，单题失败不影响其余
// @Tags 刷题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Param request body model.BatchSubmitRequest true "批量作答"
// @Success 200 {object} util.Response{data=[]model.BatchItemResult} "逐项结果"
// @Router /api/practice/sessions/{id}/answers/batch [post]
func (c *PracticeController) SubmitBatch(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request model.BatchSubmitRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(request.Answers) == 0 {
		util.BadRequest(ctx, "answers不能为空")
		return
	}

	results := c.PracticeService.SubmitBatch(ctx.Request.Context(), user.UserID, ctx.Param("id"), &request)
	util.Success(ctx, results)
}

// End godoc
// @Summary 结束会话
// @Description 主动结束会话并返回汇总，重复调用返回相同汇总
// @Tags 刷题
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionSummary} "会话汇总"
// @Router /api/practice/sessions/{id}/end [post]
func (c *PracticeController) End(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.PracticeService.End(user.UserID, ctx.Param("id"))
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Get godoc
// @Summary 查询会话
// @Description 查询会话状态与当前汇总
// @Tags 刷题
// @Produce json
// @Security BearerAuth
// @Param id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionSummary} "会话汇总"
// @Router /api/practice/sessions/{id} [get]
func (c *PracticeController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.PracticeService.GetSession(user.UserID, ctx.Param("id"))
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// List godoc
// @Summary 会话历史
// @Description 分页查询用户历史会话
// @Tags 刷题
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "会话列表"
// @Router /api/practice/sessions [get]
func (c *PracticeController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)
	sessions, total, err := c.PracticeService.ListSessions(user.UserID, page, limit)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: sessions, Total: total, Page: page, Limit: limit})
}
