package controller

import (
	"errors"

	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContentController 学科、章节、题目的只读查询入口。
// 内容编辑属于内容服务，引擎只暴露刷题所需的读视图。
type ContentController struct {
	SubjectRepo  *repository.SubjectRepository
	ChapterRepo  *repository.ChapterRepository
	QuestionRepo *repository.QuestionRepository
}

func NewContentController(
	subjectRepo *repository.SubjectRepository,
	chapterRepo *repository.ChapterRepository,
	questionRepo *repository.QuestionRepository,
) *ContentController {
	return &ContentController{
		SubjectRepo:  subjectRepo,
		ChapterRepo:  chapterRepo,
		QuestionRepo: questionRepo,
	}
}

// Subjects godoc
// @Summary 学科列表
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Subject} "学科列表"
// @Router /api/subjects [get]
func (c *ContentController) Subjects(ctx *gin.Context) {
	subjects, err := c.SubjectRepo.ListActive()
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// Chapters godoc
// @Summary 学科章节列表
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response{data=[]model.Chapter} "章节列表"
// @Router /api/subjects/{id}/chapters [get]
func (c *ContentController) Chapters(ctx *gin.Context) {
	subjectID, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的学科ID")
		return
	}
	chapters, err := c.ChapterRepo.ListBySubject(subjectID)
	if err != nil {
		fail(ctx, err)
		return
	}
	util.Success(ctx, chapters)
}

// Question godoc
// @Summary 题目详情
// @Description 答案字段不返回，判题定稿后通过判题结果查看答案
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question} "题目"
// @Router /api/questions/{id} [get]
func (c *ContentController) Question(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "无效的题目ID")
		return
	}
	question, err := c.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(ctx, util.ErrQuestionNotFound)
			return
		}
		fail(ctx, err)
		return
	}
	util.Success(ctx, question)
}
