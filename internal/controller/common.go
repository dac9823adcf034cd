package controller

import (
	"errors"
	"net/http"
	"strconv"

	"tiku_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// fail 业务错误到HTTP状态码的统一映射
func fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidParameters):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrEmptyQuestionSet):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrReviewNotFound),
		errors.Is(err, util.ErrRecordNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrSubjectNotFound),
		errors.Is(err, util.ErrChapterNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrSessionExpired):
		util.Error(ctx, http.StatusGone, err.Error())
	case errors.Is(err, util.ErrQuestionNotInSession),
		errors.Is(err, util.ErrAlreadyFinalized):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(ctx.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryUint(ctx *gin.Context, key string) uint {
	v, err := strconv.ParseUint(ctx.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func paramUint(ctx *gin.Context, key string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(key), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
