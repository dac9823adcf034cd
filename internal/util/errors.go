package util

import "errors"

var (
	ErrInvalidParameters          = errors.New("无效的会话参数")
	ErrEmptyQuestionSet           = errors.New("没有找到符合条件的题目")
	ErrSessionNotFound            = errors.New("会话不存在")
	ErrSessionExpired             = errors.New("会话已超时")
	ErrQuestionNotInSession       = errors.New("题目不在当前答题位置")
	ErrExternalGradingUnavailable = errors.New("AI判题服务不可用")
	ErrReviewNotFound             = errors.New("复核记录不存在")
	ErrRecordNotFound             = errors.New("答题记录不存在")
	ErrAlreadyFinalized           = errors.New("判题结果已定稿")
	ErrQuestionNotFound           = errors.New("题目不存在")
	ErrSubjectNotFound            = errors.New("学科不存在")
	ErrChapterNotFound            = errors.New("章节不存在")
	ErrPermissionDenied           = errors.New("无权访问")
)
