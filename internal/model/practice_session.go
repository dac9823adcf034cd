package model

import (
	"encoding/json"
	"time"
)

type PracticeMode string

const (
	ModeSequential     PracticeMode = "SEQUENTIAL"      // 顺序刷题
	ModeRandom         PracticeMode = "RANDOM"          // 随机刷题
	ModeChapter        PracticeMode = "CHAPTER"         // 章节练习
	ModeExam           PracticeMode = "EXAM"            // 考试模拟
	ModeWrongQuestion  PracticeMode = "WRONG_QUESTION"  // 错题强化
	ModeFavorite       PracticeMode = "FAVORITE"        // 收藏专练
	ModeChallenge      PracticeMode = "CHALLENGE"       // 闯关模式
	ModeTimed          PracticeMode = "TIMED"           // 限时挑战
	ModeSmartRecommend PracticeMode = "SMART_RECOMMEND" // 智能推荐
)

func (m PracticeMode) Valid() bool {
	switch m {
	case ModeSequential, ModeRandom, ModeChapter, ModeExam, ModeWrongQuestion,
		ModeFavorite, ModeChallenge, ModeTimed, ModeSmartRecommend:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionCreated    SessionStatus = "CREATED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionExpired    SessionStatus = "EXPIRED"
	SessionAbandoned  SessionStatus = "ABANDONED"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionExpired || s == SessionAbandoned
}

// PracticeSession 刷题会话。进度指针只能由提交答案推进，终态后只读。
// swagger:model PracticeSession
type PracticeSession struct {
	UUIDBase
	UserID      uint          `gorm:"index;not null" json:"userId"`
	Mode        PracticeMode  `gorm:"size:20;not null" json:"mode"`
	SubjectID   uint          `gorm:"index" json:"subjectId"`
	ChapterID   uint          `json:"chapterId,omitempty"`
	QuestionIDs string        `gorm:"type:json;not null" json:"-"`
	TotalCount  int           `json:"totalCount"`
	Progress    int           `gorm:"default:0" json:"progress"`
	Status      SessionStatus `gorm:"size:20;index;default:'CREATED'" json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`

	// 模式附加参数
	ExamDuration        int    `json:"examDuration,omitempty"`        // 考试时长（分钟）
	TimePerQuestion     int    `json:"timePerQuestion,omitempty"`     // 每题限时（秒）
	ChallengeLevel      int    `json:"challengeLevel,omitempty"`      // 闯关关卡
	PassRequiredCorrect int    `json:"passRequiredCorrect,omitempty"` // 通关所需答对数
	Tip                 string `gorm:"size:255" json:"tip,omitempty"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}

// Questions 反序列化题目ID序列
func (s *PracticeSession) Questions() []uint {
	var ids []uint
	if s.QuestionIDs == "" {
		return ids
	}
	_ = json.Unmarshal([]byte(s.QuestionIDs), &ids)
	return ids
}

// SetQuestions 序列化题目ID序列
func (s *PracticeSession) SetQuestions(ids []uint) {
	data, _ := json.Marshal(ids)
	s.QuestionIDs = string(data)
	s.TotalCount = len(ids)
}

// TimeBudget 会话总时间预算，0 表示不限时
func (s *PracticeSession) TimeBudget() time.Duration {
	switch s.Mode {
	case ModeExam:
		return time.Duration(s.ExamDuration) * time.Minute
	case ModeTimed:
		return time.Duration(s.TimePerQuestion*s.TotalCount) * time.Second
	}
	return 0
}

// ExpiredAt 返回会话在给定时刻是否已超时
func (s *PracticeSession) ExpiredAt(now time.Time) bool {
	budget := s.TimeBudget()
	if budget <= 0 {
		return false
	}
	return now.Sub(s.StartedAt) > budget
}

// CurrentQuestion 当前进度指针指向的题目ID，进度走完返回 0
func (s *PracticeSession) CurrentQuestion() (uint, bool) {
	ids := s.Questions()
	if s.Progress < 0 || s.Progress >= len(ids) {
		return 0, false
	}
	return ids[s.Progress], true
}
