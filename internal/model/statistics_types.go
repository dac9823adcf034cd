package model

import "time"

// UserStatistics 用户学习统计，完全由已定稿的答题记录重算得出
type UserStatistics struct {
	UserID            uint       `json:"userId"`
	Username          string     `json:"username"`
	TotalAnswered     int64      `json:"totalAnswered"`
	CorrectCount      int64      `json:"correctCount"`
	WrongCount        int64      `json:"wrongCount"`
	Accuracy          float64    `json:"accuracy"` // 百分比，answered=0 时为 0
	TotalStudyMinutes int64      `json:"totalStudyMinutes"`
	ContinuousDays    int        `json:"continuousDays"` // 连续学习天数
	WrongQuestionNum  int64      `json:"wrongQuestionCount"`
	FavoriteCount     int64      `json:"favoriteCount"`
	TotalPoints       int64      `json:"totalPoints"`
	LastStudyTime     *time.Time `json:"lastStudyTime,omitempty"`
}

// SubjectStatistics 学科维度统计
type SubjectStatistics struct {
	SubjectID      uint    `json:"subjectId"`
	SubjectName    string  `json:"subjectName"`
	AnsweredCount  int64   `json:"answeredCount"`
	CorrectCount   int64   `json:"correctCount"`
	Accuracy       float64 `json:"accuracy"`
	TotalQuestions int     `json:"totalQuestions"`
	Progress       float64 `json:"progress"`
}

// ChapterStatistics 章节维度统计
type ChapterStatistics struct {
	ChapterID      uint    `json:"chapterId"`
	ChapterName    string  `json:"chapterName"`
	AnsweredCount  int64   `json:"answeredCount"`
	CorrectCount   int64   `json:"correctCount"`
	Accuracy       float64 `json:"accuracy"`
	TotalQuestions int     `json:"totalQuestions"`
	MasteryLevel   int     `json:"masteryLevel"` // 正确率×答题完整度
}

// TrendPoint 单日答题趋势
type TrendPoint struct {
	Date          string  `json:"date"` // 2006-01-02
	AnsweredCount int64   `json:"answeredCount"`
	CorrectCount  int64   `json:"correctCount"`
	Accuracy      float64 `json:"accuracy"`
}

// StudyTrend 最近N天趋势，缺少的日期补零
type StudyTrend struct {
	Days   int          `json:"days"`
	Points []TrendPoint `json:"points"`
}

// DayStudyData 学习日历中的单日数据
type DayStudyData struct {
	Date          string  `json:"date"`
	AnsweredCount int64   `json:"answeredCount"`
	CorrectCount  int64   `json:"correctCount"`
	Accuracy      float64 `json:"accuracy"`
	StudyMinutes  int64   `json:"studyMinutes"`
}

// StudyCalendar 月度学习日历
type StudyCalendar struct {
	Year           int                     `json:"year"`
	Month          int                     `json:"month"`
	StudyData      map[string]DayStudyData `json:"studyData"`
	ContinuousDays int                     `json:"continuousDays"`
	TotalDays      int                     `json:"totalDays"`
}

// RankingMetric 排行榜指标
type RankingMetric string

const (
	RankByAnswerCount RankingMetric = "answer_count"
	RankByAccuracy    RankingMetric = "accuracy"
	RankByPoints      RankingMetric = "points"
	RankBySubject     RankingMetric = "subject"
)

// RankingItem 排行榜条目。并列名次按最早达成时间、再按用户ID排序，保证可复现。
type RankingItem struct {
	Rank          int       `json:"rank"`
	UserID        uint      `json:"userId"`
	Username      string    `json:"username"`
	RealName      string    `json:"realName,omitempty"`
	Value         int64     `json:"value"`
	Accuracy      float64   `json:"accuracy,omitempty"`
	Points        int64     `json:"points,omitempty"`
	AchievedAt    time.Time `json:"-"`
	IsCurrentUser bool      `json:"isCurrentUser"`
}

// RankingBoard 排行榜查询结果，MyRank 在未上榜时仍给出调用者名次
type RankingBoard struct {
	Metric  RankingMetric `json:"metric"`
	Items   []RankingItem `json:"items"`
	MyRank  *RankingItem  `json:"myRank,omitempty"`
	Total   int           `json:"total"`
	CacheAt time.Time     `json:"cacheAt"`
}
