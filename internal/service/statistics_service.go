package service

import (
	"errors"
	"time"

	"tiku_backend/internal/config"
	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// StatisticsService 学习统计。所有指标从已定稿的答题记录重算，
// 复核中的记录不计入，复核定稿后下一次查询自然反映出来。
type StatisticsService struct {
	Config       *config.Config
	UserRepo     *repository.UserRepository
	AnswerRepo   *repository.AnswerRecordRepository
	WrongRepo    *repository.WrongQuestionRepository
	FavoriteRepo *repository.FavoriteRepository
	SubjectRepo  *repository.SubjectRepository
	ChapterRepo  *repository.ChapterRepository

	Now func() time.Time
}

func NewStatisticsService(
	cfg *config.Config,
	userRepo *repository.UserRepository,
	answerRepo *repository.AnswerRecordRepository,
	wrongRepo *repository.WrongQuestionRepository,
	favoriteRepo *repository.FavoriteRepository,
	subjectRepo *repository.SubjectRepository,
	chapterRepo *repository.ChapterRepository,
) *StatisticsService {
	return &StatisticsService{
		Config:       cfg,
		UserRepo:     userRepo,
		AnswerRepo:   answerRepo,
		WrongRepo:    wrongRepo,
		FavoriteRepo: favoriteRepo,
		SubjectRepo:  subjectRepo,
		ChapterRepo:  chapterRepo,
		Now:          time.Now,
	}
}

// GetUserStatistics 用户总览
func (s *StatisticsService) GetUserStatistics(userID uint) (*model.UserStatistics, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	total, correct, err := s.AnswerRepo.CountFinalizedByUser(userID)
	if err != nil {
		return nil, err
	}

	seconds, err := s.AnswerRepo.SumTimeSpent(userID)
	if err != nil {
		return nil, err
	}

	wrongCounts, err := s.WrongRepo.CountByStatus(userID)
	if err != nil {
		return nil, err
	}
	wrongTotal := wrongCounts[model.WrongStatusWrong] + wrongCounts[model.WrongStatusRepeatedWrong]

	favCount, err := s.FavoriteRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	streak, err := s.continuousDays(userID)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStatistics{
		UserID:            user.ID,
		Username:          user.Username,
		TotalAnswered:     total,
		CorrectCount:      correct,
		WrongCount:        total - correct,
		TotalStudyMinutes: seconds / 60,
		ContinuousDays:    streak,
		WrongQuestionNum:  wrongTotal,
		FavoriteCount:     favCount,
		TotalPoints:       correct * int64(s.Config.Grading.PointsPerCorrect),
		LastStudyTime:     user.LastStudyAt,
	}
	if total > 0 {
		stats.Accuracy = float64(correct) / float64(total) * 100
	}
	return stats, nil
}

// GetSubjectStatistics 学科维度统计
func (s *StatisticsService) GetSubjectStatistics(userID, subjectID uint) (*model.SubjectStatistics, error) {
	subject, err := s.SubjectRepo.FindByID(subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}

	total, correct, err := s.AnswerRepo.CountFinalizedBySubject(userID, subjectID)
	if err != nil {
		return nil, err
	}

	stats := &model.SubjectStatistics{
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		AnsweredCount:  total,
		CorrectCount:   correct,
		TotalQuestions: subject.QuestionCount,
	}
	if total > 0 {
		stats.Accuracy = float64(correct) / float64(total) * 100
	}
	if subject.QuestionCount > 0 {
		stats.Progress = float64(total) / float64(subject.QuestionCount) * 100
		if stats.Progress > 100 {
			stats.Progress = 100
		}
	}
	return stats, nil
}

// GetChapterStatistics 学科下各章节的掌握情况
func (s *StatisticsService) GetChapterStatistics(userID, subjectID uint) ([]model.ChapterStatistics, error) {
	chapters, err := s.ChapterRepo.ListBySubject(subjectID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChapterStatistics, 0, len(chapters))
	for _, c := range chapters {
		total, correct, err := s.AnswerRepo.CountFinalizedByChapter(userID, c.ID)
		if err != nil {
			return nil, err
		}
		cs := model.ChapterStatistics{
			ChapterID:      c.ID,
			ChapterName:    c.Name,
			AnsweredCount:  total,
			CorrectCount:   correct,
			TotalQuestions: c.QuestionCount,
		}
		if total > 0 {
			cs.Accuracy = float64(correct) / float64(total) * 100
		}
		// 掌握度 = 正确率 × 练习覆盖度
		if c.QuestionCount > 0 && total > 0 {
			coverage := float64(total) / float64(c.QuestionCount)
			if coverage > 1 {
				coverage = 1
			}
			cs.MasteryLevel = int(cs.Accuracy * coverage)
		}
		out = append(out, cs)
	}
	return out, nil
}

// GetTrend 最近N天答题趋势，没有记录的日期补零
func (s *StatisticsService) GetTrend(userID uint, days int) (*model.StudyTrend, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	now := s.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)

	rows, err := s.AnswerRepo.CountFinalizedByDay(userID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DayCount, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	trend := &model.StudyTrend{Days: days, Points: make([]model.TrendPoint, 0, days)}
	for d := 0; d < days; d++ {
		date := from.AddDate(0, 0, d).Format(dateLayout)
		p := model.TrendPoint{Date: date}
		if row, ok := byDay[date]; ok {
			p.AnsweredCount = row.Total
			p.CorrectCount = row.Correct
			if row.Total > 0 {
				p.Accuracy = float64(row.Correct) / float64(row.Total) * 100
			}
		}
		trend.Points = append(trend.Points, p)
	}
	return trend, nil
}

// GetCalendar 月度学习日历
func (s *StatisticsService) GetCalendar(userID uint, year, month int) (*model.StudyCalendar, error) {
	if year <= 0 || month < 1 || month > 12 {
		return nil, util.ErrInvalidParameters
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, 0)

	rows, err := s.AnswerRepo.CountFinalizedByDay(userID, from, to)
	if err != nil {
		return nil, err
	}

	calendar := &model.StudyCalendar{
		Year:      year,
		Month:     month,
		StudyData: make(map[string]model.DayStudyData, len(rows)),
	}
	for _, r := range rows {
		day := model.DayStudyData{
			Date:          r.Day,
			AnsweredCount: r.Total,
			CorrectCount:  r.Correct,
			StudyMinutes:  r.Seconds / 60,
		}
		if r.Total > 0 {
			day.Accuracy = float64(r.Correct) / float64(r.Total) * 100
		}
		calendar.StudyData[r.Day] = day
	}
	calendar.TotalDays = len(calendar.StudyData)

	streak, err := s.continuousDays(userID)
	if err != nil {
		return nil, err
	}
	calendar.ContinuousDays = streak
	return calendar, nil
}

// continuousDays 从今天（或昨天）往前数连续有学习记录的天数
func (s *StatisticsService) continuousDays(userID uint) (int, error) {
	days, err := s.AnswerRepo.ListStudyDays(userID, 366)
	if err != nil || len(days) == 0 {
		return 0, err
	}

	now := s.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// 今天还没刷题不打断连续纪录，从昨天起算
	expect := today
	first, err := time.ParseInLocation(dateLayout, days[0], now.Location())
	if err != nil {
		return 0, err
	}
	if !first.Equal(today) {
		expect = today.AddDate(0, 0, -1)
	}

	streak := 0
	for _, d := range days {
		day, err := time.ParseInLocation(dateLayout, d, now.Location())
		if err != nil {
			return 0, err
		}
		if !day.Equal(expect) {
			break
		}
		streak++
		expect = expect.AddDate(0, 0, -1)
	}
	return streak, nil
}
