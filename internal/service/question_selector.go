package service

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"tiku_backend/internal/model"
	"tiku_backend/internal/repository"
	"tiku_backend/internal/util"
)

const (
	defaultCount = 10
	maxCount     = 100
)

// Selection 选题结果
type Selection struct {
	QuestionIDs         []uint
	ChallengeLevel      int
	PassRequiredCorrect int
	Tip                 string
}

// QuestionSelector 九种刷题模式的选题策略。
// 随机源在构造时注入种子，同一种子下选题序列可复现。
type QuestionSelector struct {
	QuestionRepo *repository.QuestionRepository
	AnswerRepo   *repository.AnswerRecordRepository
	WrongRepo    *repository.WrongQuestionRepository
	FavoriteRepo *repository.FavoriteRepository
	ChapterRepo  *repository.ChapterRepository

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionSelector(
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRecordRepository,
	wrongRepo *repository.WrongQuestionRepository,
	favoriteRepo *repository.FavoriteRepository,
	chapterRepo *repository.ChapterRepository,
) *QuestionSelector {
	return NewQuestionSelectorWithSeed(questionRepo, answerRepo, wrongRepo, favoriteRepo, chapterRepo,
		time.Now().UnixNano())
}

func NewQuestionSelectorWithSeed(
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRecordRepository,
	wrongRepo *repository.WrongQuestionRepository,
	favoriteRepo *repository.FavoriteRepository,
	chapterRepo *repository.ChapterRepository,
	seed int64,
) *QuestionSelector {
	return &QuestionSelector{
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
		WrongRepo:    wrongRepo,
		FavoriteRepo: favoriteRepo,
		ChapterRepo:  chapterRepo,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Select 按模式选题。返回的ID序列即会话的答题顺序。
func (s *QuestionSelector) Select(userID uint, req *model.PracticeRequest) (*Selection, error) {
	count := req.Count
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	switch req.Mode {
	case model.ModeSequential:
		return s.selectSequential(userID, req, count)
	case model.ModeRandom:
		return s.selectRandom(req, count)
	case model.ModeTimed:
		return s.selectTimed(req, count)
	case model.ModeChapter:
		return s.selectChapter(req, count)
	case model.ModeExam:
		return s.selectExam(req, count)
	case model.ModeWrongQuestion:
		return s.selectWrong(userID, req, count)
	case model.ModeFavorite:
		return s.selectFavorite(userID, req, count)
	case model.ModeChallenge:
		return s.selectChallenge(req)
	case model.ModeSmartRecommend:
		return s.selectSmart(userID, req, count)
	}
	return nil, util.ErrInvalidParameters
}

func (s *QuestionSelector) candidates(req *model.PracticeRequest) ([]model.Question, error) {
	return s.QuestionRepo.ListCandidates(repository.QuestionFilter{
		SubjectID:  req.SubjectID,
		ChapterID:  req.ChapterID,
		Type:       req.QuestionType,
		Difficulty: req.Difficulty,
	})
}

// selectSequential 按章节序号顺序出题，跳过已作答的题；全部答完则从头再来
func (s *QuestionSelector) selectSequential(userID uint, req *model.PracticeRequest, count int) (*Selection, error) {
	qs, err := s.candidates(req)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}

	answered, err := s.AnswerRepo.ListAnsweredQuestionIDs(userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(answered))
	for _, id := range answered {
		seen[id] = true
	}

	ids := make([]uint, 0, count)
	for _, q := range qs {
		if seen[q.ID] {
			continue
		}
		ids = append(ids, q.ID)
		if len(ids) == count {
			break
		}
	}
	if len(ids) == 0 {
		// 题库刷完一轮，从头开始
		for _, q := range qs {
			ids = append(ids, q.ID)
			if len(ids) == count {
				break
			}
		}
	}
	return &Selection{QuestionIDs: ids}, nil
}

func (s *QuestionSelector) selectRandom(req *model.PracticeRequest, count int) (*Selection, error) {
	qs, err := s.candidates(req)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}
	return &Selection{QuestionIDs: s.sample(questionIDs(qs), count)}, nil
}

func (s *QuestionSelector) selectChapter(req *model.PracticeRequest, count int) (*Selection, error) {
	if req.ChapterID == 0 {
		return nil, util.ErrInvalidParameters
	}
	if _, err := s.ChapterRepo.FindByID(req.ChapterID); err != nil {
		return nil, util.ErrChapterNotFound
	}
	qs, err := s.candidates(req)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}
	ids := questionIDs(qs)
	if len(ids) > count {
		ids = ids[:count]
	}
	return &Selection{QuestionIDs: ids}, nil
}

// selectTimed 限时模式未指定难度时默认抽中等难度，题量不足再放开限制
func (s *QuestionSelector) selectTimed(req *model.PracticeRequest, count int) (*Selection, error) {
	if req.Difficulty == "" {
		medium := *req
		medium.Difficulty = model.DifficultyMedium
		if sel, err := s.selectRandom(&medium, count); err == nil {
			return sel, nil
		}
	}
	return s.selectRandom(req, count)
}

// selectExam 组卷：题量按章节均摊后各章抽题、整卷乱序，
// 章节不够摊或没有章节时退化为随机抽题补齐
func (s *QuestionSelector) selectExam(req *model.PracticeRequest, count int) (*Selection, error) {
	if req.SubjectID == 0 || req.ExamDuration <= 0 {
		return nil, util.ErrInvalidParameters
	}
	chapters, err := s.ChapterRepo.ListBySubject(req.SubjectID)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return s.selectRandom(req, count)
	}

	quota := count / len(chapters)
	extra := count % len(chapters)
	ids := make([]uint, 0, count)
	for i, c := range chapters {
		want := quota
		if i < extra {
			want++
		}
		if want == 0 {
			continue
		}
		scoped := *req
		scoped.ChapterID = c.ID
		qs, err := s.candidates(&scoped)
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.sample(questionIDs(qs), want)...)
	}

	if len(ids) < count {
		qs, err := s.candidates(req)
		if err != nil {
			return nil, err
		}
		picked := make(map[uint]bool, len(ids))
		for _, id := range ids {
			picked[id] = true
		}
		rest := make([]uint, 0, len(qs))
		for _, q := range qs {
			if !picked[q.ID] {
				rest = append(rest, q.ID)
			}
		}
		ids = append(ids, s.sample(rest, count-len(ids))...)
	}
	if len(ids) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}
	return &Selection{QuestionIDs: s.sample(ids, len(ids))}, nil
}

// selectWrong 错题强化：未掌握的错题按错误次数从多到少出题
func (s *QuestionSelector) selectWrong(userID uint, req *model.PracticeRequest, count int) (*Selection, error) {
	ids, err := s.WrongRepo.ListActiveQuestionIDs(userID)
	if err != nil {
		return nil, err
	}
	ids, err = s.filterBySubject(ids, req)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	return &Selection{QuestionIDs: ids}, nil
}

func (s *QuestionSelector) selectFavorite(userID uint, req *model.PracticeRequest, count int) (*Selection, error) {
	ids, err := s.FavoriteRepo.ListQuestionIDs(userID)
	if err != nil {
		return nil, err
	}
	ids, err = s.filterBySubject(ids, req)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	return &Selection{QuestionIDs: ids}, nil
}

// selectChallenge 闯关阶梯：1-3关简单10题、4-6关中等15题、之后困难20题，
// 通关需答对80%（向上取整）
func (s *QuestionSelector) selectChallenge(req *model.PracticeRequest) (*Selection, error) {
	level := req.ChallengeLevel
	if level <= 0 {
		level = 1
	}

	var (
		difficulty model.Difficulty
		count      int
	)
	switch {
	case level <= 3:
		difficulty, count = model.DifficultyEasy, 10
	case level <= 6:
		difficulty, count = model.DifficultyMedium, 15
	default:
		difficulty, count = model.DifficultyHard, 20
	}

	qs, err := s.QuestionRepo.ListCandidates(repository.QuestionFilter{
		SubjectID:  req.SubjectID,
		Difficulty: difficulty,
	})
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}

	ids := s.sample(questionIDs(qs), count)
	required := int(math.Ceil(float64(len(ids)) * 0.8))
	return &Selection{
		QuestionIDs:         ids,
		ChallengeLevel:      level,
		PassRequiredCorrect: required,
		Tip:                 fmt.Sprintf("第%d关：%d题答对%d题即可通关", level, len(ids), required),
	}, nil
}

// selectSmart 智能推荐：按章节正确率加权抽样，弱章节权重更高，
// 近期答错的题目再额外加权
func (s *QuestionSelector) selectSmart(userID uint, req *model.PracticeRequest, count int) (*Selection, error) {
	if req.SubjectID == 0 {
		return nil, util.ErrInvalidParameters
	}
	qs, err := s.candidates(req)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, util.ErrEmptyQuestionSet
	}

	chapterAccuracy := make(map[uint]float64)
	chapters, err := s.ChapterRepo.ListBySubject(req.SubjectID)
	if err != nil {
		return nil, err
	}
	for _, c := range chapters {
		total, correct, err := s.AnswerRepo.CountFinalizedByChapter(userID, c.ID)
		if err != nil {
			return nil, err
		}
		if total > 0 {
			chapterAccuracy[c.ID] = float64(correct) / float64(total)
		}
	}

	recentWrong, err := s.AnswerRepo.ListRecentWrongQuestionIDs(userID, 50)
	if err != nil {
		return nil, err
	}
	wrongSet := make(map[uint]bool, len(recentWrong))
	for _, id := range recentWrong {
		wrongSet[id] = true
	}

	weights := make([]float64, len(qs))
	for i, q := range qs {
		// 未练过的章节视为正确率0，权重最高
		w := 1.0 + 3.0*(1.0-chapterAccuracy[q.ChapterID])
		if wrongSet[q.ID] {
			w *= 2
		}
		weights[i] = w
	}

	ids := s.weightedSample(questionIDs(qs), weights, count)
	return &Selection{QuestionIDs: ids, Tip: "根据你的薄弱章节推荐"}, nil
}

// filterBySubject 错题/收藏来源的ID需要再过一遍题库过滤条件
func (s *QuestionSelector) filterBySubject(ids []uint, req *model.PracticeRequest) ([]uint, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	qs, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	keep := make(map[uint]bool, len(qs))
	for _, q := range qs {
		if req.SubjectID > 0 && q.SubjectID != req.SubjectID {
			continue
		}
		if req.ChapterID > 0 && q.ChapterID != req.ChapterID {
			continue
		}
		if req.QuestionType != "" && q.Type != req.QuestionType {
			continue
		}
		keep[q.ID] = true
	}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// sample 等概率无放回抽样，不足时整组乱序返回
func (s *QuestionSelector) sample(ids []uint, count int) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	shuffled := make([]uint, len(ids))
	copy(shuffled, ids)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > count {
		shuffled = shuffled[:count]
	}
	return shuffled
}

// weightedSample 按权重无放回抽样
func (s *QuestionSelector) weightedSample(ids []uint, weights []float64, count int) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := make([]uint, len(ids))
	copy(pool, ids)
	w := make([]float64, len(weights))
	copy(w, weights)

	if count > len(pool) {
		count = len(pool)
	}
	out := make([]uint, 0, count)
	for len(out) < count {
		total := 0.0
		for _, x := range w {
			total += x
		}
		pick := s.rng.Float64() * total
		idx := len(pool) - 1
		for i, x := range w {
			pick -= x
			if pick < 0 {
				idx = i
				break
			}
		}
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		w = append(w[:idx], w[idx+1:]...)
	}
	return out
}

func questionIDs(qs []model.Question) []uint {
	ids := make([]uint, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
