package model

type QuestionType string

const (
	TypeSingle           QuestionType = "SINGLE"            // 单选题
	TypeMultiple         QuestionType = "MULTIPLE"          // 多选题
	TypeJudge            QuestionType = "JUDGE"             // 判断题
	TypeFill             QuestionType = "FILL"              // 填空题
	TypeShortAnswer      QuestionType = "SHORT_ANSWER"      // 简答题
	TypeEssay            QuestionType = "ESSAY"             // 论述题
	TypeCaseAnalysis     QuestionType = "CASE_ANALYSIS"     // 案例分析题
	TypeMaterialAnalysis QuestionType = "MATERIAL_ANALYSIS" // 材料分析题
	TypeCalculation      QuestionType = "CALCULATION"       // 计算题
	TypeOrdering         QuestionType = "ORDERING"          // 排序题
	TypeMatching         QuestionType = "MATCHING"          // 匹配题
	TypeComposite        QuestionType = "COMPOSITE"         // 组合题
	TypeProgramming      QuestionType = "PROGRAMMING"       // 编程题
)

// IsObjective 客观题走自动判题
func (t QuestionType) IsObjective() bool {
	switch t {
	case TypeSingle, TypeMultiple, TypeJudge, TypeFill, TypeOrdering, TypeMatching:
		return true
	}
	return false
}

// IsSubjective 主观题走AI判题
func (t QuestionType) IsSubjective() bool {
	switch t {
	case TypeShortAnswer, TypeEssay, TypeCaseAnalysis, TypeMaterialAnalysis,
		TypeCalculation, TypeComposite, TypeProgramming:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Question 题目。内容服务写入，引擎只更新使用统计字段。
// Answer/Options/ScoringCriteria 均为JSON文档字符串。
// 一旦有判题结果定稿，题目编辑产生新的 Version；历史答题记录保留判题时的答案快照。
// swagger:model Question
type Question struct {
	BaseModel
	SubjectID       uint         `gorm:"index;not null" json:"subjectId"`
	ChapterID       uint         `gorm:"index" json:"chapterId"`
	Type            QuestionType `gorm:"size:30;index;not null" json:"type"`
	Title           string       `gorm:"type:text;not null" json:"title"`
	Content         string       `gorm:"type:text" json:"content"`
	Difficulty      Difficulty   `gorm:"size:10;index;default:'MEDIUM'" json:"difficulty"`
	Score           float64      `gorm:"default:5" json:"score"`
	Options         string       `gorm:"type:json" json:"options"`
	Answer          string       `gorm:"type:json" json:"-"`
	AnswerAnalysis  string       `gorm:"type:text" json:"answerAnalysis"`
	ScoringCriteria string       `gorm:"type:json" json:"scoringCriteria"`
	Version         int          `gorm:"default:1" json:"version"`
	SerialNumber    int          `json:"serialNumber"`
	UseCount        int          `gorm:"default:0" json:"useCount"`
	CorrectCount    int          `gorm:"default:0" json:"correctCount"`
	WrongCount      int          `gorm:"default:0" json:"wrongCount"`
	Status          int          `gorm:"default:1" json:"status"`
}

func (Question) TableName() string {
	return "questions"
}
