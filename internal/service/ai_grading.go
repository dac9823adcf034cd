package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tiku_backend/internal/config"
	"tiku_backend/internal/model"
)

// defaultRubric 题目未配置评分标准时的兜底维度
var defaultRubric = []model.ScoreDetail{
	{Dimension: "知识点覆盖", MaxScore: 40},
	{Dimension: "逻辑与论证", MaxScore: 30},
	{Dimension: "表达与结构", MaxScore: 20},
	{Dimension: "规范与完整性", MaxScore: 10},
}

// AIGrader 主观题AI判题。通过对话补全接口让模型按评分标准打分，
// 要求模型返回结构化JSON，解析失败视为判题失败。
type AIGrader struct {
	client AIClient
	config config.AIConfig
}

func NewAIGrader(client AIClient, cfg config.AIConfig) *AIGrader {
	return &AIGrader{client: client, config: cfg}
}

// aiVerdict 模型返回的JSON结构
type aiVerdict struct {
	Score        float64             `json:"score"`
	Confidence   float64             `json:"confidence"`
	ScoreDetails []model.ScoreDetail `json:"scoreDetails"`
	Strengths    []string            `json:"strengths"`
	Weaknesses   []string            `json:"weaknesses"`
	Suggestions  string              `json:"suggestions"`
	Comment      string              `json:"comment"`
}

const gradingSystemPrompt = "你是一名严谨的阅卷老师。你必须只输出一个JSON对象，不要输出任何其他文字、不要用Markdown代码块包裹。"

// buildPrompt 组装判题提示词，评分标准优先用题目自带的
func (g *AIGrader) buildPrompt(q *model.Question, userAnswer string) string {
	var b strings.Builder
	b.WriteString("请批改下面这道题的学生答案。\n\n")
	fmt.Fprintf(&b, "【题型】%s\n", q.Type)
	fmt.Fprintf(&b, "【满分】%.1f\n", q.Score)
	fmt.Fprintf(&b, "【题目】%s\n", q.Title)
	if q.Content != "" {
		fmt.Fprintf(&b, "【题干补充】%s\n", q.Content)
	}
	if q.Answer != "" {
		fmt.Fprintf(&b, "【参考答案】%s\n", q.Answer)
	}

	rubric := q.ScoringCriteria
	if strings.TrimSpace(rubric) == "" {
		data, _ := json.Marshal(defaultRubric)
		rubric = string(data)
	}
	fmt.Fprintf(&b, "【评分标准（各维度满分为百分制权重）】%s\n", rubric)
	fmt.Fprintf(&b, "【学生答案】%s\n\n", userAnswer)

	b.WriteString("输出JSON，字段如下：\n")
	b.WriteString(`{"score": 本题得分(0到满分之间的数字), "confidence": 你对评分的置信度(0到1), ` +
		`"scoreDetails": [{"dimension": "维度名", "score": 得分, "maxScore": 该维度满分, "reason": "给分理由"}], ` +
		`"strengths": ["亮点"], "weaknesses": ["不足"], "suggestions": "改进建议", "comment": "总评"}`)
	return b.String()
}

// Grade 调用模型判分。返回得分与反馈；网络失败或输出无法解析时返回错误，
// 由上层转入人工复核。
func (g *AIGrader) Grade(ctx context.Context, q *model.Question, userAnswer string) (float64, *model.AIFeedback, error) {
	raw, err := g.client.ChatCompletion(ctx, gradingSystemPrompt, g.buildPrompt(q, userAnswer))
	if err != nil {
		return 0, nil, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return 0, nil, err
	}

	score := verdict.Score
	if score < 0 {
		score = 0
	}
	if score > q.Score {
		score = q.Score
	}
	confidence := verdict.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	feedback := &model.AIFeedback{
		Model:        g.client.Model(),
		Confidence:   confidence,
		ScoreDetails: verdict.ScoreDetails,
		Strengths:    verdict.Strengths,
		Weaknesses:   verdict.Weaknesses,
		Suggestions:  verdict.Suggestions,
		Comment:      verdict.Comment,
	}
	return score, feedback, nil
}

// parseVerdict 容忍模型把JSON包进代码块或前后加了说明文字
func parseVerdict(raw string) (*aiVerdict, error) {
	text := strings.TrimSpace(raw)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	var v aiVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("AI判题输出不是有效JSON: %w", err)
	}
	return &v, nil
}
