package service

import (
	"encoding/json"
	"strings"

	"tiku_backend/internal/model"
)

// AutoGrader 客观题自动判题。标准答案与用户答案均为JSON文档，
// 按题型采用不同的比较策略，得分只有满分与零分两档。
type AutoGrader struct{}

func NewAutoGrader() *AutoGrader {
	return &AutoGrader{}
}

// Grade 返回用户答案是否与标准答案一致
func (g *AutoGrader) Grade(qtype model.QuestionType, standardJSON, userJSON string) bool {
	switch qtype {
	case model.TypeSingle, model.TypeJudge:
		return normalize(asString(standardJSON)) == normalize(asString(userJSON))
	case model.TypeMultiple:
		return sameSet(asStrings(standardJSON), asStrings(userJSON))
	case model.TypeFill:
		return matchBlanks(asStrings(standardJSON), asStrings(userJSON))
	case model.TypeOrdering:
		return sameSequence(asStrings(standardJSON), asStrings(userJSON))
	case model.TypeMatching:
		return sameMapping(asMap(standardJSON), asMap(userJSON))
	}
	return false
}

// asString 兼容裸字符串与JSON编码的字符串两种存法
func asString(doc string) string {
	var s string
	if err := json.Unmarshal([]byte(doc), &s); err == nil {
		return s
	}
	return doc
}

// asStrings 兼容数组与单值两种存法
func asStrings(doc string) []string {
	var arr []string
	if err := json.Unmarshal([]byte(doc), &arr); err == nil {
		return arr
	}
	s := asString(doc)
	if s == "" {
		return nil
	}
	return []string{s}
}

func asMap(doc string) map[string]string {
	var m map[string]string
	if err := json.Unmarshal([]byte(doc), &m); err == nil {
		return m
	}
	return nil
}

// normalize 去首尾空白、折叠中间空白并统一小写
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sameSet(std, user []string) bool {
	if len(std) == 0 || len(std) != len(user) {
		return false
	}
	seen := make(map[string]int, len(std))
	for _, v := range std {
		seen[normalize(v)]++
	}
	for _, v := range user {
		key := normalize(v)
		if seen[key] == 0 {
			return false
		}
		seen[key]--
	}
	return true
}

func sameSequence(std, user []string) bool {
	if len(std) == 0 || len(std) != len(user) {
		return false
	}
	for i := range std {
		if normalize(std[i]) != normalize(user[i]) {
			return false
		}
	}
	return true
}

func sameMapping(std, user map[string]string) bool {
	if len(std) == 0 || len(std) != len(user) {
		return false
	}
	for k, v := range std {
		uv, ok := user[strings.TrimSpace(k)]
		if !ok {
			uv, ok = user[k]
		}
		if !ok || normalize(v) != normalize(uv) {
			return false
		}
	}
	return true
}

// matchBlanks 逐空匹配，标准答案每空可用 | 给出多个等价写法
func matchBlanks(std, user []string) bool {
	if len(std) == 0 || len(std) != len(user) {
		return false
	}
	for i, blank := range std {
		matched := false
		for _, alt := range strings.Split(blank, "|") {
			if normalize(alt) == normalize(user[i]) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// emptyAnswer 用户答案是否为空白提交
func emptyAnswer(doc string) bool {
	trimmed := strings.TrimSpace(doc)
	if trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "[]" || trimmed == "{}" {
		return true
	}
	for _, v := range asStrings(doc) {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
