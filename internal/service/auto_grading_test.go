package service

import (
	"testing"

	"tiku_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAutoGraderObjectiveTypes(t *testing.T) {
	g := NewAutoGrader()

	tests := []struct {
		name     string
		qtype    model.QuestionType
		standard string
		user     string
		want     bool
	}{
		{"单选正确", model.TypeSingle, `"A"`, `"A"`, true},
		{"单选大小写与空白归一", model.TypeSingle, `"A"`, `" a "`, true},
		{"单选错误", model.TypeSingle, `"A"`, `"B"`, false},
		{"判断正确", model.TypeJudge, `"true"`, `"TRUE"`, true},
		{"多选顺序无关", model.TypeMultiple, `["A","C"]`, `["C","A"]`, true},
		{"多选少选", model.TypeMultiple, `["A","C"]`, `["A"]`, false},
		{"多选多选", model.TypeMultiple, `["A","C"]`, `["A","C","D"]`, false},
		{"填空逐空匹配", model.TypeFill, `["栈","队列"]`, `["栈","队列"]`, true},
		{"填空顺序敏感", model.TypeFill, `["栈","队列"]`, `["队列","栈"]`, false},
		{"填空等价写法", model.TypeFill, `["二叉树|binary tree"]`, `["Binary Tree"]`, true},
		{"排序完全一致", model.TypeOrdering, `["1","2","3"]`, `["1","2","3"]`, true},
		{"排序次序不同", model.TypeOrdering, `["1","2","3"]`, `["1","3","2"]`, false},
		{"匹配一致", model.TypeMatching, `{"TCP":"传输层","IP":"网络层"}`, `{"IP":"网络层","TCP":"传输层"}`, true},
		{"匹配错位", model.TypeMatching, `{"TCP":"传输层","IP":"网络层"}`, `{"TCP":"网络层","IP":"传输层"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Grade(tt.qtype, tt.standard, tt.user))
		})
	}
}

func TestEmptyAnswerDetection(t *testing.T) {
	assert.True(t, emptyAnswer(""))
	assert.True(t, emptyAnswer("null"))
	assert.True(t, emptyAnswer(`""`))
	assert.True(t, emptyAnswer(`[]`))
	assert.True(t, emptyAnswer(`["",""]`))
	assert.False(t, emptyAnswer(`"A"`))
	assert.False(t, emptyAnswer(`["A"]`))
}
