package mapper

import (
	"testing"

	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQADocumentMapperNullVector(t *testing.T) {
	m := NewQADocumentMapper()

	e := m.ToEntity(&model.QADocument{ThreadId: 7, Question: "q"})
	require.NotNil(t, e)
	assert.False(t, e.Embedded())
	assert.Nil(t, m.ToModel(e).ContentVector)
}

func TestQADocumentMapperVector(t *testing.T) {
	m := NewQADocumentMapper()

	mod := m.ToModel(&entity.QADocument{ThreadId: 1, ContentVector: []float32{0.5, 0.5}})
	require.NotNil(t, mod.ContentVector)
	assert.Equal(t, []float32{0.5, 0.5}, mod.ContentVector.Slice())

	back := m.ToEntity(mod)
	assert.True(t, back.Embedded())
}

func TestQADocumentMapperToContext(t *testing.T) {
	m := NewQADocumentMapper()
	e := &entity.QADocument{ThreadId: 3, Topic: "t", Question: "q", Answer: "a", Date: "2023-01-01"}

	noScore := m.ToContext(e, nil)
	assert.Nil(t, noScore.Score)

	score := 0.9
	withScore := m.ToContext(e, &score)
	require.NotNil(t, withScore.Score)
	assert.Equal(t, 0.9, *withScore.Score)
	assert.Equal(t, "2023-01-01", withScore.Date)
}
