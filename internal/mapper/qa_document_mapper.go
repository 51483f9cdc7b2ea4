package mapper

import (
	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/model"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"

	"github.com/pgvector/pgvector-go"
)

type QADocumentMapper struct{}

func NewQADocumentMapper() *QADocumentMapper {
	return &QADocumentMapper{}
}

func (m *QADocumentMapper) ToEntity(d *model.QADocument) *entity.QADocument {
	if d == nil {
		return nil
	}

	var vec []float32
	if d.ContentVector != nil {
		vec = d.ContentVector.Slice()
	}

	return &entity.QADocument{
		ThreadId:      d.ThreadId,
		Topic:         d.Topic,
		Question:      d.Question,
		Answer:        d.Answer,
		Date:          d.Date,
		ContentVector: vec,
	}
}

func (m *QADocumentMapper) ToModel(e *entity.QADocument) *model.QADocument {
	if e == nil {
		return nil
	}

	var vec *pgvector.Vector
	if len(e.ContentVector) > 0 {
		v := pgvector.NewVector(e.ContentVector)
		vec = &v
	}

	return &model.QADocument{
		ThreadId:      e.ThreadId,
		Topic:         e.Topic,
		Question:      e.Question,
		Answer:        e.Answer,
		Date:          e.Date,
		ContentVector: vec,
	}
}

func (m *QADocumentMapper) ToEntities(docs []*model.QADocument) []*entity.QADocument {
	entities := make([]*entity.QADocument, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

// ToContext projects a document into the retrieval result shape. score may be nil.
func (m *QADocumentMapper) ToContext(e *entity.QADocument, score *float64) store.RetrievedContext {
	return store.RetrievedContext{
		ThreadId: e.ThreadId,
		Topic:    e.Topic,
		Question: e.Question,
		Answer:   e.Answer,
		Date:     e.Date,
		Score:    score,
	}
}
