// Package repotest provides in-memory repository doubles for tests.
package repotest

import (
	"context"
	"sync"

	"github.com/Natthaphatpiw/agn-chat/internal/entity"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/specification"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/unitofwork"
)

// QADocuments is a scripted QADocumentRepository. Specifications are ignored
// except Pagination and HasQuestion, which FindAll honours.
type QADocuments struct {
	mu sync.Mutex

	Docs   []*entity.QADocument
	Scored []*contract.ScoredQADocument

	SearchErr error
	FindErr   error
	PingErr   error

	SearchCalls     int
	FindCalls       int
	LastCandidates  int
	LastSearchLimit int
}

var _ contract.QADocumentRepository = (*QADocuments)(nil)

func (r *QADocuments) Create(ctx context.Context, doc *entity.QADocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Docs = append(r.Docs, doc)
	return nil
}

func (r *QADocuments) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QADocument, error) {
	docs, err := r.FindAll(ctx, specs...)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (r *QADocuments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QADocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}

	limit := -1
	withQuestion := false
	missing := false
	for _, s := range specs {
		switch v := s.(type) {
		case specification.Pagination:
			if v.Limit > 0 {
				limit = v.Limit
			}
		case specification.HasQuestion:
			withQuestion = true
		case specification.MissingEmbedding:
			missing = true
		}
	}

	var out []*entity.QADocument
	for _, d := range r.Docs {
		if withQuestion && d.Question == "" {
			continue
		}
		if missing && d.Embedded() {
			continue
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *QADocuments) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, err := r.FindAll(ctx, specs...)
	return int64(len(docs)), err
}

func (r *QADocuments) UpdateEmbedding(ctx context.Context, threadId int64, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.Docs {
		if d.ThreadId == threadId {
			d.ContentVector = embedding
		}
	}
	return nil
}

func (r *QADocuments) SearchSimilar(ctx context.Context, embedding []float32, numCandidates, limit int) ([]*contract.ScoredQADocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SearchCalls++
	r.LastCandidates = numCandidates
	r.LastSearchLimit = limit
	if r.SearchErr != nil {
		return nil, r.SearchErr
	}
	return r.Scored, nil
}

func (r *QADocuments) Ping(ctx context.Context) error {
	return r.PingErr
}

// Factory serves one shared QADocuments.
type Factory struct {
	Repo *QADocuments
}

var _ unitofwork.RepositoryFactory = (*Factory)(nil)

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{Repo: f.Repo}
}

func (f *Factory) QADocumentRepository() contract.QADocumentRepository {
	return f.Repo
}

// UnitOfWork records transaction calls without a database.
type UnitOfWork struct {
	Repo       *QADocuments
	Begun      bool
	Committed  bool
	RolledBack bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.Begun = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	u.Committed = true
	return nil
}

func (u *UnitOfWork) Rollback() error {
	u.RolledBack = true
	return nil
}

func (u *UnitOfWork) QADocumentRepository() contract.QADocumentRepository {
	return u.Repo
}
