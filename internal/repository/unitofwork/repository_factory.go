package unitofwork

import (
	"context"

	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
)

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
	// QADocumentRepository returns a repository bound to the shared pool.
	QADocumentRepository() contract.QADocumentRepository
}
