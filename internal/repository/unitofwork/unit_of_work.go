package unitofwork

import (
	"context"
	"errors"

	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
)

var (
	ErrTransactionActive = errors.New("transaction already started")
	ErrNoTransaction     = errors.New("no active transaction")
)

// UnitOfWork groups repository writes into one transaction. Repositories
// obtained after Begin run inside it. Rollback after Commit is a no-op, so
// callers may always defer it.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	QADocumentRepository() contract.QADocumentRepository
}
