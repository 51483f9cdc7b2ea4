package unitofwork

import (
	"context"

	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db        *gorm.DB
	tx        *gorm.DB
	done      bool
	indexName string
}

func NewUnitOfWork(db *gorm.DB, indexName string) UnitOfWork {
	return &UnitOfWorkImpl{
		db:        db,
		indexName: indexName,
	}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTransactionActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx, u.done = tx, false
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	err := u.tx.Commit().Error
	u.tx, u.done = nil, true
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		if u.done {
			return nil
		}
		return ErrNoTransaction
	}
	err := u.tx.Rollback().Error
	u.tx, u.done = nil, true
	return err
}

func (u *UnitOfWorkImpl) QADocumentRepository() contract.QADocumentRepository {
	return implementation.NewQADocumentRepository(u.conn(), u.indexName)
}
