package unitofwork

import (
	"context"

	"github.com/Natthaphatpiw/agn-chat/internal/repository/contract"
	"github.com/Natthaphatpiw/agn-chat/internal/repository/implementation"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db        *gorm.DB
	indexName string
}

func NewRepositoryFactory(db *gorm.DB, indexName string) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db:        db,
		indexName: indexName,
	}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db, f.indexName)
}

func (f *RepositoryFactoryImpl) QADocumentRepository() contract.QADocumentRepository {
	return implementation.NewQADocumentRepository(f.db, f.indexName)
}
