package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// ByThreadID matches a single thread.
type ByThreadID struct {
	ThreadId int64
}

func (s ByThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadId)
}

// ByThreadIDs matches any of the listed threads.
type ByThreadIDs struct {
	ThreadIds []int64
}

func (s ByThreadIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id IN ?", s.ThreadIds)
}

// OrderBy sorts on a column; Desc flips the direction.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination bounds the result window. A zero Limit leaves it unbounded.
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	if s.Limit > 0 {
		db = db.Limit(s.Limit)
	}
	if s.Offset > 0 {
		db = db.Offset(s.Offset)
	}
	return db
}
