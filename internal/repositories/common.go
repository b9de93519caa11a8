package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultPageSize = 20

// Pagination - страница (с 1) и размер
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) normalized() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Pagination) Limit() int {
	return p.normalized().PageSize
}

func (p Pagination) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.PageSize
}

// forUpdate - SELECT ... FOR UPDATE
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound переводит gorm.ErrRecordNotFound в доменную ошибку
func notFound(err error, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// isUniqueViolation - нарушение уникального индекса (postgres 23505)
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
