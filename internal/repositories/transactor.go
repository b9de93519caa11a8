package repositories

import "gorm.io/gorm"

// Transactor - граница транзакции; сервисы не вызывают db.Transaction напрямую
type Transactor interface {
	WithinTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{}

func NewTransactor() Transactor {
	return &gormTransactor{}
}

func (t *gormTransactor) WithinTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}
