// Package repo holds what the gorm-backed repositories share.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a repository to a connection or to an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection scoped to ctx. A nil ctx returns it unscoped.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base on tx, or b itself when tx is nil.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// Affected reports how many rows a finished statement touched.
func Affected(res *gorm.DB) (int64, error) {
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
