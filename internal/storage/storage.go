// Package storage provides a generic create/read/update/delete repository
// over a gorm-backed table keyed by a uuid primary key. It carries no
// business logic; services hold a repository by composition.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository[T any] struct {
	db *gorm.DB
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// FindAll returns every row, optionally ordered (e.g. "created_at DESC").
func (r *Repository[T]) FindAll(ctx context.Context, order string) ([]T, error) {
	q := r.db.WithContext(ctx)
	if order != "" {
		q = q.Order(order)
	}

	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	return out, nil
}

// FindByID returns the row with the given id, or nil when absent.
func (r *Repository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var out T
	err := r.db.WithContext(ctx).First(&out, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by id: %w", err)
	}
	return &out, nil
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// Save persists all fields of an already-loaded entity.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete removes the row with the given id and reports whether a row was
// affected.
func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var entity T
	res := r.db.WithContext(ctx).Delete(&entity, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("delete: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsDuplicate reports whether err is the storage layer's unique-constraint
// violation signal. gorm translates it when TranslateError is on; the raw
// Postgres 23505 code is checked as a fallback.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
