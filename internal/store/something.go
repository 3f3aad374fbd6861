package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/shareddb/internal/models"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

// SomethingStore handles the something table.
type SomethingStore struct {
	db Executor
}

func NewSomethingStore(db Executor) *SomethingStore {
	return &SomethingStore{db: db}
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

func ByDataPrefix(prefix string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if prefix == "" {
			return b
		}
		return b.Where(sq.Like{"data": prefix + "%"})
	}
}

// List returns records ordered by id.
func (s *SomethingStore) List(ctx context.Context, opts ...ListOption) ([]models.Something, error) {
	builder := sq.Select("id", "data").From(tableSomething).OrderBy("id")
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	items := []models.Something{}
	err = s.db.QueryContext(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			var item models.Something
			if err := rows.Scan(&item.ID, &item.Data); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	}, query, args...)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SomethingStore) Get(ctx context.Context, id int64) (*models.Something, error) {
	query, args, err := sq.Select("id", "data").From(tableSomething).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var item models.Something
	err = s.db.QueryRowContext(ctx, func(row *sql.Row) error {
		return row.Scan(&item.ID, &item.Data)
	}, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewSomethingNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a record and returns it with its generated id.
func (s *SomethingStore) Create(ctx context.Context, data string) (*models.Something, error) {
	query, args, err := sq.Insert(tableSomething).Columns("data").Values(data).Suffix("RETURNING id").ToSql()
	if err != nil {
		return nil, err
	}

	item := models.Something{Data: data}
	err = s.db.QueryRowContext(ctx, func(row *sql.Row) error {
		return row.Scan(&item.ID)
	}, query, args...)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *SomethingStore) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete(tableSomething).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return srvErrors.NewSomethingNotFoundError(id)
	}
	return nil
}

func (s *SomethingStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, func(row *sql.Row) error {
		return row.Scan(&count)
	}, queryCountSomething)
	return count, err
}
