package services

import (
	"context"

	"github.com/kubev2v/shareddb/internal/models"
	"github.com/kubev2v/shareddb/internal/store"
)

type SomethingService struct {
	store *store.Store
}

func NewSomethingService(st *store.Store) *SomethingService {
	return &SomethingService{store: st}
}

func (s *SomethingService) List(ctx context.Context) ([]models.Something, error) {
	return s.store.Something().List(ctx)
}

// AtomicList reads inside a transaction, which on a delegated alias runs as a single unit
// of work on the worker.
func (s *SomethingService) AtomicList(ctx context.Context) ([]models.Something, error) {
	var items []models.Something
	err := s.store.Atomic(ctx, func(ctx context.Context, st *store.Store) error {
		var err error
		items, err = st.Something().List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SomethingService) Get(ctx context.Context, id int64) (*models.Something, error) {
	return s.store.Something().Get(ctx, id)
}

func (s *SomethingService) Create(ctx context.Context, data string) (*models.Something, error) {
	return s.store.Something().Create(ctx, data)
}

func (s *SomethingService) Delete(ctx context.Context, id int64) error {
	return s.store.Something().Delete(ctx, id)
}
