package services

import (
	"context"
	"sync"

	"github.com/rmail/rmail/internal/models"
)

// FilterServiceImpl implements FilterService. The change hook fires exactly
// once per commit; nothing else triggers it.
type FilterServiceImpl struct {
	mu     sync.Mutex
	active models.Filter
	hook   func(ctx context.Context, filter models.Filter)
}

// NewFilterService creates a new filter engine with an empty filter.
func NewFilterService() *FilterServiceImpl {
	return &FilterServiceImpl{}
}

func (s *FilterServiceImpl) Apply(ctx context.Context, filter models.Filter) {
	s.mu.Lock()
	s.active = filter
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, filter)
	}
}

func (s *FilterServiceImpl) Clear(ctx context.Context) {
	s.Apply(ctx, models.Filter{})
}

func (s *FilterServiceImpl) Active() models.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *FilterServiceImpl) OnChange(hook func(ctx context.Context, filter models.Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}
