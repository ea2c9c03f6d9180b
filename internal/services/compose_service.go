package services

import (
	"sync"

	"github.com/rmail/rmail/internal/models"
)

// ComposeServiceImpl implements ComposeService.
type ComposeServiceImpl struct {
	mu      sync.Mutex
	draft   models.Draft
	visible bool
}

// NewComposeService creates a new compose state holder.
func NewComposeService() *ComposeServiceImpl {
	return &ComposeServiceImpl{}
}

// Open sets the draft and shows the compose surface.
func (s *ComposeServiceImpl) Open(draft models.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
	s.visible = true
}

// Show makes the compose surface visible without touching the draft.
func (s *ComposeServiceImpl) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
}

// SetDraft replaces the draft fields, leaving visibility alone.
func (s *ComposeServiceImpl) SetDraft(draft models.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
}

// Close hides the compose surface; the draft survives so a failed send can
// be retried.
func (s *ComposeServiceImpl) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
}

// Reset discards the draft and hides the surface.
func (s *ComposeServiceImpl) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = models.Draft{}
	s.visible = false
}

// Current returns the draft and whether the surface is visible.
func (s *ComposeServiceImpl) Current() (models.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.visible
}
