package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/models"
)

// EmailServiceImpl implements EmailStore. All collection access goes
// through the mutex; each mutation is atomic, so the dedup invariant holds
// regardless of how fetches, pushes, and optimistic edits interleave.
type EmailServiceImpl struct {
	client  BackendClient
	filters FilterService
	logger  *zap.Logger

	mu      sync.Mutex
	folders map[models.Folder][]models.Email
	unread  int
}

// NewEmailService creates a new email store.
func NewEmailService(client BackendClient, filters FilterService, logger *zap.Logger) *EmailServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailServiceImpl{
		client:  client,
		filters: filters,
		logger:  logger,
		folders: map[models.Folder][]models.Email{
			models.FolderInbox: {},
			models.FolderSent:  {},
		},
	}
}

// Fetch replaces the folder's collection with the backend result. The
// override filter takes precedence over the committed one. On failure the
// prior collection is left untouched and the failure is only logged by the
// caller side via the returned error; there is no automatic retry.
func (s *EmailServiceImpl) Fetch(ctx context.Context, folder models.Folder, override *models.Filter) error {
	if !folder.Valid() {
		return fmt.Errorf("%w: unknown folder %q", ErrInvalidInput, folder)
	}

	filter := s.filters.Active()
	if override != nil {
		filter = *override
	}

	emails, err := s.client.ListEmails(ctx, folder, filter)
	if err != nil {
		s.logger.Warn("folder fetch failed",
			zap.String("folder", string(folder)),
			zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrFetchFailed, folder, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[folder] = dedupe(emails)
	if folder == models.FolderInbox {
		s.unread = countUnread(s.folders[folder])
	}
	return nil
}

// FetchAll fetches both folders concurrently; success is independent per
// folder.
func (s *EmailServiceImpl) FetchAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, folder := range []models.Folder{models.FolderInbox, models.FolderSent} {
		wg.Add(1)
		go func(i int, folder models.Folder) {
			defer wg.Done()
			errs[i] = s.Fetch(ctx, folder, nil)
		}(i, folder)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// MarkRead optimistically flips an unread entry to read and decrements the
// unread count before the backend call. The call's failure is swallowed:
// read-state divergence is low-risk and self-heals on the next fetch.
func (s *EmailServiceImpl) MarkRead(ctx context.Context, emailID string) error {
	if emailID == "" {
		return fmt.Errorf("%w: emailID cannot be empty", ErrInvalidInput)
	}

	s.mu.Lock()
	email, ok := s.findLocked(emailID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, emailID)
	}
	if email.IsRead {
		s.mu.Unlock()
		return nil
	}
	for folder, list := range s.folders {
		for i := range list {
			if list[i].ID == emailID {
				list[i].IsRead = true
			}
		}
		s.folders[folder] = list
	}
	if s.unread > 0 {
		s.unread--
	}
	s.mu.Unlock()

	if err := s.client.MarkRead(ctx, emailID); err != nil {
		s.logger.Warn("mark read not confirmed", zap.String("id", emailID), zap.Error(err))
	}
	return nil
}

// ToggleStar calls the backend first and applies the returned value, never
// a local guess, to the matching entry in both folders.
func (s *EmailServiceImpl) ToggleStar(ctx context.Context, emailID string) error {
	if emailID == "" {
		return fmt.Errorf("%w: emailID cannot be empty", ErrInvalidInput)
	}

	starred, err := s.client.ToggleStar(ctx, emailID)
	if err != nil {
		return fmt.Errorf("toggle star %s: %w", emailID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for folder, list := range s.folders {
		for i := range list {
			if list[i].ID == emailID {
				list[i].Starred = starred
			}
		}
		s.folders[folder] = list
	}
	return nil
}

// Send posts the draft and refreshes the sent folder on success. Draft
// lifecycle (clearing on success, preserving on failure) is the caller's
// responsibility.
func (s *EmailServiceImpl) Send(ctx context.Context, draft models.Draft) error {
	if draft.To == "" || draft.Subject == "" {
		return fmt.Errorf("%w: to and subject cannot be empty", ErrInvalidInput)
	}

	req := models.SendRequest{
		ToEmail: draft.To,
		ToName:  strings.SplitN(draft.To, "@", 2)[0],
		Subject: draft.Subject,
		Body:    draft.Body,
	}
	if draft.Reply != nil {
		req.ReplyToMessageID = draft.Reply.MessageID
		req.ThreadID = draft.Reply.ThreadID
	}

	if _, err := s.client.SendEmail(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := s.Fetch(ctx, models.FolderSent, nil); err != nil {
		s.logger.Warn("sent folder refresh failed", zap.Error(err))
	}
	return nil
}

// MergePush applies a server push locally. No fetch happens here: the
// whole point of the live channel is avoiding a round trip per event.
func (s *EmailServiceImpl) MergePush(event models.PushEvent) {
	if event.Email == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch event.Type {
	case models.EventNewEmail:
		if s.containsLocked(models.FolderInbox, event.Email.ID) {
			return
		}
		s.folders[models.FolderInbox] = prepend(s.folders[models.FolderInbox], *event.Email)
		if !event.Email.IsRead {
			s.unread++
		}
	case models.EventEmailSent:
		if s.containsLocked(models.FolderSent, event.Email.ID) {
			return
		}
		s.folders[models.FolderSent] = prepend(s.folders[models.FolderSent], *event.Email)
	}
}

// Thread fetches the full conversation for a thread id.
func (s *EmailServiceImpl) Thread(ctx context.Context, threadID string) ([]models.Email, error) {
	if threadID == "" {
		return nil, fmt.Errorf("%w: threadID cannot be empty", ErrInvalidInput)
	}
	return s.client.GetThread(ctx, threadID)
}

// Folder returns a copy of the folder's current collection.
func (s *EmailServiceImpl) Folder(folder models.Folder) []models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.folders[folder]
	out := make([]models.Email, len(list))
	copy(out, list)
	return out
}

// Find looks an email up across both folders, inbox first.
func (s *EmailServiceImpl) Find(emailID string) (models.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(emailID)
}

func (s *EmailServiceImpl) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Restore seeds a folder from a cached snapshot, e.g. at startup before
// the first fetch completes. The next fetch overwrites it wholesale.
func (s *EmailServiceImpl) Restore(folder models.Folder, emails []models.Email) {
	if !folder.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[folder] = dedupe(emails)
	if folder == models.FolderInbox {
		s.unread = countUnread(s.folders[folder])
	}
}

// Clear empties both folders, e.g. on logout.
func (s *EmailServiceImpl) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = map[models.Folder][]models.Email{
		models.FolderInbox: {},
		models.FolderSent:  {},
	}
	s.unread = 0
}

func (s *EmailServiceImpl) findLocked(emailID string) (models.Email, bool) {
	for _, folder := range []models.Folder{models.FolderInbox, models.FolderSent} {
		for _, e := range s.folders[folder] {
			if e.ID == emailID {
				return e, true
			}
		}
	}
	return models.Email{}, false
}

func (s *EmailServiceImpl) containsLocked(folder models.Folder, emailID string) bool {
	for _, e := range s.folders[folder] {
		if e.ID == emailID {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of each id, preserving backend order.
func dedupe(emails []models.Email) []models.Email {
	seen := make(map[string]struct{}, len(emails))
	out := make([]models.Email, 0, len(emails))
	for _, e := range emails {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func countUnread(emails []models.Email) int {
	n := 0
	for _, e := range emails {
		if !e.IsRead {
			n++
		}
	}
	return n
}

func prepend(list []models.Email, e models.Email) []models.Email {
	out := make([]models.Email, 0, len(list)+1)
	out = append(out, e)
	return append(out, list...)
}
