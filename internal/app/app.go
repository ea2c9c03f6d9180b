// Package app holds the explicit application-state object: current view,
// selection, and the wiring between session, store, filters, compose,
// assistant, and the live channel. All mutation funnels through named
// operations on App; there is no ambient global state.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/config"
	"github.com/rmail/rmail/internal/db"
	"github.com/rmail/rmail/internal/models"
	"github.com/rmail/rmail/internal/services"
	"github.com/rmail/rmail/internal/ws"
)

// App is the engine facade consumers drive. It implements
// services.Workspace for the action interpreter.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	notifier services.Notifier
	cache    *db.Store // optional; nil disables local caching

	Session   services.SessionService
	Emails    services.EmailStore
	Filters   services.FilterService
	Composer  services.ComposeService
	Assistant services.AssistantService

	mu       sync.Mutex
	view     models.View
	selected *models.Email
	channel  *ws.Channel
}

// New wires the engine. cache may be nil when local persistence is
// unavailable; the engine degrades to memory-only state.
func New(cfg *config.Config, client services.BackendClient, session services.SessionService, cache *db.Store, notifier services.Notifier, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	filters := services.NewFilterService()
	emails := services.NewEmailService(client, filters, logger)
	composer := services.NewComposeService()

	a := &App{
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
		cache:    cache,
		Session:  session,
		Emails:   emails,
		Filters:  filters,
		Composer: composer,
		view:     models.ViewInbox,
	}

	a.Assistant = services.NewAssistantService(
		client, a, composer, notifier,
		cfg.GetActionDelay(), cfg.GetComposeSettleDelay(), logger)

	// A committed filter change refetches the inbox exactly once; nothing
	// else retriggers it.
	filters.OnChange(func(ctx context.Context, _ models.Filter) {
		if err := a.Emails.Fetch(ctx, models.FolderInbox, nil); err != nil {
			a.logger.Warn("filtered fetch failed", zap.Error(err))
		}
		a.persistSnapshot(ctx, models.FolderInbox)
	})

	return a
}

// Initialize consumes the entry URL parameters exactly once, refreshes the
// session, and brings the engine up if a session is configured. It returns
// the entry URL with the handled parameters stripped.
func (a *App) Initialize(ctx context.Context, entryURL string) (string, error) {
	params, cleaned := ConsumeEntryParams(entryURL)

	if params.Code != "" {
		a.notifier.Info("Signing in...")
		status, err := a.Session.ExchangeCallback(ctx, params.Code)
		if err != nil {
			a.logger.Warn("callback exchange failed", zap.Error(err))
		} else if status.Configured {
			a.notifier.Success("Signed in successfully!")
			a.bringUp(ctx)
			return cleaned, nil
		}
	}

	if params.Login == "success" {
		a.notifier.Success("Signed in successfully!")
	}
	if params.Error != "" {
		a.notifier.Error(fmt.Sprintf("Login error: %s", params.Error))
	}

	status, err := a.Session.RefreshStatus(ctx)
	if err != nil {
		a.logger.Warn("status refresh failed", zap.Error(err))
	}
	if status.Configured {
		a.bringUp(ctx)
	}
	return cleaned, nil
}

// bringUp restores cached state, fetches both folders, loads the chat
// transcript, and opens the live channel.
func (a *App) bringUp(ctx context.Context) {
	a.restoreCache(ctx)

	if err := a.Emails.FetchAll(ctx); err != nil {
		a.logger.Warn("initial fetch incomplete", zap.Error(err))
	}
	a.persistSnapshot(ctx, models.FolderInbox)
	a.persistSnapshot(ctx, models.FolderSent)

	if err := a.Assistant.LoadHistory(ctx); err != nil {
		a.logger.Debug("chat history not loaded", zap.Error(err))
	}

	a.StartChannel()
}

// Logout clears everything: backend session (best-effort), credential,
// store, transcript, local cache, and the live channel.
func (a *App) Logout(ctx context.Context) {
	if err := a.Session.Logout(ctx); err != nil {
		a.logger.Warn("logout", zap.Error(err))
	}
	a.StopChannel()
	a.Emails.Clear()
	a.Assistant.ClearLocal()

	a.mu.Lock()
	a.view = models.ViewInbox
	a.selected = nil
	a.mu.Unlock()

	if a.cache != nil {
		if err := a.cache.Purge(ctx); err != nil {
			a.logger.Warn("cache purge failed", zap.Error(err))
		}
	}
}

// StartChannel opens the live update channel. The channel is only
// established while the session is configured, and only one connection is
// maintained at a time.
func (a *App) StartChannel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.channel != nil {
		return
	}
	if !a.Session.Current().Configured {
		return
	}
	a.channel = ws.New(
		a.cfg.Channel.URL,
		a.cfg.GetHeartbeatInterval(),
		a.cfg.GetReconnectDelay(),
		a.handlePush,
		a.logger)
	a.channel.Start()
}

// StopChannel tears the live channel down: socket closed, heartbeat
// cancelled, reconnect cancelled.
func (a *App) StopChannel() {
	a.mu.Lock()
	channel := a.channel
	a.channel = nil
	a.mu.Unlock()
	if channel != nil {
		channel.Stop()
	}
}

// Connected reports whether the live channel is currently open.
func (a *App) Connected() bool {
	a.mu.Lock()
	channel := a.channel
	a.mu.Unlock()
	return channel != nil && channel.Connected()
}

func (a *App) handlePush(event models.PushEvent) {
	a.Emails.MergePush(event)
	switch event.Type {
	case models.EventNewEmail:
		a.notifier.Info(fmt.Sprintf("New email from %s", event.Email.FromName))
		a.persistSnapshot(context.Background(), models.FolderInbox)
	case models.EventEmailSent:
		a.persistSnapshot(context.Background(), models.FolderSent)
	}
}

// Navigate switches the current view. The compose "view" is an overlay:
// it shows the compose surface without leaving the underlying view.
func (a *App) Navigate(view models.View) {
	if view == models.ViewCompose {
		a.Composer.Show()
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = view
	a.selected = nil
}

// OpenEmail selects an email, switches to the detail view, and triggers
// its optimistic read-marking side effect.
func (a *App) OpenEmail(ctx context.Context, emailID string) error {
	email, ok := a.Emails.Find(emailID)
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrNotFound, emailID)
	}

	a.mu.Lock()
	a.view = models.ViewDetail
	a.selected = &email
	a.mu.Unlock()

	if err := a.Emails.MarkRead(ctx, emailID); err != nil {
		a.logger.Debug("mark read skipped", zap.Error(err))
	}
	return nil
}

// ApplyFilter commits a new filter. Filters are inbox-scoped, so this
// forces navigation to the inbox view.
func (a *App) ApplyFilter(ctx context.Context, filter models.Filter) {
	a.Navigate(models.ViewInbox)
	a.Filters.Apply(ctx, filter)
}

// ClearFilters resets the committed filter.
func (a *App) ClearFilters(ctx context.Context) {
	a.Filters.Clear(ctx)
}

// SendDraft submits the current compose draft. On success the draft is
// cleared; on failure it is preserved so the user can retry.
func (a *App) SendDraft(ctx context.Context) error {
	draft, _ := a.Composer.Current()
	if err := a.Emails.Send(ctx, draft); err != nil {
		a.notifier.Error("Failed to send")
		return err
	}
	a.Composer.Reset()
	a.notifier.Success("Email sent!")
	a.persistSnapshot(ctx, models.FolderSent)
	return nil
}

// SendChat forwards a user message to the assistant and persists the
// updated transcript.
func (a *App) SendChat(ctx context.Context, text string) error {
	err := a.Assistant.SendMessage(ctx, text)
	a.persistTranscript(ctx)
	return err
}

// ClearChat wipes the transcript on the backend (best-effort) and locally,
// including the cached copy.
func (a *App) ClearChat(ctx context.Context) error {
	err := a.Assistant.ClearChat(ctx)
	a.persistTranscript(ctx)
	return err
}

// FindEmail looks an id up across both folders.
func (a *App) FindEmail(emailID string) (models.Email, bool) {
	return a.Emails.Find(emailID)
}

// UserEmail returns the authenticated user's address, if any.
func (a *App) UserEmail() string {
	return a.Session.Current().Email
}

// ChatContext snapshots the state sent alongside chat messages. Bodies are
// excerpted, never sent whole.
func (a *App) ChatContext() models.ChatContext {
	a.mu.Lock()
	view := a.view
	selected := a.selected
	a.mu.Unlock()

	snapshot := models.ChatContext{
		CurrentView:   view,
		TotalInbox:    len(a.Emails.Folder(models.FolderInbox)),
		TotalSent:     len(a.Emails.Folder(models.FolderSent)),
		UnreadCount:   a.Emails.UnreadCount(),
		ActiveFilters: a.Filters.Active(),
		UserEmail:     a.Session.Current().Email,
	}
	if selected != nil {
		snapshot.SelectedEmailID = selected.ID
		snapshot.SelectedEmailSubject = selected.Subject
		snapshot.SelectedEmailFrom = selected.FromEmail
		body := selected.Body
		if len(body) > models.ContextBodyLimit {
			body = body[:models.ContextBodyLimit]
		}
		snapshot.SelectedEmailBody = body
	}
	return snapshot
}

// View returns the current view.
func (a *App) View() models.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Selected returns the currently opened email, if any.
func (a *App) Selected() (models.Email, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.selected == nil {
		return models.Email{}, false
	}
	return *a.selected, true
}

func (a *App) restoreCache(ctx context.Context) {
	if a.cache == nil {
		return
	}
	for _, folder := range []models.Folder{models.FolderInbox, models.FolderSent} {
		emails, err := a.cache.LoadFolderSnapshot(ctx, folder)
		if err != nil {
			a.logger.Debug("snapshot restore failed", zap.String("folder", string(folder)), zap.Error(err))
			continue
		}
		if len(emails) > 0 {
			a.Emails.Restore(folder, emails)
		}
	}
	if messages, err := a.cache.LoadTranscript(ctx); err == nil && len(messages) > 0 {
		a.Assistant.Restore(messages)
	}
}

func (a *App) persistSnapshot(ctx context.Context, folder models.Folder) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SaveFolderSnapshot(ctx, folder, a.Emails.Folder(folder)); err != nil {
		a.logger.Debug("snapshot persist failed", zap.String("folder", string(folder)), zap.Error(err))
	}
}

func (a *App) persistTranscript(ctx context.Context) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SaveTranscript(ctx, a.Assistant.Messages()); err != nil {
		a.logger.Debug("transcript persist failed", zap.Error(err))
	}
}
