// Package api implements the REST client for the rmail backend. Every
// authenticated request carries the stored bearer credential; the login and
// callback endpoints are the only exceptions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/models"
	"github.com/rmail/rmail/pkg/auth"
)

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// IsUnauthorized reports whether err is a 401 response, meaning the held
// credential is invalid or expired.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}

// Client talks to the rmail REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      auth.CredentialStore
	logger     *zap.Logger
}

// NewClient creates a backend client. The timeout bounds every request so a
// hung backend cannot hang the engine indefinitely.
func NewClient(baseURL string, creds auth.CredentialStore, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		logger:     logger,
	}
}

// withAuth controls whether the stored credential is attached.
type requestOptions struct {
	withAuth bool
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, opts requestOptions) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.withAuth {
		token, err := c.creds.Token()
		if err != nil {
			return fmt.Errorf("load credential: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// AuthStatus fetches the backend's view of the session.
func (c *Client) AuthStatus(ctx context.Context) (models.Session, error) {
	var status models.Session
	err := c.do(ctx, http.MethodGet, "/auth/status", nil, nil, &status, requestOptions{withAuth: true})
	return status, err
}

// LoginURL requests the authorization URL that starts the login flow.
func (c *Client) LoginURL(ctx context.Context) (string, error) {
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/login", nil, nil, &out, requestOptions{}); err != nil {
		return "", err
	}
	return out.AuthURL, nil
}

// ExchangeCode exchanges an authorization code for a bearer credential.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("code cannot be empty")
	}
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	q := url.Values{"code": {code}}
	if err := c.do(ctx, http.MethodGet, "/auth/callback", q, nil, &out, requestOptions{}); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Logout invalidates the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, requestOptions{withAuth: true})
}

// ListEmails fetches a folder with the given filter applied. Result order
// is backend-defined and authoritative.
func (c *Client) ListEmails(ctx context.Context, folder models.Folder, filter models.Filter) ([]models.Email, error) {
	q := url.Values{"folder": {string(folder)}}
	if filter.Sender != "" {
		q.Set("sender", filter.Sender)
	}
	if filter.Keyword != "" {
		q.Set("keyword", filter.Keyword)
	}
	if filter.UnreadOnly {
		q.Set("unread_only", "true")
	}
	if filter.DateFrom != "" {
		q.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q.Set("date_to", filter.DateTo)
	}

	var emails []models.Email
	if err := c.do(ctx, http.MethodGet, "/emails", q, nil, &emails, requestOptions{withAuth: true}); err != nil {
		return nil, err
	}
	return emails, nil
}

// GetEmail fetches a single email by id.
func (c *Client) GetEmail(ctx context.Context, id string) (models.Email, error) {
	var email models.Email
	err := c.do(ctx, http.MethodGet, "/emails/"+url.PathEscape(id), nil, nil, &email, requestOptions{withAuth: true})
	return email, err
}

// GetThread fetches all messages of a conversation thread.
func (c *Client) GetThread(ctx context.Context, threadID string) ([]models.Email, error) {
	var emails []models.Email
	err := c.do(ctx, http.MethodGet, "/emails/thread/"+url.PathEscape(threadID), nil, nil, &emails, requestOptions{withAuth: true})
	return emails, err
}

// MarkRead marks an email as read on the backend.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/read", nil, nil, nil, requestOptions{withAuth: true})
}

// ToggleStar flips the starred flag on the backend and returns the new
// value, which callers must treat as authoritative.
func (c *Client) ToggleStar(ctx context.Context, id string) (bool, error) {
	var out struct {
		Success bool `json:"success"`
		Starred bool `json:"starred"`
	}
	if err := c.do(ctx, http.MethodPut, "/emails/"+url.PathEscape(id)+"/star", nil, nil, &out, requestOptions{withAuth: true}); err != nil {
		return false, err
	}
	return out.Starred, nil
}

// SendEmail posts an outgoing message and returns the stored copy.
func (c *Client) SendEmail(ctx context.Context, req models.SendRequest) (models.Email, error) {
	var email models.Email
	err := c.do(ctx, http.MethodPost, "/emails/send", nil, req, &email, requestOptions{withAuth: true})
	return email, err
}

// Chat posts a user message plus context snapshot and returns the
// assistant's reply and action plan.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatReply, error) {
	var reply models.ChatReply
	err := c.do(ctx, http.MethodPost, "/ai/chat", nil, req, &reply, requestOptions{withAuth: true})
	return reply, err
}

// ChatHistory fetches the stored conversation transcript.
func (c *Client) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := c.do(ctx, http.MethodGet, "/chat/history", nil, nil, &messages, requestOptions{withAuth: true})
	return messages, err
}

// ClearChatHistory deletes the stored transcript on the backend.
func (c *Client) ClearChatHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/chat/history", nil, nil, nil, requestOptions{withAuth: true})
}
