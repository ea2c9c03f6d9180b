package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rmail/rmail/internal/models"
)

func inboxFixture() []models.Email {
	return []models.Email{
		{ID: "1", Subject: "First", FromName: "Ana", IsRead: false, Folder: models.FolderInbox},
		{ID: "2", Subject: "Second", FromName: "Bob", IsRead: true, Folder: models.FolderInbox},
		{ID: "3", Subject: "Third", FromName: "Cyn", IsRead: false, Folder: models.FolderInbox},
	}
}

func newEmailFixture(client BackendClient) (*EmailServiceImpl, *FilterServiceImpl) {
	filters := NewFilterService()
	return NewEmailService(client, filters, nil), filters
}

func TestFetchReplacesFolderAndDedupes(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	withDup := append(inboxFixture(), models.Email{ID: "1", Subject: "Duplicate"})
	client.On("ListEmails", mock.Anything, models.FolderInbox, models.Filter{}).
		Return(withDup, nil).Once()

	require.NoError(t, svc.Fetch(context.Background(), models.FolderInbox, nil))

	inbox := svc.Folder(models.FolderInbox)
	require.Len(t, inbox, 3)
	assert.Equal(t, "First", inbox[0].Subject) // first occurrence wins
	assert.Equal(t, 2, svc.UnreadCount())
	client.AssertExpectations(t)
}

func TestFetchFailureLeavesCollectionUntouched(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	client.On("ListEmails", mock.Anything, models.FolderInbox, models.Filter{}).
		Return(inboxFixture(), nil).Once()
	require.NoError(t, svc.Fetch(context.Background(), models.FolderInbox, nil))

	client.On("ListEmails", mock.Anything, models.FolderInbox, models.Filter{}).
		Return(nil, errors.New("backend down")).Once()
	err := svc.Fetch(context.Background(), models.FolderInbox, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Len(t, svc.Folder(models.FolderInbox), 3)
	assert.Equal(t, 2, svc.UnreadCount())
}

func TestFetchOverrideTakesPrecedenceOverCommitted(t *testing.T) {
	client := &MockBackendClient{}
	svc, filters := newEmailFixture(client)

	filters.Apply(context.Background(), models.Filter{Sender: "ana"})
	override := models.Filter{Keyword: "invoice"}

	client.On("ListEmails", mock.Anything, models.FolderInbox, override).
		Return([]models.Email{}, nil).Once()

	require.NoError(t, svc.Fetch(context.Background(), models.FolderInbox, &override))
	client.AssertExpectations(t)
}

func TestFetchRejectsUnknownFolder(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	err := svc.Fetch(context.Background(), models.Folder("archive"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())
	require.Equal(t, 2, svc.UnreadCount())

	client.On("MarkRead", mock.Anything, "1").Return(nil).Once()

	require.NoError(t, svc.MarkRead(context.Background(), "1"))
	assert.Equal(t, 1, svc.UnreadCount())

	// second call is a no-op: no network, no second decrement
	require.NoError(t, svc.MarkRead(context.Background(), "1"))
	assert.Equal(t, 1, svc.UnreadCount())

	email, ok := svc.Find("1")
	require.True(t, ok)
	assert.True(t, email.IsRead)
	client.AssertExpectations(t)
}

func TestMarkReadSurvivesBackendFailure(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())

	client.On("MarkRead", mock.Anything, "3").Return(errors.New("timeout")).Once()

	require.NoError(t, svc.MarkRead(context.Background(), "3"))
	email, _ := svc.Find("3")
	assert.True(t, email.IsRead)
	assert.Equal(t, 1, svc.UnreadCount())
}

func TestMarkReadUnknownID(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())

	err := svc.MarkRead(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	client.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestToggleStarAppliesBackendValue(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())

	client.On("ToggleStar", mock.Anything, "2").Return(true, nil).Once()
	require.NoError(t, svc.ToggleStar(context.Background(), "2"))
	email, _ := svc.Find("2")
	assert.True(t, email.Starred)

	client.On("ToggleStar", mock.Anything, "2").Return(false, nil).Once()
	require.NoError(t, svc.ToggleStar(context.Background(), "2"))
	email, _ = svc.Find("2")
	assert.False(t, email.Starred)
}

func TestToggleStarBackendFailureChangesNothing(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())

	client.On("ToggleStar", mock.Anything, "2").Return(false, errors.New("down")).Once()

	err := svc.ToggleStar(context.Background(), "2")
	require.Error(t, err)
	email, _ := svc.Find("2")
	assert.False(t, email.Starred)
}

func TestSendValidatesDraft(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	assert.ErrorIs(t, svc.Send(context.Background(), models.Draft{Subject: "no recipient"}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Send(context.Background(), models.Draft{To: "a@b.c"}), ErrInvalidInput)
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestSendRefreshesSentFolder(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	expected := models.SendRequest{
		ToEmail: "ana@example.com",
		ToName:  "ana",
		Subject: "Hi",
		Body:    "Hello",
	}
	client.On("SendEmail", mock.Anything, expected).
		Return(models.Email{ID: "s1"}, nil).Once()
	client.On("ListEmails", mock.Anything, models.FolderSent, models.Filter{}).
		Return([]models.Email{{ID: "s1", Subject: "Hi"}}, nil).Once()

	require.NoError(t, svc.Send(context.Background(), models.Draft{
		To: "ana@example.com", Subject: "Hi", Body: "Hello",
	}))
	assert.Len(t, svc.Folder(models.FolderSent), 1)
	client.AssertExpectations(t)
}

func TestSendCarriesReplyContext(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	expected := models.SendRequest{
		ToEmail:          "ana@example.com",
		ToName:           "ana",
		Subject:          "Re: Hi",
		Body:             "Hello back",
		ReplyToMessageID: "<m1>",
		ThreadID:         "t1",
	}
	client.On("SendEmail", mock.Anything, expected).
		Return(models.Email{ID: "s2"}, nil).Once()
	client.On("ListEmails", mock.Anything, models.FolderSent, models.Filter{}).
		Return([]models.Email{}, nil).Once()

	draft := models.Draft{
		To: "ana@example.com", Subject: "Re: Hi", Body: "Hello back",
		Reply: &models.ReplyContext{MessageID: "<m1>", ThreadID: "t1"},
	}
	require.NoError(t, svc.Send(context.Background(), draft))
	client.AssertExpectations(t)
}

func TestSendFailure(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	client.On("SendEmail", mock.Anything, mock.Anything).
		Return(models.Email{}, errors.New("rejected")).Once()

	err := svc.Send(context.Background(), models.Draft{To: "a@b.c", Subject: "x"})
	assert.ErrorIs(t, err, ErrSendFailed)
	client.AssertNotCalled(t, "ListEmails", mock.Anything, mock.Anything, mock.Anything)
}

func TestMergePushPrependsOnlyNewIDs(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())

	fresh := models.Email{ID: "9", Subject: "Fresh", IsRead: false}
	svc.MergePush(models.PushEvent{Type: models.EventNewEmail, Email: &fresh})

	inbox := svc.Folder(models.FolderInbox)
	require.Len(t, inbox, 4)
	assert.Equal(t, "9", inbox[0].ID)
	assert.Equal(t, 3, svc.UnreadCount())

	// a replayed push must not duplicate or recount
	svc.MergePush(models.PushEvent{Type: models.EventNewEmail, Email: &fresh})
	assert.Len(t, svc.Folder(models.FolderInbox), 4)
	assert.Equal(t, 3, svc.UnreadCount())
}

func TestMergePushSentEvent(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	sent := models.Email{ID: "s1", Subject: "Out", IsRead: true}
	svc.MergePush(models.PushEvent{Type: models.EventEmailSent, Email: &sent})

	assert.Len(t, svc.Folder(models.FolderSent), 1)
	assert.Empty(t, svc.Folder(models.FolderInbox))
	assert.Equal(t, 0, svc.UnreadCount())
}

func TestMergePushIgnoresEmptyPayload(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)

	svc.MergePush(models.PushEvent{Type: models.EventNewEmail})
	assert.Empty(t, svc.Folder(models.FolderInbox))
}

func TestClearEmptiesEverything(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, inboxFixture())
	svc.Restore(models.FolderSent, []models.Email{{ID: "s1"}})

	svc.Clear()

	assert.Empty(t, svc.Folder(models.FolderInbox))
	assert.Empty(t, svc.Folder(models.FolderSent))
	assert.Equal(t, 0, svc.UnreadCount())
}

func TestFindSearchesInboxFirst(t *testing.T) {
	client := &MockBackendClient{}
	svc, _ := newEmailFixture(client)
	svc.Restore(models.FolderInbox, []models.Email{{ID: "x", Subject: "inbox copy"}})
	svc.Restore(models.FolderSent, []models.Email{{ID: "x", Subject: "sent copy"}})

	email, ok := svc.Find("x")
	require.True(t, ok)
	assert.Equal(t, "inbox copy", email.Subject)
}
