package models

import "strings"

// ReplySubject builds the subject line for a reply. At most one existing
// "Re:" prefix is stripped before the new one is added, so replying to
// "Re: Re: Hello" yields "Re: Re: Hello" rather than collapsing the chain.
func ReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "re:") {
		trimmed = strings.TrimSpace(trimmed[len("re:"):])
	}
	return "Re: " + trimmed
}

// ReplyRecipient picks the counterpart of the exchange relative to the
// authenticated user: replying to mail you sent goes back to its recipient,
// anything else goes back to its sender.
func ReplyRecipient(e Email, userEmail string) string {
	if e.FromEmail == userEmail {
		return e.ToEmail
	}
	return e.FromEmail
}

// ReplyDraft assembles the compose draft for replying to an email,
// carrying the original identifiers so the backend threads it.
func ReplyDraft(original Email, userEmail, body string) Draft {
	return Draft{
		To:      ReplyRecipient(original, userEmail),
		Subject: ReplySubject(original.Subject),
		Body:    body,
		Reply: &ReplyContext{
			MessageID: original.MessageID,
			ThreadID:  original.ThreadID,
		},
	}
}
