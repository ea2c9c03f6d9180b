package app

import (
	"net/url"
)

// EntryParams are the one-shot parameters a login redirect can carry into
// the client.
type EntryParams struct {
	Code  string // authorization code to exchange
	Login string // "success" after a server-side redirect flow
	Error string // login failure description
}

// ConsumeEntryParams extracts the login-related query parameters from an
// entry URL and returns the URL with those parameters removed, so they are
// acted on exactly once and never survive in the visible location. An
// unparseable URL is returned untouched with empty params.
func ConsumeEntryParams(rawURL string) (EntryParams, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return EntryParams{}, rawURL
	}

	query := u.Query()
	params := EntryParams{
		Code:  query.Get("code"),
		Login: query.Get("login"),
		Error: query.Get("error"),
	}
	if params.Code == "" && params.Login == "" && params.Error == "" {
		return params, rawURL
	}

	query.Del("code")
	query.Del("login")
	query.Del("error")
	query.Del("state")
	u.RawQuery = query.Encode()
	return params, u.String()
}
