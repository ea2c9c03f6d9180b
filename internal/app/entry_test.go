package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumeEntryParamsExtractsAndStrips(t *testing.T) {
	params, cleaned := ConsumeEntryParams("http://localhost:3000/?code=abc123&state=xyz")

	assert.Equal(t, "abc123", params.Code)
	assert.Empty(t, params.Login)
	assert.Empty(t, params.Error)
	assert.NotContains(t, cleaned, "code=")
	assert.NotContains(t, cleaned, "state=")
}

func TestConsumeEntryParamsLoginSuccess(t *testing.T) {
	params, cleaned := ConsumeEntryParams("http://localhost:3000/?login=success")

	assert.Equal(t, "success", params.Login)
	assert.NotContains(t, cleaned, "login=")
}

func TestConsumeEntryParamsError(t *testing.T) {
	params, cleaned := ConsumeEntryParams("http://localhost:3000/?error=access_denied")

	assert.Equal(t, "access_denied", params.Error)
	assert.NotContains(t, cleaned, "error=")
}

func TestConsumeEntryParamsKeepsUnrelatedQuery(t *testing.T) {
	_, cleaned := ConsumeEntryParams("http://localhost:3000/?code=abc&tab=archive")

	assert.Contains(t, cleaned, "tab=archive")
	assert.NotContains(t, cleaned, "code=")
}

func TestConsumeEntryParamsPlainURLUntouched(t *testing.T) {
	raw := "http://localhost:3000/inbox"
	params, cleaned := ConsumeEntryParams(raw)

	assert.Equal(t, EntryParams{}, params)
	assert.Equal(t, raw, cleaned)
}

func TestConsumeEntryParamsEmpty(t *testing.T) {
	params, cleaned := ConsumeEntryParams("")
	assert.Equal(t, EntryParams{}, params)
	assert.Empty(t, cleaned)
}
