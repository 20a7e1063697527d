package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, "registration successful", http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "registration successful", env.Message)
	assert.Empty(t, env.Code)
}

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "user not found", CodeUserNotFound, http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "user not found", env.Message)
	assert.Equal(t, CodeUserNotFound, env.Code)
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, "", http.StatusOK)

	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}
