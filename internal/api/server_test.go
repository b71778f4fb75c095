package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-chat/internal/config"
	"document-chat/internal/models"
	"document-chat/internal/session"
)

type stubAsker struct {
	err error
}

func (a *stubAsker) Query(_ context.Context, q string) (*models.PromptResponse, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &models.PromptResponse{
		Query:     q,
		Content:   "**Answer:** Slides are *stained*.",
		Source:    "Source: doc.pdf, Page: 2",
		Citations: []models.Citation{{Source: "data/doc.pdf", PageNumber: 2}},
	}, nil
}

func newTestServer(asker session.Asker) *Server {
	return NewServer(config.Default(), asker, session.NewManager())
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestChatPage(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Document Chat</h1>")
	assert.Contains(t, w.Body.String(), `action="/ask"`)
	assert.NotEmpty(t, sessionCookie(t, w).Value)
}

func TestAskForm_AppendsTurnsAndRedirects(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	form := url.Values{"question": {"What is X?"}}
	req := httptest.NewRequest("POST", "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookie := sessionCookie(t, w)

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "<p>What is X?</p>")
	assert.Contains(t, body, "<strong>Answer:</strong> Slides are <em>stained</em>.")
	assert.Less(t, strings.Index(body, "What is X?"), strings.Index(body, "Slides are"))
}

func TestAskForm_ErrorBanner(t *testing.T) {
	srv := newTestServer(&stubAsker{err: fmt.Errorf("%w: model offline", models.ErrGeneration)})

	form := url.Values{"question": {"What is X?"}}
	req := httptest.NewRequest("POST", "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `class="error"`)
	assert.Contains(t, w.Body.String(), "The model failed to answer")
	assert.Contains(t, w.Body.String(), "What is X?")
}

func TestAskJSON(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	req := httptest.NewRequest("POST", "/api/v1/ask", strings.NewReader(`{"question":"What is X?"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body askResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "**Answer:** Slides are *stained*.", body.Answer)
	assert.Equal(t, "Source: doc.pdf, Page: 2", body.Sources)
	assert.Equal(t, []models.Citation{{Source: "data/doc.pdf", PageNumber: 2}}, body.Citations)

	req = httptest.NewRequest("GET", "/api/v1/history", nil)
	req.AddCookie(sessionCookie(t, w))
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var turns []models.Turn
	require.NoError(t, json.NewDecoder(w.Body).Decode(&turns))
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
}

func TestHistory_WithoutSession(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	for _, cookie := range []*http.Cookie{nil, {Name: SessionCookie, Value: "unknown-id"}} {
		req := httptest.NewRequest("GET", "/api/v1/history", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		assert.Empty(t, w.Result().Cookies())
	}

	_, ok := srv.sessions.Lookup("unknown-id")
	assert.False(t, ok)
}

func TestAskJSON_BadRequests(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	for _, body := range []string{`not json`, `{"question":"   "}`} {
		req := httptest.NewRequest("POST", "/api/v1/ask", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestAskJSON_Failure(t *testing.T) {
	srv := newTestServer(&stubAsker{err: errors.New("store offline")})

	req := httptest.NewRequest("POST", "/api/v1/ask", strings.NewReader(`{"question":"What is X?"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "store offline", body["error"])
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(&stubAsker{})

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
