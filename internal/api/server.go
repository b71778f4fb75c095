package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"document-chat/internal/config"
	"document-chat/internal/models"
	"document-chat/internal/session"
)

const SessionCookie = "document_chat_session"

//go:embed templates/chat.html
var templates embed.FS

type Server struct {
	router   *chi.Mux
	addr     string
	title    string
	document string
	asker    session.Asker
	sessions *session.Manager
	markdown goldmark.Markdown
	page     *template.Template
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer    string            `json:"answer"`
	Sources   string            `json:"sources"`
	Citations []models.Citation `json:"citations"`
}

type turnView struct {
	Role models.Role
	HTML template.HTML
}

type pageView struct {
	Title    string
	Document string
	Turns    []turnView
	Error    string
}

func NewServer(cfg *config.Config, asker session.Asker, sessions *session.Manager) *Server {
	router := chi.NewRouter()
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		addr:     cfg.Server.Addr,
		title:    cfg.Server.Title,
		document: cfg.Document.Path,
		asker:    asker,
		sessions: sessions,
		markdown: goldmark.New(),
		page:     template.Must(template.ParseFS(templates, "templates/chat.html")),
	}

	router.Get("/", s.chat)
	router.Post("/ask", s.askForm)
	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.askJSON)
		r.Get("/history", s.history)
	})

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("API server starting")
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, sess, "")
}

func (s *Server) askForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := sess.Ask(r.Context(), s.asker, question); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to answer question")
		s.render(w, r, http.StatusInternalServerError, sess, errorMessage(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) askJSON(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := sess.Ask(r.Context(), s.asker, req.Question)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to answer question")
		writeError(w, http.StatusInternalServerError, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:    resp.Content,
		Sources:   resp.Source,
		Citations: resp.Citations,
	})
}

// history never starts a session. Unknown callers get an empty list.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	turns := []models.Turn{}
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions.Lookup(c.Value); ok {
			turns = sess.Turns()
		}
	}
	writeJSON(w, http.StatusOK, turns)
}

// session returns the caller's session and refreshes the cookie when a
// new session was started.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, sess *session.Session, errMsg string) {
	view := pageView{Title: s.title, Document: s.document, Error: errMsg}
	for _, t := range sess.Turns() {
		view.Turns = append(view.Turns, turnView{Role: t.Role, HTML: s.toHTML(r, t.Content)})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, view); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to render chat page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// toHTML renders markdown. Raw HTML in the source is not passed through.
func (s *Server) toHTML(r *http.Request, md string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to render markdown")
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrDocumentLoad):
		return "The document could not be loaded: " + err.Error()
	case errors.Is(err, models.ErrStoreWrite):
		return "The document store could not be written: " + err.Error()
	case errors.Is(err, models.ErrGeneration):
		return "The model failed to answer: " + err.Error()
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
