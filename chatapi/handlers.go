package chatapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Overwatch47/SpectraScout/agent"
	"github.com/Overwatch47/SpectraScout/session"
)

const (
	userHeader  = "X-User-ID"
	defaultUser = "user"
	maxBodySize = 1 << 20
)

type sessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type sessionDetail struct {
	sessionSummary
	UserID string `json:"user_id"`
	Turns  []turn `json:"turns"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type codeRequest struct {
	Code     *string `json:"code"`
	Language string `json:"language"`
}

type toolResponse struct {
	Result string `json:"result"`
}

func userID(r *http.Request) string {
	if id := r.Header.Get(userHeader); id != "" {
		return id
	}
	return defaultUser
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Create(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Sessions.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]sessionSummary, 0, len(list))
	for _, sess := range list {
		out = append(out, summarize(sess))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	detail := sessionDetail{
		sessionSummary: summarize(sess),
		UserID:         sess.UserID,
		Turns:          []turn{},
	}
	for _, c := range sess.Events {
		// Tool calls and their responses carry no visible text.
		if text := agent.Text(c); text != "" {
			detail.Turns = append(detail.Turns, turn{Role: c.Role, Text: text})
		}
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.Runner.Run(r.Context(), userID(r), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{SessionID: res.SessionID, Reply: res.Reply})
}

func (s *Server) handleDebugCode(w http.ResponseWriter, r *http.Request) {
	req, ok := s.codeRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toolResponse{Result: s.deps.Checker.Check(r.Context(), req.Language, *req.Code)})
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	req, ok := s.codeRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toolResponse{Result: s.deps.Code.Report(r.Context(), *req.Code)})
}

func (s *Server) codeRequest(w http.ResponseWriter, r *http.Request) (codeRequest, bool) {
	var req codeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return req, false
	}
	if req.Code == nil {
		s.writeError(w, r, fmt.Errorf("%w: code is required", errBadRequest))
		return req, false
	}
	return req, true
}

func summarize(sess *session.Session) sessionSummary {
	return sessionSummary{ID: sess.ID, CreatedAt: sess.CreatedAt, UpdatedAt: sess.UpdatedAt}
}
