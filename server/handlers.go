package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"home-voice-control/clients/controller"
	"home-voice-control/intent"
	"home-voice-control/listener"
)

// Envelope is the response body of every endpoint
type Envelope struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type parseRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// JSON writes v as application/json with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, http.StatusOK, Envelope{
		Status:    http.StatusText(http.StatusOK),
		RequestID: middleware.GetReqID(r.Context()),
		Data:      data,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, status, Envelope{
		Status:    http.StatusText(status),
		Error:     msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, map[string]any{"listener": s.control != nil})
}

func (s *Server) understand(w http.ResponseWriter, r *http.Request) (intent.Utterance, []intent.Command, bool) {
	req, err := bindJSON[parseRequest](r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return intent.Utterance{}, nil, false
	}

	u := intent.NewUtterance(req.Text, time.Now())
	return u, s.pipeline.Understand(u), true
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	u, commands, ok := s.understand(w, r)
	if !ok {
		return
	}
	respondOK(w, r, controller.NewPayload(u, commands))
}

func (s *Server) commands(w http.ResponseWriter, r *http.Request) {
	u, commands, ok := s.understand(w, r)
	if !ok {
		return
	}

	if err := s.dispatcher.Dispatch(r.Context(), u, commands); err != nil {
		s.log.Error().Err(err).Str("utterance", u.ID).Msg("dispatching commands failed")
		respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	respondOK(w, r, controller.NewPayload(u, commands))
}

func (s *Server) listenerAction(w http.ResponseWriter, r *http.Request) {
	if s.control == nil {
		respondError(w, r, http.StatusServiceUnavailable, "listener is not running")
		return
	}

	switch chi.URLParam(r, "action") {
	case string(listener.ListenActionWait):
		s.control.HaltListening()
	case string(listener.ListenActionWake):
		s.control.ListenForWake()
	case string(listener.ListenActionCommand):
		s.control.ListenForCommand()
	default:
		respondError(w, r, http.StatusNotFound, "unknown listener action")
		return
	}
	respondOK(w, r, map[string]any{"action": s.control.Action()})
}
