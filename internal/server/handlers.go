package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/play"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// runErrorStatus maps a run error onto the status returned to our caller.
func runErrorStatus(err error) int {
	var svcErr *carcin.ServiceError
	if errors.As(err, &svcErr) && svcErr.StatusCode >= 400 && svcErr.StatusCode < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// --- Stateless run ---

type runRequest struct {
	Code    string         `json:"code"`
	Options carcin.Options `json:"options"`
}

type runResponse struct {
	Run    *carcin.Run `json:"run"`
	Stderr string      `json:"stderr"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	run, err := s.runner.Submit(r.Context(), req.Code, s.widgetCfg.Options.Merge(req.Options))
	if err != nil {
		log.Printf("run failed: %v", err)
		writeError(w, runErrorStatus(err), play.ErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Run:    run,
		Stderr: s.widgetCfg.Translator.Translate(run.Stderr),
	})
}

// --- Widget handlers ---

type widgetResponse struct {
	play.View
	HTML string `json:"html"`
}

func newWidgetResponse(v play.View) (widgetResponse, error) {
	html, err := v.HTML()
	if err != nil {
		return widgetResponse{}, err
	}
	return widgetResponse{View: v, HTML: html}, nil
}

func (s *Server) writeWidget(w http.ResponseWriter, status int, widget *play.Widget) {
	resp, err := newWidgetResponse(widget.View())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, resp)
}

type createWidgetRequest struct {
	Code    string         `json:"code"`
	Options carcin.Options `json:"options"`
}

func (s *Server) handleCreateWidget(w http.ResponseWriter, r *http.Request) {
	var req createWidgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	cfg := s.widgetCfg
	cfg.Options = cfg.Options.Merge(req.Options)
	widget := s.widgets.Create(req.Code, s.runner, cfg)

	s.writeWidget(w, http.StatusCreated, widget)
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widgets.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "widget not found")
		return
	}
	s.writeWidget(w, http.StatusOK, widget)
}

func (s *Server) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	if !s.widgets.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "widget not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type runWidgetRequest struct {
	Code *string `json:"code"`
}

func (s *Server) handleRunWidget(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widgets.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "widget not found")
		return
	}

	var req runWidgetRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	run := widget.RunAndWait
	if req.Code != nil {
		code := *req.Code
		run = func(ctx context.Context) (play.Outcome, error) {
			return widget.RunCodeAndWait(ctx, code)
		}
	}

	// A failed run is still a 200: the failure is part of the widget view.
	if _, err := run(r.Context()); err != nil {
		if errors.Is(err, play.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeWidget(w, http.StatusOK, widget)
}
