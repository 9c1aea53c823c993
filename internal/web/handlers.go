package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/JonMunkholm/orcaflow/internal/core"
	"github.com/JonMunkholm/orcaflow/internal/logging"
	"github.com/JonMunkholm/orcaflow/internal/web/templates"
)

// toastRefresh is how often the event stream checks for expired toasts.
var toastRefresh = time.Second

// handleIndex renders the full page for the session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	s.renderPage(w, r, ctrl)
}

// handleUpload accepts exactly one spreadsheet under the "file" field.
//
// Status codes:
//   - 400: no file, more than one file, malformed form
//   - 409: a file is being read or a run is in progress
//   - 413: file larger than UPLOAD_MAX_FILE_SIZE
//   - 415: extension and declared type are not a spreadsheet
//
// A file that cannot be parsed is not an HTTP error: the session moves to
// the error stage and the page shows it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	log := logging.FromContext(r.Context())

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+uploadOverhead)

	if err := r.ParseMultipartForm(maxSize + uploadOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errInvalidRequest, err), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("remove multipart temp files", "error", err)
		}
	}()

	header, err := singleFile(r.MultipartForm)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if header.Size > maxSize {
		respondError(w, r, fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, header.Size), http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := core.AcceptFile(header.Filename, contentType); err != nil {
		respondError(w, r, err, http.StatusUnsupportedMediaType)
		return
	}

	data, err := readFile(header)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: read upload: %v", errInvalidRequest, err), http.StatusBadRequest)
		return
	}

	file := core.UploadedFile{Name: header.Filename, Size: header.Size, ContentType: contentType}
	if err := ctrl.SelectFile(r.Context(), file, data); err != nil {
		if errors.Is(err, core.ErrUploadDisabled) {
			respondError(w, r, err, http.StatusConflict)
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, s.stateResponse(ctrl.Snapshot()))
		return
	}
	redirectHome(w, r)
}

// singleFile returns the only file in the "file" field.
func singleFile(form *multipart.Form) (*multipart.FileHeader, error) {
	var files []*multipart.FileHeader
	for _, fhs := range form.File {
		files = append(files, fhs...)
	}
	switch {
	case len(files) == 0:
		return nil, core.ErrNoFile
	case len(files) > 1:
		return nil, fmt.Errorf("%w: got %d", core.ErrTooManyFiles, len(files))
	}
	if len(form.File["file"]) != 1 {
		return nil, fmt.Errorf("%w: expected field \"file\"", core.ErrNoFile)
	}
	return files[0], nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleProcess starts a run for the loaded spreadsheet.
//
// Status codes:
//   - 202: run started (JSON)
//   - 409: nothing loaded, or not idle
//   - 503: no run slot freed up within UPLOAD_MAX_WAIT_TIME
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}

	runID, err := ctrl.StartProcessing(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoGrid), errors.Is(err, core.ErrNotIdle):
			respondError(w, r, err, http.StatusConflict)
		case errors.Is(err, core.ErrTooManyRuns):
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Upload.MaxWaitTime.Seconds())))
			respondError(w, r, err, http.StatusServiceUnavailable)
		default:
			respondError(w, r, err, http.StatusServiceUnavailable)
		}
		return
	}

	s.respondAction(w, r, ctrl, http.StatusAccepted, map[string]string{"run_id": runID})
}

// handleDownload acknowledges a download of the consolidated spreadsheet.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}

	if err := ctrl.RequestDownload(r.Context()); err != nil {
		respondError(w, r, err, http.StatusConflict)
		return
	}

	s.respondAction(w, r, ctrl, http.StatusAccepted, map[string]string{"status": "started"})
}

// respondAction answers a successful action by client kind: datastar gets the
// new #app and a cleared alert, JSON clients get body, forms are redirected.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, ctrl *core.Controller, status int, body any) {
	switch {
	case isDatastar(r):
		sse := datastar.NewSSE(w, r)
		if err := sse.PatchElementTempl(templates.AlertSlot()); err != nil {
			return
		}
		if err := sse.PatchElementTempl(templates.App(s.appView(ctrl.Snapshot()))); err != nil {
			logging.FromContext(r.Context()).Debug("patch app", "error", err)
		}
	case wantsJSON(r):
		writeJSON(w, status, body)
	default:
		redirectHome(w, r)
	}
}

// handleUpdates streams #app patches for the session until the client
// disconnects or the session is evicted.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	log := logging.FromContext(r.Context())

	updates := ctrl.Updates().Subscribe()
	defer ctrl.Updates().Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)

	ticker := time.NewTicker(toastRefresh)
	defer ticker.Stop()

	// The page may be stale by the time the stream connects.
	toasts, err := s.sendApp(sse, ctrl)
	if err != nil {
		log.Debug("event stream closed", "error", err)
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-updates:
			if !open {
				return
			}
			if toasts, err = s.sendApp(sse, ctrl); err != nil {
				_ = sse.ConsoleError(err)
			}
		case <-ticker.C:
			if toasts == 0 {
				continue
			}
			// Re-render only once a toast has expired.
			if len(ctrl.Snapshot().Toasts) == toasts {
				continue
			}
			if toasts, err = s.sendApp(sse, ctrl); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// sendApp patches #app and returns the number of toasts rendered.
func (s *Server) sendApp(sse *datastar.ServerSentEventGenerator, ctrl *core.Controller) (int, error) {
	state := ctrl.Snapshot()
	return len(state.Toasts), sse.PatchElementTempl(templates.App(s.appView(state)))
}

// StateResponse is the JSON view of a session.
type StateResponse struct {
	State          core.State   `json:"state"`
	UploadDisabled bool         `json:"upload_disabled"`
	CanProcess     bool         `json:"can_process"`
	CanDownload    bool         `json:"can_download"`
	Preview        *PreviewJSON `json:"preview,omitempty"`
	Status         *StatusJSON  `json:"status,omitempty"`
}

// PreviewJSON is the JSON form of core.Preview.
type PreviewJSON struct {
	FileName  string     `json:"file_name"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	Detected  int        `json:"detected"`
	Remaining int        `json:"remaining"`
}

// StatusJSON is the JSON form of core.StatusView.
type StatusJSON struct {
	Stage          core.Stage        `json:"stage"`
	Progress       int               `json:"progress"`
	Steps          []core.StatusStep `json:"steps,omitempty"`
	ItemsProcessed int               `json:"items_processed"`
	TotalItems     int               `json:"total_items"`
	Complete       bool              `json:"complete"`
	Failed         bool              `json:"failed"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

func (s *Server) stateResponse(state core.State) StateResponse {
	view := s.appView(state)
	resp := StateResponse{
		State:          state,
		UploadDisabled: state.UploadDisabled(),
		CanProcess:     state.CanProcess(),
		CanDownload:    state.CanDownload(),
	}

	if p := view.Preview; p != nil {
		rows := make([][]string, len(p.Rows))
		for i, row := range p.Rows {
			rows[i] = row.Strings()
		}
		resp.Preview = &PreviewJSON{
			FileName:  p.FileName,
			Headers:   p.Headers.Strings(),
			Rows:      rows,
			Detected:  p.Detected,
			Remaining: p.Remaining,
		}
	}

	if st := view.Status; st.Visible {
		resp.Status = &StatusJSON{
			Stage:          st.Stage,
			Progress:       st.Progress,
			Steps:          st.Steps,
			ItemsProcessed: st.ItemsProcessed,
			TotalItems:     st.TotalItems,
			Complete:       st.Complete,
			Failed:         st.Failed,
			ErrorMessage:   st.ErrorMessage,
		}
	}
	return resp
}

// handleState returns the session state as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.stateResponse(ctrl.Snapshot()))
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string                `json:"status"`
	Sessions int                   `json:"sessions"`
	Streams  int                   `json:"streams"`
	Runs     core.RunLimiterStatus `json:"runs"`
}

// handleHealth reports liveness and run capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Streams:  s.service.SubscriberCount(),
		Runs:     s.service.Limiter().Status(),
	})
}
