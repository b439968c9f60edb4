package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nevet/basic-MCI-Recorder/internal/config"
	"github.com/nevet/basic-MCI-Recorder/internal/library"
	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Controller is the part of the session controller the server drives.
type Controller interface {
	Record(ctx context.Context) error
	Stop(ctx context.Context) error
	Play(ctx context.Context) error
	SelectSource(ctx context.Context, path string) error
	State(ctx context.Context) (session.State, error)
}

// Server is the HTTP remote control for a recorder session
type Server struct {
	controller Controller
	display    *WebDisplay
	registry   *prometheus.Registry
	cfg        *config.Config
	port       string

	now func() time.Time
}

// StatusResponse represents the JSON response for status endpoint
type StatusResponse struct {
	State   session.State `json:"state"`
	Display Snapshot      `json:"display"`
	Profile string        `json:"profile"`
}

// RecordingsResponse represents the JSON response for recordings endpoint
type RecordingsResponse struct {
	Recordings      []library.Recording `json:"recordings"`
	TotalCount      int                 `json:"total_count"`
	OutputDirectory string              `json:"output_directory"`
}

// GenericResponse represents a generic API response
type GenericResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	State   *session.State `json:"state,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// New creates a new web server instance. The controller must have been built
// with display as its Display and RequestPrompter as its Prompter.
func New(cfg *config.Config, controller Controller, display *WebDisplay, registry *prometheus.Registry, port string) *Server {
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Server.Port)
	}

	return &Server{
		controller: controller,
		display:    display,
		registry:   registry,
		cfg:        cfg,
		port:       port,
		now:        time.Now,
	}
}

// Routes returns the handler serving every endpoint
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/record", s.handleRecord)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/play", s.handlePlay)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/recordings", s.handleRecordings)
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	localIP := getLocalIP()

	slog.Info("Starting MCI Recorder Web Server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("Stopping MCI Recorder Web Server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleIndex serves the main web UI
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(getDefaultHTML()))
}

// handleRecord starts, pauses or resumes a recording
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.controller.Record(r.Context()); err != nil {
		s.sendSessionError(w, err, "record")
		return
	}

	s.sendSuccess(r.Context(), w)
}

// handleStop stops the session. A recording is saved into the output
// directory under the form value "path", or a timestamped name.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid form data", "operation", "stop", "error", err)
		return
	}

	savePath := library.NewRecordingPath(s.cfg.Output.Directory, r.FormValue("path"), s.now())
	ctx := WithSavePath(r.Context(), savePath)

	if err := s.controller.Stop(ctx); err != nil {
		s.sendSessionError(w, err, "stop")
		return
	}

	s.sendSuccess(r.Context(), w)
}

// handlePlay plays the form value "path" or the last selected source
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid form data", "operation", "play", "error", err)
		return
	}

	if name := r.FormValue("path"); name != "" {
		path, err := library.Resolve(s.cfg.Output.Directory, name)
		if err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error(), "operation", "play")
			return
		}
		if err := s.controller.SelectSource(r.Context(), path); err != nil {
			s.sendSessionError(w, err, "play")
			return
		}
	}

	if err := s.controller.Play(r.Context()); err != nil {
		s.sendSessionError(w, err, "play")
		return
	}

	s.sendSuccess(r.Context(), w)
}

// handleStatus returns the session state and the current display
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	state, err := s.controller.State(r.Context())
	if err != nil {
		s.sendSessionError(w, err, "status")
		return
	}

	response := StatusResponse{
		State:   state,
		Display: s.display.Snapshot(),
		Profile: s.cfg.Profile,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleRecordings lists the recordings library
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	recordings, err := library.List(s.cfg.Output.Directory)
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list recordings: %v", err),
			"operation", "list_recordings")
		return
	}
	if recordings == nil {
		recordings = []library.Recording{}
	}

	response := RecordingsResponse{
		Recordings:      recordings,
		TotalCount:      len(recordings),
		OutputDirectory: s.cfg.Output.Directory,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   "Method not allowed",
	})
	return false
}

func (s *Server) sendSuccess(ctx context.Context, w http.ResponseWriter) {
	response := GenericResponse{
		Success: true,
		Message: s.display.Snapshot().Status,
	}
	if state, err := s.controller.State(ctx); err == nil {
		response.State = &state
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendSessionError maps controller errors to HTTP status codes
func (s *Server) sendSessionError(w http.ResponseWriter, err error, operation string) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		statusCode = http.StatusConflict
	case errors.Is(err, session.ErrUserCancelledSave), errors.Is(err, session.ErrUserCancelledSourceSelection):
		statusCode = http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		statusCode = http.StatusServiceUnavailable
	}

	s.sendErrorResponse(w, statusCode, err.Error(), "operation", operation)
}

// sendErrorResponse logs the error and sends a JSON error response to the client
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...interface{}) {
	// Log the error with structured context
	logFields := []interface{}{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errorMsg,
	})
}

func getLocalIP() string {
	// Try to connect to a remote address to determine local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
