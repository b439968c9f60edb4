package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevet/basic-MCI-Recorder/internal/config"
	"github.com/nevet/basic-MCI-Recorder/internal/metrics"
	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

// fakeController answers like the session controller, using RequestPrompter
// for its prompts so the request context is exercised.
type fakeController struct {
	mu       sync.Mutex
	calls    []string
	state    session.State
	savePath string
	err      error
}

func (c *fakeController) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.err
}

func (c *fakeController) Record(ctx context.Context) error {
	return c.record("record")
}

func (c *fakeController) Stop(ctx context.Context) error {
	if err := c.record("stop"); err != nil {
		return err
	}
	path, ok := RequestPrompter{}.PromptSave(ctx)
	if !ok {
		return session.ErrUserCancelledSave
	}
	c.mu.Lock()
	c.savePath = path
	c.mu.Unlock()
	return nil
}

func (c *fakeController) Play(ctx context.Context) error {
	return c.record("play")
}

func (c *fakeController) SelectSource(ctx context.Context, path string) error {
	if err := c.record("select " + path); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.SourcePath = path
	c.mu.Unlock()
	return nil
}

func (c *fakeController) State(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, nil
}

func (c *fakeController) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func newTestServer(t *testing.T) (*Server, *fakeController, *WebDisplay) {
	t.Helper()

	cfg := config.Default()
	cfg.Output.Directory = t.TempDir()

	controller := &fakeController{}
	display := NewWebDisplay()
	registry := prometheus.NewRegistry()
	_, err := metrics.NewSessionMetrics(registry)
	require.NoError(t, err)

	s := New(cfg, controller, display, registry, "0")
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return s, controller, display
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRecordEndpoint(t *testing.T) {
	s, controller, _ := newTestServer(t)
	controller.state.Mode = session.ModeRecording

	rec := postForm(t, s.Routes(), "/record", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "RECORDING", body["state"].(map[string]interface{})["mode"])
	assert.Equal(t, []string{"record"}, controller.Calls())
}

func TestMethodNotAllowed(t *testing.T) {
	s, controller, _ := newTestServer(t)

	for _, path := range []string{"/record", "/stop", "/play"} {
		rec := httptest.NewRecorder()
		s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.Equal(t, false, decodeBody(t, rec)["success"], path)
	}
	assert.Empty(t, controller.Calls())
}

func TestStopSavesIntoOutputDirectory(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"named", url.Values{"path": {"first take"}}, "first_take.wav"},
		{"timestamped", nil, "recording_20240309_140507.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, controller, _ := newTestServer(t)

			rec := postForm(t, s.Routes(), "/stop", tt.form)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, filepath.Join(s.cfg.Output.Directory, tt.want), controller.savePath)
		})
	}
}

func TestPlayResolvesSourceInOutputDirectory(t *testing.T) {
	s, controller, _ := newTestServer(t)

	rec := postForm(t, s.Routes(), "/play", url.Values{"path": {"take1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	want := filepath.Join(s.cfg.Output.Directory, "take1.wav")
	assert.Equal(t, []string{"select " + want, "play"}, controller.Calls())
}

func TestPlayWithoutPathUsesSelectedSource(t *testing.T) {
	s, controller, _ := newTestServer(t)

	rec := postForm(t, s.Routes(), "/play", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"play"}, controller.Calls())
}

func TestPlayRejectsNonWAVSource(t *testing.T) {
	s, controller, _ := newTestServer(t)

	rec := postForm(t, s.Routes(), "/play", url.Values{"path": {"notes.txt"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, controller.Calls())
}

func TestSessionErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: record while PLAYING", session.ErrInvalidTransition), http.StatusConflict},
		{session.ErrUserCancelledSave, http.StatusBadRequest},
		{session.ErrUserCancelledSourceSelection, http.StatusBadRequest},
		{session.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s, controller, _ := newTestServer(t)
			controller.err = tt.err

			rec := postForm(t, s.Routes(), "/record", nil)

			assert.Equal(t, tt.want, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, controller, display := newTestServer(t)
	controller.state = session.State{Mode: session.ModePaused, ElapsedSeconds: 4}
	display.SetStatus(session.StatusPaused)
	display.SetElapsed("00:00:04")

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, session.ModePaused, resp.State.Mode)
	assert.Equal(t, 4, resp.State.ElapsedSeconds)
	assert.Equal(t, session.StatusPaused, resp.Display.Status)
	assert.Equal(t, "00:00:04", resp.Display.Elapsed)
	assert.Equal(t, "default", resp.Profile)
}

func TestRecordingsEndpointEmptyLibrary(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recordings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["total_count"])
	assert.Equal(t, []interface{}{}, body["recordings"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mcirecorder_session_mode{mode="IDLE"} 1`)
}

func TestIndexServesUI(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>MCI Recorder</title>")

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type displayMessage struct {
	Type    string   `json:"type"`
	Display Snapshot `json:"display"`
}

func TestWebSocketPushesDisplay(t *testing.T) {
	s, _, display := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg displayMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "display", msg.Type)
	assert.Equal(t, session.StatusReady, msg.Display.Status)
	assert.Equal(t, session.ModeIdle, msg.Display.Mode)

	display.SetControls(session.Controls(session.ModeRecording))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, session.ModeRecording, msg.Display.Mode)
	assert.Equal(t, "Pause", msg.Display.Controls.RecordLabel)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	header := http.Header{"Origin": {"https://example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://recorder.local:8080", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://192.168.1.20", true},
		{"https://10.0.0.5:8443", true},
		{"http://[::1]:8080", true},
		{"http://evil10.com", false},
		{"http://10.example.com", false},
		{"http://192.168.evil.com", false},
		{"http://8.8.8.8", false},
		{"file://192.168.1.20", false},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://recorder.local:8080/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkOrigin(req))
		})
	}
}
