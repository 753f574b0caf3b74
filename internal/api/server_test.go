package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-interpreter/internal/interpreter"
	"github.com/thereceipt/receipt-interpreter/internal/printer"
)

type sink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *sink) Close() error { return nil }

func (s *sink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

type testEnv struct {
	server  *Server
	manager *printer.Manager
	queue   *printer.PrintQueue
	out     *sink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	manager, err := printer.NewManager(filepath.Join(t.TempDir(), "printers.json"), nil)
	require.NoError(t, err)

	out := &sink{}
	pool := printer.NewConnectionPool(printer.WithConnector(func(*printer.Device) (printer.Connection, error) {
		return out, nil
	}))
	queue := printer.NewPrintQueue(pool, manager, printer.WithPollInterval(time.Millisecond))
	t.Cleanup(queue.Stop)

	server := NewServer(manager, queue)
	queue.OnStatus(server.BroadcastJob)

	return &testEnv{server: server, manager: manager, queue: queue, out: out}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if s, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(s))
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const receiptDoc = `{"elements": [{"type": "text", "content": "{{STORE_NAME}}"}, {"type": "feed", "lines": 2}]}`

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestInterpret_DocumentObject(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/interpret",
		`{"document": `+receiptDoc+`, "order": {"storeName": "Corner Cafe"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Calls   []printer.Call  `json:"calls"`
		Lines   []string        `json:"lines"`
		Summary summaryResponse `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, []printer.Call{
		{Op: printer.OpText, Text: "Corner Cafe"},
		{Op: printer.OpFeed, Lines: 2},
		{Op: printer.OpCut},
	}, body.Calls)
	assert.Equal(t, "Corner Cafe", body.Lines[0])
	assert.True(t, body.Summary.OK)
	assert.Equal(t, 2, body.Summary.Elements)
}

func TestInterpret_DocumentString(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/interpret", map[string]any{"document": "{not json"})

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Calls   []printer.Call  `json:"calls"`
		Summary summaryResponse `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, []printer.Call{
		{Op: printer.OpText, Text: interpreter.ErrorText},
		{Op: printer.OpCut},
	}, body.Calls)
	assert.False(t, body.Summary.OK)
	assert.NotEmpty(t, body.Summary.Error)
}

func TestInterpret_MissingDocument(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/interpret", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errNoDocument.Error(), decode(t, w)["error"])
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)

	ok := env.do(t, http.MethodPost, "/validate", `{"document": `+receiptDoc+`}`)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, true, decode(t, ok)["valid"])

	bad := env.do(t, http.MethodPost, "/validate", `{"document": {"elements": [{"type": "barcode", "data": "1", "barcodeType": "QR"}]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	assert.Equal(t, false, decode(t, bad)["valid"])
}

func TestPrinters(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/printer/network", map[string]any{"host": "10.0.0.9"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["printer_id"].(string)

	w = env.do(t, http.MethodPost, "/printer/"+id+"/name", map[string]any{"name": "Kitchen"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/printer/missing/name", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/printer/network", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/printers", nil)
	var body struct {
		Printers []printer.Device `json:"printers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Printers, 1)
	assert.Equal(t, "Kitchen", body.Printers[0].Name)
	assert.Equal(t, printer.DefaultNetworkPort, body.Printers[0].Port)

	w = env.do(t, http.MethodDelete, "/printer/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/printer/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, env.manager.Devices())
}

func TestPrint(t *testing.T) {
	env := newTestEnv(t)
	id := env.manager.AddNetworkPrinter("10.0.0.9", 0, "")

	w := env.do(t, http.MethodPost, "/print", `{"printer_id": "`+id+`", "document": `+receiptDoc+`}`)

	require.Equal(t, http.StatusOK, w.Code)
	jobID := decode(t, w)["job_id"].(string)

	require.Eventually(t, func() bool {
		job, _ := env.queue.Job(jobID)
		return job.Status == printer.JobCompleted
	}, 2*time.Second, 5*time.Millisecond)

	sent := env.out.Bytes()
	assert.True(t, bytes.HasPrefix(sent, []byte{printer.ESC, '@'}))
	assert.Contains(t, string(sent), "BYTE BURGERS")
	assert.True(t, bytes.HasSuffix(sent, []byte{printer.GS, 'V', 0}))

	w = env.do(t, http.MethodGet, "/job/"+jobID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/jobs", nil)
	assert.Len(t, decode(t, w)["jobs"], 1)

	w = env.do(t, http.MethodPost, "/jobs/clear", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["jobs"])
}

func TestPrint_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/print", `{"document": `+receiptDoc+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/print", `{"printer_id": "nope", "document": `+receiptDoc+`}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/job/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/print", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_PrintAndJobEvents(t *testing.T) {
	env := newTestEnv(t)
	id := env.manager.AddNetworkPrinter("10.0.0.9", 0, "")

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "bogus"}))
	var msg struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventError, msg.Event)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": EventPrint,
		"data":  map[string]any{"printer_id": id, "document": json.RawMessage(receiptDoc)},
	}))

	seen := map[string]bool{}
	for !seen["completed"] {
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Event {
		case EventResponse:
			assert.Equal(t, true, msg.Data["success"])
		case EventJobStatus:
			seen[msg.Data["status"].(string)] = true
		}
	}
	assert.True(t, seen["printing"])
}
