package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc
}

// newMockServer creates a new mock server closed at test cleanup.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m.handlers[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		errorResponse(w, http.StatusNotFound, "FP-DATA-4040", "not found")
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.handlers[pattern] = handler
}

// jsonResponse writes a success envelope around data.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    "OK",
		"message": "Success",
		"data":    data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// cliRun runs the app against server with an isolated config file and
// returns what it printed.
type cliRun struct {
	t          *testing.T
	server     string
	configPath string
}

func newCLIRun(t *testing.T, server string) *cliRun {
	t.Helper()
	return &cliRun{
		t:          t,
		server:     server,
		configPath: filepath.Join(t.TempDir(), "cli.yaml"),
	}
}

func (r *cliRun) run(args ...string) (string, error) {
	r.t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out

	full := []string{"fp4-cli", "--config", r.configPath}
	if r.server != "" {
		full = append(full, "--server", r.server)
	}
	full = append(full, args...)
	err := app.Run(full)
	return out.String(), err
}

func (r *cliRun) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	if err != nil {
		r.t.Fatalf("fp4-cli %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
