package akinator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/eolso/akinator/store"
	"github.com/stretchr/testify/require"
)

const gamePageFmt = `<!DOCTYPE html>
<html><body>
<div class="bubble-body"><p class="question-text" id="question-label">
  %s
</p></div>
<form id="askSoundlike" method="post" action="/sound_like">
  <input type="hidden" name="session" value="%s">
  <input type="hidden" name="signature" value="%s">
</form>
<form id="other"><input name="session" value="decoy"></form>
</body></html>`

type recordedRequest struct {
	Path   string
	Form   url.Values
	Header http.Header
}

// mockService mimics the game service's /game, /answer, /back and /exclude
// endpoints. Question n is "Question n"; answering into guessAt returns a
// proposition instead.
type mockService struct {
	*httptest.Server

	mu       sync.Mutex
	guessAt  int
	requests []recordedRequest
	status   map[string]int    // one-shot status override per path
	raw      map[string]string // one-shot body override per path
	gamePage string
}

func newMockService(t *testing.T) *mockService {
	t.Helper()

	m := &mockService{
		guessAt:  -1,
		status:   make(map[string]int),
		raw:      make(map[string]string),
		gamePage: fmt.Sprintf(gamePageFmt, "Is your character real?", "1234", "sig-5678"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/game", m.handle(m.handleGame))
	mux.HandleFunc("/answer", m.handle(m.handleAnswer))
	mux.HandleFunc("/back", m.handle(m.handleBack))
	mux.HandleFunc("/exclude", m.handle(m.handleExclude))

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

func (m *mockService) handle(next func(w http.ResponseWriter, form url.Values)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.requests = append(m.requests, recordedRequest{Path: r.URL.Path, Form: r.PostForm, Header: r.Header.Clone()})
		status, hasStatus := m.status[r.URL.Path]
		delete(m.status, r.URL.Path)
		raw, hasRaw := m.raw[r.URL.Path]
		delete(m.raw, r.URL.Path)
		m.mu.Unlock()

		if hasStatus {
			w.WriteHeader(status)
			return
		}
		if hasRaw {
			_, _ = w.Write([]byte(raw))
			return
		}
		next(w, r.PostForm)
	}
}

func (m *mockService) handleGame(w http.ResponseWriter, _ url.Values) {
	m.mu.Lock()
	page := m.gamePage
	m.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (m *mockService) handleAnswer(w http.ResponseWriter, form url.Values) {
	step, _ := strconv.Atoi(form.Get("step"))
	next := step + 1

	m.mu.Lock()
	guessAt := m.guessAt
	m.mu.Unlock()

	if next == guessAt {
		writeJSON(w, map[string]any{
			"completion":              "OK",
			"id_proposition":          "77",
			"id_base_proposition":     "770",
			"valide_contrainte":       "1",
			"name_proposition":        "Mario",
			"description_proposition": "Video game character",
			"photo":                   "https://photos.example/mario.jpg",
			"pseudo":                  "none",
			"flag_photo":              0,
		})
		return
	}

	writeJSON(w, questionPayload(next))
}

func (m *mockService) handleBack(w http.ResponseWriter, form url.Values) {
	step, _ := strconv.Atoi(form.Get("step"))
	prev := step - 1

	// numeric fields as numbers, the way /back sometimes sends them
	writeJSON(w, map[string]any{
		"completion":  "OK",
		"akitude":     "defi.png",
		"step":        prev,
		"progression": float64(prev) * 10,
		"question_id": 5,
		"question":    fmt.Sprintf("Question %d", prev),
	})
}

func (m *mockService) handleExclude(w http.ResponseWriter, form url.Values) {
	step, _ := strconv.Atoi(form.Get("step"))
	writeJSON(w, questionPayload(step+1))
}

func questionPayload(step int) map[string]any {
	return map[string]any{
		"completion":  "OK",
		"akitude":     "defi.png",
		"step":        strconv.Itoa(step),
		"progression": fmt.Sprintf("%d.00000", step*10),
		"question_id": "6",
		"question":    fmt.Sprintf("Question %d", step),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *mockService) failNext(path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[path] = status
}

func (m *mockService) respondNext(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[path] = body
}

func (m *mockService) setGuessAt(step int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guessAt = step
}

func (m *mockService) setGamePage(page string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamePage = page
}

func (m *mockService) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.requests, "no requests recorded")
	return m.requests[len(m.requests)-1]
}

func (m *mockService) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// newTestClient returns a Client wired to m with an in-memory store.
func newTestClient(t *testing.T, m *mockService, opts ...Option) (*Client, *store.Memory) {
	t.Helper()

	mem := store.NewMemory(0)
	t.Cleanup(func() { _ = mem.Close() })

	base := []Option{
		WithBaseURL(m.URL),
		WithHTTPClient(m.Client()),
		WithStore(mem),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c, mem
}
