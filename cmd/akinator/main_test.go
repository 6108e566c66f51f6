package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/eolso/akinator"
	"github.com/eolso/akinator/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService answers "Question n" for step n and proposes Mario when a
// player reaches guessAt.
type fakeService struct {
	*httptest.Server

	mu        sync.Mutex
	guessAt   int
	exhausted bool
	sids      []string
}

func newFakeService(t *testing.T, guessAt int) *fakeService {
	t.Helper()

	f := &fakeService{guessAt: guessAt}
	mux := http.NewServeMux()
	mux.HandleFunc("/game", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.sids = append(f.sids, r.PostForm.Get("sid"))
		f.mu.Unlock()

		fmt.Fprint(w, `<html><body>
<p id="question-label">Is your character real?</p>
<form id="askSoundlike">
  <input name="session" value="42"><input name="signature" value="sig">
</form></body></html>`)
	})
	mux.HandleFunc("/answer", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		next := atoi(r.PostForm.Get("step")) + 1
		if next == f.guessAt {
			reply(w, map[string]any{
				"completion":              "OK",
				"id_proposition":          "77",
				"name_proposition":        "Mario",
				"description_proposition": "Video game character",
			})
			return
		}
		reply(w, question(next))
	})
	mux.HandleFunc("/back", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		reply(w, question(atoi(r.PostForm.Get("step"))-1))
	})
	mux.HandleFunc("/exclude", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		exhausted := f.exhausted
		f.mu.Unlock()
		if exhausted {
			reply(w, map[string]any{"completion": "WARN - NO QUESTION"})
			return
		}
		reply(w, question(atoi(r.PostForm.Get("step"))+1))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func question(step int) map[string]any {
	return map[string]any{
		"completion":  "OK",
		"step":        strconv.Itoa(step),
		"progression": fmt.Sprintf("%d.00000", step*10),
		"question":    fmt.Sprintf("Question %d", step),
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newGame(t *testing.T, f *fakeService) (*akinator.Game, *store.Memory) {
	t.Helper()

	st := store.NewMemory(0)
	t.Cleanup(func() { _ = st.Close() })

	c, err := akinator.New(akinator.WithBaseURL(f.URL), akinator.WithStore(st))
	require.NoError(t, err)

	g, err := c.NewGame(context.Background())
	require.NoError(t, err)
	return g, st
}

func TestPlay_GuessAccepted(t *testing.T) {
	f := newFakeService(t, 2)
	g, st := newGame(t, f)

	var out bytes.Buffer
	err := play(context.Background(), g, strings.NewReader("y\n1\ny\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1. Is your character real? (0%)")
	assert.Contains(t, out.String(), "2. Question 1 (10%)")
	assert.Contains(t, out.String(), "Is it: Mario (Video game character)?")
	assert.Contains(t, out.String(), "Great, guessed right")

	_, err = st.Get(context.Background(), g.ID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlay_BackAndHistory(t *testing.T) {
	f := newFakeService(t, -1)
	g, _ := newGame(t, f)

	var out bytes.Buffer
	err := play(context.Background(), g, strings.NewReader("b\nwhat\nno\nh\nb\nq\n"), &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Already at the first question.")
	assert.Contains(t, got, `Unrecognized answer "what"`)
	assert.Contains(t, got, "1) Is your character real? No")
	assert.Contains(t, got, "1. Question 0 (0%)")
	assert.Contains(t, got, "Bye! Resume with: akinator play --resume "+g.ID())
	assert.Empty(t, g.Responses())
}

func TestPlay_ExcludeUntilExhausted(t *testing.T) {
	f := newFakeService(t, 2)
	g, _ := newGame(t, f)

	var out bytes.Buffer
	err := play(context.Background(), g, strings.NewReader("1\n2\nmaybe\nn\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Please answer y or n.")
	assert.Contains(t, out.String(), "3. Question 2 (20%)")

	f.mu.Lock()
	f.exhausted = true
	f.mu.Unlock()

	out.Reset()
	g2, _ := newGame(t, f)
	err = play(context.Background(), g2, strings.NewReader("1\n1\nn\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "You win, I give up!")
}

func TestPlay_EOFEndsQuietly(t *testing.T) {
	f := newFakeService(t, -1)
	g, _ := newGame(t, f)

	var out bytes.Buffer
	require.NoError(t, play(context.Background(), g, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "Game "+g.ID())
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want akinator.Answer
	}{
		{"1", akinator.Yes},
		{"2", akinator.No},
		{"5", akinator.ProbablyNot},
		{"idk", akinator.DontKnow},
		{"probably", akinator.Probably},
	}
	for _, tt := range tests {
		got, err := parseChoice(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseChoice("6")
	assert.ErrorIs(t, err, akinator.ErrInvalidAnswer)
	_, err = parseChoice("perhaps")
	assert.ErrorIs(t, err, akinator.ErrInvalidAnswer)
}

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Play(t *testing.T) {
	f := newFakeService(t, -1)
	t.Setenv("AKINATOR_BASE_URL", f.URL)
	t.Setenv("AKINATOR_STORE", "memory")

	out, err := runRoot(t, "q\n", "play", "--theme", "animals")
	require.NoError(t, err)
	assert.Contains(t, out, "Is your character real?")
	assert.Contains(t, out, "Bye!")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"14"}, f.sids)
}

func TestRootCmd_PlayRejectsBadFlag(t *testing.T) {
	_, err := runRoot(t, "", "play", "--language", "klingon")
	require.Error(t, err)
}

func TestRootCmd_Listings(t *testing.T) {
	out, err := runRoot(t, "", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "fr\tfrench")
	assert.Equal(t, len(akinator.Languages()), strings.Count(out, "\n"))

	out, err = runRoot(t, "", "themes")
	require.NoError(t, err)
	assert.Equal(t, "1\tcharacters\n2\tobjects\n14\tanimals\n", out)

	out, err = runRoot(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
