package akinator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eolso/akinator/internal/httpx"
	xlog "github.com/eolso/akinator/internal/log"
	"github.com/eolso/akinator/internal/resilience"
	"github.com/eolso/akinator/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const initialProgression = "0.00000"

// Step is the state of a game after a call. When the service proposes an
// answer Guess is set and Question still holds the last question asked.
type Step struct {
	ID       string
	Question string
	Step     int
	Progress float64
	Guess    *Guess
}

func (s Step) IsGuess() bool {
	return s.Guess != nil
}

// Guess is a proposition of what the player is thinking of.
type Guess struct {
	ID          string
	Name        string
	Description string
	Photo       string
	Pseudo      string
}

// Client drives games against the hosted service. Games are addressed by the
// id returned from StartGame; their state is kept in a store.Store, so a
// Client is safe for concurrent use across games.
type Client struct {
	language  Language
	theme     Theme
	childMode bool
	baseURL   string
	userAgent string

	http      *http.Client
	store     store.Store
	ownsStore bool
	ttl       time.Duration
	logger    zerolog.Logger
	limiter   *rate.Limiter
	breaker   *resilience.CircuitBreaker
	newID     func() string

	breakerThreshold int
	breakerReset     time.Duration
}

type Option func(*Client)

// WithLanguage sets the language of new games. Defaults to English.
func WithLanguage(l Language) Option {
	return func(c *Client) { c.language = l }
}

// WithTheme sets the theme of new games. Defaults to ThemeCharacters.
func WithTheme(t Theme) Option {
	return func(c *Client) { c.theme = t }
}

func WithChildMode(enabled bool) Option {
	return func(c *Client) { c.childMode = enabled }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL sends every request to base instead of the per-language host.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithStore sets where session state is cached. The caller keeps ownership
// and must close it. Defaults to an in-memory store owned by the Client.
func WithStore(s store.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithSessionTTL sets how long an idle game is remembered. Defaults to
// store.DefaultTTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit throttles outgoing requests to r per second with the given
// burst. New rejects a burst below 1 unless r is rate.Inf.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithCircuitBreaker configures how many consecutive upstream failures open
// the breaker and how long it stays open. A threshold below zero disables it.
func WithCircuitBreaker(threshold int, resetTimeout time.Duration) Option {
	return func(c *Client) {
		c.breakerThreshold = threshold
		c.breakerReset = resetTimeout
	}
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		language:  English,
		theme:     ThemeCharacters,
		userAgent: defaultUserAgent,
		ttl:       store.DefaultTTL,
		logger:    zerolog.Nop(),
		newID:     func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.language.Valid() {
		return nil, fmt.Errorf("unsupported language %q", c.language)
	}
	if !c.theme.Valid() {
		return nil, fmt.Errorf("unsupported theme %d", int(c.theme))
	}
	if c.ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", c.ttl)
	}
	if c.limiter != nil && c.limiter.Limit() != rate.Inf && c.limiter.Burst() < 1 {
		return nil, fmt.Errorf("rate limit burst must be at least 1, got %d", c.limiter.Burst())
	}

	if c.http == nil {
		c.http = httpx.NewClient(0)
	}
	if c.store == nil {
		c.store = store.NewMemory(time.Minute)
		c.ownsStore = true
	}
	if c.breakerThreshold >= 0 {
		c.breaker = resilience.NewCircuitBreaker("akinator", c.breakerThreshold, c.breakerReset,
			resilience.WithStateChange(func(name string, from, to resilience.State) {
				observeCircuitState(name, to)
				c.logger.Warn().Str("from", string(from)).Str("to", string(to)).Msg("upstream circuit breaker changed state")
			}),
			resilience.WithIgnoredErrors(func(err error) bool {
				return errors.Is(err, errCallerCanceled)
			}),
		)
	}

	return c, nil
}

// Close releases the session store if the Client created it.
func (c *Client) Close() error {
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}

// StartGame opens a new game session and returns its first question.
func (c *Client) StartGame(ctx context.Context) (Step, error) {
	form := url.Values{
		"cm":  {strconv.FormatBool(c.childMode)},
		"sid": {strconv.Itoa(int(c.theme))},
	}

	body, err := c.post(ctx, c.language, endpointGame, form)
	if err != nil {
		return Step{}, err
	}

	page, err := parseGamePage(bytes.NewReader(body))
	if err != nil {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointGame, Err: err}
	}
	if page.Session == "" || page.Signature == "" {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointGame, Err: errors.New("session or signature missing")}
	}
	if page.Question == "" {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointGame, Err: errors.New("question missing")}
	}

	id := c.newID()
	state := store.State{
		Session:     page.Session,
		Signature:   page.Signature,
		Step:        0,
		Progression: initialProgression,
		Question:    page.Question,
		Language:    string(c.language),
		Theme:       int(c.theme),
		ChildMode:   c.childMode,
	}
	if err := c.store.Set(ctx, id, state, c.ttl); err != nil {
		return Step{}, fmt.Errorf("save session %s: %w", id, err)
	}

	gamesStarted.Inc()
	c.logger.Debug().Str(xlog.FieldGameID, id).Str(xlog.FieldLanguage, string(c.language)).Msg("game started")

	return stepFromState(id, state), nil
}

// Answer submits an answer to the current question of game id. The returned
// Step holds either the next question or a proposition.
func (c *Client) Answer(ctx context.Context, id string, answer Answer) (Step, error) {
	if !answer.Valid() {
		return Step{}, fmt.Errorf("%w: %d", ErrInvalidAnswer, int(answer))
	}

	state, err := c.load(ctx, id)
	if err != nil {
		return Step{}, err
	}
	ctx = xlog.ContextWithGameID(ctx, id)

	form := url.Values{
		"step":                  {strconv.Itoa(state.Step)},
		"progression":           {state.Progression},
		"answer":                {strconv.Itoa(int(answer))},
		"session":               {state.Session},
		"signature":             {state.Signature},
		"question_filter":       {"string"},
		"sid":                   {"NaN"},
		"cm":                    {strconv.FormatBool(state.ChildMode)},
		"step_last_proposition": {state.StepLastProposition},
	}

	p, err := c.postStep(ctx, c.languageOf(state), endpointAnswer, form)
	if err != nil {
		return Step{}, err
	}

	if p.isProposition() {
		state.StepLastProposition = strconv.Itoa(state.Step)
		if err := c.save(ctx, id, state); err != nil {
			return Step{}, err
		}

		propositionsTotal.Inc()
		step := stepFromState(id, state)
		step.Guess = p.guess()
		return step, nil
	}

	if err := applyQuestion(&state, p, state.Step+1); err != nil {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointAnswer, Err: err}
	}
	if err := c.save(ctx, id, state); err != nil {
		return Step{}, err
	}
	return stepFromState(id, state), nil
}

// Back undoes the last answer of game id and returns the previous question.
// It fails with ErrCannotGoBack on the first question without contacting the
// service.
func (c *Client) Back(ctx context.Context, id string) (Step, error) {
	state, err := c.load(ctx, id)
	if err != nil {
		return Step{}, err
	}
	if state.Step <= 0 {
		return Step{}, ErrCannotGoBack
	}
	ctx = xlog.ContextWithGameID(ctx, id)

	form := url.Values{
		"session":     {state.Session},
		"signature":   {state.Signature},
		"step":        {strconv.Itoa(state.Step)},
		"progression": {state.Progression},
		"cm":          {strconv.FormatBool(state.ChildMode)},
	}

	p, err := c.postStep(ctx, c.languageOf(state), endpointBack, form)
	if err != nil {
		return Step{}, err
	}
	if p.Question == "" {
		return Step{}, ErrCannotGoBack
	}

	if err := applyQuestion(&state, p, state.Step-1); err != nil {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointBack, Err: err}
	}
	if err := c.save(ctx, id, state); err != nil {
		return Step{}, err
	}
	return stepFromState(id, state), nil
}

// Exclude rejects the last proposition of game id and resumes questioning.
func (c *Client) Exclude(ctx context.Context, id string) (Step, error) {
	state, err := c.load(ctx, id)
	if err != nil {
		return Step{}, err
	}
	ctx = xlog.ContextWithGameID(ctx, id)

	form := url.Values{
		"step":           {strconv.Itoa(state.Step)},
		"sid":            {strconv.Itoa(c.themeOf(state))},
		"cm":             {strconv.FormatBool(state.ChildMode)},
		"progression":    {state.Progression},
		"session":        {state.Session},
		"signature":      {state.Signature},
		"forward_answer": {"1"},
	}

	p, err := c.postStep(ctx, c.languageOf(state), endpointExclude, form)
	if err != nil {
		return Step{}, err
	}

	if err := applyQuestion(&state, p, state.Step+1); err != nil {
		return Step{}, &APIError{Sentinel: ErrBadResponse, Op: endpointExclude, Err: err}
	}
	if err := c.save(ctx, id, state); err != nil {
		return Step{}, err
	}
	return stepFromState(id, state), nil
}

// Session returns the cached state of game id.
func (c *Client) Session(ctx context.Context, id string) (store.State, error) {
	return c.load(ctx, id)
}

// Forget drops the cached state of game id.
func (c *Client) Forget(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (c *Client) load(ctx context.Context, id string) (store.State, error) {
	state, err := c.store.Get(ctx, id)
	if err != nil {
		return store.State{}, sessionError(id, err)
	}
	return state, nil
}

func (c *Client) save(ctx context.Context, id string, state store.State) error {
	if err := c.store.Set(ctx, id, state, c.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	c.logger.Debug().Str(xlog.FieldGameID, id).Int(xlog.FieldStep, state.Step).Msg("session updated")
	return nil
}

// languageOf prefers the language the game was started in.
func (c *Client) languageOf(state store.State) Language {
	if l := Language(state.Language); l.Valid() {
		return l
	}
	return c.language
}

func (c *Client) themeOf(state store.State) int {
	if t := Theme(state.Theme); t.Valid() {
		return state.Theme
	}
	return int(c.theme)
}

// applyQuestion copies a question payload into state. fallbackStep is used
// when the service leaves the step out.
func applyQuestion(state *store.State, p stepPayload, fallbackStep int) error {
	if p.Question == "" {
		return errors.New("question missing")
	}

	step := fallbackStep
	if s := strings.TrimSpace(string(p.Step)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid step %q", s)
		}
		step = n
	}

	state.Step = max(step, 0)
	state.Question = p.Question
	if p.Progression != "" {
		state.Progression = string(p.Progression)
	}
	return nil
}

func stepFromState(id string, state store.State) Step {
	return Step{
		ID:       id,
		Question: state.Question,
		Step:     state.Step,
		Progress: parseProgress(state.Progression),
	}
}
