package akinator

import (
	"context"
	"sync"
)

// Response is one answered question.
type Response struct {
	Question string
	Answer   Answer
}

// Game tracks a single game on top of a Client, remembering the current step
// and the answers given so far. It is safe for concurrent use; calls are
// serialized.
type Game struct {
	mu        sync.Mutex
	client    *Client
	current   Step
	responses []Response
	pending   *Response // answer that led to the current proposition
}

// NewGame starts a game and wraps it.
func (c *Client) NewGame(ctx context.Context) (*Game, error) {
	step, err := c.StartGame(ctx)
	if err != nil {
		return nil, err
	}
	return &Game{client: c, current: step}, nil
}

// ResumeGame wraps a game started earlier, possibly by another process
// sharing the same store. The answer history is not recoverable.
func (c *Client) ResumeGame(ctx context.Context, id string) (*Game, error) {
	state, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Game{client: c, current: stepFromState(id, state)}, nil
}

func (g *Game) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.ID
}

// Question returns the current question of the game.
func (g *Game) Question() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Question
}

// Progress returns how confident the service is, from 0 to 100.
func (g *Game) Progress() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Progress
}

func (g *Game) Step() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Step
}

// Guess returns the pending proposition, or nil while questions continue.
func (g *Game) Guess() *Guess {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Guess
}

// Current returns the latest Step.
func (g *Game) Current() Step {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Answer responds to the current question.
func (g *Game) Answer(ctx context.Context, a Answer) (Step, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	question := g.current.Question
	step, err := g.client.Answer(ctx, g.current.ID, a)
	if err != nil {
		return Step{}, err
	}

	r := Response{Question: question, Answer: a}
	if step.IsGuess() {
		// The service stays on the same step while it proposes.
		g.pending = &r
	} else {
		g.pending = nil
		g.responses = append(g.responses, r)
	}
	g.current = step
	return step, nil
}

// Back rescinds the most recent answer.
func (g *Game) Back(ctx context.Context) (Step, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	step, err := g.client.Back(ctx, g.current.ID)
	if err != nil {
		return Step{}, err
	}

	g.pending = nil
	if n := len(g.responses); n > 0 {
		g.responses = g.responses[:n-1]
	}
	g.current = step
	return step, nil
}

// Exclude declines the pending proposition and continues the game.
func (g *Game) Exclude(ctx context.Context) (Step, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	step, err := g.client.Exclude(ctx, g.current.ID)
	if err != nil {
		return Step{}, err
	}
	if g.pending != nil {
		g.responses = append(g.responses, *g.pending)
		g.pending = nil
	}
	g.current = step
	return step, nil
}

// Responses returns the answers given this game, oldest first. An answer
// that produced a proposition is only recorded once the game continues.
func (g *Game) Responses() []Response {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Response(nil), g.responses...)
}

// Forget drops the game's cached session.
func (g *Game) Forget(ctx context.Context) error {
	return g.client.Forget(ctx, g.ID())
}
