package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/eolso/akinator"
	"github.com/eolso/akinator/internal/config"
	"github.com/spf13/cobra"
)

type playOptions struct {
	language string
	theme    string
	child    bool
	resume   string
}

func newPlayCmd(global *globalOptions) *cobra.Command {
	opts := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start (or resume) an interactive game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(global.configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("language") {
				cfg.Language = opts.language
			}
			if flags.Changed("theme") {
				cfg.Theme = opts.theme
			}
			if flags.Changed("child") {
				cfg.ChildMode = opts.child
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			configureLogging(cfg)

			client, st, err := buildClient(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var game *akinator.Game
			if opts.resume != "" {
				game, err = client.ResumeGame(ctx, opts.resume)
			} else {
				game, err = client.NewGame(ctx)
			}
			if err != nil {
				return err
			}

			return play(ctx, game, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.language, "language", "l", "", "game language code or name (see `akinator languages`)")
	flags.StringVarP(&opts.theme, "theme", "t", "", "characters, objects or animals")
	flags.BoolVar(&opts.child, "child", false, "enable child mode")
	flags.StringVar(&opts.resume, "resume", "", "resume the game with this id (needs a persistent store)")

	return cmd
}

// play runs the question loop until the game ends, the player quits or in is
// exhausted.
func play(ctx context.Context, g *akinator.Game, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Game %s\n", g.ID())

	for {
		if guess := g.Guess(); guess != nil {
			fmt.Fprintf(out, "\nIs it: %s", guess.Name)
			if guess.Description != "" {
				fmt.Fprintf(out, " (%s)", guess.Description)
			}
			fmt.Fprint(out, "?\n[y]es / [n]o > ")

			line, ok := readLine(scanner)
			if !ok {
				return scanner.Err()
			}

			switch strings.ToLower(line) {
			case "y", "yes":
				fmt.Fprintln(out, "Great, guessed right one more time!")
				return g.Forget(ctx)
			case "n", "no":
				if _, err := g.Exclude(ctx); err != nil {
					return endOrFail(ctx, g, out, err)
				}
			default:
				fmt.Fprintln(out, "Please answer y or n.")
			}
			continue
		}

		fmt.Fprintf(out, "\n%d. %s (%.0f%%)\n", g.Step()+1, g.Question(), g.Progress())
		for i, a := range akinator.Answers() {
			fmt.Fprintf(out, "  %d) %s\n", i+1, a)
		}
		fmt.Fprint(out, "  b) Back  h) History  q) Quit\n> ")

		line, ok := readLine(scanner)
		if !ok {
			return scanner.Err()
		}

		switch strings.ToLower(line) {
		case "q", "quit":
			fmt.Fprintf(out, "Bye! Resume with: akinator play --resume %s\n", g.ID())
			return nil
		case "b", "back", "0":
			if _, err := g.Back(ctx); err != nil {
				if !errors.Is(err, akinator.ErrCannotGoBack) {
					return err
				}
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		case "h", "history":
			for i, r := range g.Responses() {
				fmt.Fprintf(out, "  %d) %s %s\n", i+1, r.Question, r.Answer)
			}
			continue
		}

		answer, err := parseChoice(line)
		if err != nil {
			fmt.Fprintf(out, "Unrecognized answer %q\n", line)
			continue
		}
		if _, err := g.Answer(ctx, answer); err != nil {
			return endOrFail(ctx, g, out, err)
		}
	}
}

func endOrFail(ctx context.Context, g *akinator.Game, out io.Writer, err error) error {
	if errors.Is(err, akinator.ErrNoMoreQuestions) {
		fmt.Fprintln(out, "You win, I give up!")
		return g.Forget(ctx)
	}
	return err
}

func readLine(s *bufio.Scanner) (string, bool) {
	if !s.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.Text()), true
}

// parseChoice maps the menu numbers 1-5 to answers and falls back to
// akinator.ParseAnswer for names and aliases.
func parseChoice(s string) (akinator.Answer, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if a := akinator.Answer(n - 1); a.Valid() {
			return a, nil
		}
		return 0, fmt.Errorf("%w: %d", akinator.ErrInvalidAnswer, n)
	}
	return akinator.ParseAnswer(s)
}
