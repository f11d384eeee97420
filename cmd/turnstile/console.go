package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/turnstile"
)

// prompter is the part of cli.Console the loop needs.
type prompter interface {
	PromptCommand(label string) (string, error)
	PromptCoin(label string) (int, error)
}

// console runs the menu loop until the user quits or ctx is canceled.
func console(ctx context.Context, p prompter, ts *turnstile.Turnstile) error {
	for ctx.Err() == nil {
		command, err := p.PromptCommand(fmt.Sprintf("[%s] total %dp", ts.State(), ts.Total()))
		if err != nil {
			return err
		}

		if err := dispatch(ctx, p, ts, command); err != nil {
			return err
		}
	}

	return nil
}

func dispatch(ctx context.Context, p prompter, ts *turnstile.Turnstile, command string) error {
	switch command {
	case cli.CommandCoin:
		amount, err := p.PromptCoin("Coin (pence)")
		if err != nil {
			return err
		}

		if _, err := ts.InsertCoin(ctx, amount); err != nil {
			report(err)
		}
	case cli.CommandPush:
		if _, err := ts.Push(ctx); err != nil {
			report(err)
		}
	case cli.CommandState:
		fmt.Printf("State: %s, total: %dp\n", ts.State(), ts.Total())
	case cli.CommandQuit:
		return cli.ErrQuit
	}

	return nil
}

// report prints recoverable failures without ending the session.
func report(err error) {
	if errors.Is(err, turnstile.ErrInvalidCoin) {
		fmt.Fprintln(os.Stderr, "rejected:", err)

		return
	}

	fmt.Fprintln(os.Stderr, "error:", err)
}
