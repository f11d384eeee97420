// Package cli holds the interactive prompts used by the demo console.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// Menu choices returned by PromptCommand.
const (
	CommandCoin  = "Insert coin"
	CommandPush  = "Push through the gate"
	CommandState = "Show state"
	CommandQuit  = "Quit"
)

// ErrQuit is returned when the user aborts a prompt with Ctrl-C or Ctrl-D.
var ErrQuit = errors.New("quit")

var errNotPositive = errors.New("amount must be a positive whole number")

// Console prompts on the given streams. Nil streams default to os.Stdin and os.Stdout.
type Console struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func (c Console) streams() (io.ReadCloser, io.WriteCloser) {
	in, out := c.Stdin, c.Stdout
	if in == nil {
		in = os.Stdin
	}

	if out == nil {
		out = os.Stdout
	}

	return in, out
}

// PromptCommand asks which action to take next.
func (c Console) PromptCommand(label string) (string, error) {
	in, out := c.streams()

	sel := &promptui.Select{
		Label:  label,
		Items:  []string{CommandCoin, CommandPush, CommandState, CommandQuit},
		Stdin:  in,
		Stdout: out,
	}

	_, value, err := sel.Run()
	if err != nil {
		return "", mapAbort(err)
	}

	return value, nil
}

// PromptCoin asks for a coin amount in pence.
func (c Console) PromptCoin(label string) (int, error) {
	in, out := c.streams()

	prompt := promptui.Prompt{
		Label:    label,
		Validate: ValidateCoin,
		Stdin:    in,
		Stdout:   out,
	}

	value, err := prompt.Run()
	if err != nil {
		return 0, mapAbort(err)
	}

	amount, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}

	return amount, nil
}

// ValidateCoin accepts positive whole numbers.
func ValidateCoin(s string) error {
	amount, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}

	if amount <= 0 {
		return errNotPositive
	}

	return nil
}

func mapAbort(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrQuit
	}

	return err
}
