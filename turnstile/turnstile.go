// Package turnstile models a coin-operated turnstile: inserting enough money unlocks the gate,
// and the gate locks itself again after a delay or when pushed through.
package turnstile

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amp-labs/amp-fsm/fsm"
)

const (
	// StateLocked is the name of the locked state.
	StateLocked = "Gate Locked"
	// StateUnlocked is the name of the unlocked state.
	StateUnlocked = "Gate Unlocked"

	transitionCoin   = "coin"
	transitionRelock = "relock"

	// DefaultPrice is the amount, in pence, that unlocks the gate.
	DefaultPrice = 20
	// DefaultRelockAfter is how long the gate stays unlocked.
	DefaultRelockAfter = 5 * time.Second
)

var (
	// ErrInvalidCoin is returned for coin amounts that are not positive.
	ErrInvalidCoin = errors.New("coin amount must be positive")
	// ErrInvalidConfig is returned when the turnstile configuration is unusable.
	ErrInvalidConfig = errors.New("invalid turnstile config")
)

//go:embed turnstile.yaml
var definitions embed.FS

// Gate is the physical barrier driven by the turnstile.
type Gate interface {
	Lock()
	Unlock()
}

// Config configures a Turnstile.
type Config struct {
	// Price is the running total needed to unlock the gate.
	Price int
	// RelockAfter is how long the gate stays unlocked. Zero disables automatic relocking.
	RelockAfter time.Duration
	// Logger receives operational logs. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the classic 20p, five second turnstile.
func DefaultConfig() Config {
	return Config{
		Price:       DefaultPrice,
		RelockAfter: DefaultRelockAfter,
	}
}

// Turnstile wires a coin counter and a relock timer to a two-state machine.
type Turnstile struct {
	machine *fsm.Machine
	gate    Gate
	price   int
	delay   time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	total  int
	timer  *time.Timer
	closed bool

	// epoch counts entries into the locked state. Enter actions run outside the engine lock, so
	// an unlocked state's actions may still be running after the machine has moved on.
	epoch uint64
	// unlocks tickets gate.Unlock calls; only the newest one may correct the gate afterwards.
	unlocks uint64
}

// New builds a turnstile around a gate. Extra engine options, such as trace sinks, are passed
// through to the underlying machine.
func New(gate Gate, cfg Config, opts ...fsm.Option) (*Turnstile, error) {
	if gate == nil {
		return nil, fmt.Errorf("%w: gate is required", ErrInvalidConfig)
	}

	if cfg.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidConfig)
	}

	if cfg.RelockAfter < 0 {
		return nil, fmt.Errorf("%w: relock delay must not be negative", ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t := &Turnstile{
		gate:   gate,
		price:  cfg.Price,
		delay:  cfg.RelockAfter,
		logger: logger,
	}

	def, err := fsm.LoadDefinitionFromFS(definitions, "turnstile.yaml")
	if err != nil {
		return nil, err
	}

	registry := fsm.NewRegistry().
		RegisterRule("paid", fsm.Predicate(t.paid)).
		RegisterAction("lock_gate", fsm.Do(t.lockGate)).
		RegisterAction("clear_total", fsm.Do(t.clearTotal)).
		RegisterAction("unlock_gate", fsm.Do(t.unlockGate)).
		RegisterAction("schedule_relock", fsm.Do(t.scheduleRelock))

	t.machine, err = fsm.Build(def, registry, opts...)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Start locks the gate and starts the machine.
func (t *Turnstile) Start(ctx context.Context) error {
	return t.machine.Start(ctx)
}

// Machine returns the underlying state machine.
func (t *Turnstile) Machine() *fsm.Machine {
	return t.machine
}

// InsertCoin adds money to the running total and tries to unlock the gate.
func (t *Turnstile) InsertCoin(ctx context.Context, amount int) (fsm.Outcome, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidCoin, amount)
	}

	t.mu.Lock()
	t.total += amount
	total := t.total
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Coin inserted", "amount", amount, "total", total)

	return t.machine.Fire(ctx, transitionCoin)
}

// Push locks the gate immediately if it is unlocked.
func (t *Turnstile) Push(ctx context.Context) (fsm.Outcome, error) {
	t.stopTimer()

	return t.machine.Fire(ctx, transitionRelock)
}

// Total returns the money inserted since the gate last locked.
func (t *Turnstile) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// State returns the current state name, or "" while the machine is between states.
func (t *Turnstile) State() string {
	state := t.machine.CurrentState()
	if state == nil {
		return ""
	}

	return state.Name()
}

// Close cancels any pending relock. The gate is left as it is.
func (t *Turnstile) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.stopTimerLocked()
}

func (t *Turnstile) paid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total >= t.price
}

func (t *Turnstile) clearTotal() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	t.stopTimerLocked()
}

func (t *Turnstile) lockGate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.epoch++
	t.gate.Lock()
}

// unlockGate opens the gate unless the machine has already left the unlocked state. If it left
// while the gate was opening, the gate is locked again.
func (t *Turnstile) unlockGate() {
	t.mu.Lock()

	if !t.unlocked() {
		t.mu.Unlock()

		return
	}

	epoch := t.epoch
	t.unlocks++
	ticket := t.unlocks

	t.mu.Unlock()

	t.gate.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if ticket == t.unlocks && (epoch != t.epoch || !t.unlocked()) {
		t.logger.Warn("Gate locked again, machine left the unlocked state while it opened")

		t.gate.Lock()
	}
}

func (t *Turnstile) unlocked() bool {
	state := t.machine.CurrentState()

	return state != nil && state.Name() == StateUnlocked
}

func (t *Turnstile) scheduleRelock() {
	if t.delay == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// A relock that already happened has stopped the timers; arming one now would outlive it.
	if t.closed || !t.unlocked() {
		return
	}

	if t.timer != nil {
		t.timer.Stop()
	}

	epoch := t.epoch
	t.timer = time.AfterFunc(t.delay, func() { t.relock(epoch) })
}

// relock fires the relock transition unless the gate has been locked since the timer was armed.
func (t *Turnstile) relock(epoch uint64) {
	t.mu.Lock()
	stale := epoch != t.epoch
	t.mu.Unlock()

	if stale {
		return
	}

	ctx := context.Background()

	err := t.machine.Trigger(ctx, transitionRelock)
	if err != nil {
		t.logger.ErrorContext(ctx, "Automatic relock failed", "error", err)
	}
}

func (t *Turnstile) stopTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimerLocked()
}

func (t *Turnstile) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
