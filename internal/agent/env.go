// Package agent is the orchestration engine: the command set the
// generation provider chooses from, the stream ingestion pipeline feeding
// pending posts into durable state, and the main decide/execute loop.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"regent/internal/config"
	"regent/internal/fmtlog"
	"regent/internal/provider"
	"regent/internal/reddit"
	"regent/internal/state"
)

// Env is everything a running agent touches: the platform connection, the
// generation provider, static configuration, mutable state plus its store,
// and the run-mode plumbing. It is constructed once per process and
// mutated only from the main loop.
type Env struct {
	Reddit   reddit.Client
	Provider provider.Provider
	Config   config.AgentConfig
	Store    *state.Store
	State    *state.AgentState
	Log      *zap.Logger
	Fmt      *fmtlog.Logger

	// Username is the authenticated account name, resolved at startup.
	Username string

	// TestMode requires interactive confirmation before side effects
	// and paces cycles on operator input instead of a timer.
	TestMode bool

	// Now is the clock, replaceable in tests.
	Now func() time.Time

	// Confirm asks the operator a yes/no question in test mode.
	Confirm func(prompt string) bool

	// WaitEnter blocks until the operator presses enter in test mode.
	WaitEnter func()
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// SaveState writes the full state snapshot.
func (e *Env) SaveState() error {
	return e.Store.Save(e.State)
}

// confirm defaults to yes when no prompt function is wired (unattended
// mode never asks).
func (e *Env) confirm(prompt string) bool {
	if !e.TestMode {
		return true
	}
	if e.Confirm == nil {
		return true
	}
	return e.Confirm(prompt)
}

// timeUntilNextPost returns how long the post rate gate still has to run:
// zero when the account may post now.
func (e *Env) timeUntilNextPost(ctx context.Context) (time.Duration, error) {
	latest, err := e.Reddit.LatestPost(ctx, e.Username)
	if err != nil {
		return 0, fmt.Errorf("fetch latest post: %w", err)
	}
	if latest == nil {
		return 0, nil
	}
	remaining := latest.Created.Add(e.Config.MinPostInterval()).Sub(e.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StdinConfirm reads a y/n answer from stdin.
func StdinConfirm(prompt string) bool {
	fmt.Printf("%s [y/n] ", prompt)
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// StdinWaitEnter blocks until the operator presses enter.
func StdinWaitEnter() {
	fmt.Println("Press enter to continue...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}
