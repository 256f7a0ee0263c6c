// Package gateway drives the proof-of-personhood handshake with an external
// verification provider before a mint may be submitted.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the gate's position in the handshake.
type State string

const (
	// StateIdle means no handshake is in progress.
	StateIdle State = "idle"
	// StateAwaitingUserInfo means the provider is collecting user consent.
	StateAwaitingUserInfo State = "awaiting_user_info"
	// StateVerifying means consent was granted and the provider is checking.
	StateVerifying State = "verifying"
	// StateActive means the provider confirmed; terminal success.
	StateActive State = "active"
)

// ProviderStatus is the externally observable provider state.
type ProviderStatus int

const (
	StatusUnknown ProviderStatus = iota
	StatusCollectingUserInfo
	StatusVerifying
	StatusActive
)

// Provider is the external verification collaborator.
type Provider interface {
	// RequestToken begins the handshake and returns a status stream. The
	// stream is closed when the provider abandons the flow.
	RequestToken(ctx context.Context) (<-chan ProviderStatus, error)
}

// ErrAbandoned is reported when the handshake ends without reaching Active.
var ErrAbandoned = errors.New("verification abandoned")

// ErrNotIdle is returned when a handshake is already in progress or done.
var ErrNotIdle = errors.New("gate is not idle")

// Event is a terminal gate outcome.
type Event struct {
	Activated bool
	Err       error
}

// Gate is the verification handshake state machine. A completed gate emits a
// single one-shot proceed signal; it never submits the mint itself.
//
// Unlike the flow it models, the gate always has a way back to Idle: an
// explicit Cancel, a closed provider stream, or the configured timeout all
// abandon the handshake instead of leaving it stuck awaiting user info.
type Gate struct {
	provider Provider
	timeout  time.Duration

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	proceed chan struct{}
	events  chan Event
}

// New creates a gate. timeout bounds the whole handshake; zero disables it.
func New(provider Provider, timeout time.Duration) *Gate {
	return &Gate{
		provider: provider,
		timeout:  timeout,
		state:    StateIdle,
		proceed:  make(chan struct{}),
		events:   make(chan Event, 1),
	}
}

// State returns the current handshake state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Proceed is closed exactly once, when the gate reaches Active.
func (g *Gate) Proceed() <-chan struct{} {
	return g.proceed
}

// Events delivers the terminal outcome of each handshake.
func (g *Gate) Events() <-chan Event {
	return g.events
}

// Request begins the handshake. Only valid from Idle.
func (g *Gate) Request(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotIdle, g.state)
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if g.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, g.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	g.cancel = cancel
	g.state = StateAwaitingUserInfo
	g.mu.Unlock()

	statusCh, err := g.provider.RequestToken(runCtx)
	if err != nil {
		g.abandon(cancel)
		return fmt.Errorf("request verification token: %w", err)
	}

	go g.watch(runCtx, cancel, statusCh)
	return nil
}

// Cancel abandons an in-flight handshake and returns the gate to Idle.
// A no-op when idle or already active.
func (g *Gate) Cancel() {
	g.mu.Lock()
	cancel := g.cancel
	inFlight := g.state == StateAwaitingUserInfo || g.state == StateVerifying
	g.mu.Unlock()

	if inFlight && cancel != nil {
		cancel()
	}
}

// watch consumes provider status updates until a terminal outcome.
func (g *Gate) watch(ctx context.Context, cancel context.CancelFunc, statusCh <-chan ProviderStatus) {
	for {
		select {
		case <-ctx.Done():
			g.abandon(cancel)
			return

		case status, ok := <-statusCh:
			if !ok {
				// Provider closed the stream without confirming.
				g.abandon(cancel)
				return
			}

			switch status {
			case StatusCollectingUserInfo:
				g.setState(StateAwaitingUserInfo)
			case StatusVerifying:
				g.setState(StateVerifying)
			case StatusActive:
				g.activate(cancel)
				return
			}
		}
	}
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Gate) activate(cancel context.CancelFunc) {
	cancel()

	g.mu.Lock()
	g.state = StateActive
	g.cancel = nil
	g.mu.Unlock()

	close(g.proceed)
	select {
	case g.events <- Event{Activated: true}:
	default:
	}
}

func (g *Gate) abandon(cancel context.CancelFunc) {
	cancel()

	g.mu.Lock()
	if g.state == StateActive {
		g.mu.Unlock()
		return
	}
	g.state = StateIdle
	g.cancel = nil
	g.mu.Unlock()

	select {
	case g.events <- Event{Err: ErrAbandoned}:
	default:
	}
}
