// Package pacing turns evasion policy decisions into wall-clock request
// pacing and owns the per-search session state, including epoch rotation.
package pacing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/evasion"
)

// Defaults mirror a cautious browsing session: rotate after ten requests or
// thirty minutes, whichever comes first.
const (
	DefaultSessionLifetime = 10
	DefaultMaxSessionAge   = 30 * time.Minute

	defaultPenaltyFactor = 3.0
)

// SessionState describes one session epoch: a bounded run of requests
// sharing a browsing context before rotation.
type SessionState struct {
	Epoch     uuid.UUID
	Requests  int
	StartedAt time.Time
}

// Config tunes session rotation and rate-limit penalties.
type Config struct {
	// SessionLifetime is the number of requests before the epoch rotates.
	SessionLifetime int
	// MaxSessionAge rotates the epoch on age even under low request volume.
	MaxSessionAge time.Duration
	// PenaltyFactor scales the next delay after a 429 from the source.
	PenaltyFactor float64
}

func (c Config) withDefaults() Config {
	if c.SessionLifetime <= 0 {
		c.SessionLifetime = DefaultSessionLifetime
	}
	if c.MaxSessionAge <= 0 {
		c.MaxSessionAge = DefaultMaxSessionAge
	}
	if c.PenaltyFactor <= 1 {
		c.PenaltyFactor = defaultPenaltyFactor
	}
	return c
}

// Pacer sequences evasion policy calls against real elapsed time. It is
// owned by exactly one search; concurrent searches each get their own.
type Pacer struct {
	policy *evasion.Policy
	cfg    Config
	logger *zap.Logger

	state     SessionState
	issued    int  // total requests issued across all epochs of this search
	penalized bool // next Wait applies the 429 penalty factor

	onRotate func()
}

// New creates a pacer with a fresh session epoch.
func New(policy *evasion.Policy, cfg Config, logger *zap.Logger) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pacer{
		policy: policy,
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  newEpoch(),
	}
}

func newEpoch() SessionState {
	return SessionState{Epoch: uuid.New(), StartedAt: time.Now()}
}

// OnRotate registers a hook invoked whenever the session epoch is replaced,
// so session-scoped transport resources can be discarded and recreated.
func (p *Pacer) OnRotate(fn func()) { p.onRotate = fn }

// State returns a copy of the current session state.
func (p *Pacer) State() SessionState { return p.state }

// Wait suspends the caller for the policy's next delay decision. A pending
// rate-limit penalty scales the whole delay once, then clears. Cancellation
// takes effect here, before any network I/O is issued.
func (p *Pacer) Wait(ctx context.Context) error {
	decision := p.policy.NextDelay(p.issued)
	delay := decision.Total()

	if p.penalized {
		delay = time.Duration(float64(delay) * p.cfg.PenaltyFactor)
		p.penalized = false
		p.logger.Info("applying rate-limit penalty to next request",
			zap.Duration("delay", delay))
	}

	if decision.IsLongPause() {
		p.logger.Info("taking reading break", zap.Duration("pause", decision.LongPause))
	}
	if decision.IsExtendedPause() {
		p.logger.Info("taking extended break", zap.Duration("pause", decision.ExtendedPause))
	}

	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Identity draws a request identity bound to the current session epoch.
func (p *Pacer) Identity() evasion.RequestIdentity {
	return p.policy.Identity(p.state.Epoch)
}

// Observe records a completed fetch, success or failure, and rotates the
// session when the request counter or epoch age crosses its limit. Rotation
// is volume/time triggered, never error triggered.
func (p *Pacer) Observe() {
	p.issued++
	p.state.Requests++

	if p.state.Requests >= p.cfg.SessionLifetime ||
		time.Since(p.state.StartedAt) > p.cfg.MaxSessionAge {
		p.rotate()
	}
}

// Penalize scales the next delay in response to an explicit 429 signal.
func (p *Pacer) Penalize() { p.penalized = true }

func (p *Pacer) rotate() {
	old := p.state
	p.state = newEpoch()
	p.logger.Info("rotating session",
		zap.String("old_epoch", old.Epoch.String()),
		zap.String("new_epoch", p.state.Epoch.String()),
		zap.Int("requests", old.Requests))
	if p.onRotate != nil {
		p.onRotate()
	}
}
