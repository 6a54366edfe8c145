package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Countdown ticks a Manager's remaining seconds down and signs out when they
// reach zero.
type Countdown struct {
	manager  *Manager
	interval time.Duration
	onExpire func()
	logger   zerolog.Logger
}

type CountdownOption func(*Countdown)

// WithOnExpire registers a callback run after the forced sign-out.
func WithOnExpire(fn func()) CountdownOption {
	return func(c *Countdown) {
		c.onExpire = fn
	}
}

// WithInterval overrides the one-second tick.
func WithInterval(interval time.Duration) CountdownOption {
	return func(c *Countdown) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

func NewCountdown(manager *Manager, options ...CountdownOption) *Countdown {
	c := &Countdown{
		manager:  manager,
		interval: time.Second,
		logger:   manager.logger.With().Str("component", "countdown").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Run waits for the manager to initialise, then ticks until the session ends
// or ctx is cancelled. It returns nil when the session ended and ctx.Err()
// on cancellation.
func (c *Countdown) Run(ctx context.Context) error {
	select {
	case <-c.manager.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if !c.manager.Session().Authenticated {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.Tick() {
				return nil
			}
		}
	}
}

// Tick removes one second and reports whether the session was ended.
func (c *Countdown) Tick() bool {
	remaining, active, err := c.manager.countDown()
	if !active {
		return true
	}
	if remaining > 0 {
		return false
	}

	if err != nil {
		c.logger.Error().Err(err).Msg("forced sign-out failed")
	} else {
		c.logger.Info().Msg("token expired, signed out")
	}
	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}
