// Package ratelimit provides an adaptive per-host request throttle.
// Each host carries its own allowed rate, burst allowance, and minimum
// inter-request delay; all three self-tune from observed server behavior
// reported after each response.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Tuning constants for the adaptive policy.
const (
	// rateWindow is the trailing window the allowed rate is enforced over.
	rateWindow = time.Second
	// burstWindow is the trailing window the burst allowance is enforced over.
	burstWindow = 10 * time.Second
	// historyRetention bounds how far back request timestamps are kept.
	historyRetention = time.Minute
	// maxHistory bounds the per-host timestamp window.
	maxHistory = 100
	// serverErrorThreshold is how many consecutive 5xx responses are
	// tolerated before the milder penalty kicks in.
	serverErrorThreshold = 5

	// Penalty and recovery multipliers.
	overloadRateFactor    = 0.5
	overloadDelayFactor   = 2.0
	serverErrRateFactor   = 0.8
	serverErrDelayFactor  = 1.5
	recoveryRateFactor    = 1.1
	recoveryDelayFactor   = 0.95
	fastResponseThreshold = time.Second

	// serverErrMinRate is the rate floor for the milder 5xx penalty.
	serverErrMinRate = 0.2
	// serverErrMaxDelay caps the delay growth of the milder 5xx penalty.
	serverErrMaxDelay = 5 * time.Second
)

// Config holds the limiter bounds and starting values for new hosts.
type Config struct {
	// InitialRate is the allowed requests per second for a fresh host.
	InitialRate float64
	// MinRate is the floor the allowed rate can be driven down to.
	MinRate float64
	// MaxRate is the ceiling the allowed rate may recover up to.
	MaxRate float64
	// InitialBurst is the starting burst allowance.
	InitialBurst int
	// MaxBurst caps burst allowance growth.
	MaxBurst int
	// InitialDelay is the starting minimum inter-request delay.
	InitialDelay time.Duration
	// MinDelay is the floor the minimum delay can shrink to.
	MinDelay time.Duration
	// MaxDelay caps minimum delay growth.
	MaxDelay time.Duration
}

// DefaultConfig returns the limiter defaults.
func DefaultConfig() Config {
	return Config{
		InitialRate:  1.0,
		MinRate:      0.1,
		MaxRate:      2.0,
		InitialBurst: 3,
		MaxBurst:     10,
		InitialDelay: time.Second,
		MinDelay:     500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

// hostState is the throttle state for a single host. It is owned
// exclusively by the limiter and guarded by its own mutex, so different
// hosts proceed fully independently.
type hostState struct {
	mu sync.Mutex

	rate     float64
	burst    int
	minDelay time.Duration

	lastRequest time.Time
	history     []time.Time
	errorCount  int
}

// Limiter throttles outbound requests per host. Admission never fails a
// request outright; the worst case is a long wait.
type Limiter struct {
	cfg   Config
	mu    sync.Mutex
	hosts map[string]*hostState
}

// New creates a limiter with the given config.
func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:   cfg,
		hosts: make(map[string]*hostState),
	}
}

// host returns the state for a host, creating it on first use.
func (l *Limiter) host(name string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()

	hs, ok := l.hosts[name]
	if !ok {
		hs = &hostState{
			rate:     l.cfg.InitialRate,
			burst:    l.cfg.InitialBurst,
			minDelay: l.cfg.InitialDelay,
		}
		l.hosts[name] = hs
	}

	return hs
}

// Admit blocks until a request to host is permitted, then records the
// request and returns how long the caller waited. Admission for a single
// host is serialized; a cancelled context aborts the wait.
func (l *Limiter) Admit(ctx context.Context, host string) (time.Duration, error) {
	hs := l.host(host)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	now := time.Now()
	wait := hs.computeWait(now)

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	hs.recordRequest(now.Add(wait))

	return wait, nil
}

// computeWait returns the wait needed before the next request. The
// binding constraint is whichever of the minimum delay, the 1-second
// rate window, and the 10-second burst window demands the longest wait.
func (hs *hostState) computeWait(now time.Time) time.Duration {
	var wait time.Duration

	if !hs.lastRequest.IsZero() {
		if since := now.Sub(hs.lastRequest); since < hs.minDelay {
			wait = hs.minDelay - since
		}
	}

	hs.pruneHistory(now)

	if w := hs.rateWindowWait(now); w > wait {
		wait = w
	}

	if w := hs.burstWindowWait(now); w > wait {
		wait = w
	}

	return wait
}

// rateWindowWait enforces the allowed rate over the trailing 1-second
// window. A rate under one request per second cannot be expressed as a
// window occupancy, so it is enforced as a 1/rate spacing from the last
// request instead.
func (hs *hostState) rateWindowWait(now time.Time) time.Duration {
	if hs.rate <= 0 {
		return 0
	}

	if hs.rate < 1 {
		if hs.lastRequest.IsZero() {
			return 0
		}

		interval := time.Duration(float64(rateWindow) / hs.rate)
		if since := now.Sub(hs.lastRequest); since < interval {
			return interval - since
		}

		return 0
	}

	var oldest time.Time
	recent := 0

	for _, t := range hs.history {
		if now.Sub(t) <= rateWindow {
			if oldest.IsZero() {
				oldest = t
			}
			recent++
		}
	}

	if float64(recent) < hs.rate || oldest.IsZero() {
		return 0
	}

	return rateWindow - now.Sub(oldest)
}

// burstWindowWait enforces the burst allowance over the trailing 10-second window.
func (hs *hostState) burstWindowWait(now time.Time) time.Duration {
	if len(hs.history) < hs.burst {
		return 0
	}

	inWindow := 0
	for _, t := range hs.history {
		if now.Sub(t) <= burstWindow {
			inWindow++
		}
	}

	if inWindow < hs.burst {
		return 0
	}

	return burstWindow / time.Duration(hs.burst)
}

// pruneHistory drops timestamps older than the retention window.
func (hs *hostState) pruneHistory(now time.Time) {
	cut := 0
	for cut < len(hs.history) && now.Sub(hs.history[cut]) > historyRetention {
		cut++
	}

	if cut > 0 {
		hs.history = hs.history[cut:]
	}
}

// recordRequest appends a request timestamp, keeping the window bounded.
func (hs *hostState) recordRequest(at time.Time) {
	hs.lastRequest = at
	hs.history = append(hs.history, at)

	if len(hs.history) > maxHistory {
		hs.history = hs.history[len(hs.history)-maxHistory:]
	}
}

// Report adjusts the host's throttle state from an observed response.
// A 429 halves the allowed rate, shrinks the burst allowance, and doubles
// the minimum delay. A sustained run of 5xx applies a milder penalty.
// A fast, error-free 200 cautiously raises the rate again.
func (l *Limiter) Report(host string, statusCode int, responseTime time.Duration) {
	hs := l.host(host)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	switch {
	case statusCode == 429:
		hs.applyOverloadPenalty(l.cfg)
	case statusCode >= 500:
		hs.applyServerErrorPenalty()
	case statusCode == 200:
		hs.applySuccess(l.cfg, responseTime)
	}
}

// applyOverloadPenalty reacts to an explicit rate-limit signal.
func (hs *hostState) applyOverloadPenalty(cfg Config) {
	hs.rate = max(hs.rate*overloadRateFactor, cfg.MinRate)
	hs.burst = max(hs.burst-1, 1)
	hs.minDelay = min(time.Duration(float64(hs.minDelay)*overloadDelayFactor), cfg.MaxDelay)
	hs.errorCount++
}

// applyServerErrorPenalty counts a server error and, past the threshold,
// applies a milder slowdown than the 429 penalty.
func (hs *hostState) applyServerErrorPenalty() {
	hs.errorCount++

	if hs.errorCount <= serverErrorThreshold {
		return
	}

	hs.rate = max(hs.rate*serverErrRateFactor, serverErrMinRate)
	hs.minDelay = min(time.Duration(float64(hs.minDelay)*serverErrDelayFactor), serverErrMaxDelay)
}

// applySuccess decrements the error counter and, when the server is fast
// and error-free, cautiously raises the allowed rate. The decrement (rather
// than a reset to zero) avoids oscillation from isolated failures.
func (hs *hostState) applySuccess(cfg Config, responseTime time.Duration) {
	hs.errorCount = max(hs.errorCount-1, 0)

	if responseTime >= fastResponseThreshold || hs.errorCount != 0 {
		return
	}

	if hs.rate < cfg.MaxRate {
		hs.rate = min(hs.rate*recoveryRateFactor, cfg.MaxRate)
		hs.burst = min(hs.burst+1, cfg.MaxBurst)
		hs.minDelay = max(time.Duration(float64(hs.minDelay)*recoveryDelayFactor), cfg.MinDelay)
	}
}

// HostStats is a read-only snapshot of a host's throttle state.
type HostStats struct {
	Rate           float64
	Burst          int
	MinDelay       time.Duration
	RecentRequests int
	ErrorCount     int
}

// Stats returns a snapshot of the throttle state for a host.
func (l *Limiter) Stats(host string) HostStats {
	hs := l.host(host)

	hs.mu.Lock()
	defer hs.mu.Unlock()

	now := time.Now()
	recent := 0
	for _, t := range hs.history {
		if now.Sub(t) <= historyRetention {
			recent++
		}
	}

	return HostStats{
		Rate:           hs.rate,
		Burst:          hs.burst,
		MinDelay:       hs.minDelay,
		RecentRequests: recent,
		ErrorCount:     hs.errorCount,
	}
}
