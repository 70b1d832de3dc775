package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/ragsvc/config"
)

const (
	titleJS = `() => document.title`
	bodyJS  = `() => document.body ? document.body.innerHTML : ""`
	hrefJS  = `() => window.location.href`

	// readyJS resolves once the load event has fired.
	readyJS = `() => new Promise(resolve => {
		if (document.readyState === "complete") { resolve(true); return; }
		window.addEventListener("load", () => resolve(true), { once: true });
	})`
)

// Loader waits for a navigated tab to settle before its HTML is read.
// Every wait is bounded and no failure is ever returned.
type Loader struct {
	detectors []ChallengeDetector

	bodyTimeout  time.Duration
	settle       time.Duration
	extraWait    time.Duration
	readyTimeout time.Duration
}

// NewLoader builds a Loader from the scraper wait settings. With no
// detectors given, DefaultDetectors is used.
func NewLoader(cfg config.ScraperConfig, detectors ...ChallengeDetector) *Loader {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Loader{
		detectors:    detectors,
		bodyTimeout:  cfg.BodyTimeout,
		settle:       cfg.ChallengeSettle,
		extraWait:    cfg.ChallengeExtraWait,
		readyTimeout: cfg.ReadyTimeout,
	}
}

// AwaitStable blocks until the tab is worth reading and reports the challenge
// state it saw. It returns early only when ctx is done.
func (l *Loader) AwaitStable(ctx context.Context, tab Tab) ChallengeState {
	// ── 1. Body element ──────────────────────────────────────────────
	bodyCtx, cancel := context.WithTimeout(ctx, l.bodyTimeout)
	if err := tab.WaitElement(bodyCtx, "body"); err != nil {
		slog.Debug("loader: body element not found", "error", err)
	}
	cancel()

	// ── 2. Probe for a challenge ─────────────────────────────────────
	snap, err := probe(ctx, tab)
	if err != nil {
		slog.Debug("loader: challenge probe failed, assuming none", "error", err)
	}
	det := l.detect(snap)

	// ── 3. No challenge: wait for the load event ─────────────────────
	if det == nil {
		l.awaitReady(ctx, tab)
		return ChallengeNone
	}

	// ── 4. Challenge: settle, check clearance, maybe wait once more ──
	slog.Info("loader: challenge page detected", "detector", det.Name())
	if !sleepCtx(ctx, l.settle) {
		return ChallengePending
	}

	cookies, err := tab.Cookies(ctx)
	if err != nil {
		slog.Debug("loader: cookie read failed", "error", err)
	}
	if det.Resolved(cookies) {
		slog.Info("loader: challenge resolved", "detector", det.Name())
		return ChallengeResolved
	}

	slog.Debug("loader: challenge unresolved, waiting once more", "detector", det.Name())
	sleepCtx(ctx, l.extraWait)
	return ChallengePending
}

func (l *Loader) detect(snap Snapshot) ChallengeDetector {
	for _, d := range l.detectors {
		if d.Detect(snap) {
			return d
		}
	}
	return nil
}

func (l *Loader) awaitReady(ctx context.Context, tab Tab) {
	readyCtx, cancel := context.WithTimeout(ctx, l.readyTimeout)
	defer cancel()
	if _, err := tab.Eval(readyCtx, readyJS); err != nil {
		slog.Debug("loader: readiness wait ended without load event", "error", err)
	}
}

// probe reads title, body markup and cookies. A failed read yields an empty
// field; the first error is returned alongside the partial snapshot.
func probe(ctx context.Context, tab Tab) (Snapshot, error) {
	var snap Snapshot
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if v, err := tab.Eval(ctx, titleJS); err != nil {
		keep(err)
	} else {
		snap.Title = v.Str()
	}
	if v, err := tab.Eval(ctx, bodyJS); err != nil {
		keep(err)
	} else {
		snap.Body = v.Str()
	}
	if c, err := tab.Cookies(ctx); err != nil {
		keep(err)
	} else {
		snap.Cookies = c
	}
	return snap, firstErr
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
