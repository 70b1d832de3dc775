package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/ragsvc/config"
)

func fastLoaderConfig() config.ScraperConfig {
	return config.ScraperConfig{
		BodyTimeout:        50 * time.Millisecond,
		ChallengeSettle:    30 * time.Millisecond,
		ChallengeExtraWait: 20 * time.Millisecond,
		ReadyTimeout:       50 * time.Millisecond,
	}
}

func loadedTab(title, html string, cookies ...string) *fakeTab {
	return &fakeTab{
		site:      map[string]fakePage{"u": {Title: title, HTML: html}},
		current:   "u",
		cookieSeq: cookies,
	}
}

func TestAwaitStableNoChallengeWaitsForReady(t *testing.T) {
	tab := loadedTab("News", "<p>ordinary article</p>")

	state := NewLoader(fastLoaderConfig()).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengeNone, state)
	assert.True(t, tab.readyCalled)
}

func TestAwaitStableChallengeResolved(t *testing.T) {
	tab := loadedTab("Verifying your browser", "<div>please wait</div>", "", "deflect=abc123; other=1")

	start := time.Now()
	state := NewLoader(fastLoaderConfig()).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengeResolved, state)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, tab.readyCalled)
}

func TestAwaitStableChallengeUnresolvedProceeds(t *testing.T) {
	tab := loadedTab("Site", `<div class="deflect">solving challenge</div>`, "session=1")

	start := time.Now()
	state := NewLoader(fastLoaderConfig()).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengePending, state)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAwaitStableCloudflare(t *testing.T) {
	tab := loadedTab("Just a moment...", "<div></div>", "", "cf_clearance=xyz")

	state := NewLoader(fastLoaderConfig()).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengeResolved, state)
}

func TestAwaitStableProbeFailureMeansNoChallenge(t *testing.T) {
	tab := loadedTab("Verifying", "challenge")
	tab.evalErr = errors.New("execution context destroyed")
	tab.waitErr = errors.New("body never appeared")

	state := NewLoader(fastLoaderConfig()).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengeNone, state)
}

func TestAwaitStableCanceledDuringSettle(t *testing.T) {
	cfg := fastLoaderConfig()
	cfg.ChallengeSettle = time.Hour
	tab := loadedTab("Verifying", "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	state := NewLoader(cfg).AwaitStable(ctx, tab)

	assert.Equal(t, ChallengePending, state)
	assert.Less(t, time.Since(start), time.Second)
}

type markerDetector struct{}

func (markerDetector) Name() string { return "marker" }

func (markerDetector) Detect(s Snapshot) bool { return s.Title == "Gate" }

func (markerDetector) Resolved(cookies string) bool { return cookies == "pass=1" }

func TestAwaitStableCustomDetector(t *testing.T) {
	tab := loadedTab("Gate", "challenge", "pass=1")

	state := NewLoader(fastLoaderConfig(), markerDetector{}).AwaitStable(context.Background(), tab)

	assert.Equal(t, ChallengeResolved, state)

	// Only the configured detector runs: "challenge" in the body is ignored.
	tab = loadedTab("Home", "challenge")
	state = NewLoader(fastLoaderConfig(), markerDetector{}).AwaitStable(context.Background(), tab)
	assert.Equal(t, ChallengeNone, state)
}

func TestDetectors(t *testing.T) {
	d := DeflectDetector{}
	assert.True(t, d.Detect(Snapshot{Body: "a challenge page"}))
	assert.True(t, d.Detect(Snapshot{Body: "powered by deflect"}))
	assert.True(t, d.Detect(Snapshot{Title: "Verifying you are human"}))
	assert.False(t, d.Detect(Snapshot{Title: "Home", Body: "<p>hello</p>"}))
	assert.True(t, d.Resolved("a=1; deflect=xyz"))
	assert.False(t, d.Resolved("a=1"))

	c := CloudflareDetector{}
	assert.True(t, c.Detect(Snapshot{Title: "Just a moment..."}))
	assert.True(t, c.Detect(Snapshot{Body: `<div id="cf-browser-verification">`}))
	assert.True(t, c.Detect(Snapshot{Body: "Checking your browser before accessing"}))
	assert.False(t, c.Detect(Snapshot{Title: "Home"}))
	assert.True(t, c.Resolved("cf_clearance=abc"))
}

func TestChallengeStateString(t *testing.T) {
	assert.Equal(t, "none", ChallengeNone.String())
	assert.Equal(t, "pending", ChallengePending.String())
	assert.Equal(t, "resolved", ChallengeResolved.String())
}
