package scraper

import "strings"

// ChallengeState classifies a loaded page with respect to anti-bot
// interstitials. It is recomputed on every load.
type ChallengeState int

const (
	ChallengeNone ChallengeState = iota
	ChallengePending
	ChallengeResolved
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengePending:
		return "pending"
	case ChallengeResolved:
		return "resolved"
	default:
		return "none"
	}
}

// Snapshot is what the loader reads from a tab to look for a challenge.
type Snapshot struct {
	Title   string
	Body    string // document.body.innerHTML
	Cookies string // "name=value; name2=value2"
}

// ChallengeDetector recognises one vendor's challenge page.
type ChallengeDetector interface {
	Name() string
	// Detect reports whether the snapshot is this vendor's challenge page.
	Detect(s Snapshot) bool
	// Resolved reports whether cookies carry the vendor's clearance marker.
	Resolved(cookies string) bool
}

// DefaultDetectors returns the detectors used when none are configured.
func DefaultDetectors() []ChallengeDetector {
	return []ChallengeDetector{DeflectDetector{}, CloudflareDetector{}}
}

// DeflectDetector matches Deflect-style proof-of-work interstitials.
type DeflectDetector struct{}

func (DeflectDetector) Name() string { return "deflect" }

func (DeflectDetector) Detect(s Snapshot) bool {
	return strings.Contains(s.Body, "challenge") ||
		strings.Contains(s.Body, "deflect") ||
		strings.Contains(s.Title, "Verifying")
}

func (DeflectDetector) Resolved(cookies string) bool {
	return strings.Contains(cookies, "deflect=")
}

// CloudflareDetector matches the Cloudflare browser check.
type CloudflareDetector struct{}

func (CloudflareDetector) Name() string { return "cloudflare" }

func (CloudflareDetector) Detect(s Snapshot) bool {
	if strings.Contains(s.Title, "Just a moment") {
		return true
	}
	body := strings.ToLower(s.Body)
	return strings.Contains(body, "cf-browser-verification") ||
		strings.Contains(body, "challenge-platform") ||
		strings.Contains(body, "checking your browser")
}

func (CloudflareDetector) Resolved(cookies string) bool {
	return strings.Contains(cookies, "cf_clearance=")
}
