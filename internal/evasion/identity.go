// Package evasion provides the pure decision logic behind detection-resistant
// fetching: randomized request identities and human-like delay schedules.
// The package performs no I/O and does not read the clock; all randomness
// comes from an injected source so behavior is reproducible in tests.
package evasion

import (
	"math/rand"

	"github.com/google/uuid"
)

// UserAgents is the fixed pool of realistic browser user agents. Draws are
// uniform and independent across requests.
var UserAgents = []string{
	// Chrome on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	// Chrome on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	// Firefox on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	// Firefox on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Safari on macOS
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15",
	// Edge on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	// Chrome on Linux
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var acceptValues = []string{
	"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-AU,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.9,es;q=0.8",
}

var secFetchSites = []string{"none", "same-origin", "cross-site"}

// Viewport is a browser window size drawn from common screen resolutions.
type Viewport struct {
	Width  int
	Height int
}

var viewports = []Viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{2560, 1440},
	{1280, 720},
}

// RequestIdentity is the browser-like identity presented by a single
// request: user agent, header set, viewport, and the session epoch it was
// issued under. Identities are immutable once issued.
type RequestIdentity struct {
	UserAgent string
	Headers   map[string]string
	Viewport  Viewport
	Epoch     uuid.UUID
}

// Identity draws a fresh request identity for the given session epoch.
// Every draw is independent; nothing is memoized between calls.
func (p *Policy) Identity(epoch uuid.UUID) RequestIdentity {
	headers := map[string]string{
		"Accept":                    acceptValues[p.rng.Intn(len(acceptValues))],
		"Accept-Language":           acceptLanguages[p.rng.Intn(len(acceptLanguages))],
		"Accept-Encoding":           "gzip, deflate, br",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            secFetchSites[p.rng.Intn(len(secFetchSites))],
		"Sec-Fetch-User":            "?1",
	}
	// Roughly half of real traffic carries DNT.
	if p.rng.Float64() > 0.5 {
		headers["DNT"] = "1"
	}

	return RequestIdentity{
		UserAgent: UserAgents[p.rng.Intn(len(UserAgents))],
		Headers:   headers,
		Viewport:  viewports[p.rng.Intn(len(viewports))],
		Epoch:     epoch,
	}
}

// NewPolicy builds a policy from config and a random source. Pass a seeded
// rand.Rand in tests for deterministic decisions.
func NewPolicy(cfg Config, rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Policy{cfg: cfg.withDefaults(), rng: rng}
}

// Policy is the evasion decision maker. It holds only configuration and the
// random source; all per-session counters are passed in by the caller.
type Policy struct {
	cfg Config
	rng *rand.Rand
}
