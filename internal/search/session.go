// Package search orchestrates a paced scraping run: building search URLs,
// fetching listing pages through the pacer, extracting job cards, and
// lazily fetching job detail pages.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/pacing"
	"github.com/jonathan/jobscout/internal/seek"
	"github.com/jonathan/jobscout/internal/types"
)

// Job count limits. A run never fetches more jobs than MaxJobsCap no matter
// what the caller asks for.
const (
	DefaultMaxJobs = 5
	MaxJobsCap     = 50
)

// maxPages bounds pagination for a single run.
const maxPages = 10

// Config controls a scraping session.
type Config struct {
	// BaseURL of the job board. Empty selects the production site; tests
	// point it at a local server.
	BaseURL string
	// UseBrowser renders pages in headless Chrome instead of plain HTTP.
	UseBrowser bool
	// RenderTimeout bounds a single browser render.
	RenderTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = seek.DefaultBaseURL
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = fetch.DefaultRenderTimeout
	}
	return c
}

// Session runs searches against the job board. All requests, listing and
// detail alike, flow through the pacer so the whole run looks like one
// browsing human.
type Session struct {
	pacer     *pacing.Pacer
	client    *fetch.Client
	extractor *seek.Extractor
	cfg       Config
	validate  *validator.Validate
	logger    *zap.Logger

	browserMu sync.Mutex
	browser   *fetch.Browser
}

// NewSession creates a session on top of an existing pacer and fetch
// client. When browser rendering is enabled, the browser is recreated on
// every identity rotation so its fingerprint matches the pacer's current
// epoch.
func NewSession(pacer *pacing.Pacer, client *fetch.Client, cfg Config, logger *zap.Logger) *Session {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		pacer:     pacer,
		client:    client,
		extractor: seek.NewExtractor(cfg.BaseURL, logger),
		cfg:       cfg,
		validate:  validator.New(),
		logger:    logger,
	}
	pacer.OnRotate(s.dropBrowser)
	return s
}

// Close releases the headless browser if one is running.
func (s *Session) Close() {
	s.dropBrowser()
}

// Run executes one search and returns up to MaxJobs listing records.
// Detail pages are not fetched here; call FetchDetail per job so the cost
// is only paid for jobs that survive filtering.
//
// On a rate limit the pacer is penalized and the jobs collected so far are
// returned alongside the error.
func (s *Session) Run(ctx context.Context, criteria types.SearchCriteria) ([]*types.JobRecord, error) {
	if err := s.validate.Struct(criteria); err != nil {
		return nil, fmt.Errorf("invalid search criteria: %w", err)
	}

	maxJobs := criteria.MaxJobs
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	if maxJobs > MaxJobsCap {
		s.logger.Warn("max jobs capped", zap.Int("requested", criteria.MaxJobs), zap.Int("cap", MaxJobsCap))
		maxJobs = MaxJobsCap
	}

	var collected []*types.JobRecord
	seen := make(map[string]bool)

	for page := 1; page <= maxPages && len(collected) < maxJobs; page++ {
		searchURL, err := seek.BuildSearchURL(s.cfg.BaseURL, criteria, page)
		if err != nil {
			return nil, err
		}

		html, err := s.fetchPage(ctx, searchURL)
		if err != nil {
			return collected, err
		}

		listings, err := s.extractor.Listings(html)
		if err != nil {
			return collected, err
		}
		if len(listings) == 0 {
			s.logger.Info("no more results", zap.Int("page", page))
			break
		}

		added := 0
		for i := range listings {
			if len(collected) >= maxJobs {
				break
			}
			job := listings[i]
			if seen[job.ID] {
				continue
			}
			seen[job.ID] = true
			collected = append(collected, &job)
			added++
		}

		s.logger.Info("listing page processed",
			zap.Int("page", page),
			zap.Int("cards", len(listings)),
			zap.Int("collected", len(collected)))

		// A page of pure duplicates means pagination has run out.
		if added == 0 {
			break
		}
	}

	return collected, nil
}

// FetchDetail loads the job's detail page and fills in FullDescription.
func (s *Session) FetchDetail(ctx context.Context, job *types.JobRecord) error {
	if job.URL == "" {
		return fmt.Errorf("job %s has no URL", job.ID)
	}

	html, err := s.fetchPage(ctx, job.URL)
	if err != nil {
		return err
	}

	job.FullDescription = s.extractor.Description(html)
	if job.FullDescription == "" {
		s.logger.Warn("no description found on detail page",
			zap.String("job_id", job.ID), zap.String("url", job.URL))
	}
	return nil
}

// fetchPage performs one paced request, observing it against the session
// budget and penalizing the pacer on rate limit signals.
func (s *Session) fetchPage(ctx context.Context, url string) (string, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return "", err
	}
	id := s.pacer.Identity()

	var html string
	var err error
	if s.cfg.UseBrowser {
		html, err = s.renderPage(ctx, url)
	} else {
		var result *fetch.Result
		result, err = s.client.Get(ctx, url, id)
		if result != nil {
			html = result.HTML
			if result.SawRateLimit {
				s.logger.Warn("rate limit encountered, slowing down", zap.String("url", url))
				s.pacer.Penalize()
			}
		}
	}
	s.pacer.Observe()

	if err != nil {
		var rateLimited *fetch.RateLimitedError
		if errors.As(err, &rateLimited) {
			s.pacer.Penalize()
		}
		return "", err
	}
	return html, nil
}

// renderPage fetches via headless Chrome, creating the browser on first
// use for the current identity epoch.
func (s *Session) renderPage(ctx context.Context, url string) (string, error) {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()

	if s.browser == nil {
		browser, err := fetch.NewBrowser(ctx, s.pacer.Identity(), s.logger)
		if err != nil {
			return "", err
		}
		s.browser = browser
	}
	return s.browser.Render(url, s.cfg.RenderTimeout)
}

func (s *Session) dropBrowser() {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
}
