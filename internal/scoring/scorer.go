// Package scoring ranks scraped jobs against a candidate profile using the
// LLM, with a TTL cache so repeated runs do not re-pay for unchanged
// (job, resume) pairs.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/llm"
	"github.com/jonathan/jobscout/internal/prompts"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/textutil"
	"github.com/jonathan/jobscout/internal/types"
)

// Defaults for the scoring prompt budget and profile summary caps.
const (
	DefaultDescriptionMaxChars = 2000
	DefaultCacheTTL            = 24 * time.Hour
	DefaultMaxSkills           = 15
	DefaultMaxTitles           = 5
	DefaultMaxIndustries       = 3
	DefaultMaxEducation        = 2
)

// Thresholds maps score ranges to recommendation tiers. A score at or above
// Strong is a Strong Match, at or above Good a Good Match, at or above
// Moderate a Moderate Match, anything below a Weak Match.
type Thresholds struct {
	Strong   int
	Good     int
	Moderate int
}

// DefaultThresholds is the standard tier table.
var DefaultThresholds = Thresholds{Strong: 85, Good: 70, Moderate: 50}

// Tier returns the recommendation bucket for a clamped score.
func (t Thresholds) Tier(score int) types.Tier {
	switch {
	case score >= t.Strong:
		return types.TierStrong
	case score >= t.Good:
		return types.TierGood
	case score >= t.Moderate:
		return types.TierModerate
	default:
		return types.TierWeak
	}
}

// Config controls prompt budgets, tiering and caching.
type Config struct {
	DescriptionMaxChars int
	Thresholds          Thresholds
	CacheTTL            time.Duration
	MaxSkills           int
	MaxTitles           int
	MaxIndustries       int
	MaxEducation        int
}

func (c Config) withDefaults() Config {
	if c.DescriptionMaxChars <= 0 {
		c.DescriptionMaxChars = DefaultDescriptionMaxChars
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxSkills <= 0 {
		c.MaxSkills = DefaultMaxSkills
	}
	if c.MaxTitles <= 0 {
		c.MaxTitles = DefaultMaxTitles
	}
	if c.MaxIndustries <= 0 {
		c.MaxIndustries = DefaultMaxIndustries
	}
	if c.MaxEducation <= 0 {
		c.MaxEducation = DefaultMaxEducation
	}
	return c
}

// Scorer scores jobs against a profile.
type Scorer struct {
	client llm.Client
	cfg    Config
	cache  *gocache.Cache
	logger *zap.Logger
}

// New creates a scorer with its own result cache.
func New(client llm.Client, cfg Config, logger *zap.Logger) *Scorer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		client: client,
		cfg:    cfg,
		cache:  gocache.New(cfg.CacheTTL, cfg.CacheTTL/2),
		logger: logger,
	}
}

// rawAssessment mirrors the model's JSON output. Numeric fields decode as
// floats because models do not reliably emit integers.
type rawAssessment struct {
	Score                float64  `json:"score"`
	SkillMatchPercentage float64  `json:"skill_match_percentage"`
	Reasoning            string   `json:"reasoning"`
	Pros                 []string `json:"pros"`
	Cons                 []string `json:"cons"`
	StrongMatches        []string `json:"strong_matches"`
	Gaps                 []string `json:"gaps"`
	StrategicNotes       []string `json:"strategic_considerations"`
}

// Score evaluates one job against the profile. Results are cached per
// (job ID, profile version); a hit skips the model entirely.
//
// The recommendation tier is always derived from the clamped score via the
// threshold table. Any tier label the model emits is ignored so a batch is
// internally consistent.
func (s *Scorer) Score(ctx context.Context, job *types.JobRecord, profile *types.CandidateProfile) (*types.MatchResult, error) {
	key := cacheKey(job.ID, profile.Version)
	if cached, found := s.cache.Get(key); found {
		s.logger.Debug("match cache hit", zap.String("job_id", job.ID))
		return cached.(*types.MatchResult), nil
	}

	prompt := s.buildPrompt(job, profile)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		// Only a malformed response earns the repair retry; transport
		// failures surface directly.
		var malformed *llm.MalformedResponseError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		s.logger.Warn("score response malformed, retrying with strict instructions",
			zap.String("job_id", job.ID), zap.Error(err))
		strict := prompt + prompts.MustGet("scoring.json", "strict_retry_suffix")
		raw, err = s.generate(ctx, strict)
		if err != nil {
			return nil, err
		}
	}

	score := clamp(int(math.Round(raw.Score)))
	result := &types.MatchResult{
		JobID:                job.ID,
		ProfileVersion:       profile.Version,
		Score:                score,
		SkillMatchPercentage: clamp(int(math.Round(raw.SkillMatchPercentage))),
		Recommendation:       s.cfg.Thresholds.Tier(score),
		Reasoning:            raw.Reasoning,
		Pros:                 raw.Pros,
		Cons:                 raw.Cons,
		StrongMatches:        raw.StrongMatches,
		Gaps:                 raw.Gaps,
		StrategicNotes:       raw.StrategicNotes,
	}

	s.cache.Set(key, result, gocache.DefaultExpiration)
	s.logger.Info("job scored",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
		zap.Int("score", result.Score),
		zap.String("recommendation", string(result.Recommendation)))

	return result, nil
}

// ScoreAll scores jobs in order, attaching results to each record. A job
// whose scoring fails is logged and left unscored rather than failing the
// batch; the first context cancellation stops the run.
func (s *Scorer) ScoreAll(ctx context.Context, jobs []*types.JobRecord, profile *types.CandidateProfile) error {
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		match, err := s.Score(ctx, job, profile)
		if err != nil {
			s.logger.Warn("skipping unscorable job",
				zap.String("job_id", job.ID),
				zap.String("title", job.Title),
				zap.Error(err))
			continue
		}
		job.Match = match
	}
	return nil
}

func (s *Scorer) generate(ctx context.Context, prompt string) (*rawAssessment, error) {
	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload := llm.ExtractJSONObject(llm.CleanJSONBlock(text))
	if payload == "" {
		return nil, &llm.MalformedResponseError{Stage: "scoring", Message: "no JSON object in response"}
	}

	if err := schemas.ValidateMatch(payload); err != nil {
		return nil, &llm.MalformedResponseError{Stage: "scoring", Message: "schema validation failed", Cause: err}
	}

	var raw rawAssessment
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &llm.MalformedResponseError{Stage: "scoring", Message: "could not decode JSON", Cause: err}
	}

	return &raw, nil
}

func (s *Scorer) buildPrompt(job *types.JobRecord, profile *types.CandidateProfile) string {
	description := textutil.Truncate(job.Description(), s.cfg.DescriptionMaxChars)
	if description == "" {
		description = "N/A"
	}
	salary := job.Salary
	if salary == "" {
		salary = "Not specified"
	}

	template := prompts.MustGet("scoring.json", "score_match")
	return prompts.Format(template, map[string]string{
		"Skills":          capJoin(profile.Skills, s.cfg.MaxSkills),
		"ExperienceYears": strconv.Itoa(profile.ExperienceYears),
		"PreviousTitles":  capJoin(profile.PreviousTitles, s.cfg.MaxTitles),
		"Industries":      capJoin(profile.Industries, s.cfg.MaxIndustries),
		"Education":       capJoin(profile.Education, s.cfg.MaxEducation),
		"JobTitle":        orNA(job.Title),
		"Company":         orNA(job.Company),
		"Location":        orNA(job.Location),
		"Salary":          salary,
		"Description":     description,
	})
}

func cacheKey(jobID, profileVersion string) string {
	return fmt.Sprintf("%s|%s", jobID, profileVersion)
}

// capJoin joins at most n items with commas.
func capJoin(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
