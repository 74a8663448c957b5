// Package profile turns raw resume text into a structured candidate
// profile via the LLM.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/llm"
	"github.com/jonathan/jobscout/internal/prompts"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/textutil"
	"github.com/jonathan/jobscout/internal/types"
)

// DefaultMaxChars is the resume character budget for the extraction prompt.
const DefaultMaxChars = 5000

// Extractor parses resumes into candidate profiles.
type Extractor struct {
	client   llm.Client
	maxChars int
	logger   *zap.Logger
}

// NewExtractor creates a profile extractor. maxChars <= 0 selects
// DefaultMaxChars.
func NewExtractor(client llm.Client, maxChars int, logger *zap.Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, maxChars: maxChars, logger: logger}
}

// rawProfile mirrors the model's JSON output. experience_years is decoded
// as a float because models occasionally return fractional years.
type rawProfile struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Education       []string `json:"education"`
	Certifications  []string `json:"certifications"`
	PreviousTitles  []string `json:"previous_titles"`
	Industries      []string `json:"industries"`
	Achievements    []string `json:"achievements"`
}

// Extract sends the resume to the model and returns the structured profile.
// The profile version is a hash of the full resume text, not the truncated
// prompt input, so any edit to the resume invalidates cached match results.
//
// A response that fails parsing or schema validation triggers exactly one
// retry with stricter formatting instructions before giving up with a
// MalformedResponseError.
func (e *Extractor) Extract(ctx context.Context, resumeText string) (*types.CandidateProfile, error) {
	truncated := textutil.Truncate(resumeText, e.maxChars)
	if len(truncated) < len(resumeText) {
		e.logger.Warn("resume truncated for prompt",
			zap.Int("original_chars", len(resumeText)),
			zap.Int("truncated_chars", len(truncated)))
	}

	template := prompts.MustGet("extraction.json", "extract_profile")
	prompt := prompts.Format(template, map[string]string{"ResumeText": truncated})

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		// Only a malformed response earns the repair retry; transport
		// failures surface directly.
		var malformed *llm.MalformedResponseError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		strict := prompt + prompts.MustGet("extraction.json", "strict_retry_suffix")
		e.logger.Warn("profile response malformed, retrying with strict instructions", zap.Error(err))
		raw, err = e.generate(ctx, strict)
		if err != nil {
			return nil, err
		}
	}

	profile := &types.CandidateProfile{
		Version:         types.ProfileVersion(resumeText),
		Skills:          raw.Skills,
		ExperienceYears: int(math.Round(raw.ExperienceYears)),
		Education:       raw.Education,
		Certifications:  raw.Certifications,
		PreviousTitles:  raw.PreviousTitles,
		Industries:      raw.Industries,
		Achievements:    raw.Achievements,
	}
	fillDefaults(profile)

	e.logger.Info("resume parsed",
		zap.Int("skills", len(profile.Skills)),
		zap.Int("experience_years", profile.ExperienceYears))

	return profile, nil
}

// generate performs one model round trip and decodes the response.
func (e *Extractor) generate(ctx context.Context, prompt string) (*rawProfile, error) {
	text, err := e.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload := llm.ExtractJSONObject(llm.CleanJSONBlock(text))
	if payload == "" {
		return nil, &llm.MalformedResponseError{Stage: "profile", Message: "no JSON object in response"}
	}

	if err := schemas.ValidateProfile(payload); err != nil {
		return nil, &llm.MalformedResponseError{Stage: "profile", Message: "schema validation failed", Cause: err}
	}

	var raw rawProfile
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &llm.MalformedResponseError{Stage: "profile", Message: "could not decode JSON", Cause: err}
	}

	return &raw, nil
}

// fillDefaults replaces nil slices so downstream formatting never has to
// nil-check.
func fillDefaults(p *types.CandidateProfile) {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Education == nil {
		p.Education = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	if p.PreviousTitles == nil {
		p.PreviousTitles = []string{}
	}
	if p.Industries == nil {
		p.Industries = []string{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.ExperienceYears < 0 {
		p.ExperienceYears = 0
	}
}
