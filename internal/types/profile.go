package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// CandidateProfile is the structured summary of a resume extracted by the
// LLM. Version is a content hash of the source resume text: a changed
// resume produces a new version, which invalidates any cached match results.
type CandidateProfile struct {
	Version         string   `json:"-"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Education       []string `json:"education"`
	Certifications  []string `json:"certifications"`
	PreviousTitles  []string `json:"previous_titles"`
	Industries      []string `json:"industries"`
	Achievements    []string `json:"achievements"`
}

// ProfileVersion computes the version hash for a resume's source text.
func ProfileVersion(resumeText string) string {
	sum := sha256.Sum256([]byte(resumeText))
	return hex.EncodeToString(sum[:])
}
