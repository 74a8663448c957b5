package types

// Tier is the recommendation bucket derived from a match score. It is
// always computed from the clamped score, never taken from the model's own
// label, so results are consistent across a batch.
type Tier string

// Recommendation tiers ordered strongest first.
const (
	TierStrong   Tier = "Strong Match"
	TierGood     Tier = "Good Match"
	TierModerate Tier = "Moderate Match"
	TierWeak     Tier = "Weak Match"
)

// MatchResult scores one candidate profile against one job. A result is
// attributable to exactly one (JobID, ProfileVersion) pair and is never
// mutated after creation, only replaced wholesale on recompute.
type MatchResult struct {
	JobID          string `json:"job_id"`
	ProfileVersion string `json:"profile_version"`

	Score                int      `json:"score"`
	SkillMatchPercentage int      `json:"skill_match_percentage"`
	Recommendation       Tier     `json:"recommendation"`
	Reasoning            string   `json:"reasoning"`
	Pros                 []string `json:"pros"`
	Cons                 []string `json:"cons"`
	StrongMatches        []string `json:"strong_matches"`
	Gaps                 []string `json:"gaps"`
	StrategicNotes       []string `json:"strategic_considerations"`
}
