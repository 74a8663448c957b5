// Package types defines the core data model shared across the scraping and
// matching pipeline: job records, candidate profiles, match results, and
// search criteria.
package types

// JobRecord is one normalized job posting extracted from the source site.
// Records are immutable after extraction except for the lazily fetched
// FullDescription and the attached Match result.
type JobRecord struct {
	// ID is derived from the canonical job URL and is stable across runs.
	ID               string `json:"id"`
	Title            string `json:"title"`
	Company          string `json:"company,omitempty"`
	Location         string `json:"location,omitempty"`
	Salary           string `json:"salary,omitempty"`
	WorkType         string `json:"work_type,omitempty"`
	PostedDate       string `json:"posted_date,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	FullDescription  string `json:"full_description,omitempty"`
	URL              string `json:"url"`

	Match *MatchResult `json:"match,omitempty"`
}

// Description returns the best available description text for the job,
// preferring the full description over the card snippet.
func (j *JobRecord) Description() string {
	if j.FullDescription != "" {
		return j.FullDescription
	}
	return j.ShortDescription
}

// SearchCriteria holds user-supplied search parameters. Title and Location
// are free text and are sanitized before URL construction.
type SearchCriteria struct {
	Title      string `json:"title" validate:"required"`
	Location   string `json:"location" validate:"required"`
	WorkType   string `json:"work_type,omitempty" validate:"omitempty,oneof=full-time part-time contract-temp casual-vacation"`
	Remote     string `json:"remote,omitempty" validate:"omitempty,oneof=on-site hybrid remote"`
	MinSalary  int    `json:"min_salary,omitempty" validate:"gte=0"`
	DatePosted string `json:"date_posted,omitempty"`
	MaxJobs    int    `json:"max_jobs,omitempty" validate:"gte=0"`
}
