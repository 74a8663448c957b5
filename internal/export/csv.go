// Package export renders scored job results for consumption outside the
// tool.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/jobscout/internal/types"
)

// csvHeader is the flattened column layout: listing fields first, then
// match fields. Unscored jobs leave the match columns empty.
var csvHeader = []string{
	"title",
	"company",
	"location",
	"salary",
	"work_type",
	"posted_date",
	"url",
	"score",
	"recommendation",
	"skill_match_percentage",
	"reasoning",
	"pros",
	"cons",
	"strong_matches",
	"gaps",
	"strategic_considerations",
}

// WriteCSV writes records as CSV, one row per job, sorted however the
// caller ordered them.
func WriteCSV(w io.Writer, records []*types.JobRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, job := range records {
		row := []string{
			job.Title,
			job.Company,
			job.Location,
			job.Salary,
			job.WorkType,
			job.PostedDate,
			job.URL,
		}
		if job.Match != nil {
			row = append(row,
				strconv.Itoa(job.Match.Score),
				string(job.Match.Recommendation),
				strconv.Itoa(job.Match.SkillMatchPercentage),
				job.Match.Reasoning,
				joinList(job.Match.Pros),
				joinList(job.Match.Cons),
				joinList(job.Match.StrongMatches),
				joinList(job.Match.Gaps),
				joinList(job.Match.StrategicNotes),
			)
		} else {
			row = append(row, "", "", "", "", "", "", "", "", "")
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for job %s: %w", job.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// joinList flattens a string list into one CSV cell.
func joinList(items []string) string {
	return strings.Join(items, "; ")
}
