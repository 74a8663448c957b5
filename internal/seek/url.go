// Package seek adapts one job board's URL scheme and markup into the
// pipeline's typed records. The source is treated as an unreliable,
// rate-limiting collaborator whose markup may vary without notice.
package seek

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/jobscout/internal/types"
)

// DefaultBaseURL is the production job board origin. Tests point it at an
// httptest server instead.
const DefaultBaseURL = "https://www.seek.com.au"

// Query fragments for each employment type filter.
var workTypeParams = map[string]string{
	"full-time":       "fullTime=true",
	"part-time":       "partTime=true",
	"contract-temp":   "contract=true",
	"casual-vacation": "casual=true",
}

// Query fragments for each remote arrangement filter.
var remoteParams = map[string]string{
	"remote":  "worktype=work-from-home",
	"hybrid":  "worktype=hybrid",
	"on-site": "worktype=office",
}

var (
	specialChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	manyHyphens  = regexp.MustCompile(`-+`)
)

// SanitizeTerm neutralizes characters with special meaning in the board's
// path/query syntax: strips everything but word characters, spaces, and
// hyphens, collapses spaces to single hyphens, and lowercases.
func SanitizeTerm(field, term string) (string, error) {
	if strings.TrimSpace(term) == "" {
		return "", &ValidationError{Field: field, Message: "must not be empty"}
	}

	s := specialChars.ReplaceAllString(term, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = manyHyphens.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return "", &ValidationError{Field: field, Message: "contains no usable characters"}
	}
	return s, nil
}

// BuildSearchURL encodes search criteria into the board's URL scheme:
//
//	{base}/{title}-jobs/in-{location}?{filters}
//
// Free-text inputs are sanitized first; unusable input yields a
// ValidationError.
func BuildSearchURL(baseURL string, criteria types.SearchCriteria, page int) (string, error) {
	title, err := SanitizeTerm("title", criteria.Title)
	if err != nil {
		return "", err
	}
	location, err := SanitizeTerm("location", criteria.Location)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s-jobs/in-%s", strings.TrimSuffix(baseURL, "/"), title, location)

	var params []string
	if p, ok := workTypeParams[strings.ToLower(criteria.WorkType)]; ok {
		params = append(params, p)
	}
	if p, ok := remoteParams[strings.ToLower(criteria.Remote)]; ok {
		params = append(params, p)
	}
	if criteria.MinSalary > 0 {
		params = append(params, fmt.Sprintf("salarytype=annual&salaryrange=%d-", criteria.MinSalary))
	}
	if d := datePostedParam(criteria.DatePosted); d != "" {
		params = append(params, d)
	}
	if page > 1 {
		params = append(params, fmt.Sprintf("page=%d", page))
	}

	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}
	return url, nil
}

func datePostedParam(datePosted string) string {
	switch {
	case datePosted == "":
		return ""
	case strings.EqualFold(datePosted, "today"):
		return "daterange=1"
	default:
		if _, err := strconv.Atoi(datePosted); err == nil {
			return "daterange=" + datePosted
		}
		return ""
	}
}

// ParseSalaryFilter converts a display salary filter like "80K+" into an
// annual figure. "Any" or unparsable input yields zero.
func ParseSalaryFilter(salary string) int {
	if salary == "" || strings.EqualFold(salary, "any") {
		return 0
	}
	s := strings.TrimSuffix(strings.ToUpper(salary), "+")
	multiplier := 1
	if strings.HasSuffix(s, "K") {
		s = strings.TrimSuffix(s, "K")
		multiplier = 1000
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n * multiplier
}
