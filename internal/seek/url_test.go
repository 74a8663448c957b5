package seek

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobscout/internal/types"
)

func TestSanitizeTerm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Project Manager", "project-manager"},
		{"special characters", "C# / .NET Developer!", "c-net-developer"},
		{"extra whitespace", "  data   engineer  ", "data-engineer"},
		{"existing hyphens", "front-end developer", "front-end-developer"},
		{"consecutive hyphens collapse", "a -- b", "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeTerm("title", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeTerm_Empty(t *testing.T) {
	_, err := SanitizeTerm("title", "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestSanitizeTerm_OnlySpecialCharacters(t *testing.T) {
	_, err := SanitizeTerm("location", "!!!###")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBuildSearchURL_Basic(t *testing.T) {
	url, err := BuildSearchURL(DefaultBaseURL, types.SearchCriteria{
		Title:    "Project Manager",
		Location: "Sydney",
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.seek.com.au/project-manager-jobs/in-sydney", url)
}

func TestBuildSearchURL_AllFilters(t *testing.T) {
	url, err := BuildSearchURL(DefaultBaseURL, types.SearchCriteria{
		Title:      "engineer",
		Location:   "Melbourne",
		WorkType:   "full-time",
		Remote:     "remote",
		MinSalary:  100000,
		DatePosted: "7",
	}, 2)
	require.NoError(t, err)
	assert.Contains(t, url, "/engineer-jobs/in-melbourne?")
	assert.Contains(t, url, "fullTime=true")
	assert.Contains(t, url, "worktype=work-from-home")
	assert.Contains(t, url, "salarytype=annual&salaryrange=100000-")
	assert.Contains(t, url, "daterange=7")
	assert.Contains(t, url, "page=2")
}

func TestBuildSearchURL_DatePostedToday(t *testing.T) {
	url, err := BuildSearchURL(DefaultBaseURL, types.SearchCriteria{
		Title:      "analyst",
		Location:   "Brisbane",
		DatePosted: "Today",
	}, 1)
	require.NoError(t, err)
	assert.Contains(t, url, "daterange=1")
}

func TestBuildSearchURL_InvalidTitle(t *testing.T) {
	_, err := BuildSearchURL(DefaultBaseURL, types.SearchCriteria{
		Title:    "???",
		Location: "Sydney",
	}, 1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseSalaryFilter(t *testing.T) {
	assert.Equal(t, 80000, ParseSalaryFilter("80K+"))
	assert.Equal(t, 350000, ParseSalaryFilter("350K+"))
	assert.Equal(t, 120000, ParseSalaryFilter("120k"))
	assert.Equal(t, 95000, ParseSalaryFilter("95000"))
	assert.Equal(t, 0, ParseSalaryFilter("Any"))
	assert.Equal(t, 0, ParseSalaryFilter(""))
	assert.Equal(t, 0, ParseSalaryFilter("not-a-number"))
}
