package seek

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func jobCard(i int, withTitle bool) string {
	title := ""
	if withTitle {
		title = fmt.Sprintf(`<a data-automation="jobTitle" href="/job/%d">Engineer %d</a>`, i, i)
	}
	return fmt.Sprintf(`
		<article data-card-type="JobCard">
			%s
			<span data-automation="jobCompany">Company %d</span>
			<span data-automation="jobLocation">Sydney NSW</span>
			<span data-automation="jobShortDescription">Short description %d</span>
		</article>`, title, i, i)
}

func listingPage(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func TestListings_SkipsMalformedCard(t *testing.T) {
	cards := make([]string, 0, 11)
	for i := 0; i < 10; i++ {
		cards = append(cards, jobCard(i, true))
	}
	cards = append(cards, jobCard(99, false)) // no title, no link

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings(listingPage(cards...))
	require.NoError(t, err)
	require.Len(t, records, 10)

	for i, record := range records {
		assert.Equal(t, fmt.Sprintf("Engineer %d", i), record.Title)
		assert.Equal(t, fmt.Sprintf("Company %d", i), record.Company)
		assert.Equal(t, "Sydney NSW", record.Location)
		assert.Equal(t, fmt.Sprintf("https://www.seek.com.au/job/%d", i), record.URL)
	}
}

func TestListings_OptionalFieldsEmpty(t *testing.T) {
	html := listingPage(`
		<article data-card-type="JobCard">
			<a data-automation="jobTitle" href="/job/1">Bare Minimum Role</a>
		</article>`)

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings(html)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "Bare Minimum Role", record.Title)
	assert.Empty(t, record.Company)
	assert.Empty(t, record.Salary)
	assert.Empty(t, record.FullDescription)
	assert.NotEmpty(t, record.ID)
}

func TestListings_UniqueIDs(t *testing.T) {
	cards := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		cards = append(cards, jobCard(i, true))
	}

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings(listingPage(cards...))
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, record := range records {
		assert.False(t, ids[record.ID], "duplicate id %s", record.ID)
		ids[record.ID] = true
	}
}

func TestListings_DeduplicatesSameURL(t *testing.T) {
	html := listingPage(jobCard(1, true), jobCard(1, true))

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings(html)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListings_FallbackHeadingLayout(t *testing.T) {
	html := listingPage(`
		<article class="job-result">
			<h3>Fallback Job</h3>
			<a href="/job/fallback">view</a>
		</article>`)

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings(html)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Fallback Job", records[0].Title)
	assert.Equal(t, "https://www.seek.com.au/job/fallback", records[0].URL)
}

func TestListings_EmptyPage(t *testing.T) {
	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	records, err := extractor.Listings("<html><body><p>no results</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDescription_PrimarySelector(t *testing.T) {
	html := `<html><body>
		<div data-automation="jobAdDetails">
			<p>We are looking for a senior engineer.</p>
			<p>You will build data pipelines.</p>
		</div>
	</body></html>`

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	desc := extractor.Description(html)
	assert.Contains(t, desc, "senior engineer")
	assert.Contains(t, desc, "data pipelines")
}

func TestDescription_ClassFallback(t *testing.T) {
	html := `<html><body>
		<div class="job-description-block"><p>Fallback description.</p></div>
	</body></html>`

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	assert.Contains(t, extractor.Description(html), "Fallback description")
}

func TestDescription_LargestBlockFallback(t *testing.T) {
	html := `<html><body>
		<div>tiny</div>
		<div>` + strings.Repeat("This is the real description. ", 20) + `</div>
	</body></html>`

	extractor := NewExtractor(DefaultBaseURL, zap.NewNop())
	assert.Contains(t, extractor.Description(html), "real description")
}

func TestJobID_StableAndCanonical(t *testing.T) {
	a := JobID("https://www.seek.com.au/job/123")
	b := JobID("https://www.seek.com.au/job/123/")
	c := JobID("https://www.seek.com.au/job/123?ref=search")
	d := JobID("https://www.seek.com.au/job/124")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 16)
}
