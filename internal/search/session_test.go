package search

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/evasion"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/pacing"
	"github.com/jonathan/jobscout/internal/types"
)

func newTestPacer(t *testing.T) *pacing.Pacer {
	t.Helper()
	policy := evasion.NewPolicy(evasion.Config{
		DelayMin:            time.Millisecond,
		DelayMax:            2 * time.Millisecond,
		LongPauseMin:        time.Millisecond,
		LongPauseMax:        2 * time.Millisecond,
		ExtendedPauseChance: 1e-9,
	}, rand.New(rand.NewSource(7)))
	return pacing.New(policy, pacing.Config{}, zap.NewNop())
}

func newTestSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	client := fetch.NewClient(&fetch.Options{Timeout: 5 * time.Second, MaxRetries: 1, RetryBase: time.Millisecond}, zap.NewNop())
	return NewSession(newTestPacer(t), client, Config{BaseURL: baseURL}, zap.NewNop())
}

func cardsHTML(start, count int) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := start; i < start+count; i++ {
		fmt.Fprintf(&sb, `
			<article data-card-type="JobCard">
				<a data-automation="jobTitle" href="/job/%d">Engineer %d</a>
				<span data-automation="jobCompany">Acme</span>
				<span data-automation="jobLocation">Sydney NSW</span>
				<span data-automation="jobShortDescription">Short %d</span>
			</article>`, i, i, i)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func criteria(maxJobs int) types.SearchCriteria {
	return types.SearchCriteria{Title: "software engineer", Location: "sydney", MaxJobs: maxJobs}
}

func TestRun_SinglePage(t *testing.T) {
	var listRequests, detailRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/job/") {
			detailRequests.Add(1)
			fmt.Fprint(w, `<div data-automation="jobAdDetails">full text</div>`)
			return
		}
		listRequests.Add(1)
		fmt.Fprint(w, cardsHTML(0, 8))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(5))
	require.NoError(t, err)

	assert.Len(t, jobs, 5)
	assert.Equal(t, int32(1), listRequests.Load())
	// Detail pages are lazy.
	assert.Equal(t, int32(0), detailRequests.Load())
	for _, job := range jobs {
		assert.Empty(t, job.FullDescription)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "Acme", job.Company)
	}
}

func TestRun_Paginates(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		// Three distinct cards per page.
		fmt.Fprint(w, cardsHTML((page-1)*3, 3))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(5))
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
	assert.Equal(t, int32(2), pages.Load())
}

func TestRun_StopsWhenResultsRunOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, cardsHTML(0, 2))
			return
		}
		fmt.Fprint(w, "<html><body><p>no results</p></body></html>")
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(10))
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestRun_DuplicatePagesStopPagination(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		// Every page serves the same cards.
		fmt.Fprint(w, cardsHTML(0, 3))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(10))
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.Equal(t, int32(2), pages.Load())
}

func TestRun_CapsMaxJobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsHTML(0, 60))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(200))
	require.NoError(t, err)
	assert.Len(t, jobs, MaxJobsCap)
}

func TestRun_DefaultMaxJobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsHTML(0, 20))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(0))
	require.NoError(t, err)
	assert.Len(t, jobs, DefaultMaxJobs)
}

func TestRun_InvalidCriteria(t *testing.T) {
	session := newTestSession(t, "http://unused.invalid")
	defer session.Close()

	_, err := session.Run(context.Background(), types.SearchCriteria{Title: "dev"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search criteria")
}

func TestRun_RateLimitedReturnsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(5))
	require.Error(t, err)

	var rateLimited *fetch.RateLimitedError
	assert.ErrorAs(t, err, &rateLimited)
	assert.Empty(t, jobs)
}

func TestFetchDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/job/") {
			fmt.Fprint(w, `<div data-automation="jobAdDetails">We are hiring a Go engineer.</div>`)
			return
		}
		fmt.Fprint(w, cardsHTML(0, 1))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	jobs, err := session.Run(context.Background(), criteria(1))
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, session.FetchDetail(context.Background(), jobs[0]))
	assert.Contains(t, jobs[0].FullDescription, "Go engineer")
	assert.Contains(t, jobs[0].Description(), "Go engineer")
}

func TestFetchDetail_NoURL(t *testing.T) {
	session := newTestSession(t, "http://unused.invalid")
	defer session.Close()

	err := session.FetchDetail(context.Background(), &types.JobRecord{ID: "abc"})
	require.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsHTML(0, 5))
	}))
	defer server.Close()

	session := newTestSession(t, server.URL)
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Run(ctx, criteria(5))
	require.Error(t, err)
}
