package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/evasion"
	"github.com/jonathan/jobscout/internal/export"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/llm"
	"github.com/jonathan/jobscout/internal/logger"
	"github.com/jonathan/jobscout/internal/pacing"
	"github.com/jonathan/jobscout/internal/profile"
	"github.com/jonathan/jobscout/internal/scoring"
	"github.com/jonathan/jobscout/internal/search"
	"github.com/jonathan/jobscout/internal/seek"
	"github.com/jonathan/jobscout/internal/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for jobs and score them against a resume",
	Long:  "Search seek.com.au for each given title, fetch job details, and score every job against the resume. Omitting --resume skips scoring and returns raw listings.",
	RunE:  runSearch,
}

var (
	searchTitles     []string
	searchLocation   string
	searchMaxJobs    int
	searchWorkType   string
	searchRemote     string
	searchMinSalary  string
	searchDatePosted string
	searchResume     string
	searchOutput     string
	searchUseBrowser bool
	searchAPIKey     string
)

func init() {
	searchCmd.Flags().StringSliceVarP(&searchTitles, "title", "t", nil, "job title to search for (repeatable)")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "location to search in")
	searchCmd.Flags().IntVarP(&searchMaxJobs, "max-jobs", "n", 0, "maximum jobs per title (default 5, capped at 50)")
	searchCmd.Flags().StringVar(&searchWorkType, "work-type", "", "work type filter: full-time, part-time, contract-temp, casual-vacation")
	searchCmd.Flags().StringVar(&searchRemote, "remote", "", "workplace filter: on-site, hybrid, remote")
	searchCmd.Flags().StringVar(&searchMinSalary, "min-salary", "", "minimum annual salary, e.g. 80000 or 80K+")
	searchCmd.Flags().StringVar(&searchDatePosted, "date-posted", "", "posting age filter: Today or a number of days")
	searchCmd.Flags().StringVarP(&searchResume, "resume", "r", "", "path to a plain-text resume to score against")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "path to write results as CSV")
	searchCmd.Flags().BoolVar(&searchUseBrowser, "use-browser", false, "render pages with headless Chrome")
	searchCmd.Flags().StringVar(&searchAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")

	if err := searchCmd.MarkFlagRequired("title"); err != nil {
		panic(err)
	}
	if err := searchCmd.MarkFlagRequired("location"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if searchUseBrowser {
		cfg.Scraper.UseBrowser = true
	}

	log, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Scoring is optional; without a resume the run degrades to raw
	// listings.
	var client llm.Client
	if searchResume != "" {
		apiKey := resolveAPIKey(cfg)
		if apiKey == "" {
			return fmt.Errorf("API key is required for scoring (set GEMINI_API_KEY or use --api-key)")
		}
		client, err = llm.NewGeminiClient(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.Temperature)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	jobs, err := collectJobs(ctx, cfg, log)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}
	log.Info("search complete", zap.Int("jobs", len(jobs)))

	if client != nil {
		if err := scoreJobs(ctx, cfg, client, jobs, log); err != nil {
			return err
		}
	}

	sortByScore(jobs)
	printResults(jobs)

	if searchOutput != "" {
		if err := writeCSVFile(searchOutput, jobs); err != nil {
			return err
		}
		fmt.Printf("\nResults written to %s\n", searchOutput)
	}
	return nil
}

// collectJobs runs one paced session per title concurrently and merges the
// results, deduplicating across titles.
func collectJobs(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]*types.JobRecord, error) {
	group, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var all []*types.JobRecord
	seen := make(map[string]bool)

	for _, title := range searchTitles {
		criteria := types.SearchCriteria{
			Title:      title,
			Location:   searchLocation,
			WorkType:   strings.ToLower(searchWorkType),
			Remote:     strings.ToLower(searchRemote),
			MinSalary:  seek.ParseSalaryFilter(searchMinSalary),
			DatePosted: searchDatePosted,
			MaxJobs:    searchMaxJobs,
		}

		group.Go(func() error {
			session := newSession(cfg, log.With(zap.String("title", criteria.Title)))
			defer session.Close()

			jobs, err := session.Run(gctx, criteria)
			if err != nil {
				return err
			}

			// Detail pages ride the same session so pacing stays intact.
			for _, job := range jobs {
				if err := session.FetchDetail(gctx, job); err != nil {
					log.Warn("detail fetch failed, keeping listing summary",
						zap.String("job_id", job.ID), zap.Error(err))
				}
			}

			mu.Lock()
			defer mu.Unlock()
			for _, job := range jobs {
				if !seen[job.ID] {
					seen[job.ID] = true
					all = append(all, job)
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return all, err
	}
	return all, nil
}

// newSession assembles the evasion, pacing and fetch stack for one search.
// Each concurrent search gets its own pacer so sessions look like separate
// visitors.
func newSession(cfg *config.Config, log *zap.Logger) *search.Session {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	policy := evasion.NewPolicy(evasion.Config{
		DelayMin: cfg.Scraper.DelayMin,
		DelayMax: cfg.Scraper.DelayMax,
		Jitter:   true,
	}, rng)
	pacer := pacing.New(policy, pacing.Config{
		SessionLifetime: cfg.Scraper.SessionLifetime,
		MaxSessionAge:   cfg.Scraper.MaxSessionAge,
	}, log)
	client := fetch.NewClient(&fetch.Options{
		Timeout:    cfg.Scraper.Timeout,
		MaxRetries: cfg.Scraper.MaxRetries,
	}, log)

	return search.NewSession(pacer, client, search.Config{
		BaseURL:    cfg.Scraper.BaseURL,
		UseBrowser: cfg.Scraper.UseBrowser,
	}, log)
}

// scoreJobs extracts the candidate profile and scores every job. Profile
// extraction failure is terminal for scoring but not for the run.
func scoreJobs(ctx context.Context, cfg *config.Config, client llm.Client, jobs []*types.JobRecord, log *zap.Logger) error {
	resumeText, err := os.ReadFile(searchResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	extractor := profile.NewExtractor(client, cfg.Scoring.ResumeMaxChars, log)
	candidate, err := extractor.Extract(ctx, string(resumeText))
	if err != nil {
		log.Error("profile extraction failed, returning unscored listings", zap.Error(err))
		return nil
	}

	scorer := scoring.New(client, scoring.Config{
		DescriptionMaxChars: cfg.Scoring.DescriptionMaxChars,
		CacheTTL:            cfg.Scoring.CacheTTL,
		Thresholds: scoring.Thresholds{
			Strong:   cfg.Scoring.StrongThreshold,
			Good:     cfg.Scoring.GoodThreshold,
			Moderate: cfg.Scoring.ModerateThreshold,
		},
	}, log)

	return scorer.ScoreAll(ctx, jobs, candidate)
}

func resolveAPIKey(cfg *config.Config) string {
	if searchAPIKey != "" {
		return searchAPIKey
	}
	if cfg.Gemini.APIKey != "" {
		return cfg.Gemini.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

// sortByScore orders scored jobs best first; unscored jobs keep their
// relative order at the end.
func sortByScore(jobs []*types.JobRecord) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i].Match, jobs[j].Match
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Score > b.Score
		}
	})
}

func printResults(jobs []*types.JobRecord) {
	fmt.Printf("\nFound %d jobs:\n", len(jobs))
	for i, job := range jobs {
		fmt.Printf("\n%d. %s", i+1, job.Title)
		if job.Company != "" {
			fmt.Printf(" @ %s", job.Company)
		}
		fmt.Println()
		if job.Location != "" {
			fmt.Printf("   Location: %s\n", job.Location)
		}
		if job.Salary != "" {
			fmt.Printf("   Salary:   %s\n", job.Salary)
		}
		fmt.Printf("   URL:      %s\n", job.URL)
		if job.Match != nil {
			fmt.Printf("   Score:    %d/100 (%s)\n", job.Match.Score, job.Match.Recommendation)
			if job.Match.Reasoning != "" {
				fmt.Printf("   Why:      %s\n", job.Match.Reasoning)
			}
		}
	}
}

func writeCSVFile(path string, jobs []*types.JobRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return export.WriteCSV(f, jobs)
}
