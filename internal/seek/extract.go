package seek

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/types"
)

// Extractor parses listing and detail pages into JobRecords. Each card is
// parsed independently: a malformed card is skipped with a logged reason
// and never aborts the rest of the page.
type Extractor struct {
	baseURL string
	logger  *zap.Logger
}

// NewExtractor creates an extractor that resolves card links against
// baseURL.
func NewExtractor(baseURL string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// Listings extracts the job cards from a search results page. Optional
// fields (salary, work type, description) are left empty when absent; a
// card missing its title or link is skipped.
func (e *Extractor) Listings(html string) ([]types.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	cards := doc.Find(`article[data-card-type="JobCard"]`)
	if cards.Length() == 0 {
		// Markup drifts; fall back to any article that mentions jobs.
		cards = doc.Find("article").FilterFunction(func(_ int, s *goquery.Selection) bool {
			h, _ := goquery.OuterHtml(s)
			return strings.Contains(strings.ToLower(h), "job")
		})
	}

	records := make([]types.JobRecord, 0, cards.Length())
	seen := make(map[string]bool)

	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		record, reason := e.parseCard(card)
		if record == nil {
			e.logger.Warn("skipping malformed job card",
				zap.Int("card_index", i),
				zap.String("reason", reason))
			return true
		}
		if seen[record.ID] {
			e.logger.Debug("dropping duplicate job card", zap.String("id", record.ID))
			return true
		}
		seen[record.ID] = true
		records = append(records, *record)
		return true
	})

	return records, nil
}

// parseCard extracts one card. A nil record is accompanied by the skip
// reason.
func (e *Extractor) parseCard(card *goquery.Selection) (*types.JobRecord, string) {
	titleLink := card.Find(`a[data-automation="jobTitle"]`).First()
	title := cleanText(titleLink.Text())
	href, _ := titleLink.Attr("href")

	if title == "" {
		// Alternative layout: heading with a separate link.
		heading := card.Find("h3, h2").First()
		title = cleanText(heading.Text())
		if href == "" {
			href, _ = card.Find("a[href]").First().Attr("href")
		}
	}

	if title == "" {
		return nil, "missing job title"
	}
	if href == "" {
		return nil, "missing job link"
	}

	jobURL := e.resolveURL(href)
	if jobURL == "" {
		return nil, "unresolvable job link"
	}

	return &types.JobRecord{
		ID:               JobID(jobURL),
		Title:            title,
		Company:          e.cardField(card, "jobCompany"),
		Location:         e.cardField(card, "jobLocation"),
		Salary:           e.cardField(card, "jobSalary"),
		WorkType:         e.cardField(card, "jobWorkType"),
		PostedDate:       e.cardField(card, "jobListingDate"),
		ShortDescription: e.cardField(card, "jobShortDescription"),
		URL:              jobURL,
	}, ""
}

// cardField reads an optional data-automation field from a card, trying
// both anchor and span variants of the board's markup.
func (e *Extractor) cardField(card *goquery.Selection, name string) string {
	sel := card.Find(`a[data-automation="` + name + `"], span[data-automation="` + name + `"]`).First()
	return cleanText(sel.Text())
}

// Description extracts the full description text from a job detail page.
// Falls back through known selector variants to the largest text block.
func (e *Extractor) Description(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if sel := doc.Find(`div[data-automation="jobAdDetails"]`).First(); sel.Length() > 0 {
		return cleanText(sel.Text())
	}
	if sel := doc.Find(`div[class*="job-description"]`).First(); sel.Length() > 0 {
		return cleanText(sel.Text())
	}

	// Last resort: the densest div on the page.
	var best string
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); len(text) > len(best) {
			best = text
		}
	})
	return cleanText(best)
}

func (e *Extractor) resolveURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	base, err := url.Parse(e.baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// JobID derives the stable record id from the canonical job URL: the first
// 16 hex characters of its SHA-256. Stable across runs, unique per URL
// within a result set.
func JobID(jobURL string) string {
	canonical := strings.TrimSuffix(jobURL, "/")
	if i := strings.IndexAny(canonical, "?#"); i >= 0 {
		canonical = canonical[:i]
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:16]
}

var spaceRun = regexp.MustCompile(`\s+`)

func cleanText(text string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}
