package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// priceRe matches the first dollar amount in a deal title or summary
var priceRe = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// Scanner pulls deal candidates out of category RSS feeds
type Scanner struct {
	feeds      map[string]string
	maxPerFeed int
	parser     *gofeed.Parser
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     arbor.ILogger
}

// NewScanner creates a scanner from pipeline configuration
func NewScanner(config *common.PipelineConfig, logger arbor.ILogger) (*Scanner, error) {
	delay, err := time.ParseDuration(config.RequestDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid request delay '%s': %w", config.RequestDelay, err)
	}

	timeout, err := time.ParseDuration(config.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch timeout '%s': %w", config.FetchTimeout, err)
	}

	maxPerFeed := config.MaxPerFeed
	if maxPerFeed <= 0 {
		maxPerFeed = 5
	}

	return &Scanner{
		feeds:      config.Feeds,
		maxPerFeed: maxPerFeed,
		parser:     gofeed.NewParser(),
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Scan fetches every requested category feed and returns the deal
// candidates that carry a parseable price. A feed that fails is
// logged and skipped; Scan errors only when no feed produced entries.
func (s *Scanner) Scan(ctx context.Context, categories []string) ([]models.Deal, error) {
	var deals []models.Deal
	fetched := 0

	for _, category := range categories {
		feedURL, ok := s.feeds[category]
		if !ok {
			s.logger.Warn().Str("category", category).Msg("No feed configured for category")
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return deals, err
		}

		entries, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("Feed fetch failed")
			continue
		}
		fetched++

		s.logger.Info().
			Str("category", category).
			Int("entries", len(entries)).
			Msg("Scanning category feed")

		for _, item := range entries {
			deal, ok := s.dealFromItem(item, category)
			if !ok {
				continue
			}
			deals = append(deals, deal)
		}
	}

	if fetched == 0 {
		return nil, fmt.Errorf("no category feeds could be fetched")
	}
	return deals, nil
}

// fetchFeed parses one feed and returns at most maxPerFeed items
func (s *Scanner) fetchFeed(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if len(items) > s.maxPerFeed {
		items = items[:s.maxPerFeed]
	}
	return items, nil
}

// dealFromItem converts one feed item into a deal candidate.
// Items without a link or a parseable price are dropped.
func (s *Scanner) dealFromItem(item *gofeed.Item, category string) (models.Deal, bool) {
	if item == nil || item.Link == "" {
		return models.Deal{}, false
	}

	title := strings.TrimSpace(item.Title)
	summary := cleanSnippet(item.Description)

	price, ok := extractPrice(title)
	if !ok {
		price, ok = extractPrice(summary)
	}
	if !ok {
		return models.Deal{}, false
	}

	description := title
	if summary != "" {
		description = title + " - " + summary
	}

	return models.Deal{
		Title:       title,
		Description: description,
		Price:       price,
		URL:         item.Link,
		Category:    category,
	}, true
}

// cleanSnippet strips HTML markup from a feed summary and collapses
// whitespace into single spaces
func cleanSnippet(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	text := doc.Text()
	return strings.Join(strings.Fields(text), " ")
}

// extractPrice parses the first dollar amount from text
func extractPrice(text string) (float64, bool) {
	match := priceRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	raw := strings.ReplaceAll(match[1], ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
