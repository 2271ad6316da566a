package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srajal-87/DealSense-AI/internal/common"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Deals</title>
    %s
  </channel>
</rss>`

func feedItem(title, description, link string) string {
	return fmt.Sprintf(`<item>
  <title>%s</title>
  <description>%s</description>
  <link>%s</link>
</item>`, title, description, link)
}

func scannerConfig(feeds map[string]string) *common.PipelineConfig {
	return &common.PipelineConfig{
		Feeds:        feeds,
		MaxPerFeed:   5,
		RequestDelay: "1ms",
		FetchTimeout: "5s",
	}
}

func serveFeed(t *testing.T, items ...string) *httptest.Server {
	t.Helper()
	body := ""
	for _, item := range items {
		body += item + "\n"
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScanner_ExtractsPricedDeals(t *testing.T) {
	server := serveFeed(t,
		feedItem("Cordless Drill for $89.99", "&lt;p&gt;20V drill with two batteries&lt;/p&gt;", "https://example.com/drill"),
		feedItem("Free Shipping Week", "No prices here", "https://example.com/shipping"),
		feedItem("4K Monitor", "Now &lt;b&gt;$1,299.00&lt;/b&gt; at checkout", "https://example.com/monitor"),
	)

	scanner, err := NewScanner(scannerConfig(map[string]string{"Electronics": server.URL}), common.GetLogger())
	require.NoError(t, err)

	deals, err := scanner.Scan(context.Background(), []string{"Electronics"})
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, "Cordless Drill for $89.99", deals[0].Title)
	assert.Equal(t, 89.99, deals[0].Price)
	assert.Equal(t, "https://example.com/drill", deals[0].URL)
	assert.Equal(t, "Electronics", deals[0].Category)
	assert.Contains(t, deals[0].Description, "20V drill with two batteries")
	assert.NotContains(t, deals[0].Description, "<p>")

	assert.Equal(t, 1299.00, deals[1].Price)
}

func TestScanner_MaxPerFeed(t *testing.T) {
	items := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, feedItem(
			fmt.Sprintf("Item %d for $%d.00", i, 10+i),
			"desc",
			fmt.Sprintf("https://example.com/%d", i),
		))
	}
	server := serveFeed(t, items...)

	config := scannerConfig(map[string]string{"Electronics": server.URL})
	config.MaxPerFeed = 3

	scanner, err := NewScanner(config, common.GetLogger())
	require.NoError(t, err)

	deals, err := scanner.Scan(context.Background(), []string{"Electronics"})
	require.NoError(t, err)
	assert.Len(t, deals, 3)
}

func TestScanner_UnreachableFeedSkipped(t *testing.T) {
	good := serveFeed(t, feedItem("Widget for $25.00", "desc", "https://example.com/widget"))

	scanner, err := NewScanner(scannerConfig(map[string]string{
		"Electronics": "http://127.0.0.1:1/feed",
		"Computers":   good.URL,
	}), common.GetLogger())
	require.NoError(t, err)

	deals, err := scanner.Scan(context.Background(), []string{"Electronics", "Computers"})
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestScanner_AllFeedsUnreachable(t *testing.T) {
	scanner, err := NewScanner(scannerConfig(map[string]string{
		"Electronics": "http://127.0.0.1:1/feed",
	}), common.GetLogger())
	require.NoError(t, err)

	_, err = scanner.Scan(context.Background(), []string{"Electronics"})
	assert.Error(t, err)
}

func TestScanner_UnknownCategoryIgnored(t *testing.T) {
	good := serveFeed(t, feedItem("Widget for $25.00", "desc", "https://example.com/widget"))

	scanner, err := NewScanner(scannerConfig(map[string]string{"Electronics": good.URL}), common.GetLogger())
	require.NoError(t, err)

	deals, err := scanner.Scan(context.Background(), []string{"Nonexistent", "Electronics"})
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestExtractPrice(t *testing.T) {
	price, ok := extractPrice("Gadget for $49.99 shipped")
	require.True(t, ok)
	assert.Equal(t, 49.99, price)

	price, ok = extractPrice("Sofa at $1,249")
	require.True(t, ok)
	assert.Equal(t, 1249.0, price)

	_, ok = extractPrice("free sample")
	assert.False(t, ok)

	_, ok = extractPrice("")
	assert.False(t, ok)
}

func TestParseEstimate(t *testing.T) {
	estimate, err := parseEstimate("$129.99")
	require.NoError(t, err)
	assert.Equal(t, 129.99, estimate)

	estimate, err = parseEstimate("The market price is about 1,450 dollars.")
	require.NoError(t, err)
	assert.Equal(t, 1450.0, estimate)

	_, err = parseEstimate("I cannot tell.")
	assert.Error(t, err)
}
