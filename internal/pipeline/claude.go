package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// Estimator prices a deal candidate at its market value
type Estimator interface {
	Estimate(ctx context.Context, deal models.Deal) (float64, error)
}

const estimatorSystemPrompt = "You estimate the true market price of products. " +
	"Reply with only the price in dollars, to two decimal places, with no explanation."

// numberRe pulls the first decimal number out of a model reply
var numberRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// ClaudeEstimator asks Claude for a market price estimate
type ClaudeEstimator struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeEstimator creates an estimator from Claude configuration
func NewClaudeEstimator(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeEstimator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude price estimator initialized")

	return &ClaudeEstimator{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Estimate returns Claude's market price estimate for the deal
func (e *ClaudeEstimator) Estimate(ctx context.Context, deal models.Deal) (float64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"How much does this cost to the nearest dollar?\n\n%s\n\n"+
			"Answer with the price only.",
		deal.Description,
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.config.Model),
		MaxTokens: int64(e.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: estimatorSystemPrompt},
		},
	}
	if e.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(e.config.Temperature))
	}

	resp, err := e.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return 0, fmt.Errorf("Claude API call failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply.WriteString(text.Text)
		}
	}

	estimate, err := parseEstimate(reply.String())
	if err != nil {
		return 0, err
	}

	e.logger.Debug().
		Str("title", deal.Title).
		Float64("estimate", estimate).
		Msg("Price estimate received")

	return estimate, nil
}

// parseEstimate extracts a price from a model reply such as
// "$129.99" or "The price is 129.99"
func parseEstimate(reply string) (float64, error) {
	match := numberRe.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("no price found in estimator reply: %q", reply)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q in estimator reply", match)
	}
	if value <= 0 {
		return 0, fmt.Errorf("estimator returned non-positive price %.2f", value)
	}
	return value, nil
}
