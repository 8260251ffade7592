package app

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/mkrupkin/pricefinder/app/models"
)

// DefaultMinSearchResults is the schema-validation floor for offers per
// answer. Policy value, overridable via SEARCH_MIN_RESULTS.
const DefaultMinSearchResults = 2

// GPT-4 pricing: $0.03/1K prompt tokens, $0.06/1K completion tokens.
const (
	promptTokenCostUSD     = 0.03
	completionTokenCostUSD = 0.06
)

// ExtractSearchResult locates the JSON payload inside a free-form completion
// answer, validates its shape, and returns the typed result with Meta
// attached. The completion service tends to wrap the payload in explanatory
// prose, so everything from the first "{" to the last "}" is treated as the
// candidate document.
func ExtractSearchResult(completion *CompletionResult, searchType string, minResults int) (*models.SearchResult, error) {
	start := strings.Index(completion.Text, "{")
	end := strings.LastIndex(completion.Text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ExtractionError{Reason: "no JSON object delimiters in response"}
	}
	payload := completion.Text[start : end+1]

	// Probe decode first: validation needs presence checks that a typed
	// struct cannot express (absent vs zero value).
	var probe map[string]any
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, ExtractionError{Reason: err.Error()}
	}

	if err := validateSearchPayload(probe, minResults); err != nil {
		return nil, err
	}

	var result models.SearchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, ExtractionError{Reason: err.Error()}
	}

	result.Meta = models.Meta{
		SearchType:      searchType,
		SearchTimestamp: time.Now().Unix(),
		TokensUsed:      completion.TokensUsed,
		ModelUsed:       completion.Model,
		APICostUSD:      calculateCost(completion.PromptTokens, completion.CompletionTokens),
	}
	if result.Meta.ModelUsed == "" {
		result.Meta.ModelUsed = modelText
	}

	return &result, nil
}

// validateSearchPayload enforces the required product-search shape before any
// offer reaches scoring: scoring arithmetic assumes price > 0 and an intact
// object shape.
func validateSearchPayload(payload map[string]any, minResults int) error {
	if minResults <= 0 {
		minResults = DefaultMinSearchResults
	}

	if _, ok := payload["product_identification"]; !ok {
		return SchemaError{Field: "product_identification", Index: -1, Reason: "missing required field"}
	}

	rawResults, ok := payload["search_results"]
	if !ok {
		return SchemaError{Field: "search_results", Index: -1, Reason: "missing required field"}
	}
	results, ok := rawResults.([]any)
	if !ok {
		return SchemaError{Field: "search_results", Index: -1, Reason: "not a list"}
	}
	if len(results) < minResults {
		return SchemaError{Field: "search_results", Index: -1, Reason: "below minimum result count"}
	}

	for i, raw := range results {
		offer, ok := raw.(map[string]any)
		if !ok {
			return SchemaError{Field: "search_results", Index: i, Reason: "result is not an object"}
		}
		for _, field := range []string{"store_name", "price_uah", "availability"} {
			if _, ok := offer[field]; !ok {
				return SchemaError{Field: field, Index: i, Reason: "missing required field"}
			}
		}
		price, ok := offer["price_uah"].(float64)
		if !ok || price <= 0 {
			return SchemaError{Field: "price_uah", Index: i, Reason: "price must be a positive number"}
		}
	}

	return nil
}

// calculateCost derives the monetary cost of one completion call, rounded to
// four decimal places.
func calculateCost(promptTokens, completionTokens int) float64 {
	cost := float64(promptTokens)/1000*promptTokenCostUSD +
		float64(completionTokens)/1000*completionTokenCostUSD
	return math.Round(cost*10000) / 10000
}
