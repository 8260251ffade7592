package app

import (
	"context"
	"log"
	"time"

	"github.com/mkrupkin/pricefinder/app/config"
	"github.com/mkrupkin/pricefinder/app/models"
)

// completer is the process-wide completion service. Package-level like httpc
// so tests can swap in a fake.
var completer CompletionService

// InitCompletionService wires the OpenAI client from the environment.
func InitCompletionService() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for completion service: %v", err)
	}
	completer = NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
}

// SearchRequest is a validated query handed to the orchestrator: either a
// text query or a base64 product photo, never both.
type SearchRequest struct {
	Query       string
	ImageBase64 string
	Location    models.UserLocation
}

type quotaError struct {
	Status models.QuotaStatus
}

func (e quotaError) Error() string {
	return "daily search quota exceeded"
}

// PerformSearch runs the whole pipeline for one request: quota check, one
// completion call, extraction/validation, enhancement, report synthesis, plan
// gating, then the usage charge. Any failure up to and including validation
// aborts before the quota increment, so a timed-out or unparseable attempt
// costs the user nothing.
func PerformSearch(ctx context.Context, userID int64, req SearchRequest) (*models.SearchResponse, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if completer == nil {
		return nil, ServiceError{Kind: KindService, Message: "completion service not configured"}
	}

	quota, err := CanUserSearch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, quotaError{Status: quota}
	}

	locationText := req.Location.City
	if locationText != "" && req.Location.Country != "" {
		locationText += ", "
	}
	locationText += req.Location.Country

	vision := req.ImageBase64 != ""
	completionReq := CompletionRequest{Vision: vision, ImageBase64: req.ImageBase64}
	searchType := "text"
	if vision {
		searchType = "image"
		completionReq.Prompt = buildImageAnalysisPrompt(locationText)
	} else {
		completionReq.Prompt = buildTextSearchPrompt(req.Query, locationText)
	}

	started := time.Now()
	completion, err := completer.Complete(ctx, completionReq)
	if err != nil {
		return nil, err
	}

	result, err := ExtractSearchResult(completion, searchType, cfg.Search.MinResults)
	if err != nil {
		return nil, err
	}
	result.Meta.ResponseTimeMS = time.Since(started).Milliseconds()

	EnhanceResults(result)
	report := GenerateSearchReport(result.SearchResults, DefaultAvailabilityTable)
	ApplyPlanLimit(result, quota.Plan, cfg.Search.FreePlanResultLimit)

	// The search succeeded; a failed charge must not take the result away
	// from the user.
	if err := IncrementSearchUsage(ctx, userID, result.Meta.TokensUsed, result.Meta.APICostUSD); err != nil {
		log.Printf("usage increment failed for user=%d: %v", userID, err)
	}

	responseType := searchType
	if vision {
		responseType = "photo"
	}

	return &models.SearchResponse{
		Success:          true,
		SearchType:       responseType,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
		Timestamp:        time.Now().Format(time.RFC3339),
		Query:            req.Query,
		UserLocation:     req.Location,
		Product:          result.Product,
		Results:          result.SearchResults,
		MarketAnalysis:   result.MarketAnalysis,
		Report:           report,
		Meta:             result.Meta,
		LimitedResults:   result.LimitedResults,
		UpgradeMessage:   result.UpgradeMessage,
		OriginalCount:    result.OriginalCount,
	}, nil
}

// logSearch records one completed search for analytics.
func logSearch(resp *models.SearchResponse) {
	log.Printf("Search: type=%s query=%q results=%d time=%dms tokens=%d",
		resp.SearchType, resp.Query, len(resp.Results), resp.ProcessingTimeMS, resp.Meta.TokensUsed)
}
