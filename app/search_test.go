package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeCompleter struct {
	result   *CompletionResult
	err      error
	lastReq  CompletionRequest
	numCalls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	f.numCalls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func withCompleter(t *testing.T, fake *fakeCompleter) {
	t.Helper()
	old := completer
	completer = fake
	t.Cleanup(func() { completer = old })
}

func payloadWithOffers(n int) string {
	var sb strings.Builder
	sb.WriteString(`{"product_identification": {"name": "Widget", "confidence": 0.9}, "search_results": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		region := "International"
		if i == 0 {
			region = "Local"
		}
		fmt.Fprintf(&sb, `{"store_name": "Store %d", "store_type": "marketplace", "price_uah": %d, "availability": "In Stock", "location": {"country": "Ukraine", "city": "Kyiv", "region": %q}}`, i, 1000*(i+1), region)
	}
	sb.WriteString(`], "market_analysis": {"average_price": 4000}}`)
	return sb.String()
}

func TestPerformSearchTextPipeline(t *testing.T) {
	fake := &fakeCompleter{result: &CompletionResult{
		Text:             "Sure, here you go:\n" + payloadWithOffers(8),
		Model:            "gpt-4",
		TokensUsed:       1200,
		PromptTokens:     800,
		CompletionTokens: 400,
	}}
	withCompleter(t, fake)

	resp, err := PerformSearch(context.Background(), 1, SearchRequest{Query: "widget"})
	if err != nil {
		t.Fatalf("PerformSearch: %v", err)
	}

	if !resp.Success {
		t.Fatal("response should be successful")
	}
	if resp.SearchType != "text" {
		t.Fatalf("search type = %q, want text", resp.SearchType)
	}
	if fake.numCalls != 1 {
		t.Fatalf("completion called %d times, want exactly 1", fake.numCalls)
	}
	if !strings.Contains(fake.lastReq.Prompt, "widget") {
		t.Fatal("prompt should embed the query")
	}

	// The requester is on the free plan with no DB, so the visible results
	// are capped while the original count survives.
	if len(resp.Results) != DefaultFreePlanResultLimit {
		t.Fatalf("got %d results, want capped at %d", len(resp.Results), DefaultFreePlanResultLimit)
	}
	if resp.OriginalCount != 8 {
		t.Fatalf("original count = %d, want 8", resp.OriginalCount)
	}
	if !resp.LimitedResults {
		t.Fatal("limited flag should be set")
	}

	// Enhancement ran: the single Local offer outranks the rest.
	if resp.Results[0].Location.Region != "Local" {
		t.Fatalf("top result region = %q, want Local", resp.Results[0].Location.Region)
	}
	if resp.Results[0].RelevanceScore == 0 {
		t.Fatal("relevance scores should be filled in")
	}

	// The report is built before the plan cap: it describes the whole market,
	// not just the visible slice.
	if resp.Report == nil {
		t.Fatal("report should be generated")
	}
	if resp.Report.TotalStores != 8 {
		t.Fatalf("report stores = %d, want 8", resp.Report.TotalStores)
	}

	if resp.Meta.TokensUsed != 1200 {
		t.Fatalf("meta tokens = %d, want 1200", resp.Meta.TokensUsed)
	}
	if resp.Meta.APICostUSD != 0.048 {
		t.Fatalf("api cost = %v, want 0.048", resp.Meta.APICostUSD)
	}
}

func TestPerformSearchImagePipeline(t *testing.T) {
	fake := &fakeCompleter{result: &CompletionResult{
		Text:  payloadWithOffers(3),
		Model: "gpt-4-vision",
	}}
	withCompleter(t, fake)

	resp, err := PerformSearch(context.Background(), 1, SearchRequest{
		Query:       "Image: photo.jpg",
		ImageBase64: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("PerformSearch: %v", err)
	}

	if resp.SearchType != "photo" {
		t.Fatalf("search type = %q, want photo", resp.SearchType)
	}
	if !fake.lastReq.Vision {
		t.Fatal("completion request should be a vision request")
	}
	if fake.lastReq.ImageBase64 != "aGVsbG8=" {
		t.Fatal("image payload should be passed through")
	}
	if resp.Meta.SearchType != "image" {
		t.Fatalf("meta search type = %q, want image", resp.Meta.SearchType)
	}
}

func TestPerformSearchServiceErrorPropagates(t *testing.T) {
	boom := ServiceError{Kind: KindRateLimit, Status: 429, Message: "slow down"}
	withCompleter(t, &fakeCompleter{err: boom})

	_, err := PerformSearch(context.Background(), 1, SearchRequest{Query: "widget"})
	if err == nil {
		t.Fatal("expected error")
	}
	if ErrorKind(err) != KindRateLimit {
		t.Fatalf("kind = %q, want %q", ErrorKind(err), KindRateLimit)
	}
}

func TestPerformSearchExtractionErrorPropagates(t *testing.T) {
	withCompleter(t, &fakeCompleter{result: &CompletionResult{Text: "no stores found, sorry"}})

	_, err := PerformSearch(context.Background(), 1, SearchRequest{Query: "widget"})
	if err == nil {
		t.Fatal("expected error")
	}
	if ErrorKind(err) != KindExtraction {
		t.Fatalf("kind = %q, want %q", ErrorKind(err), KindExtraction)
	}
}

func TestPerformSearchNoCompleter(t *testing.T) {
	old := completer
	completer = nil
	t.Cleanup(func() { completer = old })

	_, err := PerformSearch(context.Background(), 1, SearchRequest{Query: "widget"})
	if err == nil {
		t.Fatal("expected error with no completion service")
	}
	if ErrorKind(err) != KindService {
		t.Fatalf("kind = %q, want %q", ErrorKind(err), KindService)
	}
}

func TestQuotaErrorCarriesStatus(t *testing.T) {
	status := evaluateQuota("free", 2)
	err := quotaError{Status: status}

	var quota quotaError
	if !errors.As(error(err), &quota) {
		t.Fatal("quota error should unwrap as quotaError")
	}
	if quota.Status.Allowed {
		t.Fatal("an exhausted quota must not be allowed")
	}
	if err.Error() == "" {
		t.Fatal("quota error should carry a message")
	}
}
