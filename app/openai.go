package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// The completion call is the only blocking network hop in the search path.
var httpc = &http.Client{Timeout: 60 * time.Second}

const (
	modelText   = "gpt-4"
	modelVision = "gpt-4-vision"

	maxTokensText   = 2000
	maxTokensVision = 1500
	temperature     = 0.2
)

// CompletionRequest describes one prompt for the completion service. Vision
// requests carry the product photo as base64-encoded JPEG data.
type CompletionRequest struct {
	Prompt      string
	ImageBase64 string
	Vision      bool
}

// CompletionResult is the raw answer plus token bookkeeping.
type CompletionResult struct {
	Text             string
	Model            string
	TokensUsed       int
	PromptTokens     int
	CompletionTokens int
}

// CompletionService is the external generative-AI collaborator. The search
// pipeline performs at most one Complete call per request.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// OpenAIClient talks to the OpenAI chat completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
}

func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	body := chatRequest{
		Model:       modelText,
		MaxTokens:   maxTokensText,
		Temperature: temperature,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Vision {
		body.Model = modelVision
		body.MaxTokens = maxTokensVision
		body.Messages = []chatMessage{{
			Role: "user",
			Content: []map[string]any{
				{"type": "text", "text": req.Prompt},
				{"type": "image_url", "image_url": map[string]any{
					"url":    "data:image/jpeg;base64," + req.ImageBase64,
					"detail": "high",
				}},
			},
		}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := httpc.Do(httpReq)
	if err != nil {
		return nil, ServiceError{Kind: KindService, Message: err.Error()}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, ServiceError{Kind: KindService, Status: res.StatusCode, Message: err.Error()}
	}

	var decoded chatResponse
	_ = json.Unmarshal(raw, &decoded)

	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus(res.StatusCode, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return nil, ServiceError{Kind: KindService, Status: res.StatusCode, Message: "empty completion content"}
	}

	return &CompletionResult{
		Text:             decoded.Choices[0].Message.Content,
		Model:            decoded.Model,
		TokensUsed:       decoded.Usage.TotalTokens,
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
	}, nil
}

// classifyStatus maps collaborator status codes onto the error taxonomy so
// callers can decide retry behavior from the kind alone.
func classifyStatus(status int, message string) ServiceError {
	kind := KindService
	switch status {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusTooManyRequests:
		kind = KindRateLimit
	case http.StatusPaymentRequired:
		kind = KindBilling
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return ServiceError{Kind: kind, Status: status, Message: message}
}

// responseContract is appended to every prompt so the answer carries a JSON
// payload the extractor can locate.
const responseContract = `RESPOND IN VALID JSON FORMAT:
{
  "product_identification": {
    "name": "exact product name",
    "brand": "manufacturer",
    "model": "model number",
    "category": "product category",
    "key_features": ["feature1", "feature2"],
    "confidence": 0.95
  },
  "search_results": [
    {
      "store_name": "Store Name",
      "store_type": "official_retailer|marketplace|specialty|local",
      "price_uah": 45000,
      "original_price": "$1200 USD",
      "availability": "In Stock|Pre-order|Out of Stock",
      "delivery_time": "1-3 days",
      "shipping_cost_uah": 150,
      "total_cost_uah": 45150,
      "contact": {"website": "store.com", "phone": "+380...", "email": "contact@store.com", "address": "Physical address if applicable"},
      "location": {"country": "Ukraine", "city": "Kyiv", "region": "Local|National|International"},
      "rating": 4.5,
      "review_count": 1250,
      "special_offers": "Free shipping over 1000 UAH",
      "payment_methods": ["Card", "Cash on delivery", "Bank transfer"],
      "return_policy": "14 days return",
      "notes": "Additional relevant information"
    }
  ],
  "market_analysis": {
    "price_range": "40000-55000 UAH",
    "average_price": 47500,
    "best_local_deal": "Store with best local price",
    "best_international_deal": "Store with best international price",
    "recommendations": ["Specific buying recommendations"]
  }
}`

func buildTextSearchPrompt(query, location string) string {
	if location == "" {
		location = "Ukraine, Kyiv"
	}
	year := time.Now().Year()

	return fmt.Sprintf(`UNIVERSAL PRODUCT SEARCH FOR: %q

User location: %s
Current year: %d

SEARCH MISSION:
Find ALL possible places to buy '%s' across every channel:
1. Official manufacturers and brand stores
2. Major retailers (online + physical)
3. Local stores and regional chains
4. Marketplaces (eBay, Amazon, local platforms)
5. Wholesale and B2B suppliers
6. International stores with shipping

GEOGRAPHIC PRIORITIES:
- Priority 1: Local stores in %s (40%% of results)
- Priority 2: National retailers (30%% of results)
- Priority 3: International with good shipping (30%% of results)

RESULT REQUIREMENTS:
- 10-20 comprehensive results
- Realistic pricing for %d
- Complete contact information
- Delivery and payment options

Minimum 10 results

%s`, query, location, year, query, location, year, responseContract)
}

func buildImageAnalysisPrompt(location string) string {
	if location == "" {
		location = "Kyiv, Ukraine"
	}
	year := time.Now().Year()

	return fmt.Sprintf(`UNIVERSAL PRODUCT ANALYSIS

Analyze this product image and provide comprehensive search results.

TASK:
1. Identify the exact product (brand, model, specifications)
2. Find ALL possible places to buy this product globally
3. Prioritize based on user location: %s

FOR EACH RESULT PROVIDE:
- Store name and category
- Estimated price in UAH (realistic for %d)
- Product availability status
- Delivery time and shipping cost
- Store contact info and physical address
- Store rating, special offers, payment methods, return policy

REQUIREMENTS:
- Minimum 15-30 results across different channels
- Mix of local (40%%), national (30%%), international (30%%)
- Consider shipping costs in total price

Minimum 10 results

%s`, location, year, responseContract)
}
