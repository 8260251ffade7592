// Package models defines the product-search payload exchanged with the
// completion service and returned to API clients. JSON key names are part of
// the external contract and must not change.
package models

// Region values used inside StoreLocation.Region.
const (
	RegionLocal         = "Local"
	RegionNational      = "National"
	RegionInternational = "International"
)

// Store types reported by the completion service.
const (
	StoreTypeOfficial    = "official_retailer"
	StoreTypeMarketplace = "marketplace"
	StoreTypeSpecialty   = "specialty"
	StoreTypeLocal       = "local"
)

// ProductIdentification describes the single product a search resolved to.
type ProductIdentification struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Category    string   `json:"category"`
	KeyFeatures []string `json:"key_features"`
	Confidence  float64  `json:"confidence"`
}

type StoreContact struct {
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type StoreLocation struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

// StoreOffer is one store's listing for the identified product. The fields up
// to Notes come from the completion service; RelevanceScore, IsRecommended and
// Filters are filled in by the enhancement pass.
type StoreOffer struct {
	StoreName      string          `json:"store_name"`
	StoreType      string          `json:"store_type"`
	Price          float64         `json:"price_uah"`
	OriginalPrice  string          `json:"original_price,omitempty"`
	Availability   string          `json:"availability"`
	DeliveryTime   string          `json:"delivery_time,omitempty"`
	ShippingCost   float64         `json:"shipping_cost_uah"`
	TotalCost      float64         `json:"total_cost_uah"`
	Contact        StoreContact    `json:"contact"`
	Location       StoreLocation   `json:"location"`
	Rating         *float64        `json:"rating,omitempty"`
	ReviewCount    *int            `json:"review_count,omitempty"`
	SpecialOffers  string          `json:"special_offers,omitempty"`
	PaymentMethods []string        `json:"payment_methods,omitempty"`
	ReturnPolicy   string          `json:"return_policy,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	RelevanceScore float64         `json:"relevance_score"`
	IsRecommended  bool            `json:"is_recommended"`
	Filters        map[string]bool `json:"filters,omitempty"`
}

type MarketAnalysis struct {
	PriceRange            string   `json:"price_range"`
	AveragePrice          float64  `json:"average_price"`
	BestLocalDeal         string   `json:"best_local_deal"`
	BestInternationalDeal string   `json:"best_international_deal"`
	Recommendations       []string `json:"recommendations"`
}

// Meta records bookkeeping for one completion call.
type Meta struct {
	SearchType      string  `json:"search_type"`
	SearchTimestamp int64   `json:"search_timestamp"`
	TokensUsed      int     `json:"tokens_used"`
	ModelUsed       string  `json:"model_used"`
	APICostUSD      float64 `json:"api_cost_usd"`
	ResponseTimeMS  int64   `json:"response_time_ms"`
}

// SearchResult is the request-scoped value assembled from one completion
// answer. It is enhanced in place and never persisted.
type SearchResult struct {
	Product        ProductIdentification `json:"product_identification"`
	SearchResults  []StoreOffer          `json:"search_results"`
	MarketAnalysis MarketAnalysis        `json:"market_analysis"`
	Meta           Meta                  `json:"meta"`
	LimitedResults bool                  `json:"limited_results,omitempty"`
	UpgradeMessage string                `json:"upgrade_message,omitempty"`
	OriginalCount  int                   `json:"original_count,omitempty"`
}

type PriceStatistics struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average int     `json:"average"`
	Median  float64 `json:"median"`
}

// SearchReport aggregates price/region/availability statistics over the
// validated offers of one result.
type SearchReport struct {
	TotalStores         int             `json:"total_stores"`
	PriceStatistics     PriceStatistics `json:"price_statistics"`
	StoreDistribution   map[string]int  `json:"store_distribution"`
	AvailabilitySummary map[string]int  `json:"availability_summary"`
}

// UserLocation is the caller-supplied location used to bias the search.
type UserLocation struct {
	Country string `json:"country"`
	City    string `json:"city"`
	IP      string `json:"ip,omitempty"`
}

// SearchResponse is the envelope returned by the analyze endpoint.
type SearchResponse struct {
	Success          bool                  `json:"success"`
	SearchType       string                `json:"search_type"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
	Timestamp        string                `json:"timestamp"`
	Query            string                `json:"query"`
	UserLocation     UserLocation          `json:"user_location"`
	Product          ProductIdentification `json:"product"`
	Results          []StoreOffer          `json:"results"`
	MarketAnalysis   MarketAnalysis        `json:"market_analysis"`
	Report           *SearchReport         `json:"report"`
	Meta             Meta                  `json:"meta"`
	LimitedResults   bool                  `json:"limited_results"`
	UpgradeMessage   string                `json:"upgrade_message,omitempty"`
	OriginalCount    int                   `json:"original_count,omitempty"`
}
