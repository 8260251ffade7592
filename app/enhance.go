package app

import (
	"sort"
	"strings"

	"github.com/mkrupkin/pricefinder/app/models"
)

const (
	baseRelevance        = 0.5
	recommendedThreshold = 0.7

	// Sentinel baseline when the market analysis carries no average price;
	// keeps low_price false without a real baseline.
	missingAveragePrice = 999999
)

var regionBonus = map[string]float64{
	models.RegionLocal:         0.30,
	models.RegionNational:      0.20,
	models.RegionInternational: 0.10,
}

var storeTypeBonus = map[string]float64{
	models.StoreTypeOfficial:    0.20,
	models.StoreTypeSpecialty:   0.15,
	models.StoreTypeMarketplace: 0.10,
}

// relevanceScore ranks one offer. Pure and deterministic: additive bonuses
// from fixed tables on top of a base score, clamped to [0, 1]. Tie-breaking is
// the caller's concern.
func relevanceScore(offer *models.StoreOffer) float64 {
	score := baseRelevance
	score += regionBonus[offer.Location.Region]
	score += storeTypeBonus[offer.StoreType]
	if offer.Rating != nil && *offer.Rating > 4.0 {
		score += (*offer.Rating - 4.0) * 0.1
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}

// EnhanceResults sorts offers by relevance descending and annotates each with
// its score, recommendation flag and filter tags. Offers are mutated in
// place; ties keep their original relative order so fixtures stay
// deterministic.
func EnhanceResults(result *models.SearchResult) {
	if result == nil || len(result.SearchResults) == 0 {
		return
	}

	offers := result.SearchResults
	for i := range offers {
		offers[i].RelevanceScore = relevanceScore(&offers[i])
	}

	sort.SliceStable(offers, func(a, b int) bool {
		return offers[a].RelevanceScore > offers[b].RelevanceScore
	})

	averagePrice := result.MarketAnalysis.AveragePrice
	if averagePrice <= 0 {
		averagePrice = missingAveragePrice
	}

	for i := range offers {
		offers[i].IsRecommended = offers[i].RelevanceScore > recommendedThreshold
		offers[i].Filters = map[string]bool{
			"local":    offers[i].Location.Region == models.RegionLocal,
			"official": offers[i].StoreType == models.StoreTypeOfficial,
			// Loose heuristic: "1-3 days", "1 week" and similar all count
			// as fast.
			"fast_delivery": strings.Contains(offers[i].DeliveryTime, "1"),
			"low_price":     offers[i].Price < averagePrice,
		}
	}
}
