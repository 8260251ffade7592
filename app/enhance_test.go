package app

import (
	"testing"

	"github.com/mkrupkin/pricefinder/app/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestRelevanceScore(t *testing.T) {
	tests := []struct {
		name  string
		offer models.StoreOffer
		want  float64
	}{
		{
			"base only",
			models.StoreOffer{},
			0.5,
		},
		{
			"local official",
			models.StoreOffer{
				StoreType: models.StoreTypeOfficial,
				Location:  models.StoreLocation{Region: models.RegionLocal},
			},
			1.0,
		},
		{
			"national specialty",
			models.StoreOffer{
				StoreType: models.StoreTypeSpecialty,
				Location:  models.StoreLocation{Region: models.RegionNational},
			},
			0.85,
		},
		{
			"international marketplace",
			models.StoreOffer{
				StoreType: models.StoreTypeMarketplace,
				Location:  models.StoreLocation{Region: models.RegionInternational},
			},
			0.7,
		},
		{
			"rating bonus above 4",
			models.StoreOffer{Rating: floatPtr(4.5)},
			0.55,
		},
		{
			"rating at 4 gives nothing",
			models.StoreOffer{Rating: floatPtr(4.0)},
			0.5,
		},
		{
			"unknown region and type",
			models.StoreOffer{
				StoreType: "warehouse",
				Location:  models.StoreLocation{Region: "Continental"},
			},
			0.5,
		},
		{
			"clamped at 1",
			models.StoreOffer{
				StoreType: models.StoreTypeOfficial,
				Location:  models.StoreLocation{Region: models.RegionLocal},
				Rating:    floatPtr(5.0),
			},
			1.0,
		},
	}

	for _, tc := range tests {
		got := relevanceScore(&tc.offer)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("%s: score = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEnhanceResultsOrderingAndFlags(t *testing.T) {
	result := &models.SearchResult{
		SearchResults: []models.StoreOffer{
			{StoreName: "Importer", StoreType: models.StoreTypeMarketplace, Price: 50000, Location: models.StoreLocation{Region: models.RegionInternational}},
			{StoreName: "Official Kyiv", StoreType: models.StoreTypeOfficial, Price: 48000, DeliveryTime: "1-3 days", Location: models.StoreLocation{Region: models.RegionLocal}},
			{StoreName: "Nationwide", StoreType: models.StoreTypeSpecialty, Price: 44000, Location: models.StoreLocation{Region: models.RegionNational}},
		},
		MarketAnalysis: models.MarketAnalysis{AveragePrice: 47000},
	}

	EnhanceResults(result)

	offers := result.SearchResults
	if offers[0].StoreName != "Official Kyiv" {
		t.Fatalf("top offer = %q, want Official Kyiv", offers[0].StoreName)
	}
	for i := 1; i < len(offers); i++ {
		if offers[i-1].RelevanceScore < offers[i].RelevanceScore {
			t.Fatalf("offers not sorted by relevance at %d", i)
		}
	}

	if !offers[0].IsRecommended {
		t.Fatal("top scoring offer should be recommended")
	}
	for _, offer := range offers {
		if offer.StoreName == "Importer" && offer.IsRecommended {
			t.Fatal("score of exactly 0.7 must not be recommended")
		}
	}

	top := offers[0]
	if !top.Filters["local"] || !top.Filters["official"] || !top.Filters["fast_delivery"] {
		t.Fatalf("top offer filters = %v, want local/official/fast_delivery", top.Filters)
	}
	if top.Filters["low_price"] {
		t.Fatal("48000 should not be below the 47000 average")
	}

	for _, offer := range offers {
		if offer.StoreName == "Nationwide" && !offer.Filters["low_price"] {
			t.Fatal("44000 should be below the 47000 average")
		}
	}
}

func TestEnhanceResultsStableTies(t *testing.T) {
	result := &models.SearchResult{
		SearchResults: []models.StoreOffer{
			{StoreName: "First"},
			{StoreName: "Second"},
			{StoreName: "Third"},
		},
	}

	EnhanceResults(result)

	names := []string{"First", "Second", "Third"}
	for i, offer := range result.SearchResults {
		if offer.StoreName != names[i] {
			t.Fatalf("tie order broken at %d: got %q, want %q", i, offer.StoreName, names[i])
		}
	}
}

func TestEnhanceResultsMissingAverage(t *testing.T) {
	result := &models.SearchResult{
		SearchResults: []models.StoreOffer{
			{StoreName: "A", Price: 900000},
			{StoreName: "B", Price: 1200000},
		},
	}

	EnhanceResults(result)

	if !result.SearchResults[0].Filters["low_price"] {
		t.Fatal("price below the missing-average sentinel should count as low")
	}
	if result.SearchResults[1].Filters["low_price"] {
		t.Fatal("price above the sentinel should not count as low")
	}
}

func TestEnhanceResultsNilAndEmpty(t *testing.T) {
	EnhanceResults(nil)
	EnhanceResults(&models.SearchResult{})
}
