package app

import (
	"math"
	"sort"
	"strings"

	"github.com/mkrupkin/pricefinder/app/models"
)

// AvailabilityTable classifies free-text availability into stock buckets by
// substring match. Kept as data so locale variants can be swapped without
// touching any scoring or report logic. InStock entries are checked before
// Limited; anything unmatched counts as out of stock.
type AvailabilityTable struct {
	InStock []string
	Limited []string
}

// DefaultAvailabilityTable covers the English statuses the completion service
// is asked for plus the Ukrainian phrasings it falls back to.
var DefaultAvailabilityTable = AvailabilityTable{
	InStock: []string{"in stock", "available", "наявності"},
	Limited: []string{"limited", "pre-order", "замовлення"},
}

// Classify buckets one availability string as in_stock, limited or
// out_of_stock.
func (t AvailabilityTable) Classify(availability string) string {
	text := strings.ToLower(availability)
	for _, needle := range t.InStock {
		if strings.Contains(text, needle) {
			return "in_stock"
		}
	}
	for _, needle := range t.Limited {
		if strings.Contains(text, needle) {
			return "limited"
		}
	}
	return "out_of_stock"
}

// GenerateSearchReport aggregates price, region and availability statistics
// over validated offers. A nil report is the valid "nothing to show" outcome
// for an empty offer list, not an error.
func GenerateSearchReport(offers []models.StoreOffer, table AvailabilityTable) *models.SearchReport {
	if len(offers) == 0 {
		return nil
	}

	prices := make([]float64, len(offers))
	for i, offer := range offers {
		prices[i] = offer.Price
	}

	report := &models.SearchReport{
		TotalStores: len(offers),
		PriceStatistics: models.PriceStatistics{
			Min:     minOf(prices),
			Max:     maxOf(prices),
			Average: int(math.Round(sumOf(prices) / float64(len(prices)))),
			Median:  median(prices),
		},
		StoreDistribution: map[string]int{
			"local":         0,
			"national":      0,
			"international": 0,
		},
		AvailabilitySummary: map[string]int{
			"in_stock":     0,
			"limited":      0,
			"out_of_stock": 0,
		},
	}

	for _, offer := range offers {
		// Regions outside the three known buckets are dropped.
		region := strings.ToLower(offer.Location.Region)
		if _, ok := report.StoreDistribution[region]; ok {
			report.StoreDistribution[region]++
		}

		report.AvailabilitySummary[table.Classify(offer.Availability)]++
	}

	return report
}

// median of a price list: lower-middle value for odd counts, mean of the two
// middle values for even counts.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	middle := (len(sorted) - 1) / 2
	if len(sorted)%2 == 1 {
		return sorted[middle]
	}
	return (sorted[middle] + sorted[middle+1]) / 2
}

func minOf(values []float64) float64 {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maxOf(values []float64) float64 {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func sumOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}
