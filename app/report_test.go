package app

import (
	"testing"

	"github.com/mkrupkin/pricefinder/app/models"
)

func TestAvailabilityClassify(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"In Stock", "in_stock"},
		{"Available now", "in_stock"},
		{"В наявності", "in_stock"},
		{"Limited stock", "limited"},
		{"Pre-order", "limited"},
		{"Під замовлення", "limited"},
		{"Out of Stock", "out_of_stock"},
		{"Discontinued", "out_of_stock"},
		{"", "out_of_stock"},
	}

	for _, tc := range tests {
		if got := DefaultAvailabilityTable.Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func offerWith(price float64, region, availability string) models.StoreOffer {
	return models.StoreOffer{
		StoreName:    "Store",
		Price:        price,
		Availability: availability,
		Location:     models.StoreLocation{Region: region},
	}
}

func TestGenerateSearchReport(t *testing.T) {
	offers := []models.StoreOffer{
		offerWith(100, models.RegionLocal, "In Stock"),
		offerWith(200, models.RegionNational, "Pre-order"),
		offerWith(400, models.RegionInternational, "Out of Stock"),
		offerWith(250, models.RegionLocal, "В наявності"),
	}

	report := GenerateSearchReport(offers, DefaultAvailabilityTable)
	if report == nil {
		t.Fatal("expected a report")
	}

	if report.TotalStores != 4 {
		t.Fatalf("total stores = %d, want 4", report.TotalStores)
	}
	if report.PriceStatistics.Min != 100 || report.PriceStatistics.Max != 400 {
		t.Fatalf("min/max = %v/%v, want 100/400", report.PriceStatistics.Min, report.PriceStatistics.Max)
	}
	// (100+200+400+250)/4 = 237.5, rounded to 238.
	if report.PriceStatistics.Average != 238 {
		t.Fatalf("average = %d, want 238", report.PriceStatistics.Average)
	}
	// Even count: mean of the two middle values (200, 250).
	if report.PriceStatistics.Median != 225 {
		t.Fatalf("median = %v, want 225", report.PriceStatistics.Median)
	}

	if report.StoreDistribution["local"] != 2 ||
		report.StoreDistribution["national"] != 1 ||
		report.StoreDistribution["international"] != 1 {
		t.Fatalf("store distribution = %v", report.StoreDistribution)
	}

	if report.AvailabilitySummary["in_stock"] != 2 ||
		report.AvailabilitySummary["limited"] != 1 ||
		report.AvailabilitySummary["out_of_stock"] != 1 {
		t.Fatalf("availability summary = %v", report.AvailabilitySummary)
	}
}

func TestGenerateSearchReportOddMedian(t *testing.T) {
	offers := []models.StoreOffer{
		offerWith(300, models.RegionLocal, "In Stock"),
		offerWith(100, models.RegionLocal, "In Stock"),
		offerWith(200, models.RegionLocal, "In Stock"),
	}

	report := GenerateSearchReport(offers, DefaultAvailabilityTable)
	if report.PriceStatistics.Median != 200 {
		t.Fatalf("median = %v, want 200", report.PriceStatistics.Median)
	}
}

func TestGenerateSearchReportDropsUnknownRegions(t *testing.T) {
	offers := []models.StoreOffer{
		offerWith(100, "Continental", "In Stock"),
		offerWith(200, models.RegionLocal, "In Stock"),
	}

	report := GenerateSearchReport(offers, DefaultAvailabilityTable)

	var counted int
	for _, n := range report.StoreDistribution {
		counted += n
	}
	if counted != 1 {
		t.Fatalf("region counts sum to %d, want 1 (unknown regions dropped)", counted)
	}
	if _, ok := report.StoreDistribution["continental"]; ok {
		t.Fatal("unknown region must not create a bucket")
	}
}

func TestGenerateSearchReportEmpty(t *testing.T) {
	if report := GenerateSearchReport(nil, DefaultAvailabilityTable); report != nil {
		t.Fatalf("expected nil report for no offers, got %+v", report)
	}
}
