package proximity

import (
	"testing"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

func coord(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: lat, Lon: lon}
}

func TestMatchEmptyInput(t *testing.T) {
	got := Match(nil, domain.Coordinate{}, "", SortDistance)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestMatchDropsEntitiesWithoutCoordinate(t *testing.T) {
	entities := []domain.Entity{
		{ID: "a", Name: "Located", Coordinate: coord(10, 10)},
		{ID: "b", Name: "Unlocated"},
	}
	got := Match(entities, domain.Coordinate{Lat: 10, Lon: 10}, "", SortDistance)
	if len(got) != 1 || got[0].Entity.ID != "a" {
		t.Fatalf("expected only the located entity, got %+v", got)
	}
}

func TestMatchCategoryFilter(t *testing.T) {
	origin := domain.Coordinate{Lat: 12.97, Lon: 77.59}
	entities := []domain.Entity{
		{ID: "raj", Name: "Raj Electrician", Coordinate: coord(12.98, 77.60)},
		{ID: "sam", Name: "Sam Mechanic", Coordinate: coord(12.96, 77.58)},
	}
	got := Match(entities, origin, "Electricians", SortDistance)
	if len(got) != 1 || got[0].Entity.ID != "raj" {
		t.Fatalf("expected exactly Raj Electrician, got %+v", got)
	}
	if got[0].Bucket != "Electricians" {
		t.Errorf("bucket = %q, want Electricians", got[0].Bucket)
	}
}

func TestMatchCategoryFilterCaseInsensitiveAndTags(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "a", Name: "Kumar Services", Description: "house WIRING and repair", Coordinate: coord(0, 0.1)},
		{ID: "b", Name: "Anu", Tags: []string{"plumbing"}, Coordinate: coord(0, 0.2)},
	}
	if got := Match(entities, origin, "Electricians", SortDistance); len(got) != 1 || got[0].Entity.ID != "a" {
		t.Fatalf("wiring match failed: %+v", got)
	}
	if got := Match(entities, origin, "Plumbers", SortDistance); len(got) != 1 || got[0].Entity.ID != "b" {
		t.Fatalf("tag match failed: %+v", got)
	}
}

func TestMatchSortByDistance(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "far", Coordinate: coord(0, 1)},
		{ID: "near", Coordinate: coord(0, 0.1)},
	}
	got := Match(entities, origin, "", SortDistance)
	if got[0].Entity.ID != "near" || got[1].Entity.ID != "far" {
		t.Fatalf("wrong distance order: %+v", got)
	}
	if got[0].DistanceKm <= 0 || got[0].DistanceKm >= got[1].DistanceKm {
		t.Errorf("distances not ascending: %v, %v", got[0].DistanceKm, got[1].DistanceKm)
	}
}

func TestMatchSortByRatingDescending(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "low", Rating: 3.1, Coordinate: coord(0, 0.1)},
		{ID: "high", Rating: 4.8, Coordinate: coord(0, 0.2)},
	}
	got := Match(entities, origin, "", SortRating)
	if got[0].Entity.ID != "high" {
		t.Fatalf("wrong rating order: %+v", got)
	}
}

func TestMatchSortByPrice(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "a", Price: "₹500", Coordinate: coord(0, 0.1)},
		{ID: "b", Price: "₹200", Coordinate: coord(0, 0.2)},
	}
	got := Match(entities, origin, "", SortPrice)
	if got[0].Entity.ID != "b" || got[1].Entity.ID != "a" {
		t.Fatalf("wrong price order: %+v", got)
	}
}

func TestPriceValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"₹500", 500},
		{"₹200/day", 200},
		{"Contact for price", 0},
		{"", 0},
		{"Rs 1500 per visit", 1500},
	}
	for _, tt := range tests {
		if got := PriceValue(tt.in); got != tt.want {
			t.Errorf("PriceValue(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUnparseablePriceSortsAsZero(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "priced", Price: "₹300", Coordinate: coord(0, 0.1)},
		{ID: "unpriced", Price: "Contact for price", Coordinate: coord(0, 0.2)},
	}
	got := Match(entities, origin, "", SortPrice)
	if got[0].Entity.ID != "unpriced" {
		t.Fatalf("unparseable price should sort first as 0: %+v", got)
	}
}

func TestDistanceFromLabel(t *testing.T) {
	if got := DistanceFromLabel("3.2 km away"); got != 3.2 {
		t.Errorf("DistanceFromLabel = %v, want 3.2", got)
	}
	if got := DistanceFromLabel("nearby"); got != farKm {
		t.Errorf("malformed label should return sentinel, got %v", got)
	}
	if got := DistanceFromLabel(""); got != farKm {
		t.Errorf("empty label should return sentinel, got %v", got)
	}
}

func TestAggregateByCategory(t *testing.T) {
	origin := domain.Coordinate{Lat: 0, Lon: 0}
	entities := []domain.Entity{
		{ID: "a", Name: "Raj Electrician", Coordinate: coord(0, 0.5)},
		{ID: "b", Name: "City Electrician Hub", Coordinate: coord(0, 0.1)},
		{ID: "c", Name: "Sam Mechanic"},
	}
	cats := []domain.CategoryDef{
		{Label: "Electricians"},
		{Label: "Mechanics"},
		{Label: "Plumbers"},
	}
	stats := AggregateByCategory(entities, origin, cats)
	if len(stats) != 3 {
		t.Fatalf("expected 3 stats, got %d", len(stats))
	}

	elec := stats[0]
	if elec.Count != 2 || !elec.HasNearest {
		t.Fatalf("electricians stat wrong: %+v", elec)
	}
	// nearest must be b, ~11 km out
	if elec.NearestKm > 15 {
		t.Errorf("nearest electrician %v km, expected ~11", elec.NearestKm)
	}

	mech := stats[1]
	if mech.Count != 1 || mech.HasNearest {
		t.Fatalf("mechanic without coordinate should count but have no nearest: %+v", mech)
	}

	plumb := stats[2]
	if plumb.Count != 0 || plumb.HasNearest {
		t.Fatalf("plumbers should be empty: %+v", plumb)
	}
}
