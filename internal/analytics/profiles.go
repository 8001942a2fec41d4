package analytics

import (
	"sort"

	"github.com/civitas/backend/internal/domain"
)

// HourlyProfile counts suspicious pairs per hour of day (0-23), returning
// only hours with activity, sorted ascending by hour.
func HourlyProfile(pairs []domain.SuspiciousPair) []domain.HourCount {
	counts := make(map[int]int)
	for _, p := range pairs {
		counts[p.Origin.Timestamp.Hour()]++
	}

	profile := make([]domain.HourCount, 0, len(counts))
	for hour, count := range counts {
		profile = append(profile, domain.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(profile, func(i, j int) bool {
		return profile[i].Hour < profile[j].Hour
	})
	return profile
}

// NeighborhoodPairs groups suspicious pairs by origin and destination
// neighborhood, sorted by descending count with ties in first-seen order.
func NeighborhoodPairs(pairs []domain.SuspiciousPair) []domain.NeighborhoodPairCount {
	type hoodKey struct{ origin, destination string }

	counts := make(map[hoodKey]int)
	var order []hoodKey
	for _, p := range pairs {
		key := hoodKey{p.Origin.Neighborhood, p.Destination.Neighborhood}
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}

	stats := make([]domain.NeighborhoodPairCount, 0, len(order))
	for _, key := range order {
		stats = append(stats, domain.NeighborhoodPairCount{
			OriginNeighborhood:      key.origin,
			DestinationNeighborhood: key.destination,
			Count:                   counts[key],
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// GroupByDay splits suspicious pairs into per-day tables ordered
// chronologically. Day labels use the dd/mm/yyyy display format.
func GroupByDay(pairs []domain.SuspiciousPair) []domain.DailyPairs {
	byDay := make(map[string][]domain.SuspiciousPair)
	var order []string
	for _, p := range pairs {
		day := p.Origin.Timestamp.Format("02/01/2006")
		if _, ok := byDay[day]; !ok {
			order = append(order, day)
		}
		byDay[day] = append(byDay[day], p)
	}

	// Scanner output is already time-ascending, so first-seen day order
	// is chronological.
	daily := make([]domain.DailyPairs, 0, len(order))
	for _, day := range order {
		daily = append(daily, domain.DailyPairs{Day: day, Pairs: byDay[day]})
	}
	return daily
}
