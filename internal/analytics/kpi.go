package analytics

import (
	"fmt"

	"github.com/civitas/backend/internal/domain"
)

// Shift labels for the four six-hour periods of a day.
const (
	ShiftNight     = "night"     // 00:00–05:59
	ShiftMorning   = "morning"   // 06:00–11:59
	ShiftAfternoon = "afternoon" // 12:00–17:59
	ShiftEvening   = "evening"   // 18:00–23:59
)

// ComputeKPIs summarizes a suspicious-pair table: totals, the busiest day
// and shift, the radar with most origin hits and the most frequent route.
func ComputeKPIs(pairs []domain.SuspiciousPair) domain.KPISummary {
	if len(pairs) == 0 {
		return domain.KPISummary{
			TopDay:       "N/A",
			TopShift:     "N/A",
			LeadingRadar: "N/A",
			TopRoute:     "N/A",
		}
	}

	kpis := domain.KPISummary{SuspiciousCount: len(pairs)}

	days := newCounter()
	shifts := newCounter()
	radars := newCounter()
	routes := newCounter()

	for _, p := range pairs {
		if p.SpeedKMH > kpis.MaxSpeedKMH {
			kpis.MaxSpeedKMH = p.SpeedKMH
		}
		days.add(p.Origin.Timestamp.Format("02/01/2006"))
		shifts.add(shiftOf(p.Origin.Timestamp.Hour()))
		radars.add(p.OriginLabel)
		routes.add(fmt.Sprintf("%s → %s", p.OriginLabel, p.DestinationLabel))
	}

	kpis.TopDay, kpis.TopDayCount = days.top()
	kpis.TopShift, kpis.TopShiftCount = shifts.top()
	kpis.LeadingRadar, kpis.LeadingRadarCount = radars.top()
	kpis.TopRoute, kpis.TopRouteCount = routes.top()
	return kpis
}

func shiftOf(hour int) string {
	switch {
	case hour < 6:
		return ShiftNight
	case hour < 12:
		return ShiftMorning
	case hour < 18:
		return ShiftAfternoon
	default:
		return ShiftEvening
	}
}

// counter tracks occurrence counts with deterministic tie-breaking on
// first insertion order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top() (string, int) {
	best, bestCount := "N/A", 0
	for _, key := range c.order {
		if c.counts[key] > bestCount {
			best, bestCount = key, c.counts[key]
		}
	}
	return best, bestCount
}
