package availability

import (
	"math"
	"sort"
	"time"
)

// StaffAvailability is one staff member's computed day: annotated slots plus
// the derived utilization metrics.
type StaffAvailability struct {
	StaffID         string  `json:"staffId"`
	StaffName       string  `json:"staffName"`
	Slots           []Slot  `json:"slots"`
	AvailableSlots  int     `json:"availableSlots"`
	TotalSlots      int     `json:"totalSlots"`
	UtilizationRate float64 `json:"utilizationRate"`
}

type StaffSummary struct {
	StaffID     string  `json:"staffId"`
	StaffName   string  `json:"staffName"`
	Utilization float64 `json:"utilization"`
}

// Aggregated is the location-wide capacity rollup used for staffing
// decisions rather than individual booking.
type Aggregated struct {
	Date              string         `json:"date"`
	TotalCapacity     int            `json:"totalCapacity"`
	BookedCapacity    int            `json:"bookedCapacity"`
	AvailableCapacity int            `json:"availableCapacity"`
	UtilizationRate   float64        `json:"utilizationRate"`
	PeakHours         []string       `json:"peakHours"`
	FreeSlots         []string       `json:"freeSlots"`
	Status            string         `json:"status"`
	StaffSummary      []StaffSummary `json:"staffSummary"`
}

const (
	StatusGreen  = "green"
	StatusOrange = "orange"
	StatusRed    = "red"
)

// BuildStaffAvailability runs the slot generator over one staff member's
// schedule windows in row order and annotates each slot against the busy
// intervals. Zero windows is not an error: the staff member simply has no
// hours that day.
func BuildStaffAvailability(staffID, staffName string, windows []Interval, duration time.Duration, busy []Interval) StaffAvailability {
	slots := []Slot{}
	for _, w := range windows {
		slots = append(slots, GenerateSlots(w, duration, busy)...)
	}

	available := 0
	for _, s := range slots {
		if s.Available {
			available++
		}
	}

	return StaffAvailability{
		StaffID:         staffID,
		StaffName:       staffName,
		Slots:           slots,
		AvailableSlots:  available,
		TotalSlots:      len(slots),
		UtilizationRate: UtilizationRate(available, len(slots)),
	}
}

// UtilizationRate is the percentage of slots that are booked or blocked,
// defined as 0 when there are no slots at all.
func UtilizationRate(available, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-available) / float64(total) * 100
}

// StatusFor classifies a location's free fraction: green above 50% free,
// orange above 20%, red otherwise. Exactly 50% free is orange, not green.
func StatusFor(utilizationRate float64) string {
	availabilityRate := 100 - utilizationRate
	switch {
	case availabilityRate > 50:
		return StatusGreen
	case availabilityRate > 20:
		return StatusOrange
	default:
		return StatusRed
	}
}

// Aggregate merges every staff member's slots into a single capacity
// summary.
//
// Hour buckets are kept in first-seen order and stably sorted by how many
// pooled slots are still available in that hour; the lowest three buckets
// are the peak hours, the highest three the free ones. With fewer than
// three buckets both lists just contain what exists.
//
// AvailableCapacity and BookedCapacity round the same ratio independently
// (floor vs complement-of-ceil), so they are not guaranteed to sum to
// TotalCapacity. That matches the shipped behavior and is pinned by a
// regression test; do not "fix" it here without a product decision.
func Aggregate(date string, staff []StaffAvailability) Aggregated {
	totalSlots := 0
	totalAvailable := 0
	for _, s := range staff {
		totalSlots += s.TotalSlots
		totalAvailable += s.AvailableSlots
	}

	type bucket struct {
		hour      string
		available int
	}
	var buckets []bucket
	index := make(map[string]int)
	for _, s := range staff {
		for _, slot := range s.Slots {
			hour := hourKey(slot.StartTime)
			i, ok := index[hour]
			if !ok {
				i = len(buckets)
				index[hour] = i
				buckets = append(buckets, bucket{hour: hour})
			}
			if slot.Available {
				buckets[i].available++
			}
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].available < buckets[j].available
	})

	peak := make([]string, 0, 3)
	for i := 0; i < len(buckets) && i < 3; i++ {
		peak = append(peak, buckets[i].hour)
	}
	free := make([]string, 0, 3)
	for i := max(0, len(buckets)-3); i < len(buckets); i++ {
		free = append(free, buckets[i].hour)
	}

	utilization := UtilizationRate(totalAvailable, totalSlots)

	denom := totalSlots
	if denom == 0 {
		denom = 1
	}
	ratio := float64(totalAvailable) / float64(denom)
	capacity := float64(len(staff))

	summaries := make([]StaffSummary, 0, len(staff))
	for _, s := range staff {
		summaries = append(summaries, StaffSummary{
			StaffID:     s.StaffID,
			StaffName:   s.StaffName,
			Utilization: s.UtilizationRate,
		})
	}

	return Aggregated{
		Date:              date,
		TotalCapacity:     len(staff),
		BookedCapacity:    len(staff) - int(math.Ceil(ratio*capacity)),
		AvailableCapacity: int(math.Floor(ratio * capacity)),
		UtilizationRate:   utilization,
		PeakHours:         peak,
		FreeSlots:         free,
		Status:            StatusFor(utilization),
		StaffSummary:      summaries,
	}
}

// hourKey truncates a slot start to its containing hour, matching the wire
// form consumed by the dashboard ("2026-03-02T09:00Z").
func hourKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15") + ":00Z"
}
