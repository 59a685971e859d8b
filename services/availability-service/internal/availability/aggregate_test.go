package availability

import (
	"testing"
	"time"
)

func staffWith(t *testing.T, id string, total, available int) StaffAvailability {
	t.Helper()
	d := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slots := make([]Slot, 0, total)
	for i := 0; i < total; i++ {
		start := d.Add(time.Duration(i) * 30 * time.Minute)
		slots = append(slots, Slot{
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
			Available: i < available,
		})
	}
	return StaffAvailability{
		StaffID:         id,
		StaffName:       "Staff " + id,
		Slots:           slots,
		AvailableSlots:  available,
		TotalSlots:      total,
		UtilizationRate: UtilizationRate(available, total),
	}
}

func TestUtilizationRate(t *testing.T) {
	if got := UtilizationRate(0, 0); got != 0 {
		t.Fatalf("expected 0 for zero slots, got %v", got)
	}
	if got := UtilizationRate(1, 4); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if got := UtilizationRate(4, 4); got != 0 {
		t.Fatalf("expected 0 for fully free, got %v", got)
	}
}

func TestStatusFor_Boundaries(t *testing.T) {
	cases := []struct {
		utilization float64
		want        string
	}{
		{0, StatusGreen},
		{49.9, StatusGreen},
		{50, StatusOrange}, // exactly 50% free is not strictly >50%
		{79.9, StatusOrange},
		{80, StatusRed}, // exactly 20% free is not strictly >20%
		{100, StatusRed},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.utilization); got != tc.want {
			t.Fatalf("utilization %v: expected %s, got %s", tc.utilization, tc.want, got)
		}
	}
}

func TestBuildStaffAvailability_NoWindows(t *testing.T) {
	sa := BuildStaffAvailability("s1", "Anna", nil, 30*time.Minute, nil)
	if sa.TotalSlots != 0 || sa.AvailableSlots != 0 {
		t.Fatalf("expected zero counts, got %+v", sa)
	}
	if sa.Slots == nil {
		t.Fatal("expected empty (non-nil) slot slice")
	}
	if sa.UtilizationRate != 0 {
		t.Fatalf("expected 0 utilization, got %v", sa.UtilizationRate)
	}
}

func TestBuildStaffAvailability_SplitShiftsConcatenated(t *testing.T) {
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windows := []Interval{
		{Start: d.Add(9 * time.Hour), End: d.Add(11 * time.Hour)},
		{Start: d.Add(14 * time.Hour), End: d.Add(16 * time.Hour)},
	}

	sa := BuildStaffAvailability("s1", "Anna", windows, 60*time.Minute, nil)

	// Three starts per two-hour window, rows kept in order.
	if sa.TotalSlots != 6 {
		t.Fatalf("expected 6 slots, got %d", sa.TotalSlots)
	}
	if !sa.Slots[0].StartTime.Equal(d.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", sa.Slots[0].StartTime)
	}
	if !sa.Slots[3].StartTime.Equal(d.Add(14 * time.Hour)) {
		t.Fatalf("expected fourth slot 14:00, got %s", sa.Slots[3].StartTime)
	}
}

func TestAggregate_HalfBookedIsOrange(t *testing.T) {
	// One staff member fully booked, one fully free: 50% utilization, and
	// 50% free is orange, not green.
	agg := Aggregate("2026-03-02", []StaffAvailability{
		staffWith(t, "a", 4, 0),
		staffWith(t, "b", 4, 4),
	})

	if agg.UtilizationRate != 50 {
		t.Fatalf("expected 50%% utilization, got %v", agg.UtilizationRate)
	}
	if agg.Status != StatusOrange {
		t.Fatalf("expected orange, got %s", agg.Status)
	}
	if agg.TotalCapacity != 2 {
		t.Fatalf("expected capacity 2, got %d", agg.TotalCapacity)
	}
	if len(agg.StaffSummary) != 2 {
		t.Fatalf("expected 2 staff summaries, got %d", len(agg.StaffSummary))
	}
	if agg.StaffSummary[0].Utilization != 100 || agg.StaffSummary[1].Utilization != 0 {
		t.Fatalf("unexpected staff summaries: %+v", agg.StaffSummary)
	}
}

func TestAggregate_PeakAndFreeHours(t *testing.T) {
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hourSlot := func(hour int, available bool) Slot {
		start := d.Add(time.Duration(hour) * time.Hour)
		return Slot{StartTime: start, EndTime: start.Add(time.Hour), Available: available}
	}

	// Availability per hour: 09 -> 0, 10 -> 1, 11 -> 2, 12 -> 3, 13 -> 4.
	var slots []Slot
	for hour := 9; hour <= 13; hour++ {
		for i := 0; i < 4; i++ {
			slots = append(slots, hourSlot(hour, i < hour-9))
		}
	}
	staff := StaffAvailability{StaffID: "a", StaffName: "Anna", Slots: slots, TotalSlots: len(slots), AvailableSlots: 10}

	agg := Aggregate("2026-03-02", []StaffAvailability{staff})

	wantPeak := []string{"2026-03-02T09:00Z", "2026-03-02T10:00Z", "2026-03-02T11:00Z"}
	wantFree := []string{"2026-03-02T11:00Z", "2026-03-02T12:00Z", "2026-03-02T13:00Z"}
	if len(agg.PeakHours) != 3 || len(agg.FreeSlots) != 3 {
		t.Fatalf("expected 3 peak and 3 free hours, got %v / %v", agg.PeakHours, agg.FreeSlots)
	}
	for i := range wantPeak {
		if agg.PeakHours[i] != wantPeak[i] {
			t.Fatalf("peak hours: expected %v, got %v", wantPeak, agg.PeakHours)
		}
		if agg.FreeSlots[i] != wantFree[i] {
			t.Fatalf("free hours: expected %v, got %v", wantFree, agg.FreeSlots)
		}
	}
}

func TestAggregate_FewerThanThreeHourBuckets(t *testing.T) {
	agg := Aggregate("2026-03-02", []StaffAvailability{staffWith(t, "a", 2, 1)})

	// Two 30-minute slots from 09:00 land in a single hour bucket. No
	// padding: both lists contain just that bucket.
	if len(agg.PeakHours) != 1 || len(agg.FreeSlots) != 1 {
		t.Fatalf("expected single-bucket lists, got %v / %v", agg.PeakHours, agg.FreeSlots)
	}
	if agg.PeakHours[0] != "2026-03-02T09:00Z" || agg.FreeSlots[0] != "2026-03-02T09:00Z" {
		t.Fatalf("unexpected buckets: %v / %v", agg.PeakHours, agg.FreeSlots)
	}
}

// Capacity figures round one ratio two ways (floor for available,
// complement-of-ceil for booked), so they need not sum to TotalCapacity.
// These cases pin the shipped arithmetic; a deliberate product fix should
// update them together with the implementation.
func TestAggregate_CapacityRoundingPinned(t *testing.T) {
	// 2 staff, 3 slots total, 2 available: ratio 2/3.
	// available = floor(4/3) = 1, booked = 2 - ceil(4/3) = 0. Sum is 1, not 2.
	agg := Aggregate("2026-03-02", []StaffAvailability{
		staffWith(t, "a", 2, 2),
		staffWith(t, "b", 1, 0),
	})
	if agg.AvailableCapacity != 1 {
		t.Fatalf("expected availableCapacity 1, got %d", agg.AvailableCapacity)
	}
	if agg.BookedCapacity != 0 {
		t.Fatalf("expected bookedCapacity 0, got %d", agg.BookedCapacity)
	}
	if agg.AvailableCapacity+agg.BookedCapacity == agg.TotalCapacity {
		t.Fatal("rounding behavior changed: capacities now conserve, which the wire contract does not promise")
	}

	// No slots at all: the guard divisor kicks in, available = 0 and booked
	// collapses to the full staff count.
	empty := Aggregate("2026-03-02", []StaffAvailability{
		staffWith(t, "a", 0, 0),
		staffWith(t, "b", 0, 0),
	})
	if empty.AvailableCapacity != 0 || empty.BookedCapacity != 2 {
		t.Fatalf("expected 0/2 capacities for empty day, got %d/%d", empty.AvailableCapacity, empty.BookedCapacity)
	}
	if empty.UtilizationRate != 0 || empty.Status != StatusGreen {
		t.Fatalf("expected 0 utilization and green status, got %v/%s", empty.UtilizationRate, empty.Status)
	}
}

func TestAggregate_TieBreaksKeepFirstSeenHour(t *testing.T) {
	// All hours equally available: the stable sort keeps first-seen order,
	// so the earliest hours are "peak" and the latest are "free".
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var slots []Slot
	for hour := 9; hour <= 12; hour++ {
		start := d.Add(time.Duration(hour) * time.Hour)
		slots = append(slots, Slot{StartTime: start, EndTime: start.Add(time.Hour), Available: true})
	}
	staff := StaffAvailability{StaffID: "a", StaffName: "Anna", Slots: slots, TotalSlots: len(slots), AvailableSlots: len(slots)}

	agg := Aggregate("2026-03-02", []StaffAvailability{staff})

	if agg.PeakHours[0] != "2026-03-02T09:00Z" {
		t.Fatalf("expected first-seen hour to lead peak list, got %v", agg.PeakHours)
	}
	if agg.FreeSlots[len(agg.FreeSlots)-1] != "2026-03-02T12:00Z" {
		t.Fatalf("expected last-seen hour to close free list, got %v", agg.FreeSlots)
	}
}
