package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotStep is the fixed stride between candidate slot starts. It is
// independent of the requested duration, so a 45-minute service yields
// overlapping candidates at :00 and :30.
const SlotStep = 30 * time.Minute

type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is one candidate bookable interval, annotated with its conflict
// status. Slots are ephemeral: recomputed on every request, never stored.
type Slot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// GenerateSlots emits candidate slots of length duration inside window,
// advancing the start by SlotStep, and marks each one against the busy
// intervals. A slot ending exactly on window.End is included. The result is
// empty when the duration does not fit the window at all.
func GenerateSlots(window Interval, duration time.Duration, busy []Interval) []Slot {
	if duration <= 0 || !window.End.After(window.Start) {
		return nil
	}

	var slots []Slot
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(SlotStep) {
		end := t.Add(duration)
		slots = append(slots, Slot{
			StartTime: t,
			EndTime:   end,
			Available: !overlapsAny(t, end, busy),
		})
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// Window expands a schedule row's wall-clock times onto the given day. Both
// times are combined with the day naively, without timezone conversion.
func Window(day time.Time, startClock, endClock string) (Interval, error) {
	start, err := atClock(day, startClock)
	if err != nil {
		return Interval{}, err
	}
	end, err := atClock(day, endClock)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// atClock parses HH:MM or HH:MM:SS (the forms a time column comes back in)
// and pins it onto day.
func atClock(day time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("invalid clock time %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location()), nil
}

// ScopedInterval is an obstruction interval carrying its resource scope.
// A nil ResourceID means the interval is not tied to a specific resource.
type ScopedInterval struct {
	Interval
	ResourceID *string
}

// BusyForResource filters obstructions down to one resource. Bookings
// obstruct only when assigned to exactly this resource; blocks obstruct when
// they target this resource or carry no resource at all (location-wide).
func BusyForResource(resourceID string, bookings, blocks []ScopedInterval) []Interval {
	busy := make([]Interval, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		if b.ResourceID != nil && *b.ResourceID == resourceID {
			busy = append(busy, b.Interval)
		}
	}
	for _, b := range blocks {
		if b.ResourceID == nil || *b.ResourceID == resourceID {
			busy = append(busy, b.Interval)
		}
	}
	return busy
}
