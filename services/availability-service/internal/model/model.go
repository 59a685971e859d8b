package model

import "time"

// Offering is a bookable service with a default duration. The duration can be
// overridden per request.
type Offering struct {
	ID             string
	Name           string
	DurationMins   int
	OrganizationID string
	LocationID     string
}

// Location anchors the calendar date. The timezone is stored per location,
// but slot arithmetic currently runs on the date parsed in UTC.
type Location struct {
	ID             string
	Timezone       string
	OrganizationID string
}

// Resource is a bookable unit. Staff members are resources with type "staff".
type Resource struct {
	ID         string
	Name       string
	Type       string
	Capacity   int
	LocationID string
	IsActive   bool
}

// Schedule is a recurring weekly working-hours row for one resource.
// Weekday follows time.Weekday numbering (0 = Sunday). Start and End are
// wall-clock times formatted HH:MM or HH:MM:SS.
type Schedule struct {
	ResourceID string
	LocationID string
	Weekday    int
	StartTime  string
	EndTime    string
	IsActive   bool
}

// Booking is an existing reservation. Only pending and confirmed bookings
// obstruct slots; the repository applies that filter. ResourceID is nil for
// bookings without a staff assignment.
type Booking struct {
	LocationID string
	OfferingID string
	ResourceID *string
	StartTime  time.Time
	EndTime    time.Time
	Status     string
}

// Block is an ad-hoc unavailability window (holiday, break, maintenance).
// A nil ResourceID means the block applies to every resource at the location.
type Block struct {
	LocationID string
	ResourceID *string
	StartTime  time.Time
	EndTime    time.Time
}
