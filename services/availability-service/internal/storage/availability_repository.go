package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/termino-app/termino/libs/db"
	"github.com/termino-app/termino/services/availability-service/internal/model"
)

// Repository serves the read-only queries the availability engine needs.
// Every request reads fresh rows; nothing is cached between calls.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOffering(ctx context.Context, offeringID string) (model.Offering, error) {
	var o model.Offering
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, duration_minutes, organization_id::text, location_id::text
		FROM offerings
		WHERE id = $1
	`, offeringID).Scan(&o.ID, &o.Name, &o.DurationMins, &o.OrganizationID, &o.LocationID)
	return o, err
}

func (r *Repository) GetLocation(ctx context.Context, locationID string) (model.Location, error) {
	var l model.Location
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, timezone, organization_id::text
		FROM locations
		WHERE id = $1
	`, locationID).Scan(&l.ID, &l.Timezone, &l.OrganizationID)
	return l, err
}

// ListActiveStaff returns the active staff resources at a location, narrowed
// to a single resource when staffID is non-empty.
func (r *Repository) ListActiveStaff(ctx context.Context, locationID, staffID string) ([]model.Resource, error) {
	query := `
		SELECT id::text, name, type, capacity, location_id::text, is_active
		FROM resources
		WHERE location_id = $1
			AND type = 'staff'
			AND is_active = true
	`
	args := []any{locationID}
	if staffID != "" {
		query += ` AND id = $2`
		args = append(args, staffID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Resource
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Capacity, &res.LocationID, &res.IsActive); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListSchedules returns the active schedule rows for a location on one
// weekday. With a non-empty resourceIDs set only those resources' rows are
// returned; with nil the whole location pool is used (basic path).
func (r *Repository) ListSchedules(ctx context.Context, locationID string, weekday int, resourceIDs []string) ([]model.Schedule, error) {
	query := `
		SELECT COALESCE(resource_id::text, ''), location_id::text, day_of_week,
			start_time::text, end_time::text, is_active
		FROM schedules
		WHERE location_id = $1
			AND day_of_week = $2
			AND is_active = true
	`
	args := []any{locationID, weekday}
	if len(resourceIDs) > 0 {
		query += ` AND resource_id = ANY($3::uuid[])`
		args = append(args, resourceIDs)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Schedule
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ResourceID, &s.LocationID, &s.Weekday, &s.StartTime, &s.EndTime, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListBookings returns the bookings that obstruct slots: pending or
// confirmed, inside the day window. Cancelled, completed and no-show
// bookings never block.
func (r *Repository) ListBookings(ctx context.Context, locationID, offeringID string, from, to time.Time, resourceIDs []string) ([]model.Booking, error) {
	query := `
		SELECT location_id::text, offering_id::text, resource_id::text, start_time, end_time, status
		FROM bookings
		WHERE location_id = $1
			AND offering_id = $2
			AND status IN ('pending', 'confirmed')
			AND start_time >= $3
			AND end_time <= $4
	`
	args := []any{locationID, offeringID, from, to}
	if len(resourceIDs) > 0 {
		query += ` AND resource_id = ANY($5::uuid[])`
		args = append(args, resourceIDs)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.LocationID, &b.OfferingID, &b.ResourceID, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListLocationBlocks returns a location's blocks inside the day window
// (basic path).
func (r *Repository) ListLocationBlocks(ctx context.Context, locationID string, from, to time.Time) ([]model.Block, error) {
	return r.listBlocks(ctx, `
		SELECT location_id::text, resource_id::text, start_time, end_time
		FROM blocks
		WHERE location_id = $1
			AND start_time >= $2
			AND end_time <= $3
		ORDER BY start_time ASC
	`, locationID, from, to)
}

// ListBlocks returns every block inside the day window regardless of
// location. The staff-aware path queries blocks this way; per-resource
// scoping happens in the engine.
func (r *Repository) ListBlocks(ctx context.Context, from, to time.Time) ([]model.Block, error) {
	return r.listBlocks(ctx, `
		SELECT location_id::text, resource_id::text, start_time, end_time
		FROM blocks
		WHERE start_time >= $1
			AND end_time <= $2
		ORDER BY start_time ASC
	`, from, to)
}

func (r *Repository) listBlocks(ctx context.Context, query string, args ...any) ([]model.Block, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Block
	for rows.Next() {
		var b model.Block
		if err := rows.Scan(&b.LocationID, &b.ResourceID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
