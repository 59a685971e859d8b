package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/termino-app/termino/services/availability-service/internal/availability"
	"github.com/termino-app/termino/services/availability-service/internal/metrics"
	"github.com/termino-app/termino/services/availability-service/internal/model"
	"github.com/termino-app/termino/services/availability-service/internal/storage"
)

// Store is the read-only query surface the availability engine consumes.
// *storage.Repository implements it; tests substitute an in-memory fake.
type Store interface {
	GetOffering(ctx context.Context, offeringID string) (model.Offering, error)
	GetLocation(ctx context.Context, locationID string) (model.Location, error)
	ListActiveStaff(ctx context.Context, locationID, staffID string) ([]model.Resource, error)
	ListSchedules(ctx context.Context, locationID string, weekday int, resourceIDs []string) ([]model.Schedule, error)
	ListBookings(ctx context.Context, locationID, offeringID string, from, to time.Time, resourceIDs []string) ([]model.Booking, error)
	ListLocationBlocks(ctx context.Context, locationID string, from, to time.Time) ([]model.Block, error)
	ListBlocks(ctx context.Context, from, to time.Time) ([]model.Block, error)
}

type AvailabilityHandler struct {
	store  Store
	logger *slog.Logger
}

func NewAvailabilityHandler(store Store, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{store: store, logger: logger}
}

type availabilityRequest struct {
	LocationID string `json:"locationId"`
	OfferingID string `json:"offeringId"`
	Date       string `json:"date"`
	Duration   *int   `json:"duration,omitempty"`
}

type enhancedRequest struct {
	availabilityRequest
	StaffID    string
	Aggregated bool
}

type slotsResponse struct {
	Slots []availability.Slot `json:"slots"`
}

// The enhanced endpoint returns a tagged union: the Type field discriminates
// the three response shapes.
type individualResponse struct {
	Type        string                         `json:"type"`
	Date        string                         `json:"date"`
	StaffMember availability.StaffAvailability `json:"staffMember"`
}

type aggregatedResponse struct {
	Type         string                           `json:"type"`
	Aggregated   availability.Aggregated          `json:"aggregated"`
	StaffDetails []availability.StaffAvailability `json:"staffDetails"`
}

type multiResponse struct {
	Type                string                           `json:"type"`
	Date                string                           `json:"date"`
	StaffAvailabilities []availability.StaffAvailability `json:"staffAvailabilities"`
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Basic serves the location-wide availability path. GET takes snake_case
// query params, POST a camelCase JSON body; both shapes predate this service
// and are kept for the clients that rely on them.
func (h *AvailabilityHandler) Basic(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.LocationID = strings.TrimSpace(q.Get("location_id"))
		req.OfferingID = strings.TrimSpace(q.Get("offering_id"))
		req.Date = strings.TrimSpace(q.Get("date"))
		if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				metrics.IncRequest("basic", "bad_request")
				writeValidationError(w, []fieldIssue{{Field: "duration", Message: "must be a positive integer"}})
				return
			}
			req.Duration = &n
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.IncRequest("basic", "bad_request")
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if issues := validateRequest(req); len(issues) > 0 {
		metrics.IncRequest("basic", "bad_request")
		writeValidationError(w, issues)
		return
	}

	h.serveBasic(w, r, req)
}

func (h *AvailabilityHandler) serveBasic(w http.ResponseWriter, r *http.Request, req availabilityRequest) {
	ctx := r.Context()

	offering, err := h.store.GetOffering(ctx, req.OfferingID)
	if err != nil {
		if storage.IsNotFound(err) {
			metrics.IncRequest("basic", "not_found")
			writeError(w, http.StatusNotFound, "Offering not found")
			return
		}
		h.internalError(w, "basic", "load offering", err)
		return
	}

	duration := offering.DurationMins
	if req.Duration != nil {
		duration = *req.Duration
	}

	if _, err := h.store.GetLocation(ctx, req.LocationID); err != nil {
		if storage.IsNotFound(err) {
			metrics.IncRequest("basic", "not_found")
			writeError(w, http.StatusNotFound, "Standort nicht gefunden")
			return
		}
		h.internalError(w, "basic", "load location", err)
		return
	}

	day, _ := time.Parse("2006-01-02", req.Date)
	weekday := int(day.Weekday())

	schedules, err := h.store.ListSchedules(ctx, req.LocationID, weekday, nil)
	if err != nil {
		h.internalError(w, "basic", "load schedules", err)
		return
	}
	if len(schedules) == 0 {
		metrics.IncRequest("basic", "ok")
		writeJSON(w, http.StatusOK, slotsResponse{Slots: []availability.Slot{}})
		return
	}

	dayStart, dayEnd := dayBounds(day)

	bookings, err := h.store.ListBookings(ctx, req.LocationID, req.OfferingID, dayStart, dayEnd, nil)
	if err != nil {
		h.internalError(w, "basic", "load bookings", err)
		return
	}
	blocks, err := h.store.ListLocationBlocks(ctx, req.LocationID, dayStart, dayEnd)
	if err != nil {
		h.internalError(w, "basic", "load blocks", err)
		return
	}

	// One pool: every booking and block at the location obstructs, no
	// resource scoping.
	busy := make([]availability.Interval, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		busy = append(busy, availability.Interval{Start: b.StartTime, End: b.EndTime})
	}
	for _, b := range blocks {
		busy = append(busy, availability.Interval{Start: b.StartTime, End: b.EndTime})
	}

	slots := []availability.Slot{}
	for _, row := range schedules {
		window, err := availability.Window(day, row.StartTime, row.EndTime)
		if err != nil {
			h.logger.Warn("skipping malformed schedule row", "resource_id", row.ResourceID, "err", err)
			continue
		}
		slots = append(slots, availability.GenerateSlots(window, time.Duration(duration)*time.Minute, busy)...)
	}

	metrics.IncRequest("basic", "ok")
	metrics.AddSlots(len(slots))
	writeJSON(w, http.StatusOK, slotsResponse{Slots: slots})
}

// Enhanced serves the staff-aware path: individual (staffId given),
// aggregated (aggregated=true), or the per-staff breakdown.
func (h *AvailabilityHandler) Enhanced(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := enhancedRequest{
		availabilityRequest: availabilityRequest{
			LocationID: strings.TrimSpace(q.Get("locationId")),
			OfferingID: strings.TrimSpace(q.Get("offeringId")),
			Date:       strings.TrimSpace(q.Get("date")),
		},
		StaffID:    strings.TrimSpace(q.Get("staffId")),
		Aggregated: q.Get("aggregated") == "true",
	}
	mode := req.mode()

	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			metrics.IncRequest(mode, "bad_request")
			writeValidationError(w, []fieldIssue{{Field: "duration", Message: "must be a positive integer"}})
			return
		}
		req.Duration = &n
	}

	issues := validateRequest(req.availabilityRequest)
	if req.StaffID != "" {
		if _, err := uuid.Parse(req.StaffID); err != nil {
			issues = append(issues, fieldIssue{Field: "staffId", Message: "must be a valid UUID"})
		}
	}
	if len(issues) > 0 {
		metrics.IncRequest(mode, "bad_request")
		writeValidationError(w, issues)
		return
	}

	h.serveEnhanced(w, r, req)
}

func (r enhancedRequest) mode() string {
	switch {
	case r.StaffID != "":
		return "individual"
	case r.Aggregated:
		return "aggregated"
	default:
		return "multi"
	}
}

func (h *AvailabilityHandler) serveEnhanced(w http.ResponseWriter, r *http.Request, req enhancedRequest) {
	ctx := r.Context()
	mode := req.mode()

	offering, err := h.store.GetOffering(ctx, req.OfferingID)
	if err != nil {
		if storage.IsNotFound(err) {
			metrics.IncRequest(mode, "not_found")
			writeError(w, http.StatusNotFound, "Offering not found")
			return
		}
		h.internalError(w, mode, "load offering", err)
		return
	}

	duration := offering.DurationMins
	if req.Duration != nil {
		duration = *req.Duration
	}

	if _, err := h.store.GetLocation(ctx, req.LocationID); err != nil {
		if storage.IsNotFound(err) {
			metrics.IncRequest(mode, "not_found")
			writeError(w, http.StatusNotFound, "Standort nicht gefunden")
			return
		}
		h.internalError(w, mode, "load location", err)
		return
	}

	// An inactive resource, a non-staff resource, or a resource at another
	// location all fall out of this query, so a staffId filter that matches
	// nothing is a 404 rather than an empty breakdown.
	staff, err := h.store.ListActiveStaff(ctx, req.LocationID, req.StaffID)
	if err != nil {
		h.internalError(w, mode, "load staff", err)
		return
	}
	if len(staff) == 0 {
		metrics.IncRequest(mode, "not_found")
		if req.Aggregated {
			writeError(w, http.StatusNotFound, "No staff members found")
		} else {
			writeError(w, http.StatusNotFound, "Staff member not found")
		}
		return
	}

	staffIDs := make([]string, 0, len(staff))
	for _, s := range staff {
		staffIDs = append(staffIDs, s.ID)
	}

	day, _ := time.Parse("2006-01-02", req.Date)
	weekday := int(day.Weekday())
	dayStart, dayEnd := dayBounds(day)

	schedules, err := h.store.ListSchedules(ctx, req.LocationID, weekday, staffIDs)
	if err != nil {
		h.internalError(w, mode, "load schedules", err)
		return
	}
	bookings, err := h.store.ListBookings(ctx, req.LocationID, req.OfferingID, dayStart, dayEnd, staffIDs)
	if err != nil {
		h.internalError(w, mode, "load bookings", err)
		return
	}
	blocks, err := h.store.ListBlocks(ctx, dayStart, dayEnd)
	if err != nil {
		h.internalError(w, mode, "load blocks", err)
		return
	}

	bookingIntervals := make([]availability.ScopedInterval, 0, len(bookings))
	for _, b := range bookings {
		bookingIntervals = append(bookingIntervals, availability.ScopedInterval{
			Interval:   availability.Interval{Start: b.StartTime, End: b.EndTime},
			ResourceID: b.ResourceID,
		})
	}
	blockIntervals := make([]availability.ScopedInterval, 0, len(blocks))
	for _, b := range blocks {
		blockIntervals = append(blockIntervals, availability.ScopedInterval{
			Interval:   availability.Interval{Start: b.StartTime, End: b.EndTime},
			ResourceID: b.ResourceID,
		})
	}

	staffAvailabilities := make([]availability.StaffAvailability, 0, len(staff))
	totalSlots := 0
	for _, member := range staff {
		var windows []availability.Interval
		for _, row := range schedules {
			if row.ResourceID != member.ID {
				continue
			}
			window, err := availability.Window(day, row.StartTime, row.EndTime)
			if err != nil {
				h.logger.Warn("skipping malformed schedule row", "resource_id", row.ResourceID, "err", err)
				continue
			}
			windows = append(windows, window)
		}

		busy := availability.BusyForResource(member.ID, bookingIntervals, blockIntervals)
		sa := availability.BuildStaffAvailability(member.ID, member.Name, windows, time.Duration(duration)*time.Minute, busy)
		totalSlots += sa.TotalSlots
		staffAvailabilities = append(staffAvailabilities, sa)
	}

	metrics.IncRequest(mode, "ok")
	metrics.AddSlots(totalSlots)

	if req.StaffID != "" {
		writeJSON(w, http.StatusOK, individualResponse{
			Type:        "individual",
			Date:        req.Date,
			StaffMember: staffAvailabilities[0],
		})
		return
	}

	if req.Aggregated {
		writeJSON(w, http.StatusOK, aggregatedResponse{
			Type:         "aggregated",
			Aggregated:   availability.Aggregate(req.Date, staffAvailabilities),
			StaffDetails: staffAvailabilities,
		})
		return
	}

	writeJSON(w, http.StatusOK, multiResponse{
		Type:                "multi",
		Date:                req.Date,
		StaffAvailabilities: staffAvailabilities,
	})
}

func (h *AvailabilityHandler) internalError(w http.ResponseWriter, mode, op string, err error) {
	h.logger.Error("availability computation failed", "mode", mode, "op", op, "err", err)
	metrics.IncRequest(mode, "error")
	writeError(w, http.StatusInternalServerError, "Interner Serverfehler")
}

func validateRequest(req availabilityRequest) []fieldIssue {
	var issues []fieldIssue
	if _, err := uuid.Parse(req.LocationID); err != nil {
		issues = append(issues, fieldIssue{Field: "locationId", Message: "must be a valid UUID"})
	}
	if _, err := uuid.Parse(req.OfferingID); err != nil {
		issues = append(issues, fieldIssue{Field: "offeringId", Message: "must be a valid UUID"})
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		issues = append(issues, fieldIssue{Field: "date", Message: "must be formatted YYYY-MM-DD"})
	}
	if req.Duration != nil && *req.Duration <= 0 {
		issues = append(issues, fieldIssue{Field: "duration", Message: "must be a positive integer"})
	}
	return issues
}

// dayBounds returns the day window the obstruction queries use: midnight
// through 23:59:59.999 of the requested date.
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999_000_000, day.Location())
	return start, end
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, issues []fieldIssue) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validierung fehlgeschlagen",
		"details": issues,
	})
}
