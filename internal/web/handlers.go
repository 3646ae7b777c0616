package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"agendapro/internal/agenda"
	"agendapro/internal/alerts"
	appLog "agendapro/internal/log"
	"agendapro/internal/model"
	"agendapro/internal/store"
)

// dateLayout is the wire format for calendar days.
const dateLayout = "2006-01-02"

// eventDTO is the JSON view of an event.
type eventDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
	ProfessionalID string `json:"professional_id"`
	VisitorID      string `json:"visitor_id"`
	RRule          string `json:"rrule,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toEventDTO(evt model.Event, loc *time.Location) eventDTO {
	return eventDTO{
		ID:             evt.ID,
		Title:          evt.Title,
		Date:           evt.Date.In(loc).Format(dateLayout),
		Time:           evt.Time,
		Status:         string(evt.Status),
		ProfessionalID: evt.ProfessionalID,
		VisitorID:      evt.VisitorID,
		RRule:          evt.RRule,
		CreatedAt:      evt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type eventsResponse struct {
	Events []eventDTO `json:"events"`
}

// createEventRequest is the POST /api/events body.
type createEventRequest struct {
	Title          string `json:"title"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
	ProfessionalID string `json:"professional_id"`
	VisitorID      string `json:"visitor_id"`
	RRule          string `json:"rrule"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events, err := s.store.List()
	if err != nil {
		appLog.Error("api events: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, evt := range events {
		dtos = append(dtos, toEventDTO(evt, s.loc))
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: dtos})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", req.Date))
		return
	}

	status := model.Status(req.Status)
	if req.Status == "" {
		status = model.StatusPending
	}

	evt, err := s.store.Create(model.Event{
		Title:          req.Title,
		Date:           date,
		Time:           req.Time,
		Status:         status,
		ProfessionalID: req.ProfessionalID,
		VisitorID:      req.VisitorID,
		RRule:          req.RRule,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appLog.Info("event created", "event_id", evt.ID, "title", evt.Title, "date", req.Date, "time", evt.Time)
	writeJSON(w, http.StatusCreated, toEventDTO(evt, s.loc))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	evt, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(evt, s.loc))
}

// handlePatchEvent changes an event's scheduling status, covering both
// explicit rescheduling and the cancel/restore toggle.
func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	evt, err := s.store.SetStatus(r.PathValue("id"), model.Status(req.Status))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appLog.Info("event status changed", "event_id", evt.ID, "status", req.Status)
	writeJSON(w, http.StatusOK, toEventDTO(evt, s.loc))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		appLog.Error("api events: delete failed", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Start   string `json:"start"`
}

type agendaResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
	TruncatedID []string        `json:"truncated_ids,omitempty"`
	RangeStart  time.Time       `json:"range_start"`
	RangeEnd    time.Time       `json:"range_end"`
	Timezone    string          `json:"timezone"`
}

// handleAgenda returns expanded occurrences within a requested window.
//
// GET /api/agenda?from=2025-01-10&to=2025-01-17
// GET /api/agenda?date=2025-01-10      (single-day view)
//
// Without parameters the window is [today, today + horizon_days].
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now().In(s.loc)

	var rangeStart, rangeEnd time.Time
	switch {
	case q.Get("date") != "":
		day, err := time.ParseInLocation(dateLayout, q.Get("date"), s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date parameter")
			return
		}
		rangeStart = day
		rangeEnd = day.AddDate(0, 0, 1).Add(-time.Second)
	case q.Get("from") != "" || q.Get("to") != "":
		var err error
		rangeStart, err = time.ParseInLocation(dateLayout, q.Get("from"), s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from parameter")
			return
		}
		rangeEnd, err = time.ParseInLocation(dateLayout, q.Get("to"), s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to parameter")
			return
		}
		rangeEnd = rangeEnd.AddDate(0, 0, 1).Add(-time.Second)
	default:
		rangeStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
		rangeEnd = rangeStart.AddDate(0, 0, s.cfg.HorizonDays)
	}

	events, err := s.store.List()
	if err != nil {
		appLog.Error("api agenda: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	result, err := agenda.ExpandOccurrences(events, agenda.ExpandConfig{
		Location:   s.loc,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dtos := make([]occurrenceDTO, 0, len(result.Occurrences))
	for _, occ := range result.Occurrences {
		dtos = append(dtos, occurrenceDTO{
			EventID: occ.EventID,
			Title:   occ.Title,
			Status:  string(occ.Status),
			Start:   occ.Start.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, agendaResponse{
		Occurrences: dtos,
		TruncatedID: result.TruncatedEvents,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		Timezone:    s.loc.String(),
	})
}

type alertsResponse struct {
	Alerts []alerts.Alert `json:"alerts"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, alertsResponse{Alerts: s.alerts.List()})
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.alerts.Dismiss(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	appLog.Info("alert dismissed", "alert_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// assistantResponse is the reply to a conversation message.
type assistantResponse struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Draft   *draftDTO `json:"draft,omitempty"`
}

type draftDTO struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

func (s *Server) handleAssistantMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	party := r.PathValue("party")
	reply := s.session(party).Handle(req.Text, s.now().In(s.loc))

	resp := assistantResponse{Kind: string(reply.Kind), Message: reply.Message}
	if reply.Draft != nil {
		resp.Draft = &draftDTO{
			Title: reply.Draft.Title,
			Date:  reply.Draft.Date.Format(dateLayout),
			Time:  reply.Draft.Time,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAssistantConfirm promotes the pending draft to a confirmed event,
// optionally applying last-minute title/time edits from the confirmation
// card.
func (s *Server) handleAssistantConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Time  string `json:"time"`
	}
	// Body is optional; an empty or absent body means "confirm as-is".
	_ = json.NewDecoder(r.Body).Decode(&req)

	party := r.PathValue("party")
	sess := s.session(party)

	if req.Title != "" || req.Time != "" {
		if err := sess.Edit(req.Title, req.Time); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	draft, ok := sess.Confirm()
	if !ok {
		writeError(w, http.StatusConflict, "no pending draft")
		return
	}

	evt, err := s.store.Create(model.Event{
		Title:          draft.Title,
		Date:           draft.Date,
		Time:           draft.Time,
		Status:         model.StatusConfirmed,
		ProfessionalID: party,
		VisitorID:      "ai",
	})
	if err != nil {
		appLog.Error("assistant confirm: create failed", err, "party", party)
		writeError(w, http.StatusInternalServerError, "failed to save event")
		return
	}

	appLog.Info("assistant event confirmed", "party", party, "event_id", evt.ID, "title", evt.Title)
	writeJSON(w, http.StatusCreated, struct {
		Message string   `json:"message"`
		Event   eventDTO `json:"event"`
	}{
		Message: fmt.Sprintf("Agendado para %s.", evt.Time),
		Event:   toEventDTO(evt, s.loc),
	})
}

func (s *Server) handleAssistantCancel(w http.ResponseWriter, r *http.Request) {
	if !s.session(r.PathValue("party")).Cancel() {
		writeError(w, http.StatusConflict, "no pending draft")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Ok, descartado."})
}

func (s *Server) handleCalendarFeed(w http.ResponseWriter, _ *http.Request) {
	events, err := s.store.List()
	if err != nil {
		appLog.Error("calendar feed: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(agenda.BuildCalendar(events, s.loc)))
}
