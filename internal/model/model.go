package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the scheduling state of an event.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusConfirmed   Status = "CONFIRMED"
	StatusCanceled    Status = "CANCELED"
	StatusRescheduled Status = "RESCHEDULED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCanceled, StatusRescheduled:
		return true
	}
	return false
}

// Category labels form a fixed vocabulary; free text is classified into one
// of these by the assistant, with CategoryCompromisso as the generic fallback.
const (
	CategoryReuniao     = "REUNIÃO"
	CategoryMedico      = "MÉDICO"
	CategoryDentista    = "DENTISTA"
	CategoryAdvogado    = "ADVOGADO"
	CategoryConsulta    = "CONSULTA"
	CategoryOrcamento   = "ORÇAMENTO"
	CategoryProjeto     = "PROJETO"
	CategoryVisita      = "VISITA"
	CategoryAlmoco      = "ALMOÇO"
	CategoryJantar      = "JANTAR"
	CategoryAcademia    = "ACADEMIA"
	CategoryCompromisso = "COMPROMISSO"
)

// Event is a scheduled appointment between a professional and a visitor.
//
// Date carries only the calendar day; the wall-clock time of day lives in
// Time as an "HH:MM" 24-hour string. The two are combined into an absolute
// instant exclusively through StartAt so that reminder and agenda logic
// never disagree about when an event happens.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	Date time.Time `json:"date"`
	Time string    `json:"time"`

	Status Status `json:"status"`

	ProfessionalID string `json:"professional_id"`
	VisitorID      string `json:"visitor_id"`

	// RRule is an optional iCalendar recurrence rule (e.g. "FREQ=WEEKLY").
	// When set, Date+Time describe the first occurrence.
	RRule string `json:"rrule,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Draft is an unconfirmed event proposal produced by the assistant. It holds
// only the fields the user is asked to verify; ID, status and party IDs are
// assigned when the draft is promoted to a real Event.
type Draft struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Time  string    `json:"time"`
}

// Occurrence is one concrete instance of an event inside a queried time
// range, after recurrence expansion.
type Occurrence struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	Status  Status    `json:"status"`
	Start   time.Time `json:"start"`
}

// ParseClock parses an "HH:MM" 24-hour wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock string %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock string %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock string %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour, minute, nil
}

// StartAt combines the event's calendar day with its parsed Time field into
// a single absolute instant in loc. The hour/minute components of Date are
// deliberately discarded: Time is authoritative for the time of day.
func (e Event) StartAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, errors.New("nil location")
	}
	h, m, err := ParseClock(e.Time)
	if err != nil {
		return time.Time{}, err
	}
	d := e.Date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}
