// Package assist converts one line of free-form scheduling text into a
// draft event, or into a conversational reply (clarification request or
// cancellation acknowledgment).
//
// Extraction is decomposed into three independently testable resolvers
// (ResolveCategory, ResolveDate, ResolveTime) composed by Interpret.
package assist

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"agendapro/internal/model"
)

// ReplyKind discriminates the assistant's possible responses.
type ReplyKind string

const (
	// ReplyClarify means the input was not understood; no draft produced.
	ReplyClarify ReplyKind = "CLARIFY"
	// ReplyCanceled acknowledges discarding the pending draft.
	ReplyCanceled ReplyKind = "CANCELED"
	// ReplyDraft carries a freshly extracted draft awaiting confirmation.
	ReplyDraft ReplyKind = "DRAFT"
)

// Reply is the assistant's answer to one utterance. Draft is non-nil only
// when Kind is ReplyDraft.
type Reply struct {
	Kind    ReplyKind    `json:"kind"`
	Message string       `json:"message"`
	Draft   *model.Draft `json:"draft,omitempty"`
}

// Parser holds the extraction defaults.
type Parser struct {
	// DefaultHour is assumed when the utterance carries no time signal.
	DefaultHour int
}

// Interpret runs the full extraction pipeline over one utterance.
//
// hasPending tells the parser whether a draft is currently awaiting
// confirmation: only then does a negative/cancel keyword short-circuit into
// a cancellation acknowledgment.
func (p Parser) Interpret(text string, hasPending bool, now time.Time) Reply {
	lower := strings.ToLower(text)

	if hasPending && (strings.Contains(lower, "cancelar") || strings.Contains(lower, "não")) {
		return Reply{Kind: ReplyCanceled, Message: "Cancelado."}
	}

	label, matched := ResolveCategory(lower)
	if !matched {
		if utf8.RuneCountInString(text) < 3 {
			return Reply{Kind: ReplyClarify, Message: "Não entendi. Tente 'Reunião dia 15'."}
		}
		label = model.CategoryCompromisso
	}

	date, dateFound := ResolveDate(lower, now)
	hour, minute, timeFound := ResolveTime(lower, p.DefaultHour)

	// Total absence of both signals defaults the draft to tomorrow.
	if !dateFound && !timeFound {
		date = dateOnly(now.AddDate(0, 0, 1))
	}

	draft := &model.Draft{
		Title: label,
		Date:  date,
		Time:  fmt.Sprintf("%02d:%02d", hour, minute),
	}
	return Reply{
		Kind:    ReplyDraft,
		Message: fmt.Sprintf("Entendi: %s. Verifique e confirme.", label),
		Draft:   draft,
	}
}

// Session is one assistant conversation. It owns the pending draft: created
// by Handle, mutated only by Edit, destroyed by Confirm or Cancel.
// Safe for concurrent use.
type Session struct {
	parser Parser

	mu      sync.Mutex
	pending *model.Draft
}

// NewSession creates a conversation with the given draft-hour default.
func NewSession(defaultHour int) *Session {
	return &Session{parser: Parser{DefaultHour: defaultHour}}
}

// Pending returns a copy of the draft awaiting confirmation, if any.
func (s *Session) Pending() (model.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return model.Draft{}, false
	}
	return *s.pending, true
}

// Handle interprets one utterance and updates the pending draft
// accordingly.
func (s *Session) Handle(text string, now time.Time) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.parser.Interpret(text, s.pending != nil, now)
	switch reply.Kind {
	case ReplyCanceled:
		s.pending = nil
	case ReplyDraft:
		draft := *reply.Draft
		s.pending = &draft
	}
	return reply
}

// Edit applies explicit user edits to the pending draft. Empty arguments
// leave the corresponding field untouched.
func (s *Session) Edit(title, clock string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return errors.New("no pending draft")
	}
	if title != "" {
		s.pending.Title = title
	}
	if clock != "" {
		if _, _, err := model.ParseClock(clock); err != nil {
			return err
		}
		s.pending.Time = clock
	}
	return nil
}

// Confirm promotes and clears the pending draft.
func (s *Session) Confirm() (model.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return model.Draft{}, false
	}
	draft := *s.pending
	s.pending = nil
	return draft, true
}

// Cancel discards the pending draft, reporting whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.pending != nil
	s.pending = nil
	return had
}
