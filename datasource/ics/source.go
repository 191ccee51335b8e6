// Package ics provides an iCalendar-backed event source: VEVENTs are parsed
// with go-ical and recurrence rules are expanded into concrete occurrences
// inside each requested date range.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/emersion/go-ical"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

const defaultMaxOccurrencesPerEvent = 5000

// Options configures a Source.
type Options struct {
	// Location is the timezone used to interpret floating and date-only
	// values. Nil means time.UTC.
	Location *time.Location
	// MaxOccurrencesPerEvent caps recurrence expansion per event as a guard
	// against pathological rules. Zero means a default of 5000.
	MaxOccurrencesPerEvent int
	// Logger receives parse diagnostics. Nil discards output.
	Logger *slog.Logger
}

// Source implements schedule.EventSource and schedule.AsyncEventSource over
// one or more loaded iCalendar streams.
type Source struct {
	mu     sync.RWMutex
	events []parsedEvent

	loc    *time.Location
	maxOcc int
	logger *slog.Logger
}

// New creates an empty Source; load calendars with AddCalendar, LoadReader
// or LoadFile.
func New(opts Options) *Source {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	maxOcc := opts.MaxOccurrencesPerEvent
	if maxOcc <= 0 {
		maxOcc = defaultMaxOccurrencesPerEvent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Source{loc: loc, maxOcc: maxOcc, logger: logger}
}

// AddCalendar parses the VEVENTs of an already decoded calendar into the
// source.
func (s *Source) AddCalendar(cal *ical.Calendar) error {
	events, err := parseCalendar(cal, s.loc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	s.logger.Debug("added calendar", "events", len(events))
	return nil
}

// LoadReader decodes every calendar object in the stream and adds its
// events.
func (s *Source) LoadReader(r io.Reader) error {
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode calendar: %w", err)
		}
		if err := s.AddCalendar(cal); err != nil {
			return err
		}
	}
}

// LoadFile loads an .ics file from disk.
func (s *Source) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open calendar file: %w", err)
	}
	defer f.Close()
	if err := s.LoadReader(f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// EventCount returns the number of parsed base events (before expansion).
func (s *Source) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Events expands the loaded events into the occurrences intersecting the
// half-open range [start, end), implementing schedule.EventSource.
func (s *Source) Events(ctx context.Context, start, end time.Time) ([]schedule.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	events := make([]parsedEvent, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	return expandEvents(events, start.In(s.loc), end.In(s.loc), s.maxOcc)
}

// ScheduleEvents performs the expansion on a fresh goroutine and delivers
// the result exactly once, implementing schedule.AsyncEventSource.
func (s *Source) ScheduleEvents(req *schedule.Request, deliver func(events []schedule.Event, err error)) {
	go func() {
		events, err := s.Events(context.Background(), req.Start, req.End)
		deliver(events, err)
	}()
}
