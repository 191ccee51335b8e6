package ics

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

// Occurrence is one concrete event instance inside a requested range. It
// implements schedule.Event; recurrence instances carry a UID derived from
// the base UID and the occurrence start.
type Occurrence struct {
	uid   string
	title string
	start time.Time
	end   time.Time
}

func (o Occurrence) UID() string          { return o.uid }
func (o Occurrence) Title() string        { return o.title }
func (o Occurrence) StartDate() time.Time { return o.start }
func (o Occurrence) EndDate() time.Time   { return o.end }

// expandEvents turns parsed events into occurrences intersecting the
// half-open range [rangeStart, rangeEnd), sorted by start then UID.
func expandEvents(events []parsedEvent, rangeStart, rangeEnd time.Time, maxPerEvent int) ([]schedule.Event, error) {
	var out []schedule.Event
	for _, pe := range events {
		occ, err := expandEvent(pe, rangeStart, rangeEnd, maxPerEvent)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate().Equal(out[j].StartDate()) {
			return out[i].StartDate().Before(out[j].StartDate())
		}
		return out[i].UID() < out[j].UID()
	})
	return out, nil
}

func expandEvent(pe parsedEvent, rangeStart, rangeEnd time.Time, maxPerEvent int) ([]schedule.Event, error) {
	if pe.RRule == "" && len(pe.RDates) == 0 {
		if !schedule.Overlaps(pe.Start, pe.End, rangeStart, rangeEnd) {
			return nil, nil
		}
		return []schedule.Event{Occurrence{uid: pe.UID, title: pe.Summary, start: pe.Start, end: pe.End}}, nil
	}

	duration := pe.End.Sub(pe.Start)
	starts, err := occurrenceStarts(pe, rangeStart, rangeEnd, duration, maxPerEvent)
	if err != nil {
		return nil, err
	}

	out := make([]schedule.Event, 0, len(starts))
	for _, occStart := range starts {
		occEnd := occStart.Add(duration)
		if !schedule.Overlaps(occStart, occEnd, rangeStart, rangeEnd) {
			continue
		}
		out = append(out, Occurrence{
			uid:   pe.UID + "/" + occStart.UTC().Format(time.RFC3339),
			title: pe.Summary,
			start: occStart,
			end:   occEnd,
		})
	}
	return out, nil
}

// occurrenceStarts computes the recurrence starts touching the range,
// honoring EXDATE and RDATE and capped at maxPerEvent against pathological
// rules.
func occurrenceStarts(pe parsedEvent, rangeStart, rangeEnd time.Time, duration time.Duration, maxPerEvent int) ([]time.Time, error) {
	var set rrule.Set
	if pe.RRule != "" {
		r, err := rrule.StrToRRule(pe.RRule)
		if err != nil {
			return nil, fmt.Errorf("parse RRULE %q for %q: %w", pe.RRule, pe.UID, err)
		}
		r.DTStart(pe.Start)
		set.RRule(r)
	} else {
		// RDATE-only recurrence: the base start is still an occurrence.
		set.RDate(pe.Start)
	}
	for _, rd := range pe.RDates {
		set.RDate(rd.In(pe.Start.Location()))
	}
	for _, ex := range pe.ExDates {
		set.ExDate(ex.In(pe.Start.Location()))
	}

	// Query from rangeStart-duration so occurrences that start before the
	// range but still reach into it are not missed. Between is inclusive on
	// both ends here; the overlap filter upstream trims the edges.
	loc := pe.Start.Location()
	queryStart := rangeStart.Add(-duration).In(loc)
	queryEnd := rangeEnd.In(loc)
	starts := set.Between(queryStart, queryEnd, true)
	if maxPerEvent > 0 && len(starts) > maxPerEvent {
		starts = starts[:maxPerEvent]
	}
	return starts, nil
}
