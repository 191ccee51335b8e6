package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// parsedEvent is the normalized form of one VEVENT, ready for expansion.
type parsedEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	RRule   string
	ExDates []time.Time
	RDates  []time.Time
}

// parseCalendar extracts the VEVENTs of one calendar. Events without a
// usable DTSTART are skipped; events without a UID get a generated one.
func parseCalendar(cal *ical.Calendar, loc *time.Location) ([]parsedEvent, error) {
	var out []parsedEvent
	for _, ev := range cal.Events() {
		start, err := ev.DateTimeStart(loc)
		if err != nil {
			continue
		}

		end, err := ev.DateTimeEnd(loc)
		if err != nil || end.Before(start) {
			// DATE-valued starts without DTEND span the whole day; timed
			// events default to an instantaneous occurrence.
			if isDateOnly(ev.Props.Get(ical.PropDateTimeStart)) {
				end = start.AddDate(0, 0, 1)
			} else {
				end = start
			}
		}

		uid, err := ev.Props.Text(ical.PropUID)
		if err != nil || uid == "" {
			uid = uuid.NewString()
		}
		summary, _ := ev.Props.Text(ical.PropSummary)

		pe := parsedEvent{
			UID:     uid,
			Summary: summary,
			Start:   start,
			End:     end,
		}
		if rruleProp := ev.Props.Get(ical.PropRecurrenceRule); rruleProp != nil {
			pe.RRule = rruleProp.Value
		}
		for _, prop := range ev.Props.Values(ical.PropExceptionDates) {
			dates, err := parseDateList(prop, start.Location())
			if err != nil {
				return nil, fmt.Errorf("parse EXDATE for %q: %w", uid, err)
			}
			pe.ExDates = append(pe.ExDates, dates...)
		}
		for _, prop := range ev.Props.Values(ical.PropRecurrenceDates) {
			dates, err := parseDateList(prop, start.Location())
			if err != nil {
				return nil, fmt.Errorf("parse RDATE for %q: %w", uid, err)
			}
			pe.RDates = append(pe.RDates, dates...)
		}

		out = append(out, pe)
	}
	return out, nil
}

func isDateOnly(prop *ical.Prop) bool {
	if prop == nil {
		return false
	}
	return strings.EqualFold(prop.Params.Get(ical.ParamValue), "DATE")
}

// parseDateList parses a comma-separated EXDATE/RDATE property value.
func parseDateList(prop ical.Prop, loc *time.Location) ([]time.Time, error) {
	var out []time.Time
	for _, raw := range strings.Split(prop.Value, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t, err := parseDateValue(raw, loc, isDateOnly(&prop))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseDateValue(raw string, loc *time.Location, dateOnly bool) (time.Time, error) {
	if dateOnly {
		return time.ParseInLocation("20060102", raw, loc)
	}
	if strings.HasSuffix(raw, "Z") {
		return time.Parse("20060102T150405Z", raw)
	}
	if t, err := time.ParseInLocation("20060102T150405", raw, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("20060102", raw, loc)
}
