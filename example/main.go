// Command example wires the scheduling core end to end: a populated event
// source, an event manager with a logging delegate, one reload cycle, and an
// SVG rendering of the resolved layout written to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/CommanderPho/ScheduleKit/config"
	"github.com/CommanderPho/ScheduleKit/datasource/ics"
	"github.com/CommanderPho/ScheduleKit/datasource/memory"
	"github.com/CommanderPho/ScheduleKit/render/svg"
	"github.com/CommanderPho/ScheduleKit/schedule"
)

type printingView struct{}

func (printingView) ReloadLayout() {
	fmt.Fprintln(os.Stderr, "view: layout invalidated, redrawing")
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	now := time.Now().In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayStart := day.Add(time.Duration(cfg.DayStartHour) * time.Hour)
	dayEnd := day.Add(time.Duration(cfg.DayEndHour) * time.Hour)

	source, err := buildSource(cfg, loc, day)
	if err != nil {
		logger.Error("failed to build event source", "error", err)
		os.Exit(1)
	}

	manager := schedule.NewEventManager(schedule.Options{
		Source:                    source,
		LoadsEventsAsynchronously: cfg.AsynchronousReloads,
		Start:                     day,
		End:                       day.AddDate(0, 0, 1),
		Logger:                    logger,
	})
	defer manager.Close()

	manager.SetView(printingView{})
	manager.SetDelegate(&schedule.Delegate{
		EventSelected: func(e schedule.Event) {
			fmt.Fprintf(os.Stderr, "delegate: selected %q\n", e.Title())
		},
		ShouldChangeEventLength: func(e schedule.Event, from, to time.Duration) bool {
			// Example policy: no event may shrink below 15 minutes.
			return to >= 15*time.Minute
		},
	})

	if err := manager.ReloadData(context.Background()); err != nil {
		logger.Error("reload failed", "error", err)
		os.Exit(1)
	}
	if cfg.AsynchronousReloads {
		// Give the source's delivery goroutine a moment; a real host would
		// redraw from the view callback instead.
		time.Sleep(200 * time.Millisecond)
	}

	holders := manager.Holders()
	for _, h := range holders {
		position, others, err := manager.PositionInConflict(h)
		if err != nil {
			logger.Error("position query failed", "error", err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s [%s - %s] position %d among %d\n",
			h.Event().Title(),
			h.StartDate().Format("15:04"),
			h.EndDate().Format("15:04"),
			position, len(others)+1)
	}

	doc, err := svg.Render(holders, svg.Options{
		DayStart:   dayStart,
		DayEnd:     dayEnd,
		Width:      cfg.Render.Width,
		HourHeight: cfg.Render.HourHeight,
	})
	if err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
	doc.Indent(2)
	if _, err := doc.WriteTo(os.Stdout); err != nil {
		logger.Error("write failed", "error", err)
		os.Exit(1)
	}
}

// buildSource loads the configured ICS files, or falls back to an in-memory
// sample day when none are configured.
func buildSource(cfg *config.Config, loc *time.Location, day time.Time) (schedule.EventSource, error) {
	if len(cfg.ICS) > 0 {
		source := ics.New(ics.Options{Location: loc})
		for _, src := range cfg.ICS {
			if err := source.LoadFile(src.Path); err != nil {
				return nil, err
			}
		}
		return source, nil
	}

	store := memory.New()
	store.Put(schedule.NewStaticEvent("Standup", day.Add(9*time.Hour), day.Add(9*time.Hour+30*time.Minute)))
	store.Put(schedule.NewStaticEvent("Design review", day.Add(9*time.Hour+15*time.Minute), day.Add(10*time.Hour+30*time.Minute)))
	store.Put(schedule.NewStaticEvent("1:1", day.Add(10*time.Hour), day.Add(11*time.Hour)))
	store.Put(schedule.NewStaticEvent("Lunch", day.Add(13*time.Hour), day.Add(14*time.Hour)))
	return store, nil
}
