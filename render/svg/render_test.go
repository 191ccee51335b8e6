package svg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

func dayWindow() (time.Time, time.Time) {
	day := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	return day, day.Add(10 * time.Hour) // 08:00-18:00
}

func resolvedHolders(t *testing.T, spans ...schedule.MockSpan) []*schedule.EventHolder {
	t.Helper()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	events := schedule.NewMockEvents(day, spans...)
	holders := make([]*schedule.EventHolder, 0, len(events))
	for _, e := range events {
		holders = append(holders, schedule.NewEventHolder(e))
	}
	schedule.ResolveConflicts(holders)
	return holders
}

func TestRenderConflictingEventsShareColumn(t *testing.T) {
	holders := resolvedHolders(t,
		schedule.MockSpan{Title: "A", Start: 9 * time.Hour, End: 10 * time.Hour},
		schedule.MockSpan{Title: "B", Start: 9*time.Hour + 30*time.Minute, End: 10*time.Hour + 30*time.Minute},
		schedule.MockSpan{Title: "C", Start: 11 * time.Hour, End: 12 * time.Hour},
	)

	dayStart, dayEnd := dayWindow()
	doc, err := Render(holders, Options{DayStart: dayStart, DayEnd: dayEnd, Width: 448, HourHeight: 60})
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "svg", root.Tag)

	groups := root.FindElements("./g[@class='event']")
	require.Len(t, groups, 3)

	rectByUID := map[string]map[string]string{}
	for _, g := range groups {
		rect := g.SelectElement("rect")
		require.NotNil(t, rect)
		attrs := map[string]string{}
		for _, a := range rect.Attr {
			attrs[a.Key] = a.Value
		}
		rectByUID[g.SelectAttrValue("data-uid", "")] = attrs
	}

	// 448px wide minus the 48px gutter leaves a 400px column; the A/B pair
	// splits it into two 200px slots, C takes the full width.
	assert.Equal(t, "200.0", rectByUID["uid-A"]["width"])
	assert.Equal(t, "200.0", rectByUID["uid-B"]["width"])
	assert.Equal(t, "400.0", rectByUID["uid-C"]["width"])
	assert.Equal(t, "48.0", rectByUID["uid-A"]["x"])
	assert.Equal(t, "248.0", rectByUID["uid-B"]["x"])
	assert.Equal(t, "48.0", rectByUID["uid-C"]["x"])

	// 60px per hour: A starts one hour into the window, C three hours in.
	assert.Equal(t, "60.0", rectByUID["uid-A"]["y"])
	assert.Equal(t, "60.0", rectByUID["uid-A"]["height"])
	assert.Equal(t, "180.0", rectByUID["uid-C"]["y"])
}

func TestRenderSkipsAndClipsOutOfWindowEvents(t *testing.T) {
	holders := resolvedHolders(t,
		schedule.MockSpan{Title: "night", Start: 2 * time.Hour, End: 3 * time.Hour},
		schedule.MockSpan{Title: "spill", Start: 17 * time.Hour, End: 20 * time.Hour},
	)

	dayStart, dayEnd := dayWindow()
	doc, err := Render(holders, Options{DayStart: dayStart, DayEnd: dayEnd, Width: 448, HourHeight: 60})
	require.NoError(t, err)

	groups := doc.Root().FindElements("./g[@class='event']")
	require.Len(t, groups, 1)
	assert.Equal(t, "uid-spill", groups[0].SelectAttrValue("data-uid", ""))

	rect := groups[0].SelectElement("rect")
	// Clipped at 18:00: one hour of the three survives.
	assert.Equal(t, "540.0", rect.SelectAttrValue("y", ""))
	assert.Equal(t, "60.0", rect.SelectAttrValue("height", ""))
}

func TestRenderUnresolvedHolderFails(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	holder := schedule.NewEventHolder(schedule.NewStaticEvent("pending",
		day.Add(9*time.Hour), day.Add(10*time.Hour)))

	dayStart, dayEnd := dayWindow()
	_, err := Render([]*schedule.EventHolder{holder}, Options{DayStart: dayStart, DayEnd: dayEnd})
	assert.ErrorIs(t, err, ErrUnresolvedHolder)
}

func TestRenderEmptyWindowFails(t *testing.T) {
	now := time.Now()
	_, err := Render(nil, Options{DayStart: now, DayEnd: now})
	assert.ErrorIs(t, err, ErrEmptyDayWindow)
}

func TestRenderDeterministic(t *testing.T) {
	holders := resolvedHolders(t,
		schedule.MockSpan{Title: "A", Start: 9 * time.Hour, End: 10 * time.Hour},
		schedule.MockSpan{Title: "B", Start: 9*time.Hour + 15*time.Minute, End: 11 * time.Hour},
	)
	dayStart, dayEnd := dayWindow()
	opts := Options{DayStart: dayStart, DayEnd: dayEnd}

	first, err := Render(holders, opts)
	require.NoError(t, err)
	second, err := Render(holders, opts)
	require.NoError(t, err)

	firstStr, err := first.WriteToString()
	require.NoError(t, err)
	secondStr, err := second.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, firstStr, secondStr)
}
