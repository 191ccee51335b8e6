// Package svg renders a resolved day layout to SVG. Events are drawn side
// by side inside their overlap cluster: each holder occupies the horizontal
// slice position/conflictCount..(position+1)/conflictCount of the column.
package svg

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/CommanderPho/ScheduleKit/schedule"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"

	defaultWidth      = 400
	defaultRowHeight  = 60 // pixels per hour
	hourLabelGutter   = 48
	eventFill         = "#4a90d9"
	eventStroke       = "#2b5e94"
	gridStroke        = "#d0d0d0"
	labelFontSize     = 11
	hourLabelFontSize = 10
)

var (
	// ErrEmptyDayWindow is returned when DayEnd is not after DayStart.
	ErrEmptyDayWindow = errors.New("day window is empty")
	// ErrUnresolvedHolder is returned when a holder has no layout yet; run
	// conflict resolution before rendering.
	ErrUnresolvedHolder = errors.New("cannot render an unresolved event holder")
)

// Options controls the rendered geometry.
type Options struct {
	// DayStart and DayEnd delimit the rendered window [DayStart, DayEnd).
	DayStart time.Time
	DayEnd   time.Time
	// Width is the total image width in pixels. Zero means 400.
	Width int
	// HourHeight is the vertical size of one hour in pixels. Zero means 60.
	HourHeight int
}

// Render builds an SVG document for the given resolved holders. Holders
// entirely outside the day window are skipped; holders partially outside are
// clipped to it. Output is deterministic for a given input order.
func Render(holders []*schedule.EventHolder, opts Options) (*etree.Document, error) {
	if !opts.DayEnd.After(opts.DayStart) {
		return nil, ErrEmptyDayWindow
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	hourHeight := opts.HourHeight
	if hourHeight <= 0 {
		hourHeight = defaultRowHeight
	}

	window := opts.DayEnd.Sub(opts.DayStart)
	height := int(window.Hours() * float64(hourHeight))
	columnWidth := float64(width - hourLabelGutter)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", svgNamespace)
	root.CreateAttr("width", strconv.Itoa(width))
	root.CreateAttr("height", strconv.Itoa(height))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %d %d", width, height))

	drawHourGrid(root, opts.DayStart, opts.DayEnd, width, hourHeight)

	for _, h := range holders {
		if err := drawHolder(root, h, opts.DayStart, opts.DayEnd, columnWidth, float64(height)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func drawHourGrid(root *etree.Element, dayStart, dayEnd time.Time, width, hourHeight int) {
	grid := root.CreateElement("g")
	grid.CreateAttr("class", "hour-grid")

	y := 0
	for t := dayStart; t.Before(dayEnd); t = t.Add(time.Hour) {
		line := grid.CreateElement("line")
		line.CreateAttr("x1", strconv.Itoa(hourLabelGutter))
		line.CreateAttr("y1", strconv.Itoa(y))
		line.CreateAttr("x2", strconv.Itoa(width))
		line.CreateAttr("y2", strconv.Itoa(y))
		line.CreateAttr("stroke", gridStroke)

		label := grid.CreateElement("text")
		label.CreateAttr("x", "4")
		label.CreateAttr("y", strconv.Itoa(y+hourLabelFontSize))
		label.CreateAttr("font-size", strconv.Itoa(hourLabelFontSize))
		label.SetText(t.Format("15:04"))

		y += hourHeight
	}
}

func drawHolder(root *etree.Element, h *schedule.EventHolder, dayStart, dayEnd time.Time, columnWidth, height float64) error {
	position, err := h.Position()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnresolvedHolder, h.Event().UID())
	}
	count, err := h.ConflictCount()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnresolvedHolder, h.Event().UID())
	}

	start, end := h.StartDate(), h.EndDate()
	if !schedule.Overlaps(start, end, dayStart, dayEnd) {
		return nil
	}
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}

	window := dayEnd.Sub(dayStart).Seconds()
	y := start.Sub(dayStart).Seconds() / window * height
	rectHeight := end.Sub(start).Seconds() / window * height
	slotWidth := columnWidth / float64(count)
	x := float64(hourLabelGutter) + slotWidth*float64(position)

	group := root.CreateElement("g")
	group.CreateAttr("class", "event")
	group.CreateAttr("data-uid", h.Event().UID())

	rect := group.CreateElement("rect")
	rect.CreateAttr("x", formatCoord(x))
	rect.CreateAttr("y", formatCoord(y))
	rect.CreateAttr("width", formatCoord(slotWidth))
	rect.CreateAttr("height", formatCoord(rectHeight))
	rect.CreateAttr("fill", eventFill)
	rect.CreateAttr("stroke", eventStroke)

	label := group.CreateElement("text")
	label.CreateAttr("x", formatCoord(x+2))
	label.CreateAttr("y", formatCoord(y+labelFontSize))
	label.CreateAttr("font-size", strconv.Itoa(labelFontSize))
	label.SetText(h.Event().Title())
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
