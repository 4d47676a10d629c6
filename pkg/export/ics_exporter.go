package export

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one scheduled appointment rendered into an iCalendar feed.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders calendar events into an iCalendar document.
type ICSExporter struct {
	ProdID string
}

// NewICSExporter builds an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProdID: "-//exam-slot-api//schedule//EN"}
}

// Render produces an iCalendar document for the events.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProdID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, event := range events {
		if event.UID == "" {
			return nil, fmt.Errorf("ics event requires a uid")
		}
		entry := cal.AddEvent(event.UID)
		entry.SetDtStampTime(time.Now().UTC())
		entry.SetStartAt(event.Start)
		entry.SetEndAt(event.End)
		entry.SetSummary(event.Summary)
		if event.Description != "" {
			entry.SetDescription(event.Description)
		}
		if event.Location != "" {
			entry.SetLocation(event.Location)
		}
	}

	buf := &bytes.Buffer{}
	if err := cal.SerializeTo(buf); err != nil {
		return nil, fmt.Errorf("serialize ics: %w", err)
	}
	return buf.Bytes(), nil
}
