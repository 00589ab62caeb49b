// Package export renders planner state into downloadable files.
//
// Every writer is a pure function of its inputs: nothing here touches
// sessions, the network or the file system.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/klabast/wb-services/garden-planner/internal/schedule"
)

// ICS defaults
const (
	ICSProductID = "-//Garden Planner//Task Calendar//EN"
	ICSDomain    = "garden-planner.local"
)

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://"+ICSDomain+"/tasks"))

// CalendarInfo describes the calendar wrapping the events
type CalendarInfo struct {
	Name string
	// Stamp is written as DTSTAMP; zero means now
	Stamp time.Time
}

// WriteICS writes events as all-day VEVENTs, one per occurrence.
// UIDs are derived from the event position, title and date so repeated
// exports of the same plan produce the same UIDs.
func WriteICS(w io.Writer, events []schedule.Event, info CalendarInfo) error {
	stamp := info.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	stamp = stamp.UTC()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ICSProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	if info.Name != "" {
		cal.Props.SetText("X-WR-CALNAME", info.Name)
	}

	for i, ev := range events {
		start := time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 0, 0, 0, 0, time.UTC)

		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, eventUID(i, ev))
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		vevent.Props.SetDate(ical.PropDateTimeStart, start)
		vevent.Props.SetDate(ical.PropDateTimeEnd, start.AddDate(0, 0, 1))
		vevent.Props.SetText(ical.PropSummary, ev.Title)
		if ev.Description != "" {
			vevent.Props.SetText(ical.PropDescription, ev.Description)
		}
		if ev.Kind != "" {
			vevent.Props.SetText(ical.PropCategories, string(ev.Kind))
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func eventUID(i int, ev schedule.Event) string {
	key := fmt.Sprintf("%d|%s|%s", i, ev.Title, ev.Start.Format("20060102"))
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@" + ICSDomain
}
