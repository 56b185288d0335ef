package scheduler

import (
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/models"
	"github.com/aura-hr/portal/pkg/response"
)

// ICSProductID identifies the portal in exported calendars.
const ICSProductID = "-//Aura HR//Portal Events//EN"

// FeedEvent is one entry of the calendar widget feed.
type FeedEvent struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Type      models.EventType `json:"type"`
	Receivers int              `json:"receivers"`
}

// Feed handles GET /events/feed, the JSON source of the calendar widget. It reads
// the backend directly and leaves the page state alone.
func (h *Handler) Feed(c *gin.Context) {
	events, err := h.controller(c).Events(c.Request.Context())
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			_ = c.Error(err)
			return
		}
		h.logger.Warn("feed events", zap.Error(err))
		response.BadGateway(c, apiclient.Message(err, fetchEventsFailed))
		return
	}
	out := make([]FeedEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, FeedEvent{
			ID:        ev.ID,
			Title:     ev.Title,
			Start:     ev.Start,
			End:       ev.End,
			Type:      ev.Type,
			Receivers: len(ev.Receivers),
		})
	}
	response.OK(c, out)
}

// Calendar handles GET /events/calendar.ics.
func (h *Handler) Calendar(c *gin.Context) {
	events, err := h.controller(c).Events(c.Request.Context())
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			_ = c.Error(err)
			return
		}
		h.logger.Warn("export events", zap.Error(err))
		c.String(http.StatusBadGateway, apiclient.Message(err, fetchEventsFailed))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(BuildCalendar(events, time.Now())))
}

// BuildCalendar renders events as an iCalendar document stamped at now.
func BuildCalendar(events []models.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ICSProductID)
	cal.SetXWRCalName("Events")

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@portal")
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(ev.Start.UTC())
		ve.SetEndAt(ev.End.UTC())
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Type != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Type))
		}
		if ev.Type == models.EventPrivate {
			ve.SetProperty(ical.ComponentPropertyClass, "PRIVATE")
		}
		for _, r := range ev.Receivers {
			if r.Email != "" {
				ve.AddAttendee(r.Email)
			}
		}
	}
	return cal.Serialize()
}
