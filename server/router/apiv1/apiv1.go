// Package apiv1 exposes the reminder command surface over HTTP. The host
// command layer binds chat commands to these routes.
package apiv1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	errcode "github.com/hearthbot/remindd/internal/errors"
	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/service/reminder"
	"github.com/hearthbot/remindd/store"
)

// APIV1Service wires the reminder service into the HTTP surface.
type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Service   *reminder.Service
	Paginator *reminder.Paginator
	Metrics   *observability.Metrics
}

// NewAPIV1Service creates the v1 API surface.
func NewAPIV1Service(p *profile.Profile, st *store.Store, svc *reminder.Service, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:   p,
		Store:     st,
		Service:   svc,
		Paginator: reminder.NewPaginator(p.PaginatorTimeout),
		Metrics:   metrics,
	}
}

// RegisterRoutes attaches every v1 route to the echo server.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.health)

	apiV1 := echoServer.Group("/api/v1")
	apiV1.POST("/reminders", s.createReminder)
	apiV1.DELETE("/reminders/:id", s.cancelReminder)
	apiV1.GET("/owners/:owner/reminders", s.listReminders)
	apiV1.POST("/pages/:session/next", s.nextPage)
	apiV1.POST("/pages/:session/prev", s.prevPage)
	apiV1.PUT("/owners/:owner/timezone", s.setTimezone)
}

type reminderView struct {
	ID       int32  `json:"id"`
	UID      string `json:"uid"`
	Body     string `json:"body"`
	Due      string `json:"due"`
	DueLocal string `json:"due_local"`
	Cadence  string `json:"cadence,omitempty"`
}

func (s *APIV1Service) viewOf(r *store.Reminder) *reminderView {
	return &reminderView{
		ID:       r.ID,
		UID:      r.UID,
		Body:     r.Body,
		Due:      time.Unix(r.DueTs, 0).UTC().Format(time.RFC3339),
		DueLocal: s.Service.FormatDue(r),
		Cadence:  string(r.Cadence),
	}
}

type createReminderRequest struct {
	OwnerID         int64  `json:"owner_id"`
	Phrase          string `json:"phrase"`
	Body            string `json:"body"`
	OriginChannelID *int64 `json:"origin_channel_id,omitempty"`
}

type createReminderResponse struct {
	Reminder *reminderView `json:"reminder"`
	Reply    string        `json:"reply"`
}

func (s *APIV1Service) createReminder(c echo.Context) error {
	request := &createReminderRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.OwnerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_id is required")
	}

	rc := observability.NewRequestContext(slog.Default(), "remind", request.OwnerID)
	created, err := s.Service.Create(c.Request().Context(), &reminder.CreateRequest{
		OwnerID:         request.OwnerID,
		Phrase:          request.Phrase,
		Body:            request.Body,
		OriginChannelID: request.OriginChannelID,
	})
	if err != nil {
		rc.Warn("command rejected",
			slog.String(observability.LogFieldErrorCode, string(errcode.CodeOf(err))),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		)
		return replyError(err)
	}
	rc.Info("command handled",
		slog.String(observability.LogFieldReminderID, created.UID),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
	)

	return c.JSON(http.StatusOK, &createReminderResponse{
		Reminder: s.viewOf(created),
		Reply:    "✅ Reminder set for " + humanize.Time(time.Unix(created.DueTs, 0)),
	})
}

func (s *APIV1Service) cancelReminder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reminder id")
	}
	ownerID, err := strconv.ParseInt(c.QueryParam("owner_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_id is required")
	}

	rc := observability.NewRequestContext(slog.Default(), "cancel-reminder", ownerID)
	cancelled, err := s.Service.Cancel(c.Request().Context(), ownerID, int32(id))
	if err != nil {
		rc.Error("command failed", err, slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		return replyError(err)
	}
	rc.Info("command handled", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	if !cancelled {
		return c.JSON(http.StatusNotFound, map[string]any{
			"cancelled": false,
			"reply":     "❌ No such active reminder",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"cancelled": true,
		"reply":     "✅ Reminder cancelled",
	})
}

type pageResponse struct {
	SessionID string          `json:"session_id"`
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
	Reminders []*reminderView `json:"reminders"`
}

func (s *APIV1Service) pageView(page *reminder.Page) *pageResponse {
	views := make([]*reminderView, 0, len(page.Items))
	for _, item := range page.Items {
		views = append(views, s.viewOf(item))
	}
	return &pageResponse{
		SessionID: page.SessionID,
		Page:      page.Index,
		PageCount: page.PageCount,
		Reminders: views,
	}
}

func (s *APIV1Service) listReminders(c echo.Context) error {
	ownerID, err := strconv.ParseInt(c.Param("owner"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner id")
	}

	list, err := s.Service.List(c.Request().Context(), ownerID)
	if err != nil {
		return replyError(err)
	}
	return c.JSON(http.StatusOK, s.pageView(s.Paginator.Open(ownerID, list)))
}

func (s *APIV1Service) nextPage(c echo.Context) error {
	return s.turnPage(c, s.Paginator.Next)
}

func (s *APIV1Service) prevPage(c echo.Context) error {
	return s.turnPage(c, s.Paginator.Prev)
}

func (s *APIV1Service) turnPage(c echo.Context, turn func(string, int64) (*reminder.Page, error)) error {
	ownerID, err := strconv.ParseInt(c.QueryParam("owner_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_id is required")
	}

	page, err := turn(c.Param("session"), ownerID)
	if err != nil {
		return replyError(err)
	}
	return c.JSON(http.StatusOK, s.pageView(page))
}

type setTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (s *APIV1Service) setTimezone(c echo.Context) error {
	ownerID, err := strconv.ParseInt(c.Param("owner"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner id")
	}
	request := &setTimezoneRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	rc := observability.NewRequestContext(slog.Default(), "timezone", ownerID)
	zone, err := s.Service.SetTimezone(c.Request().Context(), ownerID, request.Timezone)
	if err != nil {
		rc.Warn("command rejected",
			slog.String(observability.LogFieldErrorCode, string(errcode.CodeOf(err))),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		)
		return replyError(err)
	}
	rc.Info("command handled", slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return c.JSON(http.StatusOK, map[string]any{
		"timezone": zone.Name,
		"reply":    "✅ Timezone set to " + zone.Name,
	})
}

func (s *APIV1Service) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.Profile.Version,
		"metrics": s.Metrics.GetSnapshot(),
	})
}
