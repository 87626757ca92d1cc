/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Reminder offsets set on pushed task blocks.
var reminderMinutes = []int64{60, 15}

const taskIDProperty = "observatoryTaskId"

// GoogleConfig holds the OAuth client and the refresh token of the account.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string

	// RequestsPerSecond throttles API calls; zero means 5.
	RequestsPerSecond float64
}

// GoogleProvider reads and writes a Google calendar.
type GoogleProvider struct {
	service    *gcal.Service
	calendarID string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewGoogleProvider builds a provider that refreshes its access token from
// the configured refresh token.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, logger zerolog.Logger) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("google calendar: client id, client secret and refresh token are required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewGoogleProviderWithService(service, cfg.CalendarID, cfg.RequestsPerSecond, logger), nil
}

// NewGoogleProviderWithService wraps an existing calendar service.
func NewGoogleProviderWithService(service *gcal.Service, calendarID string, rps float64, logger zerolog.Logger) *GoogleProvider {
	if calendarID == "" {
		calendarID = "primary"
	}
	if rps <= 0 {
		rps = 5
	}
	return &GoogleProvider{
		service:    service,
		calendarID: calendarID,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		logger:     logging.Component(logger, "google_calendar"),
	}
}

// Name identifies the source in logs and metrics.
func (g *GoogleProvider) Name() string {
	return "google"
}

// ListEvents returns expanded single events in [from, to), including
// cancelled ones so a sync can mark them. Blocks pushed for tasks are left
// out; the task row already accounts for that time.
func (g *GoogleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Event, error) {
	var out []scheduling.Event

	pageToken := ""
	for {
		// Every page is a separate request, so each one waits its turn.
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := g.service.Events.List(g.calendarID).
			ShowDeleted(true).
			SingleEvents(true).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			OrderBy("startTime").
			MaxResults(250)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list google events: %w", err)
		}

		for _, item := range page.Items {
			if isTaskBlock(item) {
				continue
			}
			ev, ok := toSchedulingEvent(item)
			if !ok {
				g.logger.Debug().Str("event_id", item.Id).Msg("skipping event without usable times")
				continue
			}
			out = append(out, ev)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	g.logger.Debug().Int("count", len(out)).Str("calendar_id", g.calendarID).Msg("fetched events")
	return out, nil
}

// UpsertTaskEvent creates or updates the calendar block for a task and
// returns its event id.
func (g *GoogleProvider) UpsertTaskEvent(ctx context.Context, ev TaskEvent) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body := taskEventBody(ev)

	if ev.ExternalID != "" {
		updated, err := g.service.Events.Patch(g.calendarID, ev.ExternalID, body).Context(ctx).Do()
		if err == nil {
			return updated.Id, nil
		}
		if !isGone(err) {
			return "", fmt.Errorf("update google event %s: %w", ev.ExternalID, err)
		}
		g.logger.Info().Str("event_id", ev.ExternalID).Msg("task event gone upstream, recreating")
	}

	created, err := g.service.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create google event: %w", err)
	}
	return created.Id, nil
}

func taskEventBody(ev TaskEvent) *gcal.Event {
	overrides := make([]*gcal.EventReminder, 0, len(reminderMinutes))
	for _, m := range reminderMinutes {
		overrides = append(overrides, &gcal.EventReminder{Method: "popup", Minutes: m})
	}

	return &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: ev.TaskID},
		},
	}
}

// isTaskBlock reports whether item was pushed by UpsertTaskEvent.
func isTaskBlock(item *gcal.Event) bool {
	if item == nil || item.ExtendedProperties == nil {
		return false
	}
	return item.ExtendedProperties.Private[taskIDProperty] != ""
}

// toSchedulingEvent converts a Google event. All-day events carry a date
// instead of a date-time.
func toSchedulingEvent(item *gcal.Event) (scheduling.Event, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return scheduling.Event{}, false
	}

	ev := scheduling.Event{
		ID:        item.Id,
		Title:     item.Summary,
		Cancelled: item.Status == "cancelled",
	}

	if item.Start.Date != "" {
		loc := time.UTC
		if item.Start.TimeZone != "" {
			if l, err := time.LoadLocation(item.Start.TimeZone); err == nil {
				loc = l
			}
		}
		start, err := time.ParseInLocation(scheduling.DateLayout, item.Start.Date, loc)
		if err != nil {
			return scheduling.Event{}, false
		}
		end, err := time.ParseInLocation(scheduling.DateLayout, item.End.Date, loc)
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
		ev.Start, ev.End, ev.AllDay = start, end, true
		return ev, true
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return scheduling.Event{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return scheduling.Event{}, false
	}
	ev.Start, ev.End = start, end
	return ev, true
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
