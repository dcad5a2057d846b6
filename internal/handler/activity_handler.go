package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/textify/internal/domain"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityQuerier reads the send audit trail.
type ActivityQuerier interface {
	Activities(ctx context.Context, filter domain.ActivityFilter, limit int) ([]domain.Activity, error)
	Stats(ctx context.Context, filter domain.ActivityFilter) (domain.ActivityStats, error)
}

type ActivityHandler struct {
	activities ActivityQuerier
}

func RegisterActivityRoutes(router fiber.Router, activities ActivityQuerier) error {
	if activities == nil {
		return fmt.Errorf("activity querier is required")
	}
	h := &ActivityHandler{activities: activities}

	v1 := router.Group("/v1")
	v1.Get("/activities", h.ListActivities)
	v1.Get("/activities/stats", h.Stats)

	return nil
}

type activityResponse struct {
	ID           string         `json:"id"`
	MessageID    string         `json:"messageId"`
	Provider     string         `json:"provider"`
	To           string         `json:"to"`
	From         string         `json:"from,omitempty"`
	Message      string         `json:"message"`
	Status       string         `json:"status"`
	Success      *bool          `json:"success,omitempty"`
	ErrorCode    string         `json:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Cost         *float64       `json:"cost,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	SentAt       *time.Time     `json:"sentAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type listActivitiesResponse struct {
	Data []activityResponse `json:"data"`
	Meta activityListMeta   `json:"meta"`
}

type activityListMeta struct {
	Limit int `json:"limit"`
	Count int `json:"count"`
}

func (h *ActivityHandler) ListActivities(c *fiber.Ctx) error {
	filter, err := parseActivityFilter(c)
	if err != nil {
		return toHTTPError(err)
	}

	limit := c.QueryInt("limit", defaultActivityLimit)
	if limit < 1 || limit > maxActivityLimit {
		return toHTTPError(fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, maxActivityLimit))
	}

	activities, err := h.activities.Activities(c.UserContext(), filter, limit)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		data = append(data, toActivityResponse(a))
	}

	return c.Status(fiber.StatusOK).JSON(listActivitiesResponse{
		Data: data,
		Meta: activityListMeta{Limit: limit, Count: len(data)},
	})
}

func (h *ActivityHandler) Stats(c *fiber.Ctx) error {
	filter, err := parseActivityFilter(c)
	if err != nil {
		return toHTTPError(err)
	}

	stats, err := h.activities.Stats(c.UserContext(), filter)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

func parseActivityFilter(c *fiber.Ctx) (domain.ActivityFilter, error) {
	filter := domain.ActivityFilter{
		Provider: strings.ToLower(strings.TrimSpace(c.Query("provider"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}

	if raw := strings.TrimSpace(c.Query("success")); raw != "" {
		success, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ActivityFilter{}, fmt.Errorf("%w: success must be a boolean", domain.ErrValidation)
		}
		filter.Success = &success
	}

	since, err := parseRFC3339Query(c.Query("since"), "since")
	if err != nil {
		return domain.ActivityFilter{}, err
	}
	until, err := parseRFC3339Query(c.Query("until"), "until")
	if err != nil {
		return domain.ActivityFilter{}, err
	}
	filter.Since = since
	filter.Until = until

	return filter, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func toActivityResponse(a domain.Activity) activityResponse {
	return activityResponse{
		ID:           a.ID,
		MessageID:    a.MessageID,
		Provider:     a.Provider,
		To:           a.To,
		From:         a.From,
		Message:      a.Message,
		Status:       a.Status,
		Success:      a.Success,
		ErrorCode:    a.ErrorCode,
		ErrorMessage: a.ErrorMessage,
		Cost:         a.Cost,
		Metadata:     a.Metadata,
		SentAt:       a.SentAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
