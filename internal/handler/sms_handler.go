package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/go-playground/validator/v10"
	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/service"
)

// SMSService is the dispatch surface the HTTP API drives.
type SMSService interface {
	Via(name string) *service.PendingMessage
	Providers() []string
	DefaultProvider() string
	FallbackProvider() string
	Balance(ctx context.Context, name string) (float64, error)
	DeliveryStatus(ctx context.Context, name, messageID string) (string, error)
}

type SMSHandler struct {
	service  SMSService
	validate *validator.Validate
}

func NewSMSHandler(service SMSService) (*SMSHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("sms service is required")
	}
	return &SMSHandler{service: service, validate: validator.New()}, nil
}

func RegisterSMSRoutes(router fiber.Router, service SMSService) error {
	h, err := NewSMSHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/sms", h.Send)
	v1.Post("/sms/queue", h.Queue)
	v1.Get("/providers", h.ListProviders)
	v1.Get("/providers/:name/balance", h.Balance)
	v1.Get("/providers/:name/messages/:id/status", h.DeliveryStatus)

	return nil
}

// to is a single address, a list of addresses or a list of
// {to, message, from, metadata} entries.
type sendRequest struct {
	To       any    `json:"to" validate:"required"`
	Message  string `json:"message"`
	From     string `json:"from"`
	Provider string `json:"provider" validate:"omitempty,max=64"`
	Fallback string `json:"fallback" validate:"omitempty,max=64"`
}

type queueRequest struct {
	To       any    `json:"to" validate:"required"`
	Message  string `json:"message"`
	From     string `json:"from"`
	Provider string `json:"provider" validate:"omitempty,max=64"`
	Queue    string `json:"queue" validate:"omitempty,max=255"`
}

type sendResponse struct {
	Provider  string            `json:"provider"`
	Responses []domain.Response `json:"responses"`
}

type queueResponse struct {
	Provider string   `json:"provider"`
	Queue    string   `json:"queue,omitempty"`
	JobIDs   []string `json:"jobIds"`
}

type providersResponse struct {
	Default   string   `json:"default"`
	Fallback  string   `json:"fallback,omitempty"`
	Providers []string `json:"providers"`
}

func (h *SMSHandler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	pending := h.service.Via(req.Provider).
		Fallback(req.Fallback).
		To(req.To).
		Message(req.Message).
		From(req.From)

	responses, err := pending.Send(requestContext(c))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(sendResponse{
		Provider:  pending.ProviderName(),
		Responses: responses,
	})
}

func (h *SMSHandler) Queue(c *fiber.Ctx) error {
	var req queueRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	pending := h.service.Via(req.Provider).To(req.To).Message(req.Message).From(req.From)
	jobIDs, err := pending.Queue(requestContext(c), req.Queue)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(queueResponse{
		Provider: pending.ProviderName(),
		Queue:    strings.TrimSpace(req.Queue),
		JobIDs:   jobIDs,
	})
}

func (h *SMSHandler) ListProviders(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(providersResponse{
		Default:   h.service.DefaultProvider(),
		Fallback:  h.service.FallbackProvider(),
		Providers: h.service.Providers(),
	})
}

func (h *SMSHandler) Balance(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	balance, err := h.service.Balance(c.UserContext(), name)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"provider": name,
		"balance":  balance,
	})
}

func (h *SMSHandler) DeliveryStatus(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Params("name"))
	messageID := strings.TrimSpace(c.Params("id"))
	status, err := h.service.DeliveryStatus(c.UserContext(), name, messageID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"provider":  name,
		"messageId": messageID,
		"status":    status,
	})
}

func (h *SMSHandler) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return toHTTPError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	return nil
}
