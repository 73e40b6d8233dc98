// Package httpapi exposes the REST surface: authentication and the ban
// appeal ticket endpoint used by accounts that can no longer connect.
package httpapi

import (
	"errors"
	"log/slog"

	apperrors "chatnet/errors"
	"chatnet/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	log     *slog.Logger
	auth    services.IAuthService
	reports services.IReportService
}

func NewHandler(log *slog.Logger, auth services.IAuthService, reports services.IReportService) *Handler {
	return &Handler{log: log, auth: auth, reports: reports}
}

func (h *Handler) Register(app *fiber.App) {
	app.Post("/api/register", h.handleRegister)
	app.Post("/api/login", h.handleLogin)
	app.Post("/api/guest", h.handleGuest)
	app.Post("/api/tickets", h.handleTicket)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}

	token, err := h.auth.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidPassword):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		h.log.Error("Register failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"token": token})
}

func (h *Handler) handleLogin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}

	token, err := h.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, apperrors.ErrBanned):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case err != nil:
		h.log.Error("Login failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"token": token})
}

func (h *Handler) handleGuest(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}

	token, err := h.auth.Guest(req.Username)
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		h.log.Error("Guest login failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"token": token})
}

// handleTicket files a ban appeal. The endpoint is unauthenticated on
// purpose: a banned account cannot open a session to ask from inside.
func (h *Handler) handleTicket(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Message  string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	if req.Username == "" || req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username and message are required")
	}

	ticket, err := h.reports.SubmitTicket(req.Username, req.Message)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrNotBanned):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, apperrors.ErrTicketAlreadyOpen):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case err != nil:
		h.log.Error("Ticket submission failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"ticket_id": ticket.ID, "status": ticket.Status})
}
