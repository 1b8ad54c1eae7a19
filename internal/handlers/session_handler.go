package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/repository"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/services"
)

type SessionHandler struct {
	service scheduleApplicationService
}

type scheduleApplicationService interface {
	BookSession(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.Session, error)
	CheckAvailability(ctx context.Context, trainerID int64, requestedTime time.Time, durationMinutes int) (*models.Session, error)
	ListSessions(ctx context.Context, actorUserID int64, role string, filter repository.SessionListFilter) ([]models.Session, error)
	GetSession(ctx context.Context, actorUserID int64, role string, sessionID int64) (*models.Session, error)
	UpdateStatus(ctx context.Context, actorUserID int64, role string, sessionID int64, requestedStatus string) (*models.Session, error)
	DeleteSession(ctx context.Context, actorUserID int64, role string, sessionID int64) error
}

func NewSessionHandler(service *services.ScheduleService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	MemberID        int64   `json:"member_id"`
	BranchID        int64   `json:"branch_id"`
	SubscriptionID  *int64  `json:"subscription_id"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes int     `json:"duration_minutes"`
	Notes           *string `json:"notes"`
}

type updateSessionStatusRequest struct {
	Status string `json:"status"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "trainer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "notes must not be empty"})
	}

	session, err := h.service.BookSession(c.Context(), userID, services.BookSessionInput{
		MemberID:        req.MemberID,
		BranchID:        req.BranchID,
		SubscriptionID:  req.SubscriptionID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

// CheckAvailability backs the booking form's live validation: it answers
// whether a candidate slot is free and, if not, which session blocks it.
func (h *SessionHandler) CheckAvailability(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "trainer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	trainerID, err := strconv.ParseInt(c.Query("trainer_id"), 10, 64)
	if err != nil || trainerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "trainer_id is required"})
	}
	requestedTime, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("scheduled_at")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	durationMinutes, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || durationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}

	blocking, err := h.service.CheckAvailability(c.Context(), trainerID, requestedTime, durationMinutes)
	if err != nil {
		return mapScheduleError(c, err)
	}

	if blocking != nil {
		return c.JSON(fiber.Map{"available": false, "conflicting_session": blocking})
	}
	return c.JSON(fiber.Map{"available": true})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "trainer" && role != "member") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	sessions, err := h.service.ListSessions(c.Context(), userID, role, repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "trainer" && role != "member") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), userID, role, sessionID)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "trainer" && role != "member") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateStatus(c.Context(), userID, role, sessionID, req.Status)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "trainer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if err := h.service.DeleteSession(c.Context(), userID, role, sessionID); err != nil {
		return mapScheduleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	var (
		validationErr *scheduler.ValidationError
		conflictErr   *scheduler.ConflictError
		transitionErr *scheduler.TransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
	case errors.As(err, &conflictErr):
		body := fiber.Map{"error": conflictErr.Error()}
		if conflictErr.Blocking != nil {
			body["conflicting_session"] = conflictErr.Blocking
		}
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.As(err, &transitionErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": transitionErr.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrMemberNotEligible), errors.Is(err, services.ErrNoSessionBalance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process schedule request"})
	}
}

func parseActorUserID(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid user id")
	}
	return userID, nil
}
