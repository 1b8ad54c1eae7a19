package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/repository"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/scheduler"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/services"
)

type stubScheduleService struct {
	bookFn         func(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.Session, error)
	availabilityFn func(ctx context.Context, trainerID int64, requestedTime time.Time, durationMinutes int) (*models.Session, error)
	listFn         func(ctx context.Context, actorUserID int64, role string, filter repository.SessionListFilter) ([]models.Session, error)
	getFn          func(ctx context.Context, actorUserID int64, role string, sessionID int64) (*models.Session, error)
	updateFn       func(ctx context.Context, actorUserID int64, role string, sessionID int64, requestedStatus string) (*models.Session, error)
	deleteFn       func(ctx context.Context, actorUserID int64, role string, sessionID int64) error
}

func (s *stubScheduleService) BookSession(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.Session, error) {
	return s.bookFn(ctx, actorUserID, input)
}

func (s *stubScheduleService) CheckAvailability(ctx context.Context, trainerID int64, requestedTime time.Time, durationMinutes int) (*models.Session, error) {
	return s.availabilityFn(ctx, trainerID, requestedTime, durationMinutes)
}

func (s *stubScheduleService) ListSessions(ctx context.Context, actorUserID int64, role string, filter repository.SessionListFilter) ([]models.Session, error) {
	return s.listFn(ctx, actorUserID, role, filter)
}

func (s *stubScheduleService) GetSession(ctx context.Context, actorUserID int64, role string, sessionID int64) (*models.Session, error) {
	return s.getFn(ctx, actorUserID, role, sessionID)
}

func (s *stubScheduleService) UpdateStatus(ctx context.Context, actorUserID int64, role string, sessionID int64, requestedStatus string) (*models.Session, error) {
	return s.updateFn(ctx, actorUserID, role, sessionID, requestedStatus)
}

func (s *stubScheduleService) DeleteSession(ctx context.Context, actorUserID int64, role string, sessionID int64) error {
	return s.deleteFn(ctx, actorUserID, role, sessionID)
}

func newSessionTestApp(service scheduleApplicationService, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})

	handler := &SessionHandler{service: service}
	app.Post("/api/v1/sessions/book", handler.BookSession)
	app.Get("/api/v1/sessions/availability", handler.CheckAvailability)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)
	app.Delete("/api/v1/sessions/:id", handler.DeleteSession)
	return app
}

func handlerSession(id int64, status models.SessionStatus, start time.Time) *models.Session {
	return &models.Session{
		ID:              id,
		Member:          models.RefByID[models.Member](1),
		Trainer:         models.RefByID[models.Trainer](7),
		Branch:          models.RefByID[models.Branch](1),
		ScheduledAt:     start,
		DurationMinutes: 60,
		Status:          status,
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestBookSessionCreated(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	service := &stubScheduleService{
		bookFn: func(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.Session, error) {
			if actorUserID != 42 {
				t.Fatalf("expected actor 42, got %d", actorUserID)
			}
			if input.MemberID != 1 || input.DurationMinutes != 60 {
				t.Fatalf("unexpected input: %+v", input)
			}
			return handlerSession(31, models.SessionPending, input.ScheduledAt), nil
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	payload, _ := json.Marshal(map[string]interface{}{
		"member_id":        1,
		"branch_id":        1,
		"scheduled_at":     start.Format(time.RFC3339),
		"duration_minutes": 60,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if _, ok := body["session"]; !ok {
		t.Fatal("expected a session in the response")
	}
}

func TestBookSessionRejectsNonTrainer(t *testing.T) {
	service := &stubScheduleService{}
	app := newSessionTestApp(service, "42", "member")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookSessionRejectsBadTimestamp(t *testing.T) {
	service := &stubScheduleService{}
	app := newSessionTestApp(service, "42", "trainer")

	payload, _ := json.Marshal(map[string]interface{}{
		"member_id":        1,
		"branch_id":        1,
		"scheduled_at":     "next tuesday",
		"duration_minutes": 60,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookSessionConflictReturns409WithBlockingSession(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	service := &stubScheduleService{
		bookFn: func(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.Session, error) {
			return nil, &scheduler.ConflictError{Blocking: handlerSession(11, models.SessionConfirmed, start)}
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	payload, _ := json.Marshal(map[string]interface{}{
		"member_id":        1,
		"branch_id":        1,
		"scheduled_at":     start.Add(30 * time.Minute).Format(time.RFC3339),
		"duration_minutes": 30,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if _, ok := body["conflicting_session"]; !ok {
		t.Fatal("expected the blocking session in the conflict response")
	}
}

func TestCheckAvailabilityReportsBlockingSession(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	service := &stubScheduleService{
		availabilityFn: func(ctx context.Context, trainerID int64, requestedTime time.Time, durationMinutes int) (*models.Session, error) {
			return handlerSession(11, models.SessionConfirmed, start), nil
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	target := "/api/v1/sessions/availability?trainer_id=7&scheduled_at=" + start.Format(time.RFC3339) + "&duration_minutes=60"
	req := httptest.NewRequest(http.MethodGet, target, nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if available, ok := body["available"].(bool); !ok || available {
		t.Fatalf("expected available=false, got %v", body["available"])
	}
	if _, ok := body["conflicting_session"]; !ok {
		t.Fatal("expected the blocking session in the response")
	}
}

func TestUpdateStatusIllegalTransitionReturns422(t *testing.T) {
	service := &stubScheduleService{
		updateFn: func(ctx context.Context, actorUserID int64, role string, sessionID int64, requestedStatus string) (*models.Session, error) {
			return nil, &scheduler.TransitionError{From: models.SessionCompleted, Requested: scheduler.TransitionCancel}
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	payload, _ := json.Marshal(map[string]string{"status": "cancelled"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/5/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusMemberCancelForbiddenForOtherTransitions(t *testing.T) {
	service := &stubScheduleService{
		updateFn: func(ctx context.Context, actorUserID int64, role string, sessionID int64, requestedStatus string) (*models.Session, error) {
			return nil, services.ErrForbidden
		},
	}
	app := newSessionTestApp(service, "42", "member")

	payload, _ := json.Marshal(map[string]string{"status": "confirmed"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/5/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	service := &stubScheduleService{
		getFn: func(ctx context.Context, actorUserID int64, role string, sessionID int64) (*models.Session, error) {
			return nil, pgx.ErrNoRows
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/404", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListSessionsRejectsUnknownTimeframe(t *testing.T) {
	service := &stubScheduleService{}
	app := newSessionTestApp(service, "42", "trainer")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?timeframe=yesterday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteSessionNoContent(t *testing.T) {
	var gotSessionID int64
	service := &stubScheduleService{
		deleteFn: func(ctx context.Context, actorUserID int64, role string, sessionID int64) error {
			gotSessionID = sessionID
			return nil
		},
	}
	app := newSessionTestApp(service, "42", "trainer")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if gotSessionID != 5 {
		t.Fatalf("expected delete for session 5, got %d", gotSessionID)
	}
}

func TestDeleteSessionForbiddenForMembers(t *testing.T) {
	service := &stubScheduleService{}
	app := newSessionTestApp(service, "42", "member")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
