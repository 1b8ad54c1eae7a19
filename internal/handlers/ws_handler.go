package handlers

import (
	"context"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/repository"
	schedws "github.com/phandinhthai012/stagpower-gym-client-sub001/internal/websocket"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/pkg/utils"
)

// WSHandler upgrades authenticated clients onto the schedule push stream.
type WSHandler struct {
	hub         *schedws.Hub
	memberRepo  *repository.MemberRepository
	trainerRepo *repository.TrainerRepository
	jwtSecret   string
}

func NewWSHandler(
	hub *schedws.Hub,
	memberRepo *repository.MemberRepository,
	trainerRepo *repository.TrainerRepository,
	jwtSecret string,
) *WSHandler {
	return &WSHandler{
		hub:         hub,
		memberRepo:  memberRepo,
		trainerRepo: trainerRepo,
		jwtSecret:   jwtSecret,
	}
}

// WebSocketAuth authenticates the upgrade request. Browsers cannot set
// headers on websocket dials, so the token is also accepted as a query
// parameter.
func (h *WSHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		parts := strings.Split(c.Get("Authorization"), " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	claims, err := utils.ValidateToken(token, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	actorKey, err := h.resolveActorKey(c.Context(), claims.UserID, claims.Role)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unknown actor"})
	}

	c.Locals("actor_key", actorKey)
	return c.Next()
}

func (h *WSHandler) HandleWebSocket(conn *websocket.Conn) {
	actorKey, _ := conn.Locals("actor_key").(string)
	client := schedws.NewClient(h.hub, conn, actorKey)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *WSHandler) resolveActorKey(ctx context.Context, rawUserID, role string) (string, error) {
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil {
		return "", err
	}
	switch role {
	case "trainer":
		trainer, err := h.trainerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return "", err
		}
		return schedws.ActorKey("trainer", trainer.ID), nil
	case "member":
		member, err := h.memberRepo.GetByUserID(ctx, userID)
		if err != nil {
			return "", err
		}
		return schedws.ActorKey("member", member.ID), nil
	default:
		return "", fiber.ErrForbidden
	}
}
