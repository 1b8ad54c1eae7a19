package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/services"
)

type MemberHandler struct {
	service eligibleMemberLister
}

type eligibleMemberLister interface {
	ListEligibleMembers(ctx context.Context) ([]models.Member, error)
}

func NewMemberHandler(service *services.ScheduleService) *MemberHandler {
	return &MemberHandler{service: service}
}

// ListEligibleMembers feeds the booking form's member picker. Members whose
// qualifying balance is zero are not in the response at all.
func (h *MemberHandler) ListEligibleMembers(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "trainer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	members, err := h.service.ListEligibleMembers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list members"})
	}

	return c.JSON(fiber.Map{"members": members})
}
