package chat

import (
	"backend-mytrips/internal/auth"
	"backend-mytrips/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/trips/:tripID", authMiddleware, func(c *fiber.Ctx) error {
		chatID, err := svc.CreateThread(c.Context(), c.Params("tripID"), auth.SessionUserID(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chat_id": chatID})
	})

	r.Post("/:id/messages", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		msg, posted, err := svc.PostMessage(c.Context(), c.Params("id"), auth.SessionUserID(c), body.Text)
		if err != nil {
			return apperr.ToFiber(err)
		}
		if !posted {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	r.Get("/:id/messages", authMiddleware, func(c *fiber.Ctx) error {
		viewer := auth.SessionUserID(c)
		ok, err := svc.CanView(c.Context(), c.Params("id"), viewer)
		if err != nil {
			return apperr.ToFiber(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "join the trip to read its chat")
		}
		messages, err := svc.Messages(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(messages)
	})

	r.Get("/:id/participants", authMiddleware, func(c *fiber.Ctx) error {
		participants, err := svc.Participants(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(participants)
	})
}
