package trip

import (
	"time"

	"backend-mytrips/internal/auth"
	"backend-mytrips/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type tripRequest struct {
	Name        string   `json:"name"`
	StartPoint  string   `json:"start_point"`
	EndPoint    string   `json:"end_point"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Equipment   []string `json:"equipment"`
	Description string   `json:"description"`
}

func (r tripRequest) toTrip() (Trip, error) {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return Trip{}, fiber.NewError(fiber.StatusBadRequest, "enter valid start and end dates")
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return Trip{}, fiber.NewError(fiber.StatusBadRequest, "enter valid start and end dates")
	}
	return Trip{
		Name:        r.Name,
		StartPoint:  r.StartPoint,
		EndPoint:    r.EndPoint,
		StartDate:   start,
		EndDate:     end,
		Category:    r.Category,
		Difficulty:  r.Difficulty,
		Equipment:   r.Equipment,
		Description: r.Description,
	}, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req tripRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		input, err := req.toTrip()
		if err != nil {
			return err
		}
		created, err := svc.Create(c.Context(), input, auth.SessionUserID(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		trips, err := svc.List(c.Context(), c.Query("q"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(trips)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(t)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req tripRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		fields, err := req.toTrip()
		if err != nil {
			return err
		}
		updated, err := svc.Update(c.Context(), c.Params("id"), auth.SessionUserID(c), fields)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), auth.SessionUserID(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/join", authMiddleware, func(c *fiber.Ctx) error {
		added, err := svc.Join(c.Context(), c.Params("id"), auth.SessionUserID(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		if !added {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Post("/:id/leave", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Leave(c.Context(), c.Params("id"), auth.SessionUserID(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/participants", func(c *fiber.Ctx) error {
		participants, err := svc.Participants(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(participants)
	})
}
