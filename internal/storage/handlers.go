package storage

import (
	"context"
	"time"

	"backend-mytrips/internal/auth"
	"backend-mytrips/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Photo struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) SavePhoto(ctx context.Context, tripID, userID, url, kind string) (Photo, error) {
	if kind == "" {
		kind = "photo"
	}
	photo := Photo{
		ID:     uuid.NewString(),
		TripID: tripID,
		UserID: userID,
		URL:    url,
		Kind:   kind,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_photos (id, trip_id, user_id, url, kind)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, photo.ID, photo.TripID, photo.UserID, photo.URL, photo.Kind)
	if err := row.Scan(&photo.CreatedAt); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

func (s *Service) Photos(ctx context.Context, tripID string) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, url, kind, created_at
		FROM trip_photos WHERE trip_id=$1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.URL, &p.Kind, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/trips/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			FileName string `json:"file_name"`
			Kind     string `json:"kind"`
		}
		_ = c.BodyParser(&body)
		if body.FileName == "" {
			body.FileName = "upload"
		}
		url := "https://storage.example/" + body.FileName
		photo, err := svc.SavePhoto(c.Context(), c.Params("id"), auth.SessionUserID(c), url, body.Kind)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/trips/:id/photos", func(c *fiber.Ctx) error {
		photos, err := svc.Photos(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(photos)
	})
}
