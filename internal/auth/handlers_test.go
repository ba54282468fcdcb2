package auth

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)
	return app
}

func TestRegisterHandler(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)
	app := newApp(svc)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "mihai@example.com", "Mihai", pgxmock.AnyArg(), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"email":"mihai@example.com","display_name":"Mihai","password":"hunter22"}`
	req := httptest.NewRequest("POST", "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var payload struct {
		User   User          `json:"user"`
		Tokens TokenResponse `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.User.Email != "mihai@example.com" || payload.Tokens.AccessToken == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRegisterHandlerInvalidPayload(t *testing.T) {
	app := newApp(NewService("secret", nil))

	req := httptest.NewRequest("POST", "/auth/register", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginHandlerMissingFields(t *testing.T) {
	app := newApp(NewService("secret", nil))

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)
	app := newApp(svc)

	mock.ExpectQuery(`SELECT id, email, display_name, password_hash, avatar_url`).
		WithArgs("mihai@example.com").
		WillReturnError(errQuery)

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":"mihai@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRefreshHandler(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)
	app := newApp(svc)

	token, err := svc.signToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", time.Now().Add(time.Hour)))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	req := httptest.NewRequest("POST", "/auth/refresh", strings.NewReader(`{"refresh_token":"`+token+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected fresh token pair")
	}
}

func TestMeHandler(t *testing.T) {
	mock := newMock(t)
	svc := NewService("secret", mock)
	app := newApp(svc)

	token, err := svc.signToken("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	mock.ExpectQuery(`SELECT id, email, display_name, avatar_url`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "avatar_url", "created_at", "updated_at"}).
			AddRow("user-1", "mihai@example.com", "Mihai", "", time.Now(), time.Now()))

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestMeHandlerNoToken(t *testing.T) {
	app := newApp(NewService("secret", nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/me", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
