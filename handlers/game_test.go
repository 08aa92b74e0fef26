package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"image-giveaway/assets"
	"image-giveaway/config"
	"image-giveaway/database"
	"image-giveaway/middleware"
	"image-giveaway/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/logger"
)

const (
	testToken = "gateway-secret"
	testAdmin = "admin-1"
)

type testServer struct {
	app   *fiber.App
	game  *services.GameService
	store *assets.FileStore
}

func newTestServer(t *testing.T, originals ...string) *testServer {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "giveaway.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := assets.NewFileStore(t.TempDir(), "img", "hidden_img")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	for i, ref := range originals {
		if err := assets.SaveImage(context.Background(), store, assets.Originals, ref, testImage(uint8(i*50))); err != nil {
			t.Fatalf("save %s: %v", ref, err)
		}
	}

	hub := services.NewEventHub()
	game := services.NewGameService(db, store, hub)

	app := fiber.New()
	app.Use(middleware.GatewayAuthMiddleware(testToken))
	SetupGameRoutes(app, NewGameHandler(game, hub), testAdmin)
	return &testServer{app: app, game: game, store: store}
}

func testImage(seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 6), B: seed, A: 255})
		}
	}
	return img
}

func (s *testServer) do(t *testing.T, method, path, userID string, body io.Reader, headers ...string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Name", "name-"+userID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func messageOf(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return payload.Message
}

func expect(t *testing.T, resp *http.Response, body []byte, status int, message string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d (%s)", status, resp.StatusCode, body)
	}
	if message != "" {
		if got := messageOf(t, body); got != message {
			t.Fatalf("expected message %q, got %q", message, got)
		}
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "POST", "/s/register", "u1", nil)
	expect(t, resp, body, fiber.StatusCreated, "Welcome, name-u1! You are in the game.")

	resp, body = s.do(t, "POST", "/s/register", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "You are already registered.")

	resp, body = s.do(t, "POST", "/s/register", "u2", nil, "Accept-Language", "ru-RU,ru;q=0.9")
	expect(t, resp, body, fiber.StatusCreated, "Добро пожаловать, name-u2! Ты в игре.")
}

func TestClaimFlow(t *testing.T) {
	s := newTestServer(t, "a.png")
	ctx := context.Background()
	if _, err := s.game.AdminSeedPrizes(ctx, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, body := s.do(t, "POST", "/s/prizes/1/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusForbidden, "Register first to take part.")

	s.do(t, "POST", "/s/register", "u1", nil)

	resp, body = s.do(t, "POST", "/s/prizes/1/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusConflict, "This prize has not been revealed yet.")

	resp, body = s.do(t, "POST", "/s/prizes/abc/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusBadRequest, "")

	resp, body = s.do(t, "POST", "/s/prizes/77/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusNotFound, "There is no such prize.")

	if _, err := s.game.RevealNext(ctx); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	resp, body = s.do(t, "POST", "/s/prizes/1/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "Congratulations, the prize is yours!")
	resp, body = s.do(t, "POST", "/s/prizes/1/claim", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "You already got this prize!")

	for _, u := range []string{"u2", "u3", "u4"} {
		s.do(t, "POST", "/s/register", u, nil)
		s.do(t, "POST", "/s/prizes/1/claim", u, nil)
	}
	resp, body = s.do(t, "POST", "/s/prizes/1/claim", "u4", nil)
	expect(t, resp, body, fiber.StatusOK, "Sorry, three users already took this prize.")

	resp, body = s.do(t, "GET", "/s/points", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "You have 5 points.")
}

func TestResendFlow(t *testing.T) {
	s := newTestServer(t, "a.png")
	ctx := context.Background()
	s.game.AdminSeedPrizes(ctx, nil)
	s.do(t, "POST", "/s/register", "u1", nil)

	resp, body := s.do(t, "POST", "/s/resend", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "There is no recent prize to resend yet.")

	s.game.RevealNext(ctx)
	resp, body = s.do(t, "POST", "/s/resend", "u1", nil)
	expect(t, resp, body, fiber.StatusPaymentRequired, "Not enough points: a resend costs 5.")

	s.do(t, "POST", "/s/prizes/1/claim", "u1", nil)
	resp, body = s.do(t, "POST", "/s/resend", "u1", nil)
	expect(t, resp, body, fiber.StatusAccepted, "Resend queued, your picture will arrive shortly.")

	resp, body = s.do(t, "GET", "/s/points", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "You have 0 points.")
}

func TestCollage(t *testing.T) {
	s := newTestServer(t, "a.png")
	s.do(t, "POST", "/s/register", "u1", nil)

	resp, body := s.do(t, "GET", "/s/collage", "u1", nil)
	expect(t, resp, body, fiber.StatusOK, "Nothing to show yet.")

	ctx := context.Background()
	s.game.AdminSeedPrizes(ctx, nil)
	s.game.RevealNext(ctx)

	resp, body = s.do(t, "GET", "/s/collage", "u1", nil)
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("expected a jpeg, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode collage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Fatalf("expected a single 40x40 tile, got %v", b)
	}
}

func TestRating(t *testing.T) {
	s := newTestServer(t, "a.png")

	resp, body := s.do(t, "GET", "/rating", "", nil)
	expect(t, resp, body, fiber.StatusOK, "Nobody has won anything yet.")

	ctx := context.Background()
	s.game.AdminSeedPrizes(ctx, nil)
	s.game.RevealNext(ctx)
	for _, u := range []string{"u1", "u2"} {
		s.do(t, "POST", "/s/register", u, nil)
		s.do(t, "POST", "/s/prizes/1/claim", u, nil)
	}

	resp, body = s.do(t, "GET", "/rating", "", nil)
	expect(t, resp, body, fiber.StatusOK, "1. name-u1: 1\n2. name-u2: 1")
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, "a.png", "b.png")

	resp, body := s.do(t, "POST", "/s/admin/prizes/seed", "u1", nil)
	expect(t, resp, body, fiber.StatusForbidden, "")

	resp, body = s.do(t, "POST", "/s/admin/prizes/seed", testAdmin, nil)
	expect(t, resp, body, fiber.StatusOK, "Seeded 2 new prize(s).")

	s.do(t, "POST", "/s/register", "u1", nil)
	resp, body = s.do(t, "POST", "/s/admin/reveal", testAdmin, nil)
	if resp.StatusCode != fiber.StatusOK || !strings.HasPrefix(messageOf(t, body), "Revealed prize") {
		t.Fatalf("expected a reveal, got %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, "POST", "/s/admin/prizes/seed", testAdmin,
		strings.NewReader(`{"image_refs":["a.png","extra.png"]}`), "Content-Type", "application/json")
	expect(t, resp, body, fiber.StatusOK, "Seeded 1 new prize(s).")
}

func TestAdminUpload(t *testing.T) {
	s := newTestServer(t)

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("image", "Cute Cat.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if err := png.Encode(part, testImage(9)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	mw.Close()

	resp, body := s.do(t, "POST", "/s/admin/prizes/upload", testAdmin, buf, "Content-Type", mw.FormDataContentType())
	expect(t, resp, body, fiber.StatusCreated, "Uploaded cute-cat.png.")

	if _, err := assets.LoadImage(context.Background(), s.store, assets.Originals, "cute-cat.png"); err != nil {
		t.Fatalf("expected upload in originals: %v", err)
	}

	resp, body = s.do(t, "POST", "/s/admin/prizes/upload", testAdmin, nil)
	expect(t, resp, body, fiber.StatusBadRequest, "")
}
