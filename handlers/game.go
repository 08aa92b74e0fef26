// handlers/game.go
package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"image-giveaway/assets"
	"image-giveaway/middleware"
	"image-giveaway/services"

	"github.com/gofiber/fiber/v2"
)

type GameHandler struct {
	Game *services.GameService
	Hub  *services.EventHub
}

func NewGameHandler(game *services.GameService, hub *services.EventHub) *GameHandler {
	return &GameHandler{Game: game, Hub: hub}
}

func SetupGameRoutes(app *fiber.App, h *GameHandler, adminUserID string) {
	// 🔓 Public routes: gateway auth only, no user context
	app.Get("/rating", h.Rating)

	// 🔐 Player routes
	secured := app.Group("/s", middleware.UserContextMiddleware())
	secured.Post("/register", h.Register)
	secured.Post("/prizes/:id/claim", h.Claim)
	secured.Post("/resend", h.Resend)
	secured.Get("/points", h.Points)
	secured.Get("/collage", h.Collage)
	secured.Get("/events", h.Events)

	// 🛠 Admin routes
	admin := secured.Group("/admin", middleware.AdminOnly(adminUserID))
	admin.Post("/prizes/seed", h.SeedPrizes)
	admin.Post("/prizes/upload", h.UploadPrize)
	admin.Post("/reveal", h.Reveal)
}

func (h *GameHandler) Register(c *fiber.Ctx) error {
	name := middleware.DisplayName(c)
	created, err := h.Game.RegisterUser(c.UserContext(), middleware.UserID(c), name)
	if err != nil {
		return internalError(c, "register", err)
	}
	if !created {
		return reply(c, fiber.StatusOK, msgAlreadyRegistered)
	}
	return reply(c, fiber.StatusCreated, msgWelcome, name)
}

func (h *GameHandler) Claim(c *fiber.Ctx) error {
	prizeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return reply(c, fiber.StatusBadRequest, msgPrizeNotFound)
	}

	outcome, err := h.Game.ClaimPrize(c.UserContext(), middleware.UserID(c), uint(prizeID))
	switch {
	case errors.Is(err, services.ErrUserNotRegistered):
		return reply(c, fiber.StatusForbidden, msgRegisterFirst)
	case errors.Is(err, services.ErrPrizeNotFound):
		return reply(c, fiber.StatusNotFound, msgPrizeNotFound)
	case errors.Is(err, services.ErrPrizeNotRevealed):
		return reply(c, fiber.StatusConflict, msgPrizeNotRevealed)
	case err != nil:
		return internalError(c, "claim", err)
	}

	switch outcome {
	case services.ClaimWon:
		return reply(c, fiber.StatusOK, msgWon)
	case services.ClaimAlreadyWon:
		return reply(c, fiber.StatusOK, msgAlreadyWon)
	default:
		return reply(c, fiber.StatusOK, msgExhausted)
	}
}

func (h *GameHandler) Resend(c *fiber.Ctx) error {
	outcome, err := h.Game.RequestResend(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return internalError(c, "resend", err)
	}
	switch outcome {
	case services.ResendEnqueued:
		return reply(c, fiber.StatusAccepted, msgResendQueued)
	case services.ResendNoRecentPrize:
		return reply(c, fiber.StatusOK, msgResendNoPrize)
	default:
		return reply(c, fiber.StatusPaymentRequired, msgResendNoPoints, services.ResendCost)
	}
}

func (h *GameHandler) Points(c *fiber.Ctx) error {
	points, err := h.Game.GetPoints(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return internalError(c, "points", err)
	}
	return reply(c, fiber.StatusOK, msgPoints, points)
}

func (h *GameHandler) Collage(c *fiber.Ctx) error {
	img, err := h.Game.GetProgressCollage(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return internalError(c, "collage", err)
	}
	if img == nil {
		return reply(c, fiber.StatusOK, msgNoCollage)
	}

	data, err := assets.EncodeJPEG(img)
	if err != nil {
		return internalError(c, "collage encode", err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

func (h *GameHandler) Rating(c *fiber.Ctx) error {
	rating, err := h.Game.GetRating(c.UserContext())
	if err != nil {
		return internalError(c, "rating", err)
	}
	if len(rating) == 0 {
		return reply(c, fiber.StatusOK, msgNoWinners)
	}

	p := printer(c)
	lines := make([]string, len(rating))
	for i, entry := range rating {
		lines[i] = p.Sprintf(msgRatingLine, i+1, entry.DisplayName, entry.WinCount)
	}
	return c.JSON(fiber.Map{
		"message": strings.Join(lines, "\n"),
		"rating":  rating,
	})
}

type seedRequest struct {
	ImageRefs []string `json:"image_refs"`
}

func (h *GameHandler) SeedPrizes(c *fiber.Ctx) error {
	var req seedRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	n, err := h.Game.AdminSeedPrizes(c.UserContext(), req.ImageRefs)
	if err != nil {
		return internalError(c, "seed", err)
	}
	log.Printf("[Admin] seeded %d prize(s)", n)
	return reply(c, fiber.StatusOK, msgSeeded, n)
}

func (h *GameHandler) UploadPrize(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart field 'image' is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return internalError(c, "upload open", err)
	}
	defer f.Close()

	ref, err := h.Game.UploadPrize(c.UserContext(), fh.Filename, f)
	if err != nil {
		log.Printf("[Admin] upload of %s rejected: %v", fh.Filename, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is not a supported image"})
	}
	return reply(c, fiber.StatusCreated, msgUploaded, ref)
}

func (h *GameHandler) Reveal(c *fiber.Ctx) error {
	result, err := h.Game.RevealNext(c.UserContext())
	if err != nil {
		return internalError(c, "reveal", err)
	}
	switch result.Outcome {
	case services.RevealPublished:
		return reply(c, fiber.StatusOK, msgRevealed, result.PrizeID, result.Recipients)
	case services.RevealSkipped:
		return reply(c, fiber.StatusConflict, msgRevealBusy)
	default:
		return reply(c, fiber.StatusOK, msgNoUnusedPrize)
	}
}

func internalError(c *fiber.Ctx, op string, err error) error {
	log.Printf("❌ [%s] %s failed: %v", c.Path(), op, err)
	return reply(c, fiber.StatusInternalServerError, msgInternalError)
}
