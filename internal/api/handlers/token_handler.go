package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mixpost-api/internal/api/middleware"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
)

type TokenHandler struct {
	s service.TokenService
}

func NewTokenHandler(service service.TokenService) *TokenHandler {
	return &TokenHandler{s: service}
}

func (h *TokenHandler) Create(c *fiber.Ctx) error {
	var req transfer.TokenCreation
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.s.Create(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "API token created successfully",
		"data":    token,
	})
}

func (h *TokenHandler) List(c *fiber.Ctx) error {
	current := middleware.CurrentToken(c)

	tokens, err := h.s.List(c.UserContext(), current.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tokens,
	})
}

func (h *TokenHandler) Destroy(c *fiber.Ctx) error {
	current := middleware.CurrentToken(c)

	tokenID, err := c.ParamsInt("id")
	if err != nil || tokenID <= 0 {
		return errs.NewNotFoundError("Token not found")
	}

	if err := h.s.Revoke(c.UserContext(), current.UserID, int64(tokenID)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token deleted successfully",
	})
}

func (h *TokenHandler) DestroyCurrent(c *fiber.Ctx) error {
	if err := h.s.RevokeCurrent(c.UserContext(), middleware.CurrentToken(c)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Current token revoked successfully",
	})
}
