package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) List(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.UserContext())
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, accounts, "")
}

func (h *AccountHandler) Show(c *fiber.Ctx) error {
	account, err := h.s.Get(c.UserContext(), c.Params("account"))
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, account, "")
}

func (h *AccountHandler) Update(c *fiber.Ctx) error {
	var req transfer.AccountUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.s.Update(c.UserContext(), c.Params("account"), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, account, "Account updated successfully")
}

func (h *AccountHandler) Destroy(c *fiber.Ctx) error {
	if err := h.s.Delete(c.UserContext(), c.Params("account")); err != nil {
		return err
	}
	return message(c, "Account deleted successfully")
}
