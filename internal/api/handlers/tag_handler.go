package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
)

type TagHandler struct {
	s service.TagService
}

func NewTagHandler(service service.TagService) *TagHandler {
	return &TagHandler{s: service}
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.s.List(c.UserContext())
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, tags, "")
}

func (h *TagHandler) Store(c *fiber.Ctx) error {
	var req transfer.TagCreation
	if err := bind(c, &req); err != nil {
		return err
	}

	tag, err := h.s.Create(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusCreated, tag, "Tag created successfully")
}

func (h *TagHandler) Update(c *fiber.Ctx) error {
	var req transfer.TagUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	tag, err := h.s.Update(c.UserContext(), c.Params("tag"), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, tag, "Tag updated successfully")
}

func (h *TagHandler) Destroy(c *fiber.Ctx) error {
	if err := h.s.Delete(c.UserContext(), c.Params("tag")); err != nil {
		return err
	}
	return message(c, "Tag deleted successfully")
}
