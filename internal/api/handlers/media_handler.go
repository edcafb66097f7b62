package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
)

type MediaHandler struct {
	s          service.MediaService
	pagination config.Pagination
}

func NewMediaHandler(service service.MediaService, pagination config.Pagination) *MediaHandler {
	return &MediaHandler{s: service, pagination: pagination}
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	page, perPage := pageParams(c, h.pagination)

	media, total, err := h.s.List(c.UserContext(), c.Query("search"), toRepoPage(page, perPage))
	if err != nil {
		return err
	}
	return c.JSON(paginate(c, media, total, page, perPage))
}

func (h *MediaHandler) Show(c *fiber.Ctx) error {
	media, err := h.s.Get(c.UserContext(), c.Params("media"))
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, media, "")
}

func (h *MediaHandler) Store(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errs.NewValidationError("file", "The file field is required.")
	}

	media, err := h.s.Upload(c.UserContext(), file)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusCreated, media, "Media uploaded successfully")
}

func (h *MediaHandler) Download(c *fiber.Ctx) error {
	var req transfer.MediaDownload
	if err := bind(c, &req); err != nil {
		return err
	}

	media, err := h.s.Download(c.UserContext(), req.URL)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusCreated, media, "Media downloaded successfully")
}

func (h *MediaHandler) Destroy(c *fiber.Ctx) error {
	if err := h.s.Delete(c.UserContext(), c.Params("media")); err != nil {
		return err
	}
	return message(c, "Media deleted successfully")
}

func (h *MediaHandler) BulkDestroy(c *fiber.Ctx) error {
	var req transfer.MediaBulkDelete
	if err := bind(c, &req); err != nil {
		return err
	}

	deleted, err := h.s.BulkDelete(c.UserContext(), req.Media)
	if err != nil {
		return err
	}
	return message(c, fmt.Sprintf("%d media files deleted successfully", deleted))
}
