package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/maheshrc27/mixpost-api/internal/validation"
)

type PostHandler struct {
	s          service.PostService
	pagination config.Pagination
}

func NewPostHandler(service service.PostService, pagination config.Pagination) *PostHandler {
	return &PostHandler{s: service, pagination: pagination}
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	q := transfer.PostListQuery{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	}

	var err error
	if q.Accounts, err = queryIDs(c, "accounts"); err != nil {
		return err
	}
	if q.Tags, err = queryIDs(c, "tags"); err != nil {
		return err
	}
	if err := validation.Struct(&q); err != nil {
		return err
	}

	page, perPage := pageParams(c, h.pagination)
	posts, total, err := h.s.List(c.UserContext(), &q, toRepoPage(page, perPage))
	if err != nil {
		return err
	}

	return c.JSON(paginate(c, posts, total, page, perPage))
}

func (h *PostHandler) Show(c *fiber.Ctx) error {
	post, err := h.s.Get(c.UserContext(), c.Params("post"))
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, post, "")
}

func (h *PostHandler) Store(c *fiber.Ctx) error {
	var req transfer.PostInput
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.s.Create(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusCreated, post, "Post created successfully")
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	var req transfer.PostInput
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.s.Update(c.UserContext(), c.Params("post"), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, post, "Post updated successfully")
}

func (h *PostHandler) Destroy(c *fiber.Ctx) error {
	if err := h.s.Delete(c.UserContext(), c.Params("post")); err != nil {
		return err
	}
	return message(c, "Post deleted successfully")
}

func (h *PostHandler) BulkDestroy(c *fiber.Ctx) error {
	var req transfer.PostBulkDelete
	if err := bind(c, &req); err != nil {
		return err
	}

	deleted, err := h.s.BulkDelete(c.UserContext(), req.Posts)
	if err != nil {
		return err
	}
	return message(c, fmt.Sprintf("%d posts deleted successfully", deleted))
}

func (h *PostHandler) Schedule(c *fiber.Ctx) error {
	var req transfer.PostSchedule
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.s.Schedule(c.UserContext(), c.Params("post"), &req)
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, post, "Post scheduled successfully")
}

func (h *PostHandler) Publish(c *fiber.Ctx) error {
	post, err := h.s.Publish(c.UserContext(), c.Params("post"))
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusOK, post, "Post queued for immediate publishing")
}

func (h *PostHandler) Duplicate(c *fiber.Ctx) error {
	post, err := h.s.Duplicate(c.UserContext(), c.Params("post"))
	if err != nil {
		return err
	}
	return resource(c, fiber.StatusCreated, post, "Post duplicated successfully")
}
