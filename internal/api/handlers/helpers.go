package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/maheshrc27/mixpost-api/internal/validation"
	"github.com/sirupsen/logrus"
)

const msgInvalidData = "The given data was invalid."

// ErrorHandler renders every error returned by a handler or middleware
// as {success:false, message, errors?}.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	log = log.WithField("component", "http")

	return func(c *fiber.Ctx, err error) error {
		if httpErr, ok := errs.As(err); ok {
			body := fiber.Map{"success": false, "message": httpErr.Message}
			if len(httpErr.Errors) > 0 {
				body["errors"] = httpErr.Errors
			}
			return c.Status(httpErr.Status).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"message": fe.Message,
			})
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Request failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal Server Error",
		})
	}
}

// bind decodes the JSON body into dst and validates it. An empty body
// validates the zero value.
func bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return errs.New(fiber.StatusUnprocessableEntity, msgInvalidData)
		}
	}
	return validation.Struct(dst)
}

func pageParams(c *fiber.Ctx, cfg config.Pagination) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := c.QueryInt("per_page", cfg.DefaultPerPage)
	if perPage < 1 {
		perPage = max(cfg.DefaultPerPage, 1)
	}
	if cfg.MaxPerPage > 0 && perPage > cfg.MaxPerPage {
		perPage = cfg.MaxPerPage
	}
	// Keep the row offset well inside an int.
	if maxPage := math.MaxInt32 / perPage; page > maxPage {
		page = maxPage
	}
	return page, perPage
}

func toRepoPage(page, perPage int) repository.Page {
	return repository.Page{Limit: perPage, Offset: (page - 1) * perPage}
}

func paginate[T any](c *fiber.Ctx, items []T, total, page, perPage int) transfer.Paginated[T] {
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	meta := transfer.PageMeta{
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}
	if len(items) > 0 {
		from := (page-1)*perPage + 1
		to := from + len(items) - 1
		meta.From, meta.To = &from, &to
	}

	links := transfer.PageLinks{
		First: pageURL(c, 1),
		Last:  pageURL(c, lastPage),
	}
	if page > 1 {
		prev := pageURL(c, page-1)
		links.Prev = &prev
	}
	if page < lastPage {
		next := pageURL(c, page+1)
		links.Next = &next
	}

	if items == nil {
		items = []T{}
	}
	return transfer.Paginated[T]{Data: items, Links: links, Meta: meta}
}

func pageURL(c *fiber.Ctx, page int) string {
	return c.BaseURL() + c.Path() + "?page=" + strconv.Itoa(page)
}

// queryIDs reads name[]=1&name[]=2 as well as name=1,2.
func queryIDs(c *fiber.Ctx, name string) ([]int64, error) {
	var raw []string
	args := c.Context().QueryArgs()
	for _, key := range []string{name + "[]", name} {
		for _, v := range args.PeekMulti(key) {
			raw = append(raw, strings.Split(string(v), ",")...)
		}
	}

	var ids []int64
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewValidationError(name, "The "+name+" must contain only integers.")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resource(c *fiber.Ctx, status int, data any, message string) error {
	body := fiber.Map{"data": data}
	if message != "" {
		body["message"] = message
	}
	return c.Status(status).JSON(body)
}

func message(c *fiber.Ctx, text string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": text})
}
