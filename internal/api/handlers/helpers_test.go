package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestErrorHandler(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/http", func(c *fiber.Ctx) error { return errs.NewNotFoundError("Post not found") })
	app.Get("/fields", func(c *fiber.Ctx) error { return errs.NewValidationError("name", "bad") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db down") })

	status, body := call(t, app, "/http")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, map[string]any{"success": false, "message": "Post not found"}, body)

	status, body = call(t, app, "/fields")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, map[string]any{"name": []any{"bad"}}, body["errors"])

	status, _ = call(t, app, "/fiber")
	assert.Equal(t, fiber.StatusMethodNotAllowed, status)

	status, body = call(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["message"])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestQueryIDs(t *testing.T) {
	log, _ := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/", func(c *fiber.Ctx) error {
		ids, err := queryIDs(c, "tags")
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ids": ids})
	})

	status, body := call(t, app, "/?tags[]=1&tags[]=2&tags=3,4")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, body["ids"])

	status, body = call(t, app, "/?tags=1,abc")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, map[string]any{"tags": []any{"The tags must contain only integers."}}, body["errors"])
}

func TestPageParams(t *testing.T) {
	cfg := config.Pagination{DefaultPerPage: 20, MaxPerPage: 100}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		page, perPage := pageParams(c, cfg)
		return c.JSON(fiber.Map{"page": page, "per_page": perPage})
	})

	tests := map[string]struct {
		query   string
		page    float64
		perPage float64
	}{
		"defaults":     {query: "", page: 1, perPage: 20},
		"explicit":     {query: "?page=3&per_page=5", page: 3, perPage: 5},
		"capped":       {query: "?per_page=500", page: 1, perPage: 100},
		"out of range": {query: "?page=0&per_page=-1", page: 1, perPage: 20},
		"huge page":    {query: "?page=9223372036854775807&per_page=100", page: math.MaxInt32 / 100, perPage: 100},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, body := call(t, app, "/"+tt.query)
			assert.Equal(t, tt.page, body["page"])
			assert.Equal(t, tt.perPage, body["per_page"])
		})
	}
}

func TestPaginate(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		return c.JSON(paginate(c, []int{}, 0, 1, 20))
	})

	_, body := call(t, app, "/items")
	meta := body["meta"].(map[string]any)
	assert.Equal(t, 1.0, meta["last_page"])
	assert.Nil(t, meta["from"])
	assert.Nil(t, meta["to"])
	assert.Equal(t, []any{}, body["data"])
}
