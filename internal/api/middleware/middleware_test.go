package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/api/handlers"
	"github.com/maheshrc27/mixpost-api/internal/api/middleware"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository/repotest"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newApp(cfg ...fiber.Config) *fiber.App {
	log, _ := test.NewNullLogger()
	c := fiber.Config{}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	c.ErrorHandler = handlers.ErrorHandler(log)
	return fiber.New(c)
}

func ok(c *fiber.Ctx) error {
	return c.SendString("ok")
}

type response struct {
	status  int
	message string
}

func do(t *testing.T, app *fiber.App, req *http.Request) response {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	return response{status: resp.StatusCode, message: payload.Message}
}

func issueToken(t *testing.T, abilities ...string) (service.TokenService, string) {
	t.Helper()
	db := repotest.New()
	log, _ := test.NewNullLogger()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = db.Users().Create(ctx, nil, &models.User{Name: "Jane", Email: "jane@example.com", Password: string(hash)})
	require.NoError(t, err)

	tokens := service.NewTokenService(log, config.Token{}, db.Users(), db.Tokens(), nil)
	created, err := tokens.Create(ctx, &transfer.TokenCreation{
		Email:     "jane@example.com",
		Password:  "pw",
		TokenName: "test",
		Abilities: abilities,
	})
	require.NoError(t, err)
	return tokens, created.Token
}

func bearer(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthenticate(t *testing.T) {
	tokens, token := issueToken(t)
	auth := middleware.NewAuthMiddleware(tokens, true, nil)

	app := newApp()
	app.Get("/me", auth.Authenticate(), func(c *fiber.Ctx) error {
		return c.SendString(middleware.CurrentToken(c).Name)
	})

	res := do(t, app, bearer("/me", ""))
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "Unauthenticated. Please provide a valid API token.", res.message)

	res = do(t, app, bearer("/me", "1|not-the-secret"))
	assert.Equal(t, http.StatusUnauthorized, res.status)

	req := bearer("/me", "")
	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, do(t, app, req).status)

	resp, err := app.Test(bearer("/me", token))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test", string(body))
}

func TestAbility(t *testing.T) {
	tokens, token := issueToken(t, "posts.index")

	for name, tc := range map[string]struct {
		enabled bool
		path    string
		status  int
	}{
		"granted":         {enabled: true, path: "/posts", status: http.StatusOK},
		"missing":         {enabled: true, path: "/tags", status: http.StatusForbidden},
		"checks disabled": {enabled: false, path: "/tags", status: http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			auth := middleware.NewAuthMiddleware(tokens, tc.enabled, nil)
			app := newApp()
			app.Get("/posts", auth.Authenticate(), auth.Ability("posts.index"), ok)
			app.Get("/tags", auth.Authenticate(), auth.Ability("tags.index"), ok)

			res := do(t, app, bearer(tc.path, token))
			assert.Equal(t, tc.status, res.status)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, "This token does not have the required permissions", res.message)
			}
		})
	}
}

func TestWildcardAbility(t *testing.T) {
	tokens, token := issueToken(t)
	auth := middleware.NewAuthMiddleware(tokens, true, nil)

	app := newApp()
	app.Get("/tags", auth.Authenticate(), auth.Ability("tags.index"), ok)

	assert.Equal(t, http.StatusOK, do(t, app, bearer("/tags", token)).status)
}

func TestRequireHTTPS(t *testing.T) {
	app := newApp()
	app.Use(middleware.RequireHTTPS(config.Security{HTTPSOnly: true}, "production"))
	app.Get("/", ok)

	res := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUpgradeRequired, res.status)
	assert.Equal(t, "HTTPS is required for API requests", res.message)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, http.StatusOK, do(t, app, req).status)

	local := newApp()
	local.Use(middleware.RequireHTTPS(config.Security{HTTPSOnly: true}, "local"))
	local.Get("/", ok)
	assert.Equal(t, http.StatusOK, do(t, local, httptest.NewRequest(http.MethodGet, "/", nil)).status)
}

func TestIPWhitelist(t *testing.T) {
	cfg := config.Security{
		IPWhitelistEnabled: true,
		IPWhitelist:        []string{"10.0.0.5", "192.168.1.0/24"},
	}

	app := newApp(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	app.Use(middleware.IPWhitelist(cfg))
	app.Get("/", ok)

	for ip, status := range map[string]int{
		"10.0.0.5":     http.StatusOK,
		"192.168.1.77": http.StatusOK,
		"10.0.0.6":     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderXForwardedFor, ip)
		assert.Equal(t, status, do(t, app, req).status, ip)
	}

	cfg.IPWhitelistEnabled = false
	open := newApp(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	open.Use(middleware.IPWhitelist(cfg))
	open.Get("/", ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "8.8.8.8")
	assert.Equal(t, http.StatusOK, do(t, open, req).status)
}

func TestRateLimit(t *testing.T) {
	app := newApp()
	app.Use(middleware.RateLimit(config.RateLimit{Enabled: true, MaxAttempts: 2, DecayMinutes: 1}))
	app.Get("/", ok)

	assert.Equal(t, http.StatusOK, do(t, app, httptest.NewRequest(http.MethodGet, "/", nil)).status)
	assert.Equal(t, http.StatusOK, do(t, app, httptest.NewRequest(http.MethodGet, "/", nil)).status)

	res := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, res.status)
	assert.Equal(t, "Too Many Attempts.", res.message)
}

func TestMetricsUsesRouteName(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	app := newApp()
	app.Use(middleware.Metrics(m))
	app.Get("/posts", middleware.Route("posts.index"), ok)
	app.Get("/fail", middleware.Route("posts.show"), func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	do(t, app, httptest.NewRequest(http.MethodGet, "/posts", nil))
	do(t, app, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "posts.index", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "posts.show", "404")))
}
