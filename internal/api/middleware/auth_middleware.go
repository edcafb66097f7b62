package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/service"
)

const tokenLocal = "api_token"

type AuthMiddleware struct {
	s                service.TokenService
	abilitiesEnabled bool
	metrics          *metrics.Metrics
}

func NewAuthMiddleware(s service.TokenService, abilitiesEnabled bool, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{s: s, abilitiesEnabled: abilitiesEnabled, metrics: m}
}

// Authenticate requires a valid, unexpired bearer token and stores it
// on the request.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		plain, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			m.metrics.RecordAuthFailure("missing")
			return errs.NewUnauthorizedError("Unauthenticated. Please provide a valid API token.")
		}

		token, err := m.s.Authenticate(c.UserContext(), plain)
		if err != nil {
			if httpErr, ok := errs.As(err); ok && httpErr.Status == fiber.StatusUnauthorized {
				m.metrics.RecordAuthFailure("invalid")
			}
			return err
		}

		c.Locals(tokenLocal, token)
		return c.Next()
	}
}

// Ability requires the current token to grant the named route.
func (m *AuthMiddleware) Ability(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.abilitiesEnabled {
			return c.Next()
		}

		token := CurrentToken(c)
		if token == nil || !(token.Can(models.AbilityAll) || token.Can(name)) {
			m.metrics.RecordAuthFailure("ability")
			return errs.NewForbiddenError("This token does not have the required permissions")
		}
		return c.Next()
	}
}

// CurrentToken returns the token authenticated for the request, or nil.
func CurrentToken(c *fiber.Ctx) *models.ApiToken {
	token, _ := c.Locals(tokenLocal).(*models.ApiToken)
	return token
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
