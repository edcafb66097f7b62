package middleware

import (
	"net"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/errs"
)

// RequireHTTPS rejects plain HTTP requests in production when HTTPS-only
// mode is on. Behind a proxy the X-Forwarded-Proto header decides.
func RequireHTTPS(cfg config.Security, appEnv string) fiber.Handler {
	enforced := cfg.HTTPSOnly && appEnv == "production"

	return func(c *fiber.Ctx) error {
		if enforced && c.Protocol() != "https" {
			return errs.New(fiber.StatusUpgradeRequired, "HTTPS is required for API requests")
		}
		return c.Next()
	}
}

// IPWhitelist admits only the listed addresses or CIDR ranges when the
// allow-list is enabled.
func IPWhitelist(cfg config.Security) fiber.Handler {
	var nets []*net.IPNet
	var ips []net.IP
	for _, entry := range cfg.IPWhitelist {
		if _, n, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, n)
		} else if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
		}
	}

	allowed := func(ip net.IP) bool {
		for _, a := range ips {
			if a.Equal(ip) {
				return true
			}
		}
		for _, n := range nets {
			if n.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(c *fiber.Ctx) error {
		if !cfg.IPWhitelistEnabled {
			return c.Next()
		}

		ip := net.ParseIP(c.IP())
		if ip == nil || !allowed(ip) {
			return errs.NewForbiddenError("Access denied from this IP address")
		}
		return c.Next()
	}
}
