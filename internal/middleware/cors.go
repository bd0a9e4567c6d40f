package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/backendkit/backendkit/internal/config"
)

// CORS allows only the configured origins, with credentials. The frontend
// URL is the allow-list when none is configured.
func CORS(cfg *config.Config) fiber.Handler {
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 && cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-API-Key, X-Admin-Key",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: len(origins) > 0,
	})
}
