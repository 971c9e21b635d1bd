package api

import (
	"log/slog"
	"strings"

	"serchadmin/internal/model"
	"serchadmin/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const adminLocalsKey = "admin"

// Authenticate validates the Bearer token on every request. Tokens are
// "adminID.secret" pairs; the secret is compared against the bcrypt hash
// stored for the admin.
func Authenticate(repo repository.Repository, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return reject(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		token := strings.TrimPrefix(header, "Bearer ")
		idPart, secret, found := strings.Cut(token, ".")
		if !found {
			return reject(c, fiber.StatusUnauthorized, "malformed token")
		}

		adminID, err := uuid.Parse(idPart)
		if err != nil {
			return reject(c, fiber.StatusUnauthorized, "malformed token")
		}

		admin, err := repo.GetAdminByID(c.Context(), adminID)
		if err != nil {
			if err == repository.ErrAdminNotFound {
				return reject(c, fiber.StatusUnauthorized, "invalid token")
			}
			logger.ErrorContext(c.Context(), "failed to load admin for token", "error", err)
			return reject(c, fiber.StatusInternalServerError, "internal server error")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.TokenHash), []byte(secret)); err != nil {
			return reject(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminLocalsKey, admin)
		return c.Next()
	}
}

// currentAdmin returns the admin the Authenticate middleware stored.
func currentAdmin(c *fiber.Ctx) (model.Admin, bool) {
	admin, ok := c.Locals(adminLocalsKey).(model.Admin)
	return admin, ok
}
