package api

import (
	"errors"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/monitoring"
	"serchadmin/internal/notifications"
	"serchadmin/internal/permission"
	"serchadmin/internal/repository"
	"serchadmin/internal/service"
	"serchadmin/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PermissionHandler struct {
	svc       *service.PermissionService
	notifier  notifications.Manager
	telemetry monitoring.Telemetry
}

func NewPermissionHandler(svc *service.PermissionService, notifier notifications.Manager, tel monitoring.Telemetry) PermissionHandler {
	return PermissionHandler{
		svc:       svc,
		notifier:  notifier,
		telemetry: tel,
	}
}

// RegisterRoutes mounts the permission API behind bearer authentication.
func RegisterRoutes(app *fiber.App, h PermissionHandler, repo repository.Repository) {
	app.Get("/health", h.Health)

	group := app.Group("/admin", Authenticate(repo, h.telemetry.Logger()))
	group.Get("/permission/requests", h.Requests)
	group.Get("/permission/scopes", h.Scopes)
	group.Get("/permission/search", h.Search)
	group.Post("/permission/request", h.CreateRequest)
	group.Patch("/permission/grant", h.Grant)
	group.Patch("/permission/revoke", h.Revoke)
	group.Patch("/permission/decline", h.Decline)
	group.Patch("/permission/cancel", h.Cancel)
	group.Get("/notifications", h.Notifications)
	group.Patch("/notifications/read", h.MarkNotificationRead)
}

func (h *PermissionHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *PermissionHandler) Requests(c *fiber.Ctx) error {
	groups, err := h.svc.Groups(c.Context())
	if err != nil {
		h.telemetry.Logger().ErrorContext(c.Context(), "failed to load permission requests", "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}
	return success(c, "permission requests retrieved", groups)
}

func (h *PermissionHandler) Scopes(c *fiber.Ctx) error {
	scopes, err := h.svc.Scopes(c.Context())
	if err != nil {
		h.telemetry.Logger().ErrorContext(c.Context(), "failed to load scopes", "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}
	return success(c, "scopes retrieved", scopes)
}

func (h *PermissionHandler) Search(c *fiber.Ctx) error {
	admin, ok := currentAdmin(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, "unauthorized")
	}

	accountID := c.Query("id")
	if accountID == "" {
		return failure(c, "account identifier is required")
	}

	profile, err := h.svc.SearchAccount(c.Context(), admin.Actor(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return failure(c, "account not found")
		case errors.Is(err, service.ErrTooManyAttempts):
			return failure(c, "too many searches, slow down")
		}
		h.telemetry.Logger().ErrorContext(c.Context(), "account search failed", "account", accountID, "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}

	return success(c, "account retrieved", profile)
}

func (h *PermissionHandler) CreateRequest(c *fiber.Ctx) error {
	admin, ok := currentAdmin(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload model.CreatePermissionPayload
	if err := c.BodyParser(&payload); err != nil {
		return failure(c, "invalid request body")
	}

	groups, err := h.svc.Create(c.Context(), admin.Actor(), payload)
	if err != nil {
		if message, ok := businessMessage(err); ok {
			return failure(c, message)
		}
		h.telemetry.Logger().ErrorContext(c.Context(), "failed to create permission requests", "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}

	return success(c, "permission requests created", groups)
}

func (h *PermissionHandler) Grant(c *fiber.Ctx) error {
	expiration := util.None[time.Time]()
	if raw := c.Query("expiration"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return failure(c, "expiration must be an RFC3339 timestamp")
		}
		expiration = util.Some(parsed)
	}
	return h.transition(c, permission.TransitionGrant, expiration)
}

func (h *PermissionHandler) Revoke(c *fiber.Ctx) error {
	return h.transition(c, permission.TransitionRevoke, util.None[time.Time]())
}

func (h *PermissionHandler) Decline(c *fiber.Ctx) error {
	return h.transition(c, permission.TransitionDecline, util.None[time.Time]())
}

func (h *PermissionHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, permission.TransitionCancel, util.None[time.Time]())
}

func (h *PermissionHandler) transition(c *fiber.Ctx, t permission.Transition, expiration util.Optional[time.Time]) error {
	admin, ok := currentAdmin(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return failure(c, "a valid request identifier is required")
	}

	groups, err := h.svc.Transition(c.Context(), admin.Actor(), id, t, expiration)
	if err != nil {
		if message, ok := businessMessage(err); ok {
			return failure(c, message)
		}
		h.telemetry.Logger().ErrorContext(c.Context(), "transition failed", "request_id", id, "transition", t, "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}

	return success(c, "request updated", groups)
}

func (h *PermissionHandler) Notifications(c *fiber.Ctx) error {
	admin, ok := currentAdmin(c)
	if !ok {
		return reject(c, fiber.StatusUnauthorized, "unauthorized")
	}

	unread, err := h.notifier.Unread(c.Context(), admin.ID)
	if err != nil {
		h.telemetry.Logger().ErrorContext(c.Context(), "failed to load notifications", "error", err)
		return reject(c, fiber.StatusInternalServerError, "internal server error")
	}
	return success(c, "notifications retrieved", unread)
}

func (h *PermissionHandler) MarkNotificationRead(c *fiber.Ctx) error {
	if _, ok := currentAdmin(c); !ok {
		return reject(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return failure(c, "a valid notification identifier is required")
	}

	h.notifier.MarkRead(c.Context(), id)
	return success(c, "notification marked read", nil)
}

// businessMessage maps expected domain failures onto operator-facing
// messages. Anything unmapped is treated as an internal error.
func businessMessage(err error) (string, bool) {
	for _, candidate := range []error{
		permission.ErrIllegalTransition,
		permission.ErrReviewerIsRequester,
		permission.ErrNotRequester,
		permission.ErrExpirationNotFuture,
		permission.ErrNoTargetSelected,
		permission.ErrBothTargetsSet,
		permission.ErrAccountNotVerified,
		service.ErrActiveGrantExists,
		service.ErrTooManyAttempts,
		repository.ErrRequestNotFound,
		repository.ErrScopeNotFound,
		repository.ErrAccountNotFound,
	} {
		if errors.Is(err, candidate) {
			return err.Error(), true
		}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return "invalid selection: " + validationErrs.Error(), true
	}

	return "", false
}
