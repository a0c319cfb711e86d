package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"agent-config-service/internal/fallback"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/jwtutil"
)

// Handler carries the dependencies shared by all HTTP handlers. The
// fallback store is optional and nil when no REDIS_URL is configured.
type Handler struct {
	store    *store.Store
	jwt      *jwtutil.JWTUtil
	fallback *fallback.RedisFallback
}

// NewHandler creates a handler with its dependencies.
func NewHandler(s *store.Store, jwt *jwtutil.JWTUtil, fb *fallback.RedisFallback) *Handler {
	return &Handler{store: s, jwt: jwt, fallback: fb}
}

// respondStoreError maps store error kinds onto HTTP statuses.
// Tenant mismatches and true absence are both ErrNotFound, so the
// response never reveals whether a foreign row exists.
func respondStoreError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, store.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// principal extracts the authenticated principal placed in the
// context by the auth middleware.
func principal(c echo.Context) (userID, tenantID uint, ok bool) {
	userID, uok := c.Get("user_id").(uint)
	tenantID, tok := c.Get("tenant_id").(uint)
	return userID, tenantID, uok && tok
}
