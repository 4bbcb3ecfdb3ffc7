package httpserver

import (
	"errors"
	"net/http"

	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/service"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.Svc.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_users_error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	user, err := h.Svc.Create(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		l.Error("create_user_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	l.Info("user_created", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHTTP) SetBlocked(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req struct {
		Blocked bool `json:"blocked"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Svc.SetBlocked(ctx, id, req.Blocked); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		logging.FromContext(ctx).Error("set_blocked_error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "blocked": req.Blocked})
}
