package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/service"
	"github.com/frunko/frunko/internal/transport"
	"github.com/labstack/echo/v4"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_coupon_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	result, err := h.Svc.Validate(ctx, req.Code, req.Subtotal)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("validate_coupon_rejected", "status", 400, "reason", err.Error())
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		l.Error("validate_coupon_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	l.Info("validate_coupon_success", "code", result.Code)
	return c.JSON(http.StatusOK, result)
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	var req transport.UpsertCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	coupon, err := h.Svc.Create(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		l.Error("create_coupon_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	l.Info("coupon_created", "code", coupon.Code)
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	coupons, err := h.Svc.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_coupons_error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, coupons)
}

func (h *CouponHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req transport.UpsertCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	coupon, err := h.Svc.Update(ctx, uint(id), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			l.Error("update_coupon_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.Svc.Delete(ctx, uint(id)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
		}
		logging.FromContext(ctx).Error("delete_coupon_error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}
