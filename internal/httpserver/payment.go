package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/paytm"
	"github.com/frunko/frunko/internal/service"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PaymentHTTP struct {
	Svc         *service.PaymentService
	FrontendURL string
}

func (h *PaymentHTTP) Initiate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.initiate")

	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req transport.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("initiate_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	result, err := h.Svc.Initiate(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, paytm.ErrGatewayRejected), errors.Is(err, paytm.ErrGatewayUnreachable):
			// gateway detail stays in the logs, not in the client response
			l.Error("initiate_gateway_error", "status", 502, "error", err)
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment initiation failed"})
		default:
			l.Error("initiate_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	l.Info("payment_initiated", "gateway_order_id", result.OrderID)
	return c.JSON(http.StatusOK, result)
}

// Callback always answers with a redirect: the gateway needs a definite HTTP
// response, and business failures are communicated to the user through the
// result page, never as an error body.
func (h *PaymentHTTP) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.callback")

	var payload transport.PaytmCallback
	if err := c.Bind(&payload); err != nil {
		l.Warn("callback_bind_error", "error", err)
		return c.Redirect(http.StatusSeeOther, h.resultURL(transport.CallbackResult{}))
	}

	result := h.Svc.HandleCallback(ctx, payload)
	return c.Redirect(http.StatusSeeOther, h.resultURL(result))
}

func (h *PaymentHTTP) resultURL(result transport.CallbackResult) string {
	q := url.Values{}
	if result.Success {
		q.Set("status", "success")
		q.Set("txnId", result.TxnID)
	} else {
		q.Set("status", "failed")
	}
	q.Set("orderId", result.OrderID)
	return fmt.Sprintf("%s/payment/result?%s", h.FrontendURL, q.Encode())
}

func (h *PaymentHTTP) Status(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	status, err := h.Svc.Status(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		logging.FromContext(ctx).Error("payment_status_error", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, status)
}
