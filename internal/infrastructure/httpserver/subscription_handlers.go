package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
)

// Subscription handlers
func (s *Server) subscribe(c echo.Context) error {
	var req subscription.SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	outcome, err := s.subscriptionSvc.Subscribe(c.Request().Context(), &req)
	if err != nil {
		var vErr *subscription.ValidationError
		if errors.As(err, &vErr) {
			return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
		}
		s.logger.WithError(err).Error("subscription request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process subscription")
	}

	// The echo-link channel hands the confirmation link back for the caller.
	if outcome.ConfirmationLink != "" {
		return c.JSON(http.StatusOK, map[string]string{
			"confirmation_link": outcome.ConfirmationLink,
		})
	}

	return c.NoContent(http.StatusOK)
}

func (s *Server) confirmSubscription(c echo.Context) error {
	token := c.QueryParam("subscription_token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subscription_token is required")
	}

	err := s.subscriptionSvc.Confirm(c.Request().Context(), token)
	switch {
	case err == nil:
		return c.NoContent(http.StatusOK)
	case errors.Is(err, subscription.ErrTokenNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown subscription token")
	case errors.Is(err, subscription.ErrAlreadyConfirmed):
		return echo.NewHTTPError(http.StatusConflict, "subscription is already confirmed")
	default:
		s.logger.WithError(err).Error("confirmation request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to confirm subscription")
	}
}
