package inbox

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/platform/auth"
	"github.com/ehr/carepath/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleGP, auth.RoleAdmin))
	g.GET("/inbox", h.ListInbox)
	g.POST("/inbox/:id/read", h.MarkRead)
}

func recipientFromContext(c echo.Context) (uuid.UUID, error) {
	actor := auth.ActorFromContext(c.Request().Context())
	if actor.ID == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "inbox requires a user account identity")
	}
	return actor.ID, nil
}

// ListInbox lists notifications for the authenticated account. ?unread=true
// limits the result to unread ones.
func (h *Handler) ListInbox(c echo.Context) error {
	recipient, err := recipientFromContext(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListNotifications(c.Request().Context(), recipient, c.QueryParam("unread") == "true", pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Notification{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) MarkRead(c echo.Context) error {
	recipient, err := recipientFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err = h.svc.MarkRead(c.Request().Context(), id, recipient)
	if errors.Is(err, ErrNotificationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
