package pathway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleAdmin))
	g.POST("/patients/:id/pathway", h.Transition)
}

type transitionRequest struct {
	CarePathway string  `json:"care_pathway"`
	Reason      string  `json:"reason"`
	Notes       *string `json:"notes"`
}

// Transition handles POST /patients/:id/pathway.
func (h *Handler) Transition(c echo.Context) error {
	var body transitionRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	res, err := h.svc.Transition(ctx, TransitionRequest{
		PatientRef: c.Param("id"),
		Pathway:    body.CarePathway,
		Reason:     body.Reason,
		Notes:      body.Notes,
		Actor:      auth.ActorFromContext(ctx),
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, res)
	case errors.Is(err, ErrInvalidPathway):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update care pathway").SetInternal(err)
	}
}
