package scheduling

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/platform/auth"
)

// PatientFinder resolves a patient by UUID or human-readable identifier.
type PatientFinder interface {
	FindPatient(ctx context.Context, ref string) (*identity.Patient, error)
}

type Handler struct {
	svc      *Service
	patients PatientFinder
}

func NewHandler(svc *Service, patients PatientFinder) *Handler {
	return &Handler{svc: svc, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleGP, auth.RoleAdmin))
	readGroup.GET("/patients/:id/appointments", h.ListPatientAppointments)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.patients.FindPatient(ctx, c.Param("id"))
	if errors.Is(err, identity.ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items, err := h.svc.ListAppointmentsByPatient(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id":   p.ID,
		"appointments": items,
		"total":        len(items),
	})
}
