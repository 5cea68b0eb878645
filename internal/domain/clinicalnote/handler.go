package clinicalnote

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/platform/auth"
)

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
	g := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleAdmin))
	g.GET("/patients/:id/notes", h.ListPatientNotes)
}

func (h *Handler) ListPatientNotes(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.patients.FindPatient(ctx, c.Param("id"))
	if errors.Is(err, identity.ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	notes, err := h.svc.ListPatientNotes(ctx, p.ID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if notes == nil {
		notes = []*ClinicalNote{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": p.ID,
		"notes":      notes,
		"total":      len(notes),
	})
}
