package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleGP, auth.RoleAdmin))
	readGroup.GET("/patients/:id", h.GetPatient)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleUrologist, auth.RoleNurse, auth.RoleAdmin))
	writeGroup.POST("/patients", h.CreatePatient)
}

type createPatientRequest struct {
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	BirthDate             string     `json:"birth_date"`
	Email                 *string    `json:"email"`
	AssignedClinicianID   *uuid.UUID `json:"assigned_clinician_id"`
	AssignedClinicianName *string    `json:"assigned_clinician_name"`
	ReferringClinicianID  *uuid.UUID `json:"referring_clinician_id"`
	Notes                 *string    `json:"notes"`
}

func (r createPatientRequest) toPatient() (*Patient, error) {
	p := &Patient{
		FirstName:             strings.TrimSpace(r.FirstName),
		LastName:              strings.TrimSpace(r.LastName),
		Email:                 r.Email,
		AssignedClinicianID:   r.AssignedClinicianID,
		AssignedClinicianName: r.AssignedClinicianName,
		ReferringClinicianID:  r.ReferringClinicianID,
		Notes:                 r.Notes,
	}
	if r.BirthDate != "" {
		d, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			return nil, errors.New("birth_date must be YYYY-MM-DD")
		}
		p.BirthDate = &d
	}
	return p, nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req createPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := req.toPatient()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if actor := auth.ActorFromContext(c.Request().Context()); actor.ID != uuid.Nil {
		p.CreatedBy = &actor.ID
	}

	err = h.svc.CreatePatient(c.Request().Context(), p)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, p)
	case errors.Is(err, ErrIdentifierExhausted):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrClinicianNotFound), errors.Is(err, ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNameRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetPatient accepts either the internal UUID or the human-readable identifier.
func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.FindPatient(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
