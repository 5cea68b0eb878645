package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/carepath/internal/domain/identity"
)

type mockPatientFinder struct {
	patients map[string]*identity.Patient
}

func (m *mockPatientFinder) FindPatient(_ context.Context, ref string) (*identity.Patient, error) {
	p, ok := m.patients[ref]
	if !ok {
		return nil, identity.ErrPatientNotFound
	}
	return p, nil
}

func TestHandler_ListPatientAppointments(t *testing.T) {
	patient := &identity.Patient{ID: uuid.New(), Identifier: "URP20260001"}
	appts := newMockAppointmentRepo()
	appts.store = append(appts.store, &Appointment{ID: uuid.New(), PatientID: patient.ID, ClinicianID: uuid.New(), Date: testToday, Time: "10:00", Status: StatusScheduled})
	h := NewHandler(NewService(appts), &mockPatientFinder{patients: map[string]*identity.Patient{patient.Identifier: patient}})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(patient.Identifier)

	if err := h.ListPatientAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Total        int               `json:"total"`
		Appointments []json.RawMessage `json:"appointments"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 1 || len(body.Appointments) != 1 {
		t.Errorf("expected 1 appointment, got %s", rec.Body.String())
	}
}

func TestHandler_ListPatientAppointments_NotFound(t *testing.T) {
	h := NewHandler(NewService(newMockAppointmentRepo()), &mockPatientFinder{patients: map[string]*identity.Patient{}})

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.ListPatientAppointments(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	e := echo.New()
	NewHandler(NewService(newMockAppointmentRepo()), &mockPatientFinder{}).RegisterRoutes(e.Group("/api/v1"))
	found := false
	for _, r := range e.Routes() {
		if r.Method == http.MethodGet && r.Path == "/api/v1/patients/:id/appointments" {
			found = true
		}
	}
	if !found {
		t.Error("missing GET /api/v1/patients/:id/appointments")
	}
}
