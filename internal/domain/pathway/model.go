package pathway

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/domain/scheduling"
	"github.com/ehr/carepath/internal/platform/auth"
)

var ErrInvalidPathway = errors.New("invalid care pathway")

// Pathway is a urology care pathway. Values are matched exactly.
type Pathway string

const (
	ActiveMonitoring Pathway = "Active Monitoring"
	SurgeryPathway   Pathway = "Surgery Pathway"
	Medication       Pathway = "Medication"
	Radiotherapy     Pathway = "Radiotherapy"
	PostOpTransfer   Pathway = "Post-op Transfer"
	PostOpFollowup   Pathway = "Post-op Followup"
	Discharge        Pathway = "Discharge"
)

// All lists every valid pathway.
var All = []Pathway{
	ActiveMonitoring, SurgeryPathway, Medication, Radiotherapy,
	PostOpTransfer, PostOpFollowup, Discharge,
}

// Parse returns the pathway named exactly s.
func Parse(s string) (Pathway, error) {
	for _, p := range All {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrInvalidPathway
}

// Status is the patient status implied by the pathway.
func (p Pathway) Status() string {
	if p == Discharge {
		return identity.StatusDischarged
	}
	return identity.StatusActive
}

// Cadence returns the follow-up appointments booked on entering p.
func (p Pathway) Cadence() (scheduling.Cadence, bool) {
	switch p {
	case ActiveMonitoring:
		return scheduling.ActiveMonitoringCadence, true
	case PostOpTransfer, PostOpFollowup:
		return scheduling.PostOpCadence, true
	}
	return scheduling.Cadence{}, false
}

// NotifiesReferrer reports whether the referring clinician is told about a
// move to p.
func (p Pathway) NotifiesReferrer() bool {
	return p == ActiveMonitoring || p == Medication
}

// TransitionRequest moves one patient to a new pathway. PatientRef is the
// internal UUID or the human-readable identifier.
type TransitionRequest struct {
	PatientRef string
	Pathway    string
	Reason     string
	Notes      *string
	Actor      auth.Actor
}

type TransitionResult struct {
	PatientID              uuid.UUID                 `json:"patient_id"`
	PatientIdentifier      string                    `json:"patient_identifier"`
	PreviousPathway        *string                   `json:"previous_pathway"`
	CarePathway            Pathway                   `json:"care_pathway"`
	Status                 string                    `json:"status"`
	PathwayUpdatedAt       time.Time                 `json:"pathway_updated_at"`
	AutoBooked             *scheduling.Appointment   `json:"auto_booked_appointment"`
	AutoBookedAppointments []*scheduling.Appointment `json:"auto_booked_appointments"`
}
