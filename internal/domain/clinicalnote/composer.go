package clinicalnote

import (
	"fmt"
	"strings"

	"github.com/ehr/carepath/internal/platform/auth"
)

// AppointmentSummary is one booked appointment as it appears in a note.
type AppointmentSummary struct {
	Date      string
	Time      string
	Clinician string
	Label     string
}

// Transition carries everything a pathway transfer note records.
type Transition struct {
	PreviousPathway string
	NewPathway      string
	Reason          string
	ClinicalNotes   string
	Appointments    []AppointmentSummary
	ActorName       string
	ActorRole       string
}

// RoleLabel maps an account role to the label printed on notes.
func RoleLabel(role string) string {
	switch role {
	case auth.RoleUrologist:
		return "Urologist"
	case auth.RoleNurse:
		return "Nurse"
	case auth.RoleGP:
		return "GP"
	case auth.RoleAdmin:
		return "Admin"
	default:
		return "User"
	}
}

// Compose renders the note body. Output depends only on t.
func Compose(t Transition) string {
	var b strings.Builder
	b.WriteString("PATHWAY TRANSFER\n")
	fmt.Fprintf(&b, "Previous pathway: %s\n", orDefault(t.PreviousPathway, "Not set"))
	fmt.Fprintf(&b, "New pathway: %s\n", t.NewPathway)
	fmt.Fprintf(&b, "Reason: %s\n", orDefault(t.Reason, "Not specified"))
	fmt.Fprintf(&b, "Clinical notes: %s\n", orDefault(t.ClinicalNotes, "None"))

	if len(t.Appointments) > 0 {
		b.WriteString("Auto-booked appointments:\n")
		for i, a := range t.Appointments {
			fmt.Fprintf(&b, "%d. %s at %s with %s", i+1, a.Date, a.Time, a.Clinician)
			if a.Label != "" {
				fmt.Fprintf(&b, " (%s)", a.Label)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Transferred by: %s (%s)", orDefault(t.ActorName, "Unknown"), RoleLabel(t.ActorRole))
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
