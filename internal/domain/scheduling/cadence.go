package scheduling

// FollowUp is one appointment in a cadence, booked Months after today.
type FollowUp struct {
	Months int
	Label  string
}

// Cadence describes the follow-up appointments a pathway books and the times
// to try after DefaultSlot when a slot is occupied.
type Cadence struct {
	FollowUps []FollowUp
	Fallbacks []string
}

var (
	ActiveMonitoringCadence = Cadence{
		FollowUps: []FollowUp{{Months: 3}},
		Fallbacks: []string{"10:30", "11:00", "11:30", "14:00", "14:30", "15:00"},
	}
	PostOpCadence = Cadence{
		FollowUps: []FollowUp{{Months: 6, Label: "6 months"}, {Months: 12, Label: "12 months"}},
		Fallbacks: []string{"10:30", "11:00", "11:30", "14:00", "14:30", "15:00", "15:30"},
	}
)

// Candidates returns DefaultSlot followed by the fallbacks.
func (c Cadence) Candidates() []string {
	out := make([]string, 0, len(c.Fallbacks)+1)
	out = append(out, DefaultSlot)
	return append(out, c.Fallbacks...)
}
