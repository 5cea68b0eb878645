package pathway

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/carepath/internal/domain/clinicalnote"
	"github.com/ehr/carepath/internal/domain/identity"
	"github.com/ehr/carepath/internal/domain/inbox"
	"github.com/ehr/carepath/internal/domain/scheduling"
	"github.com/ehr/carepath/internal/platform/auth"
	"github.com/ehr/carepath/internal/platform/events"
	"github.com/ehr/carepath/internal/platform/notification"
)

// -- Patients --

type mockPatientStore struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*identity.Patient
	finds     int
	updates   int
	updateErr error
}

func newMockPatientStore(ps ...*identity.Patient) *mockPatientStore {
	m := &mockPatientStore{byID: make(map[uuid.UUID]*identity.Patient)}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *mockPatientStore) FindPatient(_ context.Context, ref string) (*identity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	for _, p := range m.byID {
		if p.ID.String() == ref || p.Identifier == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, identity.ErrPatientNotFound
}

func (m *mockPatientStore) UpdatePathway(_ context.Context, u identity.PathwayUpdate) (*identity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	p, ok := m.byID[u.PatientID]
	if !ok {
		return nil, identity.ErrPatientNotFound
	}
	m.updates++
	pw := u.Pathway
	p.CarePathway = &pw
	p.Status = u.Status
	if u.Notes != nil {
		n := *u.Notes
		p.Notes = &n
	}
	at := u.UpdatedAt
	p.PathwayUpdatedAt = &at
	cp := *p
	return &cp, nil
}

// -- Accounts --

type mockAccounts struct {
	byID map[uuid.UUID]*identity.UserAccount
	err  error
}

func newMockAccounts(as ...*identity.UserAccount) *mockAccounts {
	m := &mockAccounts{byID: make(map[uuid.UUID]*identity.UserAccount)}
	for _, a := range as {
		m.byID[a.ID] = a
	}
	return m
}

func (m *mockAccounts) GetAccount(_ context.Context, id uuid.UUID) (*identity.UserAccount, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	return a, nil
}

func (m *mockAccounts) GetAccountByFullName(_ context.Context, name string) (*identity.UserAccount, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.byID {
		if a.FullName == name {
			return a, nil
		}
	}
	return nil, identity.ErrAccountNotFound
}

// -- Scheduling storage --

type mockAppointmentRepo struct {
	mu    sync.Mutex
	store []*scheduling.Appointment
	err   error
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *scheduling.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, e := range m.store {
		if !a.Overbooked && !e.Overbooked && e.ClinicianID == a.ClinicianID && e.DateString() == a.DateString() && e.Time == a.Time && slices.Contains(scheduling.ActiveStatuses, e.Status) {
			return scheduling.ErrSlotTaken
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.store = append(m.store, &cp)
	return nil
}

func (m *mockAppointmentRepo) HasActiveBooking(_ context.Context, clinicianID uuid.UUID, date time.Time, tod string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.store {
		if e.ClinicianID == clinicianID && e.DateString() == date.Format(scheduling.DateLayout) && e.Time == tod && slices.Contains(scheduling.ActiveStatuses, e.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*scheduling.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*scheduling.Appointment
	for _, e := range m.store {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockClinicians struct {
	byID map[uuid.UUID]*identity.Clinician
}

func newMockClinicians(cs ...*identity.Clinician) *mockClinicians {
	m := &mockClinicians{byID: make(map[uuid.UUID]*identity.Clinician)}
	for _, c := range cs {
		m.byID[c.ID] = c
	}
	return m
}

func (m *mockClinicians) GetActiveByID(_ context.Context, id uuid.UUID) (*identity.Clinician, error) {
	if c, ok := m.byID[id]; ok && c.IsActive {
		return c, nil
	}
	return nil, identity.ErrClinicianNotFound
}

func (m *mockClinicians) GetActiveByEmail(_ context.Context, email string) (*identity.Clinician, error) {
	for _, c := range m.byID {
		if c.IsActive && strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, identity.ErrClinicianNotFound
}

// -- Notes --

type mockNotes struct {
	mu       sync.Mutex
	recorded []clinicalnote.Transition
	bodies   []string
	err      error
}

func (m *mockNotes) RecordTransition(_ context.Context, patientID uuid.UUID, t clinicalnote.Transition) (*clinicalnote.ClinicalNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.recorded = append(m.recorded, t)
	body := clinicalnote.Compose(t)
	m.bodies = append(m.bodies, body)
	return &clinicalnote.ClinicalNote{ID: uuid.New(), PatientID: patientID, Content: body}, nil
}

// -- Inbox --

type mockInbox struct {
	mu      sync.Mutex
	created []*inbox.Notification
	err     error
}

func (m *mockInbox) CreateNotification(_ context.Context, n *inbox.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

// -- Events --

type mockPublisher struct {
	mu     sync.Mutex
	events []events.TransitionEvent
	err    error
}

func (m *mockPublisher) PublishTransition(_ context.Context, evt events.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// -- Fixture --

var (
	fixedNow = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	errBoom  = errors.New("boom")
)

type fixture struct {
	patients   *mockPatientStore
	accounts   *mockAccounts
	appts      *mockAppointmentRepo
	clinicians *mockClinicians
	notes      *mockNotes
	mail       *notification.MockEmailSender
	inbox      *mockInbox
	events     *mockPublisher
	svc        *Service

	patient   *identity.Patient
	clinician *identity.Clinician
	referrer  *identity.UserAccount
	actor     auth.Actor
}

func newFixture() *fixture {
	clinician := &identity.Clinician{ID: uuid.New(), FirstName: "Amara", LastName: "Okafor", Email: "a.okafor@clinic.test", IsActive: true}
	referrer := &identity.UserAccount{ID: uuid.New(), FullName: "Dr Priya Patel", Email: "p.patel@gp.test", Role: auth.RoleGP, IsActive: true}
	prev := string(SurgeryPathway)
	patient := &identity.Patient{
		ID:                   uuid.New(),
		Identifier:           "URP20260042",
		FirstName:            "John",
		LastName:             "Smith",
		CarePathway:          &prev,
		Status:               identity.StatusActive,
		AssignedClinicianID:  &clinician.ID,
		ReferringClinicianID: &referrer.ID,
	}

	f := &fixture{
		patients:   newMockPatientStore(patient),
		accounts:   newMockAccounts(referrer),
		appts:      &mockAppointmentRepo{},
		clinicians: newMockClinicians(clinician),
		notes:      &mockNotes{},
		mail:       &notification.MockEmailSender{},
		inbox:      &mockInbox{},
		events:     &mockPublisher{},
		patient:    patient,
		clinician:  clinician,
		referrer:   referrer,
		actor:      auth.Actor{ID: uuid.New(), Name: "Dr Wei Chen", Email: "w.chen@clinic.test", Role: auth.RoleUrologist},
	}

	logger := zerolog.Nop()
	booker := scheduling.NewBooker(f.appts, f.clinicians, time.UTC, logger).WithClock(func() time.Time { return fixedNow })
	mailer := notification.NewMailer(f.mail, notification.NewTemplateEngine(), logger)
	notifier := NewNotifier(f.accounts, mailer, f.inbox, logger)
	f.svc = NewService(f.patients, f.accounts, booker, f.notes, notifier, f.events, logger)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) request(pathway string) TransitionRequest {
	return TransitionRequest{PatientRef: f.patient.ID.String(), Pathway: pathway, Reason: "Clinical review", Actor: f.actor}
}
