package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultIdentifierPrefix = "URP"
	maxIdentifierAttempts   = 10
)

// IdentifierAllocator produces human-readable patient identifiers of the form
// <prefix><year><4 digits>, e.g. URP20260042.
type IdentifierAllocator struct {
	patients PatientRepository
	prefix   string
	loc      *time.Location
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewIdentifierAllocator(patients PatientRepository, prefix string, loc *time.Location) *IdentifierAllocator {
	if prefix == "" {
		prefix = DefaultIdentifierPrefix
	}
	if loc == nil {
		loc = time.UTC
	}
	return &IdentifierAllocator{
		patients: patients,
		prefix:   prefix,
		loc:      loc,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *IdentifierAllocator) candidate() string {
	a.mu.Lock()
	n := a.rnd.Intn(10000)
	a.mu.Unlock()
	return fmt.Sprintf("%s%04d%04d", a.prefix, a.now().In(a.loc).Year(), n)
}

// Allocate draws candidates until one is unused and, when insert is non-nil,
// successfully inserted. An insert failing with ErrDuplicateIdentifier counts
// as a collision. Gives up with ErrIdentifierExhausted after ten attempts.
func (a *IdentifierAllocator) Allocate(ctx context.Context, insert func(identifier string) error) (string, error) {
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		id := a.candidate()
		exists, err := a.patients.IdentifierExists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		if insert == nil {
			return id, nil
		}
		err = insert(id)
		if errors.Is(err, ErrDuplicateIdentifier) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
	return "", ErrIdentifierExhausted
}
