// Package memory keeps users and appointments in process memory.
// It backs local runs and the service and handler tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return nil, repository.ErrDuplicate
	}

	stored := *u
	stored.ID = uuid.NewString()
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now

	r.byID[stored.ID] = stored
	r.byEmail[email] = stored.ID
	return &stored, nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

func (r *userRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return nil, nil
	}

	oldEmail, newEmail := strings.ToLower(cur.Email), strings.ToLower(u.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return nil, repository.ErrDuplicate
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = u.ID
	}

	stored := *u
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	r.byID[u.ID] = stored
	return &stored, nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, strings.ToLower(u.Email))
	return nil
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	repository.SortUsers(out)
	return out, nil
}

type appointmentRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.Appointment
	slots map[string]string // active slot key -> appointment id
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{
		byID:  make(map[string]domain.Appointment),
		slots: make(map[string]string),
	}
}

func slotKey(doctor, date, tm string) string {
	return strings.ToLower(doctor) + "|" + date + "|" + tm
}

func (r *appointmentRepository) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(a.DoctorName, a.Date, a.Time)
	if a.Status.Active() {
		if _, taken := r.slots[key]; taken {
			return nil, repository.ErrDuplicate
		}
	}

	stored := *a
	stored.ID = uuid.NewString()
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now

	r.byID[stored.ID] = stored
	if stored.Status.Active() {
		r.slots[key] = stored.ID
	}
	return &stored, nil
}

func (r *appointmentRepository) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *appointmentRepository) FindActiveSlot(_ context.Context, doctorName, date, tm string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.slots[slotKey(doctorName, date, tm)]
	if !ok {
		return nil, nil
	}
	a := r.byID[id]
	return &a, nil
}

func (r *appointmentRepository) List(_ context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Appointment, 0, len(r.byID))
	for _, a := range r.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Doctor != "" && !strings.EqualFold(a.DoctorName, filter.Doctor) {
			continue
		}
		out = append(out, a)
	}
	repository.SortAppointments(out)
	return out, nil
}

func (r *appointmentRepository) ListByUser(_ context.Context, userID string) ([]domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Appointment, 0)
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	repository.SortAppointments(out)
	return out, nil
}

func (r *appointmentRepository) Update(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return nil, nil
	}

	key := slotKey(cur.DoctorName, cur.Date, cur.Time)
	if a.Status.Active() && !cur.Status.Active() {
		if _, taken := r.slots[key]; taken {
			return nil, repository.ErrDuplicate
		}
	}

	// only the mutable fields change
	cur.Status = a.Status
	cur.Notes = a.Notes
	cur.Diagnosis = a.Diagnosis
	cur.UpdatedAt = time.Now().UTC()
	r.byID[a.ID] = cur

	if cur.Status.Active() {
		r.slots[key] = cur.ID
	} else if r.slots[key] == cur.ID {
		delete(r.slots, key)
	}
	return &cur, nil
}

func (r *appointmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	key := slotKey(a.DoctorName, a.Date, a.Time)
	if r.slots[key] == id {
		delete(r.slots, key)
	}
	return nil
}

// NewStore returns an empty in-memory store.
func NewStore() *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(),
		Appointments: NewAppointmentRepository(),
		Close:        func(context.Context) error { return nil },
	}
}
