package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/diagnosis/clinic-bookings/internal/domain"
)

// QueryTimeout bounds every store call.
const QueryTimeout = 3 * time.Second

var (
	// ErrNotFound is returned by Delete when no row matched.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// Finders return (nil, nil) when nothing matches, including ids the backend cannot parse.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	FindActiveSlot(ctx context.Context, doctorName, date, tm string) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users        UserRepository
	Appointments AppointmentRepository
	Close        func(ctx context.Context) error
}

// SortAppointments orders newest slot first: date desc, then time desc, then creation desc.
func SortAppointments(list []domain.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// SortUsers orders newest account first.
func SortUsers(list []domain.User) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
