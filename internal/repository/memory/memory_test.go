package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/internal/repository/memory"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	u, err := repo.Create(ctx, &domain.User{Email: "a@x.com", FirstName: "A", Role: domain.RoleRegular})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, &domain.User{Email: "A@X.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	other, err := repo.Create(ctx, &domain.User{Email: "b@x.com"})
	require.NoError(t, err)
	other.Email = "a@x.com"
	_, err = repo.Update(ctx, other)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	other.Email = "c@x.com"
	updated, err := repo.Update(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", updated.Email)
	gone, _ := repo.FindByEmail(ctx, "b@x.com")
	assert.Nil(t, gone)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), repository.ErrNotFound)
}

func appt(user, doctor, date, tm string) *domain.Appointment {
	return &domain.Appointment{
		UserID: user, DoctorName: doctor, Date: date, Time: tm,
		Status: domain.StatusPending,
	}
}

func TestAppointmentSlotUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAppointmentRepository()

	first, err := repo.Create(ctx, appt("u1", "Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, appt("u2", "dr. x", "2025-03-01", "09:00"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	first.Status = domain.StatusCancelled
	_, err = repo.Update(ctx, first)
	require.NoError(t, err)

	second, err := repo.Create(ctx, appt("u2", "Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	slot, err := repo.FindActiveSlot(ctx, "Dr. X", "2025-03-01", "09:00")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, second.ID, slot.ID)

	// reviving the cancelled one would double book
	first.Status = domain.StatusPending
	_, err = repo.Update(ctx, first)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAppointmentListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAppointmentRepository()

	_, _ = repo.Create(ctx, appt("u1", "Dr. A", "2025-01-01", "09:00"))
	_, _ = repo.Create(ctx, appt("u2", "Dr. B", "2025-03-01", "08:00"))
	c, _ := repo.Create(ctx, appt("u1", "Dr. A", "2025-03-01", "10:00"))
	c.Status = domain.StatusConfirmed
	_, _ = repo.Update(ctx, c)

	all, err := repo.List(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "10:00", all[0].Time)
	assert.Equal(t, "08:00", all[1].Time)
	assert.Equal(t, "2025-01-01", all[2].Date)

	confirmed, _ := repo.List(ctx, domain.AppointmentFilter{Status: domain.StatusConfirmed})
	assert.Len(t, confirmed, 1)

	drA, _ := repo.List(ctx, domain.AppointmentFilter{Doctor: "dr. a"})
	assert.Len(t, drA, 2)

	mine, _ := repo.ListByUser(ctx, "u1")
	assert.Len(t, mine, 2)

	none, _ := repo.ListByUser(ctx, "nobody")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAppointmentUpdateOnlyTouchesMutableFields(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAppointmentRepository()

	a, _ := repo.Create(ctx, appt("u1", "Dr. A", "2025-01-01", "09:00"))
	patch := *a
	patch.DoctorName = "Dr. Z"
	patch.Diagnosis = "ok"
	got, err := repo.Update(ctx, &patch)
	require.NoError(t, err)
	assert.Equal(t, "Dr. A", got.DoctorName)
	assert.Equal(t, "ok", got.Diagnosis)

	missing, err := repo.Update(ctx, &domain.Appointment{ID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConcurrentCreateSameSlot(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAppointmentRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, appt("u", "Dr. A", "2025-01-01", "09:00")); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
