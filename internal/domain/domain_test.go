package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/clinic-bookings/internal/domain"
)

func validRegister() domain.RegisterRequest {
	return domain.RegisterRequest{
		LastName:        "dupont",
		FirstName:       "jean-pierre",
		Phone:           " 0600000000 ",
		Email:           "  A@X.com ",
		Password:        "secret",
		ConfirmPassword: "secret",
	}
}

func TestRegisterRequestNormalize(t *testing.T) {
	r := validRegister()
	r.Normalize()

	assert.Equal(t, "Dupont", r.LastName)
	assert.Equal(t, "Jean-Pierre", r.FirstName)
	assert.Equal(t, "0600000000", r.Phone)
	assert.Equal(t, "a@x.com", r.Email)
	assert.NoError(t, r.Validate())
}

func TestRegisterRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RegisterRequest)
		msg    string
	}{
		{"missing last name", func(r *domain.RegisterRequest) { r.LastName = "" }, "lastName is required"},
		{"missing phone", func(r *domain.RegisterRequest) { r.Phone = "" }, "phone is required"},
		{"bad email", func(r *domain.RegisterRequest) { r.Email = "not-an-email" }, "invalid email format"},
		{"email without tld", func(r *domain.RegisterRequest) { r.Email = "a@x" }, "invalid email format"},
		{"mismatch", func(r *domain.RegisterRequest) { r.ConfirmPassword = "other" }, "passwords do not match"},
		{"unknown role", func(r *domain.RegisterRequest) { r.Role = "superuser" }, "role must be one of: admin regular"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegister()
			r.Normalize()
			tt.mutate(&r)

			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var appErr *domain.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	p, c, x := domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled

	assert.True(t, p.CanTransitionTo(c))
	assert.True(t, p.CanTransitionTo(x))
	assert.True(t, c.CanTransitionTo(x))
	assert.True(t, c.CanTransitionTo(p))
	assert.True(t, x.CanTransitionTo(x))

	assert.False(t, x.CanTransitionTo(p))
	assert.False(t, x.CanTransitionTo(c))

	assert.True(t, c.Active())
	assert.False(t, x.Active())
}

func TestParseAppointmentStatus(t *testing.T) {
	st, ok := domain.ParseAppointmentStatus(" Confirmed ")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusConfirmed, st)

	st, ok = domain.ParseAppointmentStatus("en attente")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusPending, st)

	_, ok = domain.ParseAppointmentStatus("done")
	assert.False(t, ok)
}

func intPtr(i int) *int { return &i }

func validAppointment() domain.CreateAppointmentRequest {
	return domain.CreateAppointmentRequest{
		FullName:   "jean dupont",
		Email:      "a@x.com",
		Phone:      "0600000000",
		Age:        intPtr(42),
		Gender:     "Homme",
		Service:    "cardiologie",
		Date:       "2025-03-01",
		Time:       "09:00",
		DoctorName: "Dr. X",
	}
}

func TestCreateAppointmentRequest(t *testing.T) {
	r := validAppointment()
	r.Normalize()
	require.NoError(t, r.Validate())

	a := r.ToAppointment("u1")
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, "Jean Dupont", a.FullName)
	assert.Equal(t, domain.GenderMale, a.Gender)
	assert.Equal(t, domain.StatusPending, a.Status)
	assert.Equal(t, 42, a.Age)
}

func TestCreateAppointmentRequestTrimsISODate(t *testing.T) {
	r := validAppointment()
	r.Date = "2025-03-01T00:00:00.000Z"
	r.Normalize()
	assert.Equal(t, "2025-03-01", r.Date)
	assert.NoError(t, r.Validate())
}

func TestCreateAppointmentRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateAppointmentRequest)
	}{
		{"missing doctor", func(r *domain.CreateAppointmentRequest) { r.DoctorName = "" }},
		{"missing age", func(r *domain.CreateAppointmentRequest) { r.Age = nil }},
		{"negative age", func(r *domain.CreateAppointmentRequest) { r.Age = intPtr(-1) }},
		{"bad date", func(r *domain.CreateAppointmentRequest) { r.Date = "01/03/2025" }},
		{"bad time", func(r *domain.CreateAppointmentRequest) { r.Time = "25:00" }},
		{"unknown gender", func(r *domain.CreateAppointmentRequest) { r.Gender = "robot" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validAppointment()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), domain.ErrValidation)
		})
	}
}

func TestUpdateAppointmentRequest(t *testing.T) {
	diag := "Hypertension"
	r := domain.UpdateAppointmentRequest{Diagnostic: &diag}
	r.Normalize()
	require.NotNil(t, r.Diagnosis)
	assert.Equal(t, "Hypertension", *r.Diagnosis)
	assert.NoError(t, r.Validate())

	empty := domain.UpdateAppointmentRequest{}
	assert.ErrorIs(t, empty.Validate(), domain.ErrValidation)

	bad := "archived"
	assert.ErrorIs(t, (&domain.UpdateAppointmentRequest{Status: &bad}).Validate(), domain.ErrValidation)

	cancel := "cancelled"
	assert.True(t, (&domain.UpdateAppointmentRequest{Status: &cancel}).OnlyCancels())
	assert.False(t, (&domain.UpdateAppointmentRequest{Status: &cancel, Notes: &diag}).OnlyCancels())
}

func TestUpdateUserRequestValidate(t *testing.T) {
	pw, other := "newpass", "different"

	r := domain.UpdateUserRequest{Password: &pw}
	assert.ErrorIs(t, r.Validate(), domain.ErrValidation)

	r.ConfirmPassword = &other
	assert.ErrorIs(t, r.Validate(), domain.ErrValidation)

	r.ConfirmPassword = &pw
	assert.NoError(t, r.Validate())

	bad := "nope"
	assert.ErrorIs(t, (&domain.UpdateUserRequest{Email: &bad}).Validate(), domain.ErrValidation)
	assert.True(t, (&domain.UpdateUserRequest{}).Empty())
}

func TestAppErrorKinds(t *testing.T) {
	cause := errors.New("dup key")
	err := domain.Wrap(domain.ErrConflict, "email already registered", cause)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, domain.NotFound("user not found"), domain.ErrNotFound)
}

func TestCatalogueCopies(t *testing.T) {
	d := domain.Doctors()
	require.NotEmpty(t, d)
	d[0].AvailableSlots[0] = "changed"
	assert.NotEqual(t, "changed", domain.Doctors()[0].AvailableSlots[0])
	assert.NotEmpty(t, domain.Services())
}
