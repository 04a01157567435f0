package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/internal/repository/memory"
	"github.com/diagnosis/clinic-bookings/internal/service"
	"github.com/diagnosis/clinic-bookings/pkg/auth"
	"github.com/diagnosis/clinic-bookings/pkg/config"
	"github.com/diagnosis/clinic-bookings/pkg/events"
)

// recordingBus captures published subjects.
type recordingBus struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (b *recordingBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	if b.fail {
		return errors.New("bus down")
	}
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.subjects...)
}

type fixture struct {
	store *repository.Store
	bus   *recordingBus
	auth  service.AuthService
	users service.UserService
	appts service.AppointmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTL = 24 * time.Hour

	hasher := auth.NewBcryptHasher(4)
	store := memory.NewStore()
	bus := &recordingBus{}

	return &fixture{
		store: store,
		bus:   bus,
		auth:  service.NewAuthService(store.Users, hasher, bus, cfg),
		users: service.NewUserService(store.Users, hasher),
		appts: service.NewAppointmentService(store.Appointments, bus),
	}
}

func registerReq(email string) *domain.RegisterRequest {
	return &domain.RegisterRequest{
		LastName: "Dupont", FirstName: "Jean", Phone: "0600000000",
		Email: email, Password: "secret", ConfirmPassword: "secret",
	}
}

func (f *fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), registerReq(email), nil)
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T) *domain.Actor {
	t.Helper()
	require.NoError(t, f.auth.EnsureAdmin(context.Background(), "admin@clinic.test", "adminpw"))
	u, err := f.store.Users.FindByEmail(context.Background(), "admin@clinic.test")
	require.NoError(t, err)
	return &domain.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func actorOf(u *domain.User) *domain.Actor {
	return &domain.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func userCount(t *testing.T, f *fixture) int {
	list, err := f.store.Users.List(context.Background())
	require.NoError(t, err)
	return len(list)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "A@X.com")

	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, domain.RoleRegular, u.Role)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Equal(t, []string{events.UserRegistered}, f.bus.published())
}

func TestRegisterMismatchedPasswordCreatesNothing(t *testing.T) {
	f := newFixture(t)
	req := registerReq("a@x.com")
	req.ConfirmPassword = "different"

	_, err := f.auth.Register(context.Background(), req, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, userCount(t, f))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com")

	_, err := f.auth.Register(context.Background(), registerReq("A@x.com"), nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, userCount(t, f))
}

func TestRegisterAdminRole(t *testing.T) {
	f := newFixture(t)
	req := registerReq("boss@x.com")
	req.Role = domain.RoleAdmin

	_, err := f.auth.Register(context.Background(), req, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req = registerReq("boss@x.com")
	req.Role = domain.RoleAdmin
	u, err := f.auth.Register(context.Background(), req, f.admin(t))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestRegisterSucceedsWhenBusFails(t *testing.T) {
	f := newFixture(t)
	f.bus.fail = true
	f.register(t, "a@x.com")
	assert.Equal(t, 1, userCount(t, f))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "a@x.com")
	ctx := context.Background()

	_, err := f.auth.Login(ctx, &domain.LoginRequest{Email: "nobody@x.com", Password: "secret"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.auth.Login(ctx, &domain.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.auth.Login(ctx, &domain.LoginRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := f.auth.Login(ctx, &domain.LoginRequest{Email: " A@X.COM ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(86400), res.ExpiresIn)
	assert.Equal(t, u.ID, res.User.ID)

	claims, err := auth.Parse(res.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Sub)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	me, err := f.auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@clinic.test", "pw"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@clinic.test", "pw"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "", ""))
	assert.Equal(t, 1, userCount(t, f))
}

func intPtr(i int) *int { return &i }

func bookReq(doctor, date, tm string) *domain.CreateAppointmentRequest {
	return &domain.CreateAppointmentRequest{
		FullName: "Jean Dupont", Email: "a@x.com", Phone: "0600000000",
		Age: intPtr(40), Gender: "male", Service: "cardiologie",
		Date: date, Time: tm, DoctorName: doctor,
	}
}

func TestCreateAndListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))
	b := actorOf(f.register(t, "b@x.com"))

	appt, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, appt.Status)
	assert.Equal(t, a.UserID, appt.UserID)

	_, err = f.appts.Create(ctx, b, bookReq("Dr. Y", "2025-03-02", "10:00"))
	require.NoError(t, err)

	mine, err := f.appts.ListByUser(ctx, a, a.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, appt.ID, mine[0].ID)

	_, err = f.appts.ListByUser(ctx, b, a.UserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.appts.Get(ctx, b, appt.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRejectsDoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))

	_, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	_, err = f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:30"))
	assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	a := actorOf(f.register(t, "a@x.com"))
	req := bookReq("Dr. X", "2025-03-01", "9h")

	_, err := f.appts.Create(context.Background(), a, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.appts.Create(context.Background(), nil, bookReq("Dr. X", "2025-03-01", "09:00"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))
	appt, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	updated, err := f.appts.UpdateStatus(ctx, appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	got, err := f.appts.Get(ctx, a, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	// same state is a no-op and publishes nothing
	before := len(f.bus.published())
	_, err = f.appts.UpdateStatus(ctx, appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Len(t, f.bus.published(), before)

	_, err = f.appts.UpdateStatus(ctx, appt.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.appts.UpdateStatus(ctx, appt.ID, "cancelled")
	require.NoError(t, err)
	_, err = f.appts.UpdateStatus(ctx, appt.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Contains(t, f.bus.published(), events.AppointmentStatusChanged)
}

func TestUpdateStatusUnknownIDMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))
	appt, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	_, err = f.appts.UpdateStatus(ctx, "does-not-exist", "confirmed")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.appts.ListAll(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, appt.ID, all[0].ID)
	assert.Equal(t, domain.StatusPending, all[0].Status)
}

func TestAnnotateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	a := actorOf(f.register(t, "a@x.com"))
	b := actorOf(f.register(t, "b@x.com"))
	appt, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	diag := "Hypertension légère"
	got, err := f.appts.Annotate(ctx, appt.ID, &diag, nil)
	require.NoError(t, err)
	assert.Equal(t, diag, got.Diagnosis)

	status, notes := "confirmed", "revoir dans 3 mois"
	got, err = f.appts.Update(ctx, admin, appt.ID, &domain.UpdateAppointmentRequest{Status: &status, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, diag, got.Diagnosis)

	// owners may only cancel
	_, err = f.appts.Update(ctx, a, appt.ID, &domain.UpdateAppointmentRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancel := "cancelled"
	_, err = f.appts.Update(ctx, b, appt.ID, &domain.UpdateAppointmentRequest{Status: &cancel})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err = f.appts.Update(ctx, a, appt.ID, &domain.UpdateAppointmentRequest{Status: &cancel})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))

	first, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)
	_, err = f.appts.UpdateStatus(ctx, first.ID, "cancelled")
	require.NoError(t, err)

	_, err = f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	assert.NoError(t, err)
}

func TestDeleteAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := actorOf(f.register(t, "a@x.com"))
	appt, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	require.NoError(t, f.appts.Delete(ctx, appt.ID))
	assert.ErrorIs(t, f.appts.Delete(ctx, appt.ID), domain.ErrNotFound)
	assert.Contains(t, f.bus.published(), events.AppointmentDeleted)
}

func TestDeleteUserKeepsAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@x.com")
	a := actorOf(u)
	_, err := f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, u.ID))
	assert.ErrorIs(t, f.users.Delete(ctx, u.ID), domain.ErrNotFound)

	all, err := f.appts.ListAll(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, u.ID, all[0].UserID)
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	u := f.register(t, "a@x.com")
	f.register(t, "b@x.com")
	self := actorOf(u)

	phone := "0700000000"
	got, err := f.users.Update(ctx, self, u.ID, &domain.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, got.Phone)

	role := domain.RoleAdmin
	_, err = f.users.Update(ctx, self, u.ID, &domain.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	taken := "b@x.com"
	_, err = f.users.Update(ctx, self, u.ID, &domain.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	pw := "newpass"
	_, err = f.users.Update(ctx, self, u.ID, &domain.UpdateUserRequest{Password: &pw})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.Update(ctx, self, u.ID, &domain.UpdateUserRequest{Password: &pw, ConfirmPassword: &pw})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, &domain.LoginRequest{Email: "a@x.com", Password: "newpass"})
	assert.NoError(t, err)

	got, err = f.users.Update(ctx, admin, u.ID, &domain.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	_, err = f.users.Update(ctx, admin, "missing", &domain.UpdateUserRequest{Phone: &phone})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	a := f.register(t, "a@x.com")
	b := f.register(t, "b@x.com")

	_, err := f.users.Get(ctx, actorOf(b), a.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.users.Get(ctx, admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	list, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestScenarioBookConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	f.register(t, "a@x.com")

	login, err := f.auth.Login(ctx, &domain.LoginRequest{Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)
	a := &domain.Actor{UserID: login.User.ID, Role: login.User.Role}

	_, err = f.appts.Create(ctx, a, bookReq("Dr. X", "2025-03-01", "09:00"))
	require.NoError(t, err)

	list, err := f.appts.ListAll(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusPending, list[0].Status)

	confirmed := "confirmed"
	_, err = f.appts.Update(ctx, admin, list[0].ID, &domain.UpdateAppointmentRequest{Status: &confirmed})
	require.NoError(t, err)

	list, err = f.appts.ListAll(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, list[0].Status)
}
