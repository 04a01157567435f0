package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/pkg/events"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

type AppointmentService interface {
	Create(ctx context.Context, actor *domain.Actor, req *domain.CreateAppointmentRequest) (*domain.Appointment, error)
	ListAll(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	ListByUser(ctx context.Context, actor *domain.Actor, userID string) ([]domain.Appointment, error)
	Get(ctx context.Context, actor *domain.Actor, id string) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Appointment, error)
	Annotate(ctx context.Context, id string, diagnosis, notes *string) (*domain.Appointment, error)
	Update(ctx context.Context, actor *domain.Actor, id string, req *domain.UpdateAppointmentRequest) (*domain.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type appointmentService struct {
	apptRepo repository.AppointmentRepository
	eventBus events.Publisher
}

func NewAppointmentService(apptRepo repository.AppointmentRepository, eventBus events.Publisher) AppointmentService {
	return &appointmentService{apptRepo: apptRepo, eventBus: eventBus}
}

var errSlotTaken = domain.Conflict("this doctor is already booked at that date and time")

func (s *appointmentService) Create(ctx context.Context, actor *domain.Actor, req *domain.CreateAppointmentRequest) (*domain.Appointment, error) {
	if actor == nil || actor.UserID == "" {
		return nil, domain.Unauthorized("authentication required")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.apptRepo.FindActiveSlot(ctx, req.DoctorName, req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken != nil {
		return nil, errSlotTaken
	}

	appt, err := s.apptRepo.Create(ctx, req.ToAppointment(actor.UserID))
	if errors.Is(err, repository.ErrDuplicate) {
		// lost the race to a concurrent booking
		return nil, errSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	logger.InfoContext(ctx, "Appointment created",
		"appointment_id", appt.ID, "user_id", appt.UserID, "doctor", appt.DoctorName, "date", appt.Date, "time", appt.Time)

	publish(ctx, s.eventBus, events.AppointmentCreated, events.AppointmentCreatedEvent{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		PatientName:   appt.FullName,
		PatientEmail:  appt.Email,
		Service:       appt.Service,
		DoctorName:    appt.DoctorName,
		Date:          appt.Date,
		Time:          appt.Time,
		CreatedAt:     appt.CreatedAt,
	})

	return appt, nil
}

func (s *appointmentService) ListAll(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	list, err := s.apptRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return list, nil
}

func (s *appointmentService) ListByUser(ctx context.Context, actor *domain.Actor, userID string) ([]domain.Appointment, error) {
	if !actor.CanAccess(userID) {
		return nil, domain.Forbidden("you can only view your own appointments")
	}
	list, err := s.apptRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user appointments: %w", err)
	}
	return list, nil
}

func (s *appointmentService) Get(ctx context.Context, actor *domain.Actor, id string) (*domain.Appointment, error) {
	appt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(appt.UserID) {
		return nil, domain.Forbidden("you can only view your own appointments")
	}
	return appt, nil
}

func (s *appointmentService) find(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.apptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appt == nil {
		return nil, domain.NotFound("appointment not found")
	}
	return appt, nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, id, status string) (*domain.Appointment, error) {
	return s.apply(ctx, id, &domain.UpdateAppointmentRequest{Status: &status})
}

func (s *appointmentService) Annotate(ctx context.Context, id string, diagnosis, notes *string) (*domain.Appointment, error) {
	return s.apply(ctx, id, &domain.UpdateAppointmentRequest{Diagnosis: diagnosis, Notes: notes})
}

// Update is the PATCH entry point. Non-admins may only cancel their own appointment.
func (s *appointmentService) Update(ctx context.Context, actor *domain.Actor, id string, req *domain.UpdateAppointmentRequest) (*domain.Appointment, error) {
	if actor.IsAdmin() {
		return s.apply(ctx, id, req)
	}

	req.Normalize()
	if !req.OnlyCancels() {
		return nil, domain.Forbidden("only an administrator can change this appointment")
	}
	appt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(appt.UserID) {
		return nil, domain.Forbidden("you can only cancel your own appointments")
	}
	return s.apply(ctx, id, req)
}

func (s *appointmentService) apply(ctx context.Context, id string, req *domain.UpdateAppointmentRequest) (*domain.Appointment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	appt, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := appt.Status
	changed := false

	if req.Status != nil {
		next, _ := domain.ParseAppointmentStatus(*req.Status)
		if !prev.CanTransitionTo(next) {
			return nil, domain.Conflict("cannot change status from %s to %s", prev, next)
		}
		if next != prev {
			appt.Status = next
			changed = true
		}
	}
	if req.Diagnosis != nil && *req.Diagnosis != appt.Diagnosis {
		appt.Diagnosis = *req.Diagnosis
		changed = true
	}
	if req.Notes != nil && *req.Notes != appt.Notes {
		appt.Notes = *req.Notes
		changed = true
	}

	if !changed {
		return appt, nil
	}

	updated, err := s.apptRepo.Update(ctx, appt)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	if updated == nil {
		return nil, domain.NotFound("appointment not found")
	}

	if updated.Status != prev {
		logger.InfoContext(ctx, "Appointment status changed",
			"appointment_id", updated.ID, "from", prev, "to", updated.Status)

		publish(ctx, s.eventBus, events.AppointmentStatusChanged, events.AppointmentStatusChangedEvent{
			AppointmentID: updated.ID,
			PatientName:   updated.FullName,
			PatientEmail:  updated.Email,
			DoctorName:    updated.DoctorName,
			Date:          updated.Date,
			Time:          updated.Time,
			From:          string(prev),
			To:            string(updated.Status),
			ChangedAt:     updated.UpdatedAt,
		})
	}

	return updated, nil
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	appt, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	err = s.apptRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound("appointment not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	logger.InfoContext(ctx, "Appointment deleted", "appointment_id", id)

	publish(ctx, s.eventBus, events.AppointmentDeleted, events.AppointmentDeletedEvent{
		AppointmentID: id,
		UserID:        appt.UserID,
		DeletedAt:     time.Now().UTC(),
	})
	return nil
}
